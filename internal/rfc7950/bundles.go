// Package rfc7950 provides the statement supports of the YANG language
// and the phase in which each keyword is declared.
package rfc7950

import (
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/reactor"
)

// Options selects language behaviour.
type Options struct {
	// Features selects supported features; nil supports all of them.
	Features reactor.FeatureSet
	// StrictVersion rejects YANG 1.1 constructs in YANG 1.0 sources.
	StrictVersion bool
}

// Config returns a reactor configuration for YANG sources.
func Config(opts Options) reactor.Config {
	return reactor.Config{
		Bundles:      Bundles(opts),
		Unrecognized: extensionInstanceSupport{reactor.BaseSupport{Name: "extension-instance", Policy: reactor.ContextIndependent}},
		Features:     opts.Features,
	}
}

func base(name string, policy reactor.CopyPolicy) reactor.BaseSupport {
	return reactor.BaseSupport{Name: name, Policy: policy}
}

func property(name string) reactor.BaseSupport {
	return base(name, reactor.ContextIndependent)
}

func schemaNode(name string, config reactor.ConfigMode) reactor.BaseSupport {
	return reactor.BaseSupport{Name: name, Policy: reactor.DeclaredCopy, Config: config, SchemaTree: true}
}

// Bundles returns the supports of each declaration phase.
func Bundles(opts Options) map[phase.Phase]*reactor.Bundle {
	strict := opts.StrictVersion

	preLinkage := reactor.NewBundle(phase.SourcePreLinkage, nil,
		moduleSupport{rootSupport{base("module", reactor.Reject)}},
		submoduleSupport{rootSupport{base("submodule", reactor.Reject)}},
		versionSupport{base("yang-version", reactor.Reject)},
		namespaceSupport{base("namespace", reactor.Reject)},
		identifierSupport{base("prefix", reactor.Reject)},
		belongsToSupport{identifierSupport{base("belongs-to", reactor.Reject)}},
		importSupport{identifierSupport{base("import", reactor.Reject)}},
		includeSupport{identifierSupport{base("include", reactor.Reject)}},
		revisionSupport{base("revision", reactor.Reject)},
		revisionSupport{property("revision-date")},
	)
	linkage := reactor.NewBundle(phase.SourceLinkage, preLinkage)
	definition := reactor.NewBundle(phase.StatementDefinition, linkage,
		definitionSupport{BaseSupport: base("feature", reactor.Reject), ns: Features},
		definitionSupport{BaseSupport: base("identity", reactor.Reject), ns: Identities},
		definitionSupport{BaseSupport: base("extension", reactor.Reject), ns: Extensions},
		identifierSupport{property("argument")},
		baseSupport{property("base")},
	)

	caseNode := dataNodeSupport{BaseSupport: schemaNode("case", reactor.InheritConfig)}
	input := dataNodeSupport{BaseSupport: schemaNode("input", reactor.InheritConfig), fixedName: true}
	output := dataNodeSupport{BaseSupport: schemaNode("output", reactor.InheritConfig), fixedName: true}
	full := reactor.NewBundle(phase.FullDeclaration, definition,
		dataNodeSupport{BaseSupport: schemaNode("container", reactor.InheritConfig)},
		dataNodeSupport{BaseSupport: schemaNode("leaf", reactor.InheritConfig)},
		dataNodeSupport{BaseSupport: schemaNode("leaf-list", reactor.InheritConfig)},
		dataNodeSupport{BaseSupport: schemaNode("anydata", reactor.InheritConfig), gate: since11, strict: strict},
		dataNodeSupport{BaseSupport: schemaNode("anyxml", reactor.InheritConfig)},
		listSupport{dataNodeSupport{BaseSupport: schemaNode("list", reactor.InheritConfig)}},
		choiceSupport{dataNodeSupport: dataNodeSupport{BaseSupport: schemaNode("choice", reactor.InheritConfig)}, caseSupport: caseNode},
		caseNode,
		operationSupport{dataNodeSupport: dataNodeSupport{BaseSupport: schemaNode("rpc", reactor.IgnoreConfig)}, input: input, output: output},
		operationSupport{
			dataNodeSupport: dataNodeSupport{BaseSupport: schemaNode("action", reactor.IgnoreConfig), gate: since11, strict: strict},
			input:           input,
			output:          output,
		},
		input,
		output,
		dataNodeSupport{BaseSupport: schemaNode("notification", reactor.IgnoreConfig), gate: nestedSince11, strict: strict},

		scopedSupport{BaseSupport: reactor.BaseSupport{Name: "grouping", Policy: reactor.ExactReplica, Config: reactor.UndeterminedConfig}, ns: Groupings},
		scopedSupport{BaseSupport: base("typedef", reactor.ExactReplica), ns: Typedefs},
		usesSupport{base("uses", reactor.ExactReplica)},
		refineSupport{base("refine", reactor.Ignore)},
		augmentSupport{base("augment", reactor.Ignore)},
		deviationSupport{base("deviation", reactor.Ignore)},
		deviateSupport{base("deviate", reactor.Ignore)},

		typeSupport{property("type")},
		boolSupport{property(reactor.ConfigKeyword)},
		boolSupport{property("mandatory")},
		boolSupport{property("require-instance")},
		boolSupport{property("yin-element")},
		enumSupport{BaseSupport: property("status"), values: []string{"current", "deprecated", "obsolete"}},
		enumSupport{BaseSupport: property("ordered-by"), values: []string{"system", "user"}},
		keySupport{property("key")},
		uintSupport{property("min-elements")},
		uintSupport{property("max-elements")},
		uintSupport{property("fraction-digits")},
		ifFeatureSupport{BaseSupport: property("if-feature"), strict: strict},
		property("default"),
		property("description"),
		property("reference"),
		property("presence"),
		property("units"),
		property("organization"),
		property("contact"),
		property("when"),
		property("must"),
		property("error-message"),
		property("error-app-tag"),
		property("unique"),
		property("length"),
		property("pattern"),
		property("range"),
		property("path"),
		property("enum"),
		property("bit"),
		property("value"),
		property("position"),
		property("modifier"),
	)
	return map[phase.Phase]*reactor.Bundle{
		phase.SourcePreLinkage:    preLinkage,
		phase.SourceLinkage:       linkage,
		phase.StatementDefinition: definition,
		phase.FullDeclaration:     full,
	}
}

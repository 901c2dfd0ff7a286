// Package dump renders effective modules as structured documents and as
// an indented schema tree.
package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/source"
)

// Format selects the document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatYAML, FormatTOML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown dump format %q", s)
	}
}

// Document is the serializable form of a set of effective modules.
type Document struct {
	Modules []*Module `json:"modules" yaml:"modules" toml:"modules"`
}

// Module is one effective module.
type Module struct {
	Name       string   `json:"name" yaml:"name" toml:"name"`
	Namespace  string   `json:"namespace" yaml:"namespace" toml:"namespace"`
	Prefix     string   `json:"prefix" yaml:"prefix" toml:"prefix"`
	Revision   string   `json:"revision,omitempty" yaml:"revision,omitempty" toml:"revision,omitempty"`
	Submodules []string `json:"submodules,omitempty" yaml:"submodules,omitempty" toml:"submodules,omitempty"`
	Statements []*Node  `json:"statements,omitempty" yaml:"statements,omitempty" toml:"statements,omitempty"`
}

// Node is one effective statement.
type Node struct {
	Keyword  string `json:"keyword" yaml:"keyword" toml:"keyword"`
	Argument string `json:"argument,omitempty" yaml:"argument,omitempty" toml:"argument,omitempty"`
	// Namespace is set when the statement is bound to a module other than
	// its parent's, as augmented nodes are.
	Namespace string   `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Flags     []string `json:"flags,omitempty" yaml:"flags,omitempty" toml:"flags,omitempty"`
	Children  []*Node  `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// NewDocument converts modules into a Document, keeping their order.
func NewDocument(modules []*model.ModuleStatement) *Document {
	doc := &Document{Modules: make([]*Module, 0, len(modules))}
	for _, ms := range modules {
		m := &Module{
			Name:      ms.Name(),
			Namespace: ms.Module().Namespace,
			Prefix:    ms.Prefix(),
			Revision:  ms.Module().Revision,
		}
		for _, sub := range ms.Submodules() {
			m.Submodules = append(m.Submodules, sub.Name())
		}
		for _, sub := range ms.Substatements() {
			m.Statements = append(m.Statements, newNode(sub, ms.Module().Namespace))
		}
		doc.Modules = append(doc.Modules, m)
	}
	return doc
}

func newNode(e model.Effective, parentNS string) *Node {
	n := &Node{Keyword: e.Keyword(), Argument: Argument(e)}
	ns := parentNS
	if q, ok := e.Argument().(qname.QName); ok && q.Module.Namespace != "" && e.Flags().Has(model.FlagSchemaTree) {
		ns = q.Module.Namespace
		if ns != parentNS {
			n.Namespace = ns
		}
	}
	if f := e.Flags().String(); f != "" {
		n.Flags = strings.Split(f, "|")
	}
	for _, sub := range e.Substatements() {
		n.Children = append(n.Children, newNode(sub, ns))
	}
	return n
}

// Argument returns the argument of e as text. The declared form is used
// when there is one.
func Argument(e model.Effective) string {
	if d := e.Declared(); d != nil && d.Keyword() == e.Keyword() {
		return d.RawArgument()
	}
	switch v := e.Argument().(type) {
	case nil:
		return ""
	case string:
		return v
	case qname.QName:
		return v.Local
	case source.Identifier:
		return v.Name
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Encode writes doc to w in format.
func Encode(w io.Writer, format Format, doc *Document) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	default:
		return fmt.Errorf("unknown dump format %q", format)
	}
	return nil
}

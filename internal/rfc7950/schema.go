package rfc7950

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/reactor"
)

var yang11 = mustConstraint(">= 1.1")

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// requireVersion11 rejects what in sources declaring YANG 1.0, which is
// also the default.
func requireVersion11(ctx reactor.Ctx, what string) error {
	v := ctx.Root().Version()
	if v == nil {
		v = version10
	}
	if !yang11.Check(v) {
		return reactor.NewSourceError(ctx, yangerrors.ErrVersion, "%s require yang-version 1.1", what)
	}
	return nil
}

// shorthandKeywords may appear directly under a choice, wrapped in an
// implicit case.
var shorthandKeywords = []string{"anydata", "anyxml", "choice", "container", "leaf", "leaf-list", "list"}

type versionGate uint8

const (
	anyVersion versionGate = iota
	// nestedSince11 statements need 1.1 below the top level.
	nestedSince11
	since11
)

// dataNodeSupport covers statements addressable in the schema tree.
type dataNodeSupport struct {
	reactor.BaseSupport
	gate   versionGate
	strict bool
	// fixedName names statements that take no argument, such as input.
	fixedName bool
}

func (s dataNodeSupport) ParseArgument(ctx reactor.Ctx, raw string) (any, error) {
	if s.fixedName {
		return localName(ctx, s.Name)
	}
	return localName(ctx, raw)
}

func (s dataNodeSupport) OnStatementAdded(ctx reactor.Ctx) error {
	if !s.strict {
		return nil
	}
	switch s.gate {
	case since11:
		return requireVersion11(ctx, s.Name+" statements")
	case nestedSince11:
		if _, top := ctx.Parent().(*reactor.RootCtx); !top {
			return requireVersion11(ctx, "nested "+s.Name+" statements")
		}
	}
	return nil
}

func (s dataNodeSupport) CreateEffective(ctx reactor.Ctx, subs []model.Effective) (model.Effective, error) {
	if err := checkConfig(ctx); err != nil {
		return nil, err
	}
	declared, err := ctx.Declared()
	if err != nil {
		return nil, err
	}
	return model.NewEffective(ctx.Keyword(), ctx.Argument(), declared, s.flags(ctx), subs), nil
}

func (s dataNodeSupport) CopyEffective(copy reactor.Ctx, original model.Effective) (model.Effective, error) {
	if err := checkConfig(copy); err != nil {
		return nil, err
	}
	stmt, ok := original.(*model.EffectiveStatement)
	if !ok {
		return original, nil
	}
	return stmt.Rebind(copy.Argument(), s.flags(copy)), nil
}

func (s dataNodeSupport) flags(ctx reactor.Ctx) model.Flags {
	flags := s.Flags(ctx)
	if v, ok := ctx.FindSubstatementArgument("mandatory"); ok && v == true {
		flags |= model.FlagMandatory
	}
	switch status, _ := stringArg(ctx, "status"); status {
	case "deprecated":
		flags |= model.FlagDeprecated
	case "obsolete":
		flags |= model.FlagObsolete
	}
	return flags
}

// checkConfig rejects config true below a config false parent.
func checkConfig(ctx reactor.Ctx) error {
	v, ok := ctx.FindSubstatementArgument(reactor.ConfigKeyword)
	if !ok || v != true {
		return nil
	}
	if parent := ctx.Parent(); parent != nil && parent.EffectiveConfig() == reactor.EffectiveConfigFalse {
		return reactor.NewSourceError(ctx, yangerrors.ErrConfig,
			"%s %s is config true below a config false node", ctx.Keyword(), ctx.RawArgument())
	}
	return nil
}

type choiceSupport struct {
	dataNodeSupport
	caseSupport reactor.Support
}

func (s choiceSupport) ImplicitParent(_ reactor.Ctx, child reactor.Support) (reactor.Support, bool) {
	if slices.Contains(shorthandKeywords, child.Keyword()) {
		return s.caseSupport, true
	}
	return nil, false
}

// listSupport validates keys once the list content is known.
type listSupport struct{ dataNodeSupport }

func (s listSupport) CreateEffective(ctx reactor.Ctx, subs []model.Effective) (model.Effective, error) {
	e, err := s.dataNodeSupport.CreateEffective(ctx, subs)
	if err != nil {
		return nil, err
	}
	name, _ := ctx.Argument().(qname.QName)
	keys, ok := stringArg(ctx, "key")
	if !ok {
		if ctx.EffectiveConfig() == reactor.EffectiveConfigTrue {
			return nil, reactor.NewSourceError(ctx, yangerrors.ErrInvalidSubstatement,
				"list %s is config true but has no key", name.Local)
		}
		return e, nil
	}
	for _, key := range strings.Fields(keys) {
		_, local, _, err := qname.SplitPrefixed(key)
		if err != nil {
			return nil, reactor.NewSourceError(ctx, yangerrors.ErrInvalidArgument, "list %s: %v", name.Local, err)
		}
		leaf, ok := model.FindSchemaChild(e, qname.New(name.Module, local))
		if !ok || leaf.Keyword() != "leaf" {
			return nil, reactor.NewSourceError(ctx, yangerrors.ErrInvalidArgument,
				"list %s key %s is not a leaf of the list", name.Local, local)
		}
	}
	return e, nil
}

// operationSupport covers rpc and action, which always have an input and
// an output.
type operationSupport struct {
	dataNodeSupport
	input, output reactor.Support
}

func (s operationSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.FullDeclaration {
		return nil
	}
	name, ok := ctx.Argument().(qname.QName)
	if !ok {
		return nil
	}
	var implicit []reactor.Ctx
	for _, io := range []reactor.Support{s.input, s.output} {
		if _, ok := findDeclared(ctx, io.Keyword()); ok {
			continue
		}
		u, err := ctx.CreateUndeclared(io, qname.New(name.Module, io.Keyword()))
		if err != nil {
			return fmt.Errorf("%s %s: %w", s.Name, name.Local, err)
		}
		implicit = append(implicit, u)
	}
	return ctx.AddEffectiveSubstatements(implicit...)
}

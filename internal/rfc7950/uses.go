package rfc7950

import (
	"slices"
	"strings"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/reactor"
)

// copySchemaNodes instantiates the schema tree children of from under
// parent.
func copySchemaNodes(from, parent reactor.Ctx, typ reactor.CopyType, target qname.Module) error {
	var copies []reactor.Ctx
	for _, child := range slices.Concat(from.DeclaredSubstatements(), from.EffectiveSubstatements()) {
		if !child.Support().IsSchemaTree() {
			continue
		}
		cp, err := child.CopyAsChildOf(parent, typ, target)
		if err != nil {
			return err
		}
		if cp != nil {
			copies = append(copies, cp)
		}
	}
	return parent.AddEffectiveSubstatements(copies...)
}

// schemaPath parses an absolute or descendant schema node identifier.
func schemaPath(ctx reactor.Ctx, raw string, absolute bool) ([]qname.QName, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "/") != absolute {
		kind := "descendant"
		if absolute {
			kind = "absolute"
		}
		return nil, reactor.NewSourceError(ctx, yangerrors.ErrInvalidArgument, "%q is not an %s schema node identifier", raw, kind)
	}
	parts := strings.Split(strings.TrimPrefix(trimmed, "/"), "/")
	keys := make([]qname.QName, 0, len(parts))
	for _, part := range parts {
		q, err := resolveQName(ctx, part)
		if err != nil {
			se := reactor.NewSourceError(ctx, yangerrors.ErrInvalidArgument, "invalid schema node identifier %q", raw)
			se.Cause = err
			return nil, se
		}
		keys = append(keys, q)
	}
	return keys, nil
}

type usesSupport struct{ reactor.BaseSupport }

func (usesSupport) ParseArgument(ctx reactor.Ctx, raw string) (any, error) {
	return resolveQName(ctx, raw)
}

// OnDeclared copies the grouping into the parent once the grouping's own
// uses statements have been expanded. Copies are bound to the module the
// uses statement belongs to.
func (usesSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.FullDeclaration || !ctx.IsSupported() {
		return nil
	}
	q, ok := ctx.Argument().(qname.QName)
	if !ok {
		return nil
	}
	own, err := moduleOf(ctx)
	if err != nil {
		return err
	}
	from := ctx
	if q.Module != own {
		root, ok := ModuleRoots.Get(ctx, q.Module)
		if !ok {
			return reactor.NewSourceError(ctx, yangerrors.ErrUnresolved, "module of grouping %s is not imported", q)
		}
		from = root
	}

	m, err := ctx.NewInferenceAction(phase.EffectiveModel)
	if err != nil {
		return err
	}
	grouping := reactor.RequiresKey(m, from, Groupings, q, phase.EffectiveModel)
	target := m.MutatesEffectiveCtx(ctx.Parent())
	return m.Apply(reactor.ActionFuncs{
		ApplyFunc: func() error {
			if !ctx.IsSupported() {
				return nil
			}
			return copySchemaNodes(grouping.Get(), target.Get(), reactor.AddedByUses, own)
		},
		FailedFunc: func([]reactor.Prerequisite) error {
			return reactor.NewInferenceError(ctx, yangerrors.ErrUnresolved, "grouping %s not found", q.Local)
		},
	})
}

// refineReplaces lists the properties a refine overrides rather than adds.
var refineReplaces = []string{
	"config", "default", "description", "mandatory", "max-elements",
	"min-elements", "presence", "reference", "units",
}

type refineSupport struct{ reactor.BaseSupport }

// CarriesFeatures reports that if-feature statements of a refine apply to
// its target.
func (refineSupport) CarriesFeatures() bool { return true }

func (refineSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.FullDeclaration || !ctx.IsSupported() {
		return nil
	}
	uses := ctx.Parent()
	keys, err := schemaPath(ctx, ctx.RawArgument(), false)
	if err != nil {
		return err
	}
	m, err := ctx.NewInferenceAction(phase.EffectiveModel)
	if err != nil {
		return err
	}
	target := reactor.MutatesEffectiveCtxPath(m, uses.Parent(), reactor.SchemaTree, keys)
	return m.Apply(refineAction{ctx: ctx, target: target})
}

type refineAction struct {
	ctx    reactor.Ctx
	target *reactor.Prereq[reactor.Ctx]
}

func (a refineAction) Apply() error {
	node := a.target.Get()
	for _, prop := range a.ctx.DeclaredSubstatements() {
		if gate, ok := prop.Support().(reactor.FeatureGate); ok && !gate.Enabled(prop) {
			node.SetUnsupported()
			return nil
		}
		kw := prop.Keyword()
		if slices.Contains(refineReplaces, kw) {
			if err := node.RemoveEffectiveSubstatements(func(c reactor.Ctx) bool { return c.Keyword() == kw }); err != nil {
				return err
			}
		}
		if err := addProperty(node, prop, reactor.AddedByUses); err != nil {
			return err
		}
	}
	return nil
}

func (a refineAction) PrerequisiteFailed([]reactor.Prerequisite) error {
	return reactor.NewInferenceError(a.ctx, yangerrors.ErrUnresolved, "refine target %s not found", a.ctx.RawArgument())
}

// PrerequisiteUnavailable ignores refines of nodes left out by if-feature.
func (refineAction) PrerequisiteUnavailable(reactor.Prerequisite) error { return nil }

func addProperty(node, prop reactor.Ctx, typ reactor.CopyType) error {
	cp, err := prop.CopyAsChildOf(node, typ, qname.Module{})
	if err != nil || cp == nil {
		return err
	}
	return node.AddEffectiveSubstatements(cp)
}

package rfc7950

import (
	"fmt"
	"slices"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/reactor"
)

// augmentTargets lists the keywords an augment may extend.
var augmentTargets = []string{"action", "case", "choice", "container", "input", "list", "notification", "output"}

// schemaTarget resolves an absolute schema node identifier to the root it
// starts from and its path.
func schemaTarget(ctx reactor.Ctx) (reactor.Ctx, []qname.QName, error) {
	keys, err := schemaPath(ctx, ctx.RawArgument(), true)
	if err != nil {
		return nil, nil, err
	}
	root, ok := ModuleRoots.Get(ctx, keys[0].Module)
	if !ok {
		return nil, nil, reactor.NewSourceError(ctx, yangerrors.ErrUnresolved, "module of %s target %s is not imported",
			ctx.Keyword(), ctx.RawArgument())
	}
	return root, keys, nil
}

type augmentSupport struct{ reactor.BaseSupport }

// OnDeclared extends the target with copies of the augment's schema
// nodes. Top-level augments take absolute paths; augments below uses take
// paths relative to the uses parent.
func (augmentSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.FullDeclaration || !ctx.IsSupported() {
		return nil
	}
	var (
		start reactor.Ctx
		keys  []qname.QName
		typ   = reactor.AddedByAugmentation
		err   error
	)
	if parent := ctx.Parent(); parent.Keyword() == "uses" {
		if !parent.IsSupported() {
			return nil
		}
		keys, err = schemaPath(ctx, ctx.RawArgument(), false)
		start, typ = parent.Parent(), reactor.AddedByUsesAugmentation
	} else {
		start, keys, err = schemaTarget(ctx)
	}
	if err != nil {
		return err
	}

	m, err := ctx.NewInferenceAction(phase.EffectiveModel)
	if err != nil {
		return err
	}
	// uses statements inside the augment expand into it first
	m.RequiresCtx(ctx, phase.EffectiveModel)
	target := reactor.MutatesEffectiveCtxPath(m, start, reactor.SchemaTree, keys)
	return m.Apply(augmentAction{ctx: ctx, target: target, typ: typ})
}

type augmentAction struct {
	ctx    reactor.Ctx
	target *reactor.Prereq[reactor.Ctx]
	typ    reactor.CopyType
}

func (a augmentAction) Apply() error {
	node := a.target.Get()
	if !slices.Contains(augmentTargets, node.Keyword()) {
		return reactor.NewSourceError(a.ctx, yangerrors.ErrInvalidArgument,
			"augment target %s is a %s", a.ctx.RawArgument(), node.Keyword())
	}
	return copySchemaNodes(a.ctx, node, a.typ, qname.Module{})
}

func (a augmentAction) PrerequisiteFailed([]reactor.Prerequisite) error {
	return reactor.NewInferenceError(a.ctx, yangerrors.ErrUnresolved, "augment target %s not found", a.ctx.RawArgument())
}

// PrerequisiteUnavailable ignores augments of nodes left out by if-feature
// or deviations.
func (augmentAction) PrerequisiteUnavailable(reactor.Prerequisite) error { return nil }

// deviateKinds are the arguments of deviate.
var deviateKinds = []string{"add", "delete", "not-supported", "replace"}

// singleValued lists properties a deviate add may not duplicate.
var singleValued = []string{"config", "default", "mandatory", "max-elements", "min-elements", "units"}

type deviateSupport struct{ reactor.BaseSupport }

func (deviateSupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	if !slices.Contains(deviateKinds, raw) {
		return nil, fmt.Errorf("unknown deviate %q", raw)
	}
	return raw, nil
}

type deviationSupport struct{ reactor.BaseSupport }

func (deviationSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.FullDeclaration || !ctx.IsSupported() {
		return nil
	}
	root, keys, err := schemaTarget(ctx)
	if err != nil {
		return err
	}
	m, err := ctx.NewInferenceAction(phase.EffectiveModel)
	if err != nil {
		return err
	}
	target := reactor.MutatesEffectiveCtxPath(m, root, reactor.SchemaTree, keys)
	return m.Apply(deviationAction{ctx: ctx, target: target})
}

type deviationAction struct {
	ctx    reactor.Ctx
	target *reactor.Prereq[reactor.Ctx]
}

func (a deviationAction) Apply() error {
	node := a.target.Get()
	for _, deviate := range a.ctx.DeclaredSubstatements() {
		if deviate.Keyword() != "deviate" {
			continue
		}
		if err := a.apply(node, deviate); err != nil {
			return err
		}
		if !node.IsSupported() {
			return nil
		}
	}
	return nil
}

func (a deviationAction) apply(node, deviate reactor.Ctx) error {
	kind, _ := deviate.Argument().(string)
	if kind == "not-supported" {
		node.SetUnsupported()
		if parent := node.Parent(); parent != nil {
			return parent.RemoveEffectiveSubstatements(func(c reactor.Ctx) bool { return c == node })
		}
		return nil
	}
	for _, prop := range deviate.DeclaredSubstatements() {
		kw := prop.Keyword()
		switch kind {
		case "add":
			if _, exists := node.FindSubstatementArgument(kw); exists && slices.Contains(singleValued, kw) {
				return reactor.NewSourceError(prop, yangerrors.ErrInvalidSubstatement,
					"deviation target %s already has %s", a.ctx.RawArgument(), kw)
			}
		case "replace":
			if err := node.RemoveEffectiveSubstatements(func(c reactor.Ctx) bool { return c.Keyword() == kw }); err != nil {
				return err
			}
		case "delete":
			raw := prop.RawArgument()
			if err := node.RemoveEffectiveSubstatements(func(c reactor.Ctx) bool {
				return c.Keyword() == kw && c.RawArgument() == raw
			}); err != nil {
				return err
			}
			continue
		}
		if err := addProperty(node, prop, reactor.Original); err != nil {
			return err
		}
	}
	return nil
}

func (a deviationAction) PrerequisiteFailed([]reactor.Prerequisite) error {
	return reactor.NewInferenceError(a.ctx, yangerrors.ErrUnresolved, "deviation target %s not found", a.ctx.RawArgument())
}

func (deviationAction) PrerequisiteUnavailable(reactor.Prerequisite) error { return nil }

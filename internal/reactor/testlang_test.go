package reactor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/source"
)

// A small statement language exercising the reactor:
//
//	module NAME { container|leaf|grouping|uses|augment|description|config|if-feature }
var testGroupings = namespace.New[string, Ctx]("test-grouping", namespace.TreeScoped)

func moduleOf(ctx Ctx) qname.Module {
	return qname.Module{Namespace: "urn:" + ctx.Root().RawArgument()}
}

type schemaNodeSupport struct{ BaseSupport }

func (s schemaNodeSupport) ParseArgument(ctx Ctx, raw string) (any, error) {
	if !qname.IsIdentifier(raw) {
		return nil, fmt.Errorf("%q is not an identifier", raw)
	}
	return qname.New(moduleOf(ctx), raw), nil
}

type groupingSupport struct{ BaseSupport }

func (groupingSupport) OnDeclared(p phase.Phase, ctx Ctx) error {
	if p != phase.FullDeclaration {
		return nil
	}
	return testGroupings.Put(ctx.Parent(), ctx.RawArgument(), ctx)
}

type usesSupport struct{ BaseSupport }

func (usesSupport) OnDeclared(p phase.Phase, ctx Ctx) error {
	if p != phase.FullDeclaration {
		return nil
	}
	m, err := ctx.NewInferenceAction(phase.EffectiveModel)
	if err != nil {
		return err
	}
	grp := RequiresKey(m, ctx, testGroupings, ctx.RawArgument(), phase.EffectiveModel)
	target := m.MutatesEffectiveCtx(ctx.Parent())
	return m.Apply(ActionFuncs{ApplyFunc: func() error {
		parent := target.Get()
		mod, _ := SchemaChildModule(parent)
		return copyInto(grp.Get(), parent, AddedByUses, mod)
	}})
}

func copyInto(from, parent Ctx, typ CopyType, target qname.Module) error {
	var copies []Ctx
	for _, child := range append(from.DeclaredSubstatements(), from.EffectiveSubstatements()...) {
		c, err := child.CopyAsChildOf(parent, typ, target)
		if err != nil {
			return err
		}
		if c != nil {
			copies = append(copies, c)
		}
	}
	return parent.AddEffectiveSubstatements(copies...)
}

type augmentSupport struct{ BaseSupport }

type augmentAction struct {
	ctx    Ctx
	target *Prereq[Ctx]
}

func (a augmentAction) Apply() error {
	return copyInto(a.ctx, a.target.Get(), AddedByAugmentation, qname.Module{})
}

func (a augmentAction) PrerequisiteFailed([]Prerequisite) error {
	return NewInferenceError(a.ctx, yangerrors.ErrUnresolved, "augment target %s not found", a.ctx.RawArgument())
}

func (a augmentAction) PrerequisiteUnavailable(Prerequisite) error { return nil }

func (augmentSupport) OnDeclared(p phase.Phase, ctx Ctx) error {
	if p != phase.FullDeclaration {
		return nil
	}
	var keys []qname.QName
	for _, part := range strings.Split(strings.Trim(ctx.RawArgument(), "/"), "/") {
		keys = append(keys, qname.New(moduleOf(ctx), part))
	}
	m, err := ctx.NewInferenceAction(phase.EffectiveModel)
	if err != nil {
		return err
	}
	target := MutatesEffectiveCtxPath(m, ctx.Root(), SchemaTree, keys)
	return m.Apply(augmentAction{ctx: ctx, target: target})
}

type configSupport struct{ BaseSupport }

func (configSupport) ParseArgument(_ Ctx, raw string) (any, error) { return strconv.ParseBool(raw) }

type ifFeatureSupport struct{ BaseSupport }

func (ifFeatureSupport) Enabled(ctx Ctx) bool {
	return ctx.Root().Features().Supports(ctx.Root().RawArgument(), ctx.RawArgument())
}

// testBundles declares the module statement first and everything else in
// the full declaration pass.
func testBundles() map[phase.Phase]*Bundle {
	pre := NewBundle(phase.SourcePreLinkage, nil, BaseSupport{Name: "module", Policy: Reject})
	full := NewBundle(phase.FullDeclaration, pre,
		schemaNodeSupport{BaseSupport{Name: "container", Policy: DeclaredCopy, SchemaTree: true}},
		schemaNodeSupport{BaseSupport{Name: "leaf", Policy: DeclaredCopy, SchemaTree: true}},
		groupingSupport{BaseSupport{Name: "grouping", Policy: ExactReplica, Config: UndeterminedConfig}},
		usesSupport{BaseSupport{Name: "uses", Policy: Ignore}},
		augmentSupport{BaseSupport{Name: "augment", Policy: Ignore}},
		BaseSupport{Name: "description", Policy: ContextIndependent},
		BaseSupport{Name: "type", Policy: ContextIndependent},
		configSupport{BaseSupport{Name: ConfigKeyword, Policy: ContextIndependent}},
		ifFeatureSupport{BaseSupport{Name: "if-feature", Policy: ContextIndependent}},
	)
	return map[phase.Phase]*Bundle{
		phase.SourcePreLinkage: pre,
		phase.FullDeclaration:  full,
	}
}

// st builds a statement; nested statements follow the argument.
func st(keyword, argument string, subs ...*source.Statement) *source.Statement {
	return &source.Statement{Keyword: keyword, Argument: argument, Substatements: subs,
		Ref: source.Ref{Path: "test.yang", Line: 1, Column: 1}}
}

func mod(name string, subs ...*source.Statement) source.StreamSource {
	return &source.Tree{ID: source.Identifier{Name: name}, Root: st("module", name, subs...)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{Bundles: testBundles(), Logger: discardLogger(), BuildID: "test"}
}

func mustBuild(t *testing.T, cfg Config, sources ...source.StreamSource) *Result {
	t.Helper()
	res, err := Build(context.Background(), cfg, sources...)
	require.NoError(t, err)
	return res
}

func named(e model.Effective, local string) bool {
	switch v := e.Argument().(type) {
	case qname.QName:
		return v.Local == local
	case string:
		return v == local
	default:
		return false
	}
}

func child(t *testing.T, e model.Effective, local string) model.Effective {
	t.Helper()
	for _, sub := range e.Substatements() {
		if named(sub, local) {
			return sub
		}
	}
	require.Failf(t, "missing child", "%s has no child %s", e.Keyword(), local)
	return nil
}

func hasChild(e model.Effective, local string) bool {
	for _, sub := range e.Substatements() {
		if named(sub, local) {
			return true
		}
	}
	return false
}

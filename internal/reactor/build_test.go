package reactor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/source"
)

type captureSupport struct {
	BaseSupport
	seen *[]Ctx
}

func (s captureSupport) OnStatementAdded(ctx Ctx) error {
	*s.seen = append(*s.seen, ctx)
	return nil
}

func configWith(extra ...Support) Config {
	cfg := testConfig()
	full := cfg.Bundles[phase.FullDeclaration]
	cfg.Bundles[phase.FullDeclaration] = NewBundle(phase.FullDeclaration, full, extra...)
	return cfg
}

func render(e model.Effective) string {
	var b strings.Builder
	var walk func(e model.Effective, depth int)
	walk = func(e model.Effective, depth int) {
		fmt.Fprintf(&b, "%s%s %v %s\n", strings.Repeat("  ", depth), e.Keyword(), e.Argument(), e.Flags())
		for _, sub := range e.Substatements() {
			walk(sub, depth+1)
		}
	}
	walk(e, 0)
	return b.String()
}

func TestBuildDeclaredAndEffective(t *testing.T) {
	res := mustBuild(t, testConfig(), mod("m",
		st("container", "c",
			st("leaf", "l", st("description", "a leaf")),
		),
	))

	require.Len(t, res.Declared, 1)
	require.Len(t, res.Effective, 1)
	assert.Equal(t, "test", res.BuildID)
	assert.Equal(t, "module", res.Declared[0].Keyword())
	assert.Equal(t, "m", res.Declared[0].RawArgument())

	c := child(t, res.Effective[0], "c")
	l := child(t, c, "l")
	assert.True(t, l.Flags().Has(model.FlagSchemaTree|model.FlagConfigTrue))
	desc, ok := model.FindArgument[string](l, "description")
	require.True(t, ok)
	assert.Equal(t, "a leaf", desc)
	assert.Same(t, res.Declared[0].Substatements()[0], c.Declared())
	assert.Equal(t, 4, res.Stats.Statements)
}

func TestUsesCopiesAreInterned(t *testing.T) {
	res := mustBuild(t, testConfig(), mod("m",
		st("grouping", "g", st("leaf", "x", st("type", "string"))),
		st("container", "a", st("uses", "g")),
		st("container", "b", st("uses", "g")),
		st("container", "off", st("config", "false"), st("uses", "g")),
	))
	root := res.Effective[0]

	ax := child(t, child(t, root, "a"), "x")
	bx := child(t, child(t, root, "b"), "x")
	offx := child(t, child(t, root, "off"), "x")
	gx := child(t, child(t, root, "g"), "x")

	assert.True(t, ax.Flags().Has(model.FlagAddedByUses))
	assert.Same(t, ax, bx, "equal copies share one effective statement")
	assert.NotSame(t, ax, gx)
	assert.NotSame(t, ax, offx)
	assert.True(t, offx.Flags().Has(model.FlagConfigFalse))
	assert.Equal(t, gx.Substatements(), ax.Substatements(), "copies share context independent substatements")
	assert.Positive(t, res.Stats.Actions)
}

func TestUsesBeforeGrouping(t *testing.T) {
	res := mustBuild(t, testConfig(), mod("m",
		st("container", "a", st("uses", "g")),
		st("grouping", "g", st("leaf", "x")),
	))
	child(t, child(t, res.Effective[0], "a"), "x")
}

func TestNestedUses(t *testing.T) {
	res := mustBuild(t, testConfig(), mod("m",
		st("grouping", "inner", st("leaf", "x")),
		st("grouping", "outer", st("container", "box", st("uses", "inner"))),
		st("container", "top", st("uses", "outer")),
	))
	box := child(t, child(t, res.Effective[0], "top"), "box")
	x := child(t, box, "x")
	assert.True(t, x.Flags().Has(model.FlagAddedByUses))
}

func TestUnresolvedUsesStallsEffectiveModel(t *testing.T) {
	_, err := Build(context.Background(), testConfig(),
		mod("m", st("container", "c", st("uses", "missing"))),
		mod("n", st("container", "d", st("uses", "absent"))),
	)
	require.Error(t, err)

	re, ok := yangerrors.AsReactor(err)
	require.True(t, ok)
	assert.Equal(t, phase.EffectiveModel.String(), re.Phase)
	assert.Equal(t, "m", re.Source)
	require.Len(t, re.Suppressed, 1)
	assert.True(t, yangerrors.HasCode(re.Cause, yangerrors.ErrUnresolved))
	assert.True(t, yangerrors.HasCode(re.Suppressed[0], yangerrors.ErrUnresolved))
	assert.False(t, yangerrors.HasCode(err, yangerrors.ErrPhaseStalled))
	assert.ErrorContains(t, re.Cause, "missing")
	assert.ErrorContains(t, re.Suppressed[0], "absent")
	assert.Contains(t, err.Error(), "EffectiveModel")
}

func TestIfFeatureExcludesFromEffectiveOnly(t *testing.T) {
	cfg := testConfig()
	cfg.Features = NewFeatureSet("m:on")
	res := mustBuild(t, cfg, mod("m",
		st("container", "disabled", st("if-feature", "off")),
		st("container", "enabled", st("if-feature", "on")),
	))

	assert.False(t, hasChild(res.Effective[0], "disabled"))
	assert.True(t, hasChild(res.Effective[0], "enabled"))
	assert.Len(t, res.Declared[0].Substatements(), 2)
}

func TestUnsupportedSubtreeDropsPendingActions(t *testing.T) {
	tests := []struct {
		name string
		body *source.Statement
	}{
		{
			name: "gate before uses",
			body: st("container", "c", st("if-feature", "off"), st("container", "d", st("uses", "missing"))),
		},
		{
			name: "gate after uses",
			body: st("container", "c", st("container", "d", st("uses", "missing")), st("if-feature", "off")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Features = NewFeatureSet()
			res := mustBuild(t, cfg, mod("m", tt.body, st("leaf", "kept")))

			assert.False(t, hasChild(res.Effective[0], "c"))
			assert.True(t, hasChild(res.Effective[0], "kept"))
			require.Len(t, res.Declared[0].Substatements(), 2)
			c := res.Declared[0].Substatements()[0]
			assert.Equal(t, "c", c.RawArgument())
			assert.Len(t, c.Substatements(), 2, "declared view keeps the disabled subtree")
		})
	}
}

func TestPhaseCompletionIsIdempotent(t *testing.T) {
	tr := newTestTree(phase.FullDeclaration)
	tr.src.inProgress = phase.EffectiveModel

	m, err := tr.b.NewInferenceAction(phase.EffectiveModel)
	require.NoError(t, err)
	req := m.RequiresCtx(tr.b, phase.EffectiveModel)
	m.MutatesEffectiveCtx(tr.a)
	var calls int
	require.NoError(t, m.Apply(ActionFuncs{ApplyFunc: func() error {
		calls++
		return nil
	}}))
	assert.False(t, req.Done())

	ok, err := tryToCompletePhase(tr.root, phase.EffectiveModel)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, calls)
	events, actions := tr.build.events, tr.build.stats.actions

	for range 2 {
		ok, err = tryToCompletePhase(tr.root, phase.EffectiveModel)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, events, tr.build.events)
	assert.Equal(t, actions, tr.build.stats.actions)
	for _, n := range []Ctx{tr.root, tr.a, tr.b} {
		assert.Equal(t, phase.EffectiveModel, n.CompletedPhase(), Describe(n))
		assert.Empty(t, n.state().mutations, Describe(n))
	}
}

func TestAugmentThroughCopies(t *testing.T) {
	res := mustBuild(t, testConfig(), mod("m",
		st("grouping", "g", st("container", "inner", st("leaf", "x"))),
		st("container", "c", st("uses", "g")),
		st("augment", "/c/inner", st("leaf", "y")),
		st("augment", "/c/inner/x", st("description", "augmented")),
	))

	inner := child(t, child(t, res.Effective[0], "c"), "inner")
	x := child(t, inner, "x")
	y := child(t, inner, "y")
	assert.True(t, y.Flags().Has(model.FlagAugmenting))
	assert.True(t, x.Flags().Has(model.FlagAddedByUses))
	desc, ok := model.FindArgument[string](x, "description")
	require.True(t, ok)
	assert.Equal(t, "augmented", desc)

	gx := child(t, child(t, child(t, res.Effective[0], "g"), "inner"), "x")
	_, ok = model.FindArgument[string](gx, "description")
	assert.False(t, ok, "augmenting a copy leaves the grouping alone")
}

func TestAugmentUnavailableTargetIsIgnored(t *testing.T) {
	cfg := testConfig()
	cfg.Features = NewFeatureSet()
	res := mustBuild(t, cfg, mod("m",
		st("container", "c", st("if-feature", "f")),
		st("augment", "/c", st("leaf", "z")),
	))
	assert.False(t, hasChild(res.Effective[0], "c"))
}

func TestAugmentMissingTargetFails(t *testing.T) {
	_, err := Build(context.Background(), testConfig(), mod("m",
		st("augment", "/nowhere", st("leaf", "z")),
	))
	require.Error(t, err)
	assert.True(t, yangerrors.HasCode(err, yangerrors.ErrUnresolved))
}

func TestDeclarationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  source.StreamSource
		code yangerrors.ErrorCode
	}{
		{
			name: "unknown statement",
			src:  mod("m", st("bogus", "x")),
			code: yangerrors.ErrUnknownStatement,
		},
		{
			name: "duplicate schema node",
			src:  mod("m", st("container", "c"), st("leaf", "c")),
			code: yangerrors.ErrDuplicate,
		},
		{
			name: "invalid argument",
			src:  mod("m", st("container", "c", st("config", "maybe"))),
			code: yangerrors.ErrInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(context.Background(), testConfig(), tt.src)
			require.Error(t, err)
			re, ok := yangerrors.AsReactor(err)
			require.True(t, ok)
			assert.Equal(t, phase.FullDeclaration.String(), re.Phase)
			assert.True(t, yangerrors.HasCode(err, tt.code), err.Error())
		})
	}
}

func TestUnrecognizedExtensionKeyword(t *testing.T) {
	cfg := testConfig()
	cfg.Unrecognized = BaseSupport{Name: "extension-instance", Policy: Ignore}
	res := mustBuild(t, cfg, mod("m", st("ex:note", "hello")))
	require.Len(t, res.Declared[0].Substatements(), 1)
	assert.Equal(t, "ex:note", res.Declared[0].Substatements()[0].Keyword())

	_, err := Build(context.Background(), testConfig(), mod("m", st("ex:note", "hello")))
	assert.True(t, yangerrors.HasCode(err, yangerrors.ErrUnknownStatement))
}

func TestEffectiveSubstatementsFrozenAfterBuild(t *testing.T) {
	var seen []Ctx
	cfg := configWith(captureSupport{BaseSupport: BaseSupport{Name: "anchor", Policy: Ignore}, seen: &seen})
	mustBuild(t, cfg, mod("m", st("container", "c", st("anchor", ""))))
	require.Len(t, seen, 1)

	parent := seen[0].Parent()
	assert.Equal(t, phase.EffectiveModel, parent.CompletedPhase())
	err := parent.AddEffectiveSubstatements(seen[0])
	assert.True(t, yangerrors.HasCode(err, yangerrors.ErrSealed))
	err = parent.RemoveEffectiveSubstatements(func(Ctx) bool { return true })
	assert.True(t, yangerrors.HasCode(err, yangerrors.ErrSealed))
	_, err = parent.NewInferenceAction(phase.EffectiveModel)
	assert.Error(t, err)
}

func TestBuildIsDeterministic(t *testing.T) {
	sources := func() []source.StreamSource {
		return []source.StreamSource{
			mod("m",
				st("grouping", "g", st("container", "inner", st("leaf", "x"))),
				st("container", "c", st("uses", "g")),
				st("augment", "/c/inner", st("leaf", "y")),
			),
			mod("n", st("leaf", "solo")),
		}
	}
	first := mustBuild(t, testConfig(), sources()...)
	second := mustBuild(t, testConfig(), sources()...)
	require.Len(t, second.Effective, 2)
	for i := range first.Effective {
		assert.Equal(t, render(first.Effective[i]), render(second.Effective[i]))
	}
	assert.Equal(t, first.Stats, second.Stats)
}

func TestBuildSweepsStatements(t *testing.T) {
	res := mustBuild(t, testConfig(), mod("m",
		st("grouping", "g", st("leaf", "x")),
		st("container", "a", st("uses", "g")),
	))
	assert.Positive(t, res.Stats.Swept)
	assert.LessOrEqual(t, res.Stats.Swept, res.Stats.Statements)
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, testConfig(), mod("m"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildRequiresSources(t *testing.T) {
	_, err := Build(context.Background(), testConfig())
	assert.Error(t, err)
}

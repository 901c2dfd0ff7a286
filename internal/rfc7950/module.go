package rfc7950

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/graphcycle"
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/reactor"
	"github.com/jacoelho/yang/internal/source"
)

var (
	version10 = semver.MustParse("1.0.0")
	version11 = semver.MustParse("1.1.0")
)

// rootSupport is shared by module and submodule.
type rootSupport struct {
	reactor.BaseSupport
}

func (rootSupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	return identifier(raw)
}

// declareRoot records the version and identifier of the source.
func declareRoot(ctx reactor.Ctx) source.Identifier {
	root := ctx.Root()
	if v, ok := ctx.FindSubstatementArgument("yang-version"); ok {
		if ver, ok := v.(*semver.Version); ok {
			root.SetVersion(ver)
		}
	}
	id := source.Identifier{Name: root.RawArgument(), Revision: latestRevision(ctx)}
	root.SetIdentifier(id)
	return id
}

// CreateEffective wraps the root with its module identity and attaches
// the submodules it includes. Schema nodes of included submodules become
// schema nodes of the module.
func (s rootSupport) CreateEffective(ctx reactor.Ctx, subs []model.Effective) (model.Effective, error) {
	declared, err := ctx.Declared()
	if err != nil {
		return nil, err
	}
	mod, err := moduleOf(ctx)
	if err != nil {
		return nil, err
	}
	prefix, _ := stringArg(ctx, "prefix")
	if belongs, ok := findDeclared(ctx, "belongs-to"); ok {
		prefix, _ = stringArg(belongs, "prefix")
	}
	var included []*model.ModuleStatement
	for _, inc := range ctx.Root().Included() {
		if inc.Keyword() != "submodule" {
			continue
		}
		e, err := inc.Effective()
		if err != nil {
			return nil, fmt.Errorf("include %s: %w", inc.RawArgument(), err)
		}
		sub, ok := e.(*model.ModuleStatement)
		if !ok {
			continue
		}
		subs = append(subs, model.SchemaChildren(sub)...)
		included = append(included, sub)
	}
	ms := model.NewModule(model.NewEffective(ctx.Keyword(), ctx.Argument(), declared, s.Flags(ctx), subs), mod, prefix)
	for _, sub := range included {
		if err := ms.AddSubmodule(sub); err != nil {
			return nil, err
		}
	}
	ctx.AddMutableStatement(ms)
	return ms, nil
}

type moduleSupport struct{ rootSupport }

func (moduleSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.SourcePreLinkage {
		return nil
	}
	ns, ok := stringArg(ctx, "namespace")
	if !ok {
		return reactor.NewSourceError(ctx, yangerrors.ErrInvalidSubstatement, "module %s has no namespace", ctx.RawArgument())
	}
	prefix, ok := stringArg(ctx, "prefix")
	if !ok {
		return reactor.NewSourceError(ctx, yangerrors.ErrInvalidSubstatement, "module %s has no prefix", ctx.RawArgument())
	}
	id := declareRoot(ctx)
	mod := qname.Module{Namespace: ns, Revision: id.Revision}
	if err := sourceModules.Put(ctx, sourceKey{}, mod); err != nil {
		return err
	}
	if err := bindPrefix(ctx, prefix, mod); err != nil {
		return err
	}
	if err := register(Modules, ctx, id); err != nil {
		return err
	}
	if err := register(ModuleRoots, ctx, mod); err != nil {
		return err
	}
	ctx.Root().Logger().Debug("module declared", "module", id.String(), "namespace", ns)
	return nil
}

type submoduleSupport struct{ rootSupport }

func (submoduleSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.SourcePreLinkage {
		return nil
	}
	if _, ok := findDeclared(ctx, "belongs-to"); !ok {
		return reactor.NewSourceError(ctx, yangerrors.ErrInvalidSubstatement, "submodule %s has no belongs-to", ctx.RawArgument())
	}
	return register(Submodules, ctx, declareRoot(ctx))
}

type versionSupport struct{ reactor.BaseSupport }

func (versionSupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, err
	}
	if !v.Equal(version10) && !v.Equal(version11) {
		return nil, fmt.Errorf("unsupported yang-version %s", raw)
	}
	return v, nil
}

type namespaceSupport struct{ reactor.BaseSupport }

func (namespaceSupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty namespace")
	}
	return raw, nil
}

type identifierSupport struct{ reactor.BaseSupport }

func (identifierSupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	return identifier(raw)
}

type revisionSupport struct{ reactor.BaseSupport }

func (revisionSupport) ParseArgument(_ reactor.Ctx, raw string) (any, error) {
	if err := qname.ValidateRevision(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// importSupport binds the import prefix to the latest matching module
// once every source declared its identity.
type importSupport struct{ identifierSupport }

func (importSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.SourceLinkage {
		return nil
	}
	prefix, ok := stringArg(ctx, "prefix")
	if !ok {
		return reactor.NewSourceError(ctx, yangerrors.ErrInvalidSubstatement, "import %s has no prefix", ctx.RawArgument())
	}
	revision, _ := stringArg(ctx, "revision-date")
	want := source.Identifier{Name: ctx.RawArgument(), Revision: revision}

	m, err := ctx.NewInferenceAction(phase.SourceLinkage)
	if err != nil {
		return err
	}
	imported := reactor.RequiresMatch(m, ctx, Modules, revisionCriterion(want), phase.SourcePreLinkage, want.String())
	return m.Apply(reactor.ActionFuncs{
		ApplyFunc: func() error {
			mod, err := moduleOf(imported.Get())
			if err != nil {
				return err
			}
			if err := bindPrefix(ctx, prefix, mod); err != nil {
				return err
			}
			return checkImportCycle(ctx)
		},
		FailedFunc: func([]reactor.Prerequisite) error {
			return reactor.NewInferenceError(ctx, yangerrors.ErrUnresolved, "imported module %s not found", want)
		},
	})
}

// checkImportCycle fails when the module of ctx reaches itself through
// imports. Imports that match no module are left to their own action.
func checkImportCycle(ctx reactor.Ctx) error {
	modules := Modules.Entries(ctx)
	root := reactor.Ctx(ctx.Root())
	err := graphcycle.Detect(graphcycle.Config[reactor.Ctx]{
		Starts: []reactor.Ctx{root},
		Next: func(n reactor.Ctx) ([]reactor.Ctx, error) {
			var out []reactor.Ctx
			for _, child := range n.DeclaredSubstatements() {
				if child.Keyword() != "import" {
					continue
				}
				revision, _ := stringArg(child, "revision-date")
				if target, ok := selectModule(modules, source.Identifier{Name: child.RawArgument(), Revision: revision}); ok {
					out = append(out, target)
				}
			}
			return out, nil
		},
	})
	var cycle *graphcycle.CycleError[reactor.Ctx]
	if !errors.As(err, &cycle) {
		return err
	}
	if !cycle.Contains(root) {
		return nil
	}
	names := make([]string, len(cycle.Path))
	for i, n := range cycle.Path {
		names[i] = n.RawArgument()
	}
	return reactor.NewSourceError(ctx, yangerrors.ErrCycle, "import cycle %s", strings.Join(names, " -> "))
}

// selectModule picks the module in entries that an import of want binds.
func selectModule(entries map[source.Identifier]reactor.Ctx, want source.Identifier) (reactor.Ctx, bool) {
	c := revisionCriterion(want)
	var best source.Identifier
	found := false
	for id := range entries {
		if !c.Match(id) {
			continue
		}
		if !found {
			best, found = id, true
			continue
		}
		best = c.Select(best, id)
	}
	if !found {
		return nil, false
	}
	return entries[best], true
}

// includeSupport links a submodule into the including root's lookups.
type includeSupport struct{ identifierSupport }

func (includeSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.SourceLinkage {
		return nil
	}
	revision, _ := stringArg(ctx, "revision-date")
	want := source.Identifier{Name: ctx.RawArgument(), Revision: revision}

	m, err := ctx.NewInferenceAction(phase.SourceLinkage)
	if err != nil {
		return err
	}
	included := reactor.RequiresMatch(m, ctx, Submodules, revisionCriterion(want), phase.SourcePreLinkage, want.String())
	return m.Apply(reactor.ActionFuncs{
		ApplyFunc: func() error {
			sub, ok := included.Get().(*reactor.RootCtx)
			if !ok {
				return fmt.Errorf("submodule %s is not a root statement", want)
			}
			owner := ctx.Root().RawArgument()
			if belongs, ok := findDeclared(ctx.Root(), "belongs-to"); ok {
				owner = belongs.RawArgument()
			}
			if belongs, ok := findDeclared(sub, "belongs-to"); !ok || belongs.RawArgument() != owner {
				return reactor.NewSourceError(ctx, yangerrors.ErrInvalidArgument,
					"submodule %s does not belong to %s", sub.RawArgument(), owner)
			}
			ctx.Root().Include(sub)
			return nil
		},
		FailedFunc: func([]reactor.Prerequisite) error {
			return reactor.NewInferenceError(ctx, yangerrors.ErrUnresolved, "included submodule %s not found", want)
		},
	})
}

// belongsToSupport binds a submodule to the namespace of its module.
type belongsToSupport struct{ identifierSupport }

func (belongsToSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.SourceLinkage {
		return nil
	}
	prefix, ok := stringArg(ctx, "prefix")
	if !ok {
		return reactor.NewSourceError(ctx, yangerrors.ErrInvalidSubstatement, "belongs-to %s has no prefix", ctx.RawArgument())
	}
	want := source.Identifier{Name: ctx.RawArgument()}

	m, err := ctx.NewInferenceAction(phase.SourceLinkage)
	if err != nil {
		return err
	}
	owner := reactor.RequiresMatch(m, ctx, Modules, revisionCriterion(want), phase.SourcePreLinkage, want.Name)
	return m.Apply(reactor.ActionFuncs{
		ApplyFunc: func() error {
			root := owner.Get()
			mod, err := moduleOf(root)
			if err != nil {
				return err
			}
			if err := sourceModules.Put(ctx, sourceKey{}, mod); err != nil {
				return err
			}
			if err := bindPrefix(ctx, prefix, mod); err != nil {
				return err
			}
			if r, ok := root.(*reactor.RootCtx); ok {
				ctx.Root().Include(r)
			}
			return nil
		},
		FailedFunc: func([]reactor.Prerequisite) error {
			return reactor.NewInferenceError(ctx, yangerrors.ErrUnresolved, "module %s of submodule %s not found",
				want.Name, ctx.Root().RawArgument())
		},
	})
}

// revisionCriterion matches want by name and, when set, by revision,
// preferring the latest revision.
func revisionCriterion(want source.Identifier) namespace.Criterion[source.Identifier] {
	return namespace.Criterion[source.Identifier]{
		Match: func(id source.Identifier) bool {
			return id.Name == want.Name && (want.Revision == "" || id.Revision == want.Revision)
		},
		Select: func(best, candidate source.Identifier) source.Identifier {
			if source.Compare(candidate, best) > 0 {
				return candidate
			}
			return best
		},
	}
}

func latestRevision(ctx reactor.Ctx) string {
	latest := ""
	for _, child := range ctx.DeclaredSubstatements() {
		if child.Keyword() == "revision" && child.RawArgument() > latest {
			latest = child.RawArgument()
		}
	}
	return latest
}

func identifier(raw string) (string, error) {
	if !qname.IsIdentifier(raw) {
		return "", fmt.Errorf("%q is not an identifier", raw)
	}
	return raw, nil
}

func stringArg(ctx reactor.Ctx, keyword string) (string, bool) {
	v, ok := ctx.FindSubstatementArgument(keyword)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func findDeclared(ctx reactor.Ctx, keyword string) (reactor.Ctx, bool) {
	for _, child := range ctx.DeclaredSubstatements() {
		if child.Keyword() == keyword {
			return child, true
		}
	}
	return nil, false
}

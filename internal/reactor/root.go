package reactor

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/Masterminds/semver/v3"

	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/source"
)

// ErrRootCopy reports an attempt to copy a module or submodule.
var ErrRootCopy = errors.New("root statements cannot be copied")

// RootCtx is the top statement of one source, a module or submodule.
type RootCtx struct {
	stmtCommon
	mutableState
	declaredSubs
	source     *SourceContext
	version    *semver.Version
	identifier source.Identifier
	included   []*RootCtx
}

func newRoot(src *SourceContext, support Support, raw string, ref source.Ref) *RootCtx {
	r := &RootCtx{source: src}
	r.support = support
	r.raw = raw
	r.argument = raw
	r.ref = ref
	r.identifier = src.Identifier()
	return r
}

func (r *RootCtx) StorageType() namespace.StorageType { return namespace.RootStorage }
func (r *RootCtx) ParentStorage() namespace.StorageNode { return r.source }
func (r *RootCtx) Parent() Ctx { return nil }
func (r *RootCtx) Root() *RootCtx { return r }
func (r *RootCtx) Origin() Ctx { return nil }
func (r *RootCtx) IsSupported() bool { return !r.unsupported }
func (r *RootCtx) EffectiveConfig() EffectiveConfig { return effectiveConfigOf(r) }
func (r *RootCtx) DeclaredSubstatements() []Ctx { return slices.Clone(r.nodes()) }
func (r *RootCtx) EffectiveSubstatements() []Ctx { return slices.Clone(r.effective) }

func (r *RootCtx) FindSubstatementArgument(keyword string) (any, bool) {
	return findArgument(keyword, r.nodes(), r.effective)
}

func (r *RootCtx) Declared() (model.Declared, error) { return loadDeclared(r) }
func (r *RootCtx) Effective() (model.Effective, error) { return loadEffective(r) }

func (r *RootCtx) NewInferenceAction(p phase.Phase) (*Modifier, error) {
	return newInferenceAction(r, p)
}

func (r *RootCtx) AddEffectiveSubstatements(children ...Ctx) error {
	return addEffective(r, children)
}

func (r *RootCtx) RemoveEffectiveSubstatements(match func(Ctx) bool) error {
	return removeEffective(r, match)
}

func (r *RootCtx) CopyAsChildOf(Ctx, CopyType, qname.Module) (Ctx, error) { return nil, ErrRootCopy }
func (r *RootCtx) ReplicaAsChildOf(Ctx) (Ctx, error) { return nil, ErrRootCopy }

func (r *RootCtx) CreateUndeclared(support Support, argument any) (Ctx, error) {
	return createUndeclared(r, support, argument)
}

func (r *RootCtx) AddMutableStatement(m model.Mutable) { r.source.build.addMutable(m) }

// SetArgument replaces the parsed argument of the root.
func (r *RootCtx) SetArgument(v any) { r.argument = v }

// Identifier returns the name and revision the source is known by.
func (r *RootCtx) Identifier() source.Identifier { return r.identifier }

// SetIdentifier records the name and revision found in the source.
func (r *RootCtx) SetIdentifier(id source.Identifier) { r.identifier = id }

// Version returns the language version, nil until set.
func (r *RootCtx) Version() *semver.Version { return r.version }

// SetVersion records the language version declared by the source.
func (r *RootCtx) SetVersion(v *semver.Version) { r.version = v }

// Include links sub so that lookups from r also see sub's root storage.
func (r *RootCtx) Include(sub *RootCtx) {
	if sub == r || slices.Contains(r.included, sub) {
		return
	}
	r.included = append(r.included, sub)
}

// Included returns the directly included roots.
func (r *RootCtx) Included() []*RootCtx { return slices.Clone(r.included) }

func (r *RootCtx) IncludedStorages() []namespace.StorageNode {
	out := make([]namespace.StorageNode, len(r.included))
	for i, sub := range r.included {
		out[i] = sub
	}
	return out
}

// Features returns the feature set of the build.
func (r *RootCtx) Features() FeatureSet { return r.source.build.cfg.Features }

// Logger returns the build logger annotated with the source.
func (r *RootCtx) Logger() *slog.Logger { return r.source.logger }

func (r *RootCtx) declaredNodes() []Ctx { return r.nodes() }
func (r *RootCtx) completionChildren() []Ctx { return r.effective }

func (r *RootCtx) copySources() ([]Ctx, error) { return nil, ErrRootCopy }

func (r *RootCtx) buildEffective() (model.Effective, error) {
	return buildFromSubstatements(r, slices.Concat(r.nodes(), r.effective))
}

func (r *RootCtx) sweepSubstatements() int {
	return sweepAll(r.nodes()) + sweepAll(r.effective)
}

func (r *RootCtx) releaseSubstatements() {
	r.release()
	r.effective = nil
}

func (r *RootCtx) unmodifiedEffectiveSource() Ctx { return r }
func (r *RootCtx) contextIndependent() bool { return false }

package reactor

import (
	"slices"

	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
)

// declaredSubs indexes textual children by their offset in the parent so
// that later passes over the same source resume the same contexts.
type declaredSubs struct {
	byOffset     []Ctx
	list         []Ctx
	dirty        bool
	fullyDefined bool
}

func (d *declaredSubs) at(offset int) Ctx {
	if offset < 0 || offset >= len(d.byOffset) {
		return nil
	}
	return d.byOffset[offset]
}

// reserve makes room for n substatements so later passes over the same
// statement do not regrow byOffset.
func (d *declaredSubs) reserve(n int) {
	if n > len(d.byOffset) {
		d.byOffset = slices.Grow(d.byOffset, n-len(d.byOffset))
	}
}

func (d *declaredSubs) put(offset int, c Ctx) {
	for len(d.byOffset) <= offset {
		d.byOffset = append(d.byOffset, nil)
	}
	d.byOffset[offset] = c
	d.dirty = true
}

func (d *declaredSubs) nodes() []Ctx {
	if d.dirty {
		d.list = d.list[:0]
		for _, c := range d.byOffset {
			if c != nil {
				d.list = append(d.list, c)
			}
		}
		d.dirty = false
	}
	return d.list
}

func (d *declaredSubs) release() {
	d.byOffset, d.list, d.dirty = nil, nil, false
}

// declaredCtx is a statement that appears in source text. Implicit
// statements are interposed by the reactor, such as the case wrapping a
// shorthand choice member; they have no declared form of their own.
type declaredCtx struct {
	stmtCommon
	mutableState
	declaredSubs
	parent   Ctx
	implicit bool
}

func (d *declaredCtx) StorageType() namespace.StorageType { return namespace.StatementStorage }
func (d *declaredCtx) ParentStorage() namespace.StorageNode { return d.parent }
func (d *declaredCtx) Parent() Ctx { return d.parent }
func (d *declaredCtx) Root() *RootCtx { return d.parent.Root() }
func (d *declaredCtx) Origin() Ctx { return nil }

// IsSupported also requires every ancestor to be supported.
func (d *declaredCtx) IsSupported() bool {
	return !d.unsupported && supportedByFeatures(d) && d.parent.IsSupported()
}

func (d *declaredCtx) EffectiveConfig() EffectiveConfig { return effectiveConfigOf(d) }

func (d *declaredCtx) DeclaredSubstatements() []Ctx { return slices.Clone(d.nodes()) }
func (d *declaredCtx) EffectiveSubstatements() []Ctx { return slices.Clone(d.effective) }

func (d *declaredCtx) FindSubstatementArgument(keyword string) (any, bool) {
	return findArgument(keyword, d.nodes(), d.effective)
}

func (d *declaredCtx) Declared() (model.Declared, error) {
	if d.implicit {
		return nil, nil
	}
	return loadDeclared(d)
}

func (d *declaredCtx) Effective() (model.Effective, error) { return loadEffective(d) }

func (d *declaredCtx) NewInferenceAction(p phase.Phase) (*Modifier, error) {
	return newInferenceAction(d, p)
}

func (d *declaredCtx) AddEffectiveSubstatements(children ...Ctx) error {
	return addEffective(d, children)
}

func (d *declaredCtx) RemoveEffectiveSubstatements(match func(Ctx) bool) error {
	return removeEffective(d, match)
}

func (d *declaredCtx) CopyAsChildOf(parent Ctx, typ CopyType, target qname.Module) (Ctx, error) {
	return copyAsChildOf(d, parent, typ, target)
}

func (d *declaredCtx) ReplicaAsChildOf(parent Ctx) (Ctx, error) { return newReplica(parent, d), nil }

func (d *declaredCtx) CreateUndeclared(support Support, argument any) (Ctx, error) {
	return createUndeclared(d, support, argument)
}

func (d *declaredCtx) AddMutableStatement(m model.Mutable) { buildOf(d).addMutable(m) }

func (d *declaredCtx) declaredNodes() []Ctx { return d.nodes() }
func (d *declaredCtx) completionChildren() []Ctx { return d.effective }

func (d *declaredCtx) copySources() ([]Ctx, error) {
	return slices.Concat(d.nodes(), d.effective), nil
}

func (d *declaredCtx) buildEffective() (model.Effective, error) {
	return buildFromSubstatements(d, slices.Concat(d.nodes(), d.effective))
}

func (d *declaredCtx) sweepSubstatements() int {
	return sweepAll(d.nodes()) + sweepAll(d.effective)
}

func (d *declaredCtx) releaseSubstatements() {
	d.release()
	d.effective = nil
}

func (d *declaredCtx) unmodifiedEffectiveSource() Ctx { return d }
func (d *declaredCtx) contextIndependent() bool { return d.independent == triTrue }

package reactor

import (
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
)

// replicaCtx aliases another statement at a new location. It shares the
// source's namespaces and effective statement and cannot be modified.
type replicaCtx struct {
	stmtCommon
	parent Ctx
	source Ctx
	held   bool
}

func newReplica(parent, src Ctx) *replicaCtx {
	for {
		r, ok := src.(*replicaCtx)
		if !ok {
			break
		}
		src = r.source
	}
	r := &replicaCtx{parent: parent, source: src}
	r.support = src.Support()
	r.keyword = src.Keyword()
	r.argument = src.Argument()
	r.raw = src.RawArgument()
	r.ref = src.Ref()
	r.history = src.History()
	if src.IsSupported() {
		incRef(src)
		r.held = true
	}
	buildOf(parent).stats.statements++
	return r
}

func (r *replicaCtx) StorageType() namespace.StorageType { return namespace.StatementStorage }
func (r *replicaCtx) ParentStorage() namespace.StorageNode { return r.parent }
func (r *replicaCtx) Storage() *namespace.Storage { return r.source.Storage() }
func (r *replicaCtx) Parent() Ctx { return r.parent }
func (r *replicaCtx) Root() *RootCtx { return r.parent.Root() }
func (r *replicaCtx) Origin() Ctx { return r.source }
func (r *replicaCtx) CompletedPhase() phase.Phase { return r.source.CompletedPhase() }
func (r *replicaCtx) IsSupported() bool {
	return r.source.IsSupported() && r.parent.IsSupported()
}
func (r *replicaCtx) EffectiveConfig() EffectiveConfig { return r.source.EffectiveConfig() }
func (r *replicaCtx) DeclaredSubstatements() []Ctx { return r.source.DeclaredSubstatements() }
func (r *replicaCtx) EffectiveSubstatements() []Ctx { return r.source.EffectiveSubstatements() }

func (r *replicaCtx) FindSubstatementArgument(keyword string) (any, bool) {
	return r.source.FindSubstatementArgument(keyword)
}

func (r *replicaCtx) Declared() (model.Declared, error) { return r.source.Declared() }

func (r *replicaCtx) Effective() (model.Effective, error) {
	e, err := r.source.Effective()
	if err != nil {
		return nil, err
	}
	r.releaseSource()
	return e, nil
}

func (r *replicaCtx) releaseSource() {
	if r.held {
		r.held = false
		decRef(r.source)
	}
}

func (r *replicaCtx) NewInferenceAction(phase.Phase) (*Modifier, error) {
	return nil, ErrReplicaImmutable
}

func (r *replicaCtx) AddEffectiveSubstatements(...Ctx) error { return ErrReplicaImmutable }
func (r *replicaCtx) RemoveEffectiveSubstatements(func(Ctx) bool) error { return ErrReplicaImmutable }
func (r *replicaCtx) SetUnsupported() {}

func (r *replicaCtx) CopyAsChildOf(parent Ctx, typ CopyType, target qname.Module) (Ctx, error) {
	return r.source.CopyAsChildOf(parent, typ, target)
}

func (r *replicaCtx) ReplicaAsChildOf(parent Ctx) (Ctx, error) { return newReplica(parent, r.source), nil }

func (r *replicaCtx) CreateUndeclared(Support, any) (Ctx, error) { return nil, ErrReplicaImmutable }
func (r *replicaCtx) AddMutableStatement(m model.Mutable) { buildOf(r).addMutable(m) }

func (r *replicaCtx) state() *mutableState { return nil }
func (r *replicaCtx) declaredNodes() []Ctx { return nil }
func (r *replicaCtx) completionChildren() []Ctx { return nil }
func (r *replicaCtx) copySources() ([]Ctx, error) { return r.source.copySources() }
func (r *replicaCtx) buildEffective() (model.Effective, error) { return r.Effective() }

func (r *replicaCtx) sweepSubstatements() int {
	r.releaseSource()
	return 0
}

func (r *replicaCtx) releaseSubstatements() {}
func (r *replicaCtx) unmodifiedEffectiveSource() Ctx { return r.source.unmodifiedEffectiveSource() }
func (r *replicaCtx) contextIndependent() bool { return r.source.contextIndependent() }

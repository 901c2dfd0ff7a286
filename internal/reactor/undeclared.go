package reactor

import (
	"slices"

	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
)

// undeclaredCtx is a statement synthesized during inference, such as an
// implicit rpc input or the case wrapping a copied shorthand member.
type undeclaredCtx struct {
	stmtCommon
	mutableState
	parent Ctx
}

func (u *undeclaredCtx) StorageType() namespace.StorageType { return namespace.StatementStorage }
func (u *undeclaredCtx) ParentStorage() namespace.StorageNode { return u.parent }
func (u *undeclaredCtx) Parent() Ctx { return u.parent }
func (u *undeclaredCtx) Root() *RootCtx { return u.parent.Root() }
func (u *undeclaredCtx) Origin() Ctx { return nil }
func (u *undeclaredCtx) IsSupported() bool { return !u.unsupported && u.parent.IsSupported() }
func (u *undeclaredCtx) EffectiveConfig() EffectiveConfig { return effectiveConfigOf(u) }
func (u *undeclaredCtx) DeclaredSubstatements() []Ctx { return nil }
func (u *undeclaredCtx) EffectiveSubstatements() []Ctx { return slices.Clone(u.effective) }

func (u *undeclaredCtx) FindSubstatementArgument(keyword string) (any, bool) {
	return findArgument(keyword, u.effective)
}

func (u *undeclaredCtx) Declared() (model.Declared, error) { return nil, nil }
func (u *undeclaredCtx) Effective() (model.Effective, error) { return loadEffective(u) }

func (u *undeclaredCtx) NewInferenceAction(p phase.Phase) (*Modifier, error) {
	return newInferenceAction(u, p)
}

func (u *undeclaredCtx) AddEffectiveSubstatements(children ...Ctx) error {
	if err := addEffective(u, children); err != nil {
		return err
	}
	markModified(u)
	return nil
}

func (u *undeclaredCtx) RemoveEffectiveSubstatements(match func(Ctx) bool) error {
	if err := removeEffective(u, match); err != nil {
		return err
	}
	markModified(u)
	return nil
}

func (u *undeclaredCtx) CopyAsChildOf(parent Ctx, typ CopyType, target qname.Module) (Ctx, error) {
	return copyAsChildOf(u, parent, typ, target)
}

func (u *undeclaredCtx) ReplicaAsChildOf(parent Ctx) (Ctx, error) { return newReplica(parent, u), nil }

func (u *undeclaredCtx) CreateUndeclared(support Support, argument any) (Ctx, error) {
	return createUndeclared(u, support, argument)
}

func (u *undeclaredCtx) AddMutableStatement(m model.Mutable) { buildOf(u).addMutable(m) }

func (u *undeclaredCtx) declaredNodes() []Ctx { return nil }
func (u *undeclaredCtx) completionChildren() []Ctx { return u.effective }
func (u *undeclaredCtx) copySources() ([]Ctx, error) { return slices.Clone(u.effective), nil }

func (u *undeclaredCtx) buildEffective() (model.Effective, error) {
	return buildFromSubstatements(u, u.effective)
}

func (u *undeclaredCtx) sweepSubstatements() int { return sweepAll(u.effective) }
func (u *undeclaredCtx) releaseSubstatements() { u.effective = nil }
func (u *undeclaredCtx) unmodifiedEffectiveSource() Ctx { return u }
func (u *undeclaredCtx) contextIndependent() bool { return u.independent == triTrue }

package reactor

import (
	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
)

// copyAsChildOf re-instantiates n under parent according to n's copy
// policy. A nil context means the statement is left out of the copy.
func copyAsChildOf(n, parent Ctx, typ CopyType, target qname.Module) (Ctx, error) {
	if !n.IsSupported() {
		return nil, nil
	}
	switch n.Support().CopyPolicy() {
	case ExactReplica:
		return newReplica(parent, n), nil
	case ContextIndependent:
		if allSubstatementsContextIndependent(n) {
			return newReplica(parent, n), nil
		}
		return childCopyOf(n, parent, typ, target)
	case DeclaredCopy:
		return childCopyOf(n, parent, typ, target)
	case Ignore:
		return nil, nil
	default:
		return nil, NewSourceError(n, yangerrors.ErrInvalidSubstatement,
			"statement %s cannot be copied into %s", Describe(n), Describe(parent))
	}
}

func allSubstatementsContextIndependent(n Ctx) bool {
	if n.CompletedPhase() == phase.EffectiveModel {
		return n.contextIndependent()
	}
	return computeIndependence(n)
}

// computeIndependence reports whether every supported substatement of n
// can be shared between copies.
func computeIndependence(n Ctx) bool {
	if n.Support().CopyPolicy() == ExactReplica {
		return true
	}
	for _, child := range sweepChildrenOf(n) {
		if !child.IsSupported() {
			continue
		}
		switch child.Support().CopyPolicy() {
		case ContextIndependent, ExactReplica, Ignore:
		default:
			return false
		}
		if !allSubstatementsContextIndependent(child) {
			return false
		}
	}
	return true
}

// childCopyOf creates the inferred copy of n, wrapping it in the implicit
// parent the target location requires.
func childCopyOf(n, parent Ctx, typ CopyType, target qname.Module) (Ctx, error) {
	implicit, ok := parent.Support().ImplicitParent(parent, n.Support())
	if !ok {
		return newInferred(parent, n, typ, target), nil
	}
	wrapper, err := createUndeclared(parent, implicit, n.Support().AdaptArgument(n, target))
	if err != nil {
		return nil, err
	}
	child := newInferred(wrapper, n, typ, target)
	if err := registerSchemaChild(wrapper, child); err != nil {
		return nil, err
	}
	st := wrapper.state()
	st.effective = append(st.effective, child)
	return wrapper, nil
}

// copyKey identifies interchangeable effective copies of one statement.
type copyKey struct {
	state  model.State
	target qname.Module
	typ    CopyType
}

// internAlongCopyAxis returns an existing effective copy with the same
// state, so that identical copies share one effective statement.
func internAlongCopyAxis(c *inferredCtx, e model.Effective) model.Effective {
	if c.modified {
		return e
	}
	key, ok := c.support.EffectiveState(e)
	if !ok {
		return e
	}
	src := c.prototype.unmodifiedEffectiveSource()
	st := src.state()
	if st == nil {
		return e
	}
	return st.attachEffectiveCopy(copyKey{state: key, target: c.target, typ: c.childCopy}, e)
}

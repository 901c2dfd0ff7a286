package reactor

import (
	"math"

	"github.com/jacoelho/yang/internal/phase"
)

type refState uint8

const (
	refLive refState = iota
	// refSweeping counts the children that still have to finish sweeping.
	refSweeping
	refSwept
	// refDefunct pins a statement whose counter went out of range.
	refDefunct
)

type parentRef uint8

const (
	parentRefUnknown parentRef = iota
	parentRefPresent
	parentRefAbsent
)

const maxRefs = math.MaxInt32

// refCounter tracks how many copies and replicas still need a statement's
// substatements. While sweeping, count holds the number of unswept
// children instead.
type refCounter struct {
	count  int32
	state  refState
	parent parentRef
}

func incRef(n Ctx) {
	r := &n.common().refs
	switch r.state {
	case refLive:
		if r.count == maxRefs {
			markDefunct(n, "reference count overflow")
			return
		}
		r.count++
	case refDefunct:
	default:
		markDefunct(n, "reference taken after sweep")
	}
}

func decRef(n Ctx) {
	r := &n.common().refs
	switch r.state {
	case refLive:
		if r.count <= 0 {
			markDefunct(n, "reference count underflow")
			return
		}
		r.count--
		if r.count == 0 {
			lastDecRef(n)
		}
	case refDefunct:
	default:
		markDefunct(n, "reference released after sweep")
	}
}

func markDefunct(n Ctx, reason string) {
	r := &n.common().refs
	r.state = refDefunct
	r.count = 0
	buildOf(n).logger.Warn("statement memory will not be reclaimed",
		"statement", Describe(n), "reason", reason)
}

// noImplicitRef reports whether the statement itself no longer needs its
// substatements.
func noImplicitRef(n Ctx) bool {
	st := n.state()
	return st == nil || st.effectiveInst != nil || !n.IsSupported()
}

func lastDecRef(n Ctx) {
	if noImplicitRef(n) {
		sweepOnDecrement(n)
		return
	}
	if parentRefOf(n) == parentRefAbsent {
		markNoParentRef(n)
	}
}

func parentRefOf(n Ctx) parentRef {
	r := &n.common().refs
	if r.parent != parentRefUnknown {
		return r.parent
	}
	v := calculateParentRef(n)
	if v != parentRefUnknown {
		r.parent = v
	}
	return v
}

func calculateParentRef(n Ctx) parentRef {
	parent := n.Parent()
	if parent == nil {
		return parentRefAbsent
	}
	if parent.CompletedPhase() < phase.EffectiveModel {
		return parentRefUnknown
	}
	pr := &parent.common().refs
	switch pr.state {
	case refLive:
		if pr.count == 0 {
			return parentRefOf(parent)
		}
		return parentRefPresent
	case refDefunct:
		return parentRefPresent
	default:
		return parentRefAbsent
	}
}

func sweepChildrenOf(n Ctx) []Ctx {
	decl := n.declaredNodes()
	eff := n.completionChildren()
	if len(eff) == 0 {
		return decl
	}
	return append(append(make([]Ctx, 0, len(decl)+len(eff)), decl...), eff...)
}

func markNoParentRef(n Ctx) {
	for _, child := range sweepChildrenOf(n) {
		r := &child.common().refs
		prev := r.parent
		r.parent = parentRefAbsent
		if prev != parentRefAbsent && r.state == refLive && r.count == 0 {
			markNoParentRef(child)
		}
	}
}

func sweepOnDecrement(n Ctx) {
	if parentRefOf(n) != parentRefAbsent {
		return
	}
	if sweepNode(n) {
		sweepParent(n)
	}
}

func sweepParent(n Ctx) {
	if parent := n.Parent(); parent != nil {
		sweepOnChildDecrement(parent)
	}
}

// sweepOnChildDecrement runs on a parent after one of its children was
// swept.
func sweepOnChildDecrement(n Ctx) {
	r := &n.common().refs
	if r.state == refSweeping {
		sweepOnChildDone(n)
		return
	}
	if r.state != refLive || r.count > 0 || !noImplicitRef(n) {
		return
	}
	if parentRefOf(n) == parentRefAbsent && sweepState(n) {
		sweepParent(n)
	}
}

func sweepOnChildDone(n Ctx) {
	r := &n.common().refs
	if r.state != refSweeping {
		return
	}
	r.count--
	if r.count <= 0 {
		sweepDone(n)
		sweepParent(n)
	}
}

// sweepNode releases n if nothing needs it. It reports whether n is swept.
func sweepNode(n Ctx) bool {
	r := &n.common().refs
	r.parent = parentRefAbsent
	switch r.state {
	case refSwept:
		return true
	case refLive:
		if r.count == 0 && noImplicitRef(n) {
			return sweepState(n)
		}
	}
	return false
}

func sweepState(n Ctx) bool {
	r := &n.common().refs
	r.state = refSweeping
	r.count = 0
	remaining := n.sweepSubstatements()
	if remaining == 0 {
		sweepDone(n)
		return true
	}
	r.count = int32(remaining)
	return false
}

func sweepDone(n Ctx) {
	r := &n.common().refs
	r.state = refSwept
	r.count = 0
	n.common().storage.Discard()
	n.releaseSubstatements()
	buildOf(n).stats.swept++
}

// sweepAll sweeps children and returns how many are still pending.
func sweepAll(children []Ctx) int {
	pending := 0
	for _, child := range children {
		if !sweepNode(child) {
			pending++
		}
	}
	return pending
}

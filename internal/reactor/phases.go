package reactor

import (
	"errors"
	"slices"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/phase"
)

// tryToCompletePhase drives n and its subtree towards p. It reports
// whether n completed p; n stays behind while any of its mutations for p
// is unfinished or any child has not completed p.
func tryToCompletePhase(n Ctx, p phase.Phase) (bool, error) {
	st := n.state()
	if st == nil || st.completed >= p {
		return true, nil
	}
	if prev := p.Previous(); st.completed < prev {
		ok, err := tryToCompletePhase(n, prev)
		if !ok || err != nil {
			return false, err
		}
	}
	finished := true
	for _, child := range n.declaredNodes() {
		ok, err := tryToCompletePhase(child, p)
		if err != nil {
			return false, err
		}
		finished = finished && ok
	}
	// completing a child may append further children
	for i := 0; i < len(n.completionChildren()); i++ {
		ok, err := tryToCompletePhase(n.completionChildren()[i], p)
		if err != nil {
			return false, err
		}
		finished = finished && ok
	}
	// children completing may have run the actions mutating n
	if ms := st.mutations[p]; len(ms) > 0 {
		ms = slices.DeleteFunc(ms, func(m mutation) bool { return m.isFinished() })
		if len(ms) == 0 {
			delete(st.mutations, p)
		} else {
			st.mutations[p] = ms
			finished = false
		}
	}
	if !finished {
		return false, nil
	}
	return true, onPhaseCompleted(n, p)
}

func onPhaseCompleted(n Ctx, p phase.Phase) error {
	st := n.state()
	st.completed = p
	buildOf(n).events++
	switch p {
	case phase.FullDeclaration:
		supportedByFeatures(n)
	case phase.EffectiveModel:
		st.independent = triOf(computeIndependence(n))
	}
	var due, rest []phaseListener
	for _, l := range st.listeners {
		if l.phase <= p {
			due = append(due, l)
		} else {
			rest = append(rest, l)
		}
	}
	st.listeners = rest
	var errs []error
	for _, l := range due {
		errs = append(errs, l.fn())
	}
	return errors.Join(errs...)
}

// addPhaseListener runs fn once n completed p, immediately if it already
// has.
func addPhaseListener(n Ctx, p phase.Phase, fn func() error) error {
	if r, ok := n.(*replicaCtx); ok {
		n = r.source
	}
	st := n.state()
	if st.completed >= p {
		return fn()
	}
	st.listeners = append(st.listeners, phaseListener{fn: fn, phase: p})
	return nil
}

// addMutation keeps n from completing p until m is finished.
func addMutation(n Ctx, p phase.Phase, m mutation) error {
	st := n.state()
	if st == nil {
		return ErrReplicaImmutable
	}
	if st.completed >= p {
		return NewSourceError(n, yangerrors.ErrSealed,
			"statement %s already completed phase %s", Describe(n), p)
	}
	if st.mutations == nil {
		st.mutations = make(map[phase.Phase][]mutation)
	}
	st.mutations[p] = append(st.mutations[p], m)
	return nil
}

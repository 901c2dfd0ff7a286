package reactor

import (
	"errors"
	"fmt"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
)

// Prerequisite is one requirement of an inference action.
type Prerequisite interface {
	Done() bool
	String() string
}

// Prereq is a prerequisite resolving to a value of type T.
type Prereq[T any] struct {
	value T
	owner *Modifier
	desc  string
	done  bool
}

// Get returns the resolved value. It must only be called from an action.
func (p *Prereq[T]) Get() T { return p.value }

func (p *Prereq[T]) Done() bool { return p.done }

func (p *Prereq[T]) String() string { return p.desc }

func (p *Prereq[T]) resolve(v T) {
	if p.done {
		return
	}
	p.value = v
	p.done = true
	p.owner.pending--
	p.owner.tryApply()
}

// Action is the work an inference modifier performs once every
// prerequisite holds.
type Action interface {
	Apply() error
	// PrerequisiteFailed reports the prerequisites that never resolved
	// and returns the error to surface.
	PrerequisiteFailed(failed []Prerequisite) error
}

// UnavailableHandler is implemented by actions that tolerate a target
// statement being left out of the model.
type UnavailableHandler interface {
	PrerequisiteUnavailable(p Prerequisite) error
}

// ActionFuncs adapts plain functions to Action.
type ActionFuncs struct {
	ApplyFunc  func() error
	FailedFunc func(failed []Prerequisite) error
}

func (a ActionFuncs) Apply() error {
	if a.ApplyFunc == nil {
		return nil
	}
	return a.ApplyFunc()
}

func (a ActionFuncs) PrerequisiteFailed(failed []Prerequisite) error {
	if a.FailedFunc == nil {
		return errors.Join(unresolvedErrors(failed)...)
	}
	return a.FailedFunc(failed)
}

func unresolvedErrors(failed []Prerequisite) []error {
	errs := make([]error, len(failed))
	for i, p := range failed {
		errs[i] = fmt.Errorf("unresolved prerequisite: %s", p)
	}
	return errs
}

// Modifier collects the prerequisites of one inference action and applies
// it as soon as they all hold.
type Modifier struct {
	err         error
	action      Action
	ctx         Ctx
	src         *SourceContext
	unavailable Prerequisite
	prereqs     []Prerequisite
	pending     int
	phase       phase.Phase
	applied     bool
	failed      bool
	dropped     bool
}

func (m *Modifier) isFinished() bool { return m.applied || m.failed || m.dropped }

// Phase returns the phase the action belongs to.
func (m *Modifier) Phase() phase.Phase { return m.phase }

// Applied reports whether the action ran.
func (m *Modifier) Applied() bool { return m.applied }

func newPrereq[T any](m *Modifier, desc string) *Prereq[T] {
	p := &Prereq[T]{owner: m, desc: desc}
	m.prereqs = append(m.prereqs, p)
	m.pending++
	return p
}

func (m *Modifier) record(err error) {
	if err != nil && m.err == nil {
		m.err = err
	}
}

// RequiresCtx waits until ctx completed p.
func (m *Modifier) RequiresCtx(ctx Ctx, p phase.Phase) *Prereq[Ctx] {
	pr := newPrereq[Ctx](m, fmt.Sprintf("%s completed %s", Describe(ctx), p))
	m.record(addPhaseListener(ctx, p, func() error {
		pr.resolve(ctx)
		return nil
	}))
	return pr
}

// MutatesCtx declares that the action modifies ctx in phase p, which keeps
// ctx from completing p before the action ran.
func (m *Modifier) MutatesCtx(ctx Ctx, p phase.Phase) *Prereq[Ctx] {
	pr := newPrereq[Ctx](m, fmt.Sprintf("mutate %s in %s", Describe(ctx), p))
	if err := addMutation(ctx, p, m); err != nil {
		m.record(err)
		return pr
	}
	pr.resolve(ctx)
	return pr
}

// MutatesEffectiveCtx declares that the action modifies ctx's effective
// substatements.
func (m *Modifier) MutatesEffectiveCtx(ctx Ctx) *Prereq[Ctx] {
	return m.MutatesCtx(ctx, phase.EffectiveModel)
}

// RequiresValue waits for key to appear in ns as seen from ctx.
func RequiresValue[K comparable, V any](m *Modifier, ctx Ctx, ns *namespace.Namespace[K, V], key K) *Prereq[V] {
	pr := newPrereq[V](m, fmt.Sprintf("%s %v", ns.Name(), key))
	m.record(ns.OnKey(ctx, key, func(_ K, v V) error {
		pr.resolve(v)
		return nil
	}))
	return pr
}

// RequiresKey waits for key to appear in ns and for the statement bound to
// it to complete p.
func RequiresKey[K comparable](m *Modifier, ctx Ctx, ns *namespace.Namespace[K, Ctx], key K, p phase.Phase) *Prereq[Ctx] {
	pr := newPrereq[Ctx](m, fmt.Sprintf("%s %v completed %s", ns.Name(), key, p))
	m.record(ns.OnKey(ctx, key, func(_ K, found Ctx) error {
		return addPhaseListener(found, p, func() error {
			pr.resolve(found)
			return nil
		})
	}))
	return pr
}

// RequiresMatch waits for the entry of ns selected by c and for its
// statement to complete p.
func RequiresMatch[K comparable](m *Modifier, ctx Ctx, ns *namespace.Namespace[K, Ctx], c namespace.Criterion[K], p phase.Phase, desc string) *Prereq[Ctx] {
	pr := newPrereq[Ctx](m, fmt.Sprintf("%s %s completed %s", ns.Name(), desc, p))
	m.record(ns.OnMatch(ctx, c, func(_ K, found Ctx) error {
		return addPhaseListener(found, p, func() error {
			pr.resolve(found)
			return nil
		})
	}))
	return pr
}

// MutatesEffectiveCtxPath walks keys through ns starting at ctx and
// resolves to the statement at the end of the path. Every statement on
// the way is kept from completing EffectiveModel until the action ran. A
// statement left out of the model makes the target unavailable.
func MutatesEffectiveCtxPath[K comparable](m *Modifier, ctx Ctx, ns *namespace.Namespace[K, Ctx], keys []K) *Prereq[Ctx] {
	pr := newPrereq[Ctx](m, fmt.Sprintf("%s path %v", ns.Name(), keys))
	var step func(cur Ctx, i int)
	step = func(cur Ctx, i int) {
		if i == len(keys) {
			pr.resolve(cur)
			return
		}
		m.record(ns.OnKey(cur, keys[i], func(_ K, next Ctx) error {
			if m.isFinished() {
				return nil
			}
			if !next.IsSupported() {
				m.markUnavailable(pr)
				return nil
			}
			if err := addMutation(next, phase.EffectiveModel, m); err != nil {
				m.record(err)
				return nil
			}
			step(next, i+1)
			return nil
		}))
	}
	step(ctx, 0)
	return pr
}

func (m *Modifier) markUnavailable(p Prerequisite) {
	if m.unavailable != nil {
		return
	}
	m.unavailable = p
	if m.action != nil {
		m.handleUnavailable()
	}
}

func (m *Modifier) handleUnavailable() {
	m.applied = true
	if h, ok := m.action.(UnavailableHandler); ok {
		m.record(h.PrerequisiteUnavailable(m.unavailable))
		return
	}
	m.record(m.action.PrerequisiteFailed([]Prerequisite{m.unavailable}))
}

// Apply sets the action and runs it if every prerequisite already holds.
func (m *Modifier) Apply(action Action) error {
	if m.action != nil {
		return fmt.Errorf("inference action for %s already set", Describe(m.ctx))
	}
	m.action = action
	if m.unavailable != nil {
		m.handleUnavailable()
		return m.err
	}
	if m.err != nil {
		return m.err
	}
	m.tryApply()
	return m.err
}

// drop discards a pending action whose statement was left out of the
// model. It reports whether the action was dropped.
func (m *Modifier) drop() bool {
	if m.isFinished() || m.ctx.IsSupported() {
		return false
	}
	m.dropped = true
	m.src.build.events++
	return true
}

func (m *Modifier) tryApply() {
	if m.action == nil || m.isFinished() || m.pending > 0 || m.err != nil {
		return
	}
	if m.src.inProgress < m.phase {
		return
	}
	m.applied = true
	m.src.build.events++
	m.src.build.stats.actions++
	m.record(m.action.Apply())
}

// fail gives up on the action and returns the error to report.
func (m *Modifier) fail() error {
	if m.isFinished() {
		return m.err
	}
	m.failed = true
	if m.err != nil {
		return m.err
	}
	if m.action == nil {
		return NewInferenceError(m.ctx, yangerrors.ErrUnresolved,
			"inference action for %s was never started", Describe(m.ctx))
	}
	var failed []Prerequisite
	for _, p := range m.prereqs {
		if !p.Done() {
			failed = append(failed, p)
		}
	}
	err := m.action.PrerequisiteFailed(failed)
	if err == nil {
		return nil
	}
	var se *yangerrors.SourceError
	var ie *yangerrors.InferenceError
	if errors.As(err, &se) || errors.As(err, &ie) {
		return err
	}
	return &yangerrors.InferenceError{SourceError: yangerrors.SourceError{
		Cause:   err,
		Code:    yangerrors.ErrUnresolved,
		Message: fmt.Sprintf("inference action for %s failed", Describe(m.ctx)),
		Path:    m.ctx.Ref().Path,
		Line:    m.ctx.Ref().Line,
		Column:  m.ctx.Ref().Column,
	}}
}

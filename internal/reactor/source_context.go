package reactor

import (
	"errors"
	"fmt"
	"log/slog"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/source"
)

// ErrNoRootStatement reports a source without statements.
var ErrNoRootStatement = errors.New("source has no root statement")

type progress uint8

const (
	noProgress progress = iota
	progressed
	finished
)

// SourceContext drives one source through the phases.
type SourceContext struct {
	stream     source.StreamSource
	build      *buildContext
	root       *RootCtx
	logger     *slog.Logger
	modifiers  map[phase.Phase][]*Modifier
	storage    namespace.Storage
	finished   phase.Phase
	inProgress phase.Phase
}

func newSourceContext(b *buildContext, stream source.StreamSource) *SourceContext {
	return &SourceContext{
		stream:    stream,
		build:     b,
		logger:    b.logger.With("source", stream.Identifier().String()),
		modifiers: make(map[phase.Phase][]*Modifier),
	}
}

func (s *SourceContext) StorageType() namespace.StorageType { return namespace.SourceStorage }
func (s *SourceContext) ParentStorage() namespace.StorageNode { return s.build }
func (s *SourceContext) Storage() *namespace.Storage { return &s.storage }

// Identifier returns the identifier declared by the source once known.
func (s *SourceContext) Identifier() source.Identifier {
	if s.root != nil && s.root.identifier.Name != "" {
		return s.root.identifier
	}
	return s.stream.Identifier()
}

// Root returns the root statement, nil before the first pass.
func (s *SourceContext) Root() *RootCtx { return s.root }

func (s *SourceContext) startPhase(p phase.Phase) error {
	if s.finished != p.Previous() {
		return fmt.Errorf("source %s: cannot start %s after %s", s.Identifier(), p, s.finished)
	}
	s.inProgress = p
	return nil
}

func (s *SourceContext) loadStatements() error {
	if !s.inProgress.IsDeclaration() {
		return nil
	}
	w := newWriter(s, s.inProgress)
	err := s.stream.WriteStatements(w, w.accept)
	if err == nil {
		err = w.err
	}
	if err != nil {
		return err
	}
	if s.root == nil {
		return fmt.Errorf("source %s: %w", s.Identifier(), ErrNoRootStatement)
	}
	return nil
}

func (s *SourceContext) newModifier(p phase.Phase, ctx Ctx) (*Modifier, error) {
	if s.finished >= p {
		return nil, fmt.Errorf("source %s: phase %s already completed", s.Identifier(), p)
	}
	m := &Modifier{ctx: ctx, src: s, phase: p}
	s.modifiers[p] = append(s.modifiers[p], m)
	return m, nil
}

func (s *SourceContext) tryToCompletePhase() (progress, error) {
	p := s.inProgress
	result := noProgress
	current := s.modifiers[p]
	s.modifiers[p] = nil
	kept := make([]*Modifier, 0, len(current))
	for _, m := range current {
		// feature checks are only final once the phase's declarations are in
		if p >= phase.FullDeclaration && m.drop() {
			result = progressed
			continue
		}
		m.tryApply()
		if m.err != nil {
			return noProgress, m.err
		}
		if m.isFinished() {
			result = progressed
			continue
		}
		kept = append(kept, m)
	}
	// actions may have registered further modifiers meanwhile
	s.modifiers[p] = append(kept, s.modifiers[p]...)
	if s.root == nil {
		return noProgress, fmt.Errorf("source %s: %w", s.Identifier(), ErrNoRootStatement)
	}
	done, err := tryToCompletePhase(s.root, p)
	if err != nil {
		return noProgress, err
	}
	if done && len(s.modifiers[p]) == 0 {
		s.finished = p
		delete(s.modifiers, p)
		return finished, nil
	}
	return result, nil
}

// failModifiers gives up on every pending action of the phase in progress
// and returns one error per action. A source held back by actions of
// other sources only reports that it stalled.
func (s *SourceContext) failModifiers() []error {
	p := s.inProgress
	var causes []error
	for _, m := range s.modifiers[p] {
		if err := m.fail(); err != nil {
			causes = append(causes, err)
		}
	}
	if len(causes) > 0 {
		return causes
	}
	ref := source.Ref{}
	if s.root != nil {
		ref = s.root.Ref()
	}
	return []error{yangerrors.NewInferenceError(yangerrors.ErrPhaseStalled, ref.Path, ref.Line, ref.Column,
		"source %s failed to complete phase %s", s.Identifier(), p)}
}

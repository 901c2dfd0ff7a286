package phase

import "fmt"

// Phase is one step of the fixed model processing sequence.
// The zero value is Init: nothing has been processed yet.
type Phase uint8

const (
	Init Phase = iota
	SourcePreLinkage
	SourceLinkage
	StatementDefinition
	FullDeclaration
	EffectiveModel
)

// Sequence lists the phases in execution order, Init excluded.
var Sequence = [...]Phase{
	SourcePreLinkage,
	SourceLinkage,
	StatementDefinition,
	FullDeclaration,
	EffectiveModel,
}

// ExecutionOrder returns the integer rank of the phase.
func (p Phase) ExecutionOrder() int {
	return int(p)
}

// Previous returns the phase that must be finished before p starts.
func (p Phase) Previous() Phase {
	if p == Init {
		return Init
	}
	return p - 1
}

// Next returns the phase that follows p and false when p is the last one.
func (p Phase) Next() (Phase, bool) {
	if p >= EffectiveModel {
		return p, false
	}
	return p + 1, true
}

// CompletedBy reports whether reaching done implies p is finished.
func (p Phase) CompletedBy(done Phase) bool {
	return done >= p
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p <= EffectiveModel
}

// IsDeclaration reports whether p streams statement declarations from sources.
func (p Phase) IsDeclaration() bool {
	return p >= SourcePreLinkage && p <= FullDeclaration
}

// OfExecutionOrder maps an execution order back to its phase.
func OfExecutionOrder(order int) (Phase, error) {
	if order < 0 || order > int(EffectiveModel) {
		return Init, fmt.Errorf("unknown phase execution order %d", order)
	}
	return Phase(order), nil
}

func (p Phase) String() string {
	switch p {
	case Init:
		return "Init"
	case SourcePreLinkage:
		return "SourcePreLinkage"
	case SourceLinkage:
		return "SourceLinkage"
	case StatementDefinition:
		return "StatementDefinition"
	case FullDeclaration:
		return "FullDeclaration"
	case EffectiveModel:
		return "EffectiveModel"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

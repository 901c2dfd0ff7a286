// Package source defines the boundary between statement producers and the
// reactor: source references, source identifiers and the push-style
// statement writer.
package source

import (
	"fmt"
	"strconv"
)

// Ref locates a statement in its textual source.
type Ref struct {
	Path   string
	Line   int
	Column int
}

// IsZero reports whether r carries no location.
func (r Ref) IsZero() bool {
	return r.Path == "" && r.Line == 0 && r.Column == 0
}

func (r Ref) String() string {
	if r.Line == 0 {
		return r.Path
	}
	return r.Path + ":" + strconv.Itoa(r.Line) + ":" + strconv.Itoa(r.Column)
}

// Identifier names one source: a module or submodule with its revision.
type Identifier struct {
	Name     string
	Revision string
}

func (id Identifier) String() string {
	if id.Revision == "" {
		return id.Name
	}
	return id.Name + "@" + id.Revision
}

// Compare orders identifiers by name, then revision with the empty
// revision first.
func Compare(a, b Identifier) int {
	switch {
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	case a.Revision < b.Revision:
		return -1
	case a.Revision > b.Revision:
		return 1
	default:
		return 0
	}
}

// Resume reports the outcome of re-entering a previously started child.
type Resume uint8

const (
	// NotStarted means no child exists at the offset yet.
	NotStarted Resume = iota
	// Resumed means the child was re-entered and expects its substatements.
	Resumed
	// FullyDefined means the child subtree is complete and was not entered.
	FullyDefined
)

func (r Resume) String() string {
	switch r {
	case NotStarted:
		return "not-started"
	case Resumed:
		return "resumed"
	case FullyDefined:
		return "fully-defined"
	default:
		return fmt.Sprintf("Resume(%d)", uint8(r))
	}
}

// StatementWriter receives statements from a producer. Offsets are the
// statement's position among its parent's textual substatements and stay
// stable across passes over the same source.
type StatementWriter interface {
	// StartStatement begins a new child of the current statement.
	StartStatement(offset int, keyword, argument string, ref Ref) error
	// StoreStatement records how many substatements the current statement
	// has and whether all of them have been written.
	StoreStatement(expected int, fullyDefined bool)
	// EndStatement closes the current statement.
	EndStatement(ref Ref) error
	// ResumeStatement re-enters the child at offset, if one exists.
	ResumeStatement(offset int) Resume
}

// KeywordFilter reports whether a keyword is understood in the current pass.
// Statements it rejects are skipped and leave their parent not fully
// defined.
type KeywordFilter func(keyword string) bool

// StreamSource produces the statements of one source. It is replayed once
// per declaration pass.
type StreamSource interface {
	// Identifier returns the best-effort identity known before processing.
	Identifier() Identifier
	// WriteStatements replays the source into w.
	WriteStatements(w StatementWriter, accept KeywordFilter) error
}

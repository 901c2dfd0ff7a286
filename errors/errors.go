// Package errors defines the error taxonomy reported by schema builds.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a build error.
type ErrorCode string

const (
	// ErrSyntax indicates the source text could not be tokenized or parsed.
	ErrSyntax ErrorCode = "yang-syntax"
	// ErrUnknownStatement indicates a keyword with no statement support.
	ErrUnknownStatement ErrorCode = "yang-unknown-statement"
	// ErrInvalidArgument indicates a statement argument failed to parse.
	ErrInvalidArgument ErrorCode = "yang-invalid-argument"
	// ErrInvalidSubstatement indicates a statement in a disallowed position.
	ErrInvalidSubstatement ErrorCode = "yang-invalid-substatement"
	// ErrDuplicate indicates two statements claim the same identifier.
	ErrDuplicate ErrorCode = "yang-duplicate"
	// ErrPrefixCollision indicates a prefix bound twice within one source.
	ErrPrefixCollision ErrorCode = "yang-prefix-collision"
	// ErrCycle indicates modules that import each other.
	ErrCycle ErrorCode = "yang-cycle"
	// ErrVersion indicates a statement not allowed by the source yang-version.
	ErrVersion ErrorCode = "yang-version"
	// ErrConfig indicates a config true node under a config false parent.
	ErrConfig ErrorCode = "yang-config"
	// ErrUnresolved indicates a reference whose target never appeared.
	ErrUnresolved ErrorCode = "yang-unresolved"
	// ErrSealed indicates a write to a statement after its model was frozen.
	ErrSealed ErrorCode = "yang-sealed"
	// ErrPhaseStalled indicates a source could not finish a phase.
	ErrPhaseStalled ErrorCode = "yang-phase-stalled"
)

// SourceError reports a malformed or contradictory declaration close to the
// offending statement.
type SourceError struct {
	Cause   error
	Code    ErrorCode
	Message string
	Path    string
	Line    int
	Column  int
}

// NewSourceError formats a message and builds a SourceError.
func NewSourceError(code ErrorCode, path string, line, column int, format string, args ...any) *SourceError {
	return &SourceError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
		Line:    line,
		Column:  column,
	}
}

// Error formats the error with its code and location.
func (e *SourceError) Error() string {
	if e == nil {
		return "source error <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	writeLocation(&b, e.Path, e.Line, e.Column)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *SourceError) Unwrap() error { return e.Cause }

// InferenceError reports an inference action whose prerequisites can never
// be satisfied.
type InferenceError struct {
	SourceError
}

// NewInferenceError formats a message and builds an InferenceError.
func NewInferenceError(code ErrorCode, path string, line, column int, format string, args ...any) *InferenceError {
	return &InferenceError{SourceError: *NewSourceError(code, path, line, column, format, args...)}
}

func (e *InferenceError) Error() string {
	if e == nil {
		return "inference error <nil>"
	}
	return e.SourceError.Error()
}

func (e *InferenceError) Unwrap() error { return e.Cause }

// ReactorError is the single aggregated failure of a build: the phase that
// stalled, the source reported first, its cause and the causes of every
// other source that failed in the same phase.
type ReactorError struct {
	Cause      error
	Phase      string
	Source     string
	Suppressed []error
}

// Error returns a compact summary of the failure.
func (e *ReactorError) Error() string {
	if e == nil {
		return "reactor error <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "build failed in phase %s", e.Phase)
	if e.Source != "" {
		fmt.Fprintf(&b, " at source %s", e.Source)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if n := len(e.Suppressed); n > 0 {
		fmt.Fprintf(&b, " (and %d more)", n)
	}
	return b.String()
}

// Unwrap returns the primary cause followed by the suppressed ones.
func (e *ReactorError) Unwrap() []error {
	out := make([]error, 0, 1+len(e.Suppressed))
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return append(out, e.Suppressed...)
}

// All returns the primary cause followed by the suppressed ones.
func (e *ReactorError) All() []error {
	return e.Unwrap()
}

// AsReactor extracts the aggregated build failure from err.
func AsReactor(err error) (*ReactorError, bool) {
	var re *ReactorError
	if errors.As(err, &re) && re != nil {
		return re, true
	}
	return nil, false
}

// AsSource extracts the first source-level failure from err, looking
// through inference errors.
func AsSource(err error) (*SourceError, bool) {
	var ie *InferenceError
	var se *SourceError
	switch {
	case errors.As(err, &se) && se != nil:
		return se, true
	case errors.As(err, &ie) && ie != nil:
		return &ie.SourceError, true
	default:
		return nil, false
	}
}

// HasCode reports whether any error in err's tree carries code.
func HasCode(err error, code ErrorCode) bool {
	found := false
	walk(err, func(e error) {
		switch v := e.(type) {
		case *SourceError:
			found = found || v.Code == code
		case *InferenceError:
			found = found || v.Code == code
		}
	})
	return found
}

func walk(err error, visit func(error)) {
	if err == nil {
		return
	}
	visit(err)
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			walk(inner, visit)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), visit)
	}
}

func writeLocation(b *strings.Builder, path string, line, column int) {
	switch {
	case path != "" && line > 0:
		fmt.Fprintf(b, " at %s:%d:%d", path, line, column)
	case path != "":
		fmt.Fprintf(b, " at %s", path)
	case line > 0:
		fmt.Fprintf(b, " at line %d, column %d", line, column)
	}
}

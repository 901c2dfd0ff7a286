package qname

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Module identifies the namespace a statement name is bound to.
// Revision is empty when the module carries no revision statement.
type Module struct {
	Namespace string
	Revision  string
}

// IsZero reports whether m carries no namespace.
func (m Module) IsZero() bool {
	return m.Namespace == "" && m.Revision == ""
}

func (m Module) String() string {
	if m.Revision == "" {
		return m.Namespace
	}
	return m.Namespace + "?revision=" + m.Revision
}

// QName is a namespace-qualified statement name.
type QName struct {
	Module Module
	Local  string
}

// New returns a QName bound to module.
func New(module Module, local string) QName {
	return QName{Module: module, Local: local}
}

// BindTo returns q re-bound to module, keeping its local name.
func (q QName) BindTo(module Module) QName {
	return QName{Module: module, Local: q.Local}
}

// IsZero reports whether q is the zero value.
func (q QName) IsZero() bool {
	return q.Local == "" && q.Module.IsZero()
}

func (q QName) String() string {
	if q.Module.IsZero() {
		return q.Local
	}
	return "(" + q.Module.String() + ")" + q.Local
}

// Compare orders QNames by namespace, revision, then local name.
func Compare(a, b QName) int {
	if c := cmp.Compare(a.Module.Namespace, b.Module.Namespace); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Module.Revision, b.Module.Revision); c != 0 {
		return c
	}
	return cmp.Compare(a.Local, b.Local)
}

// SortedMapKeys returns map keys in deterministic QName order.
func SortedMapKeys[V any](m map[QName]V) []QName {
	return slices.SortedFunc(maps.Keys(m), Compare)
}

// SortAndDedupe sorts names and removes duplicates in place.
func SortAndDedupe(names []QName) []QName {
	slices.SortFunc(names, Compare)
	return slices.Compact(names)
}

// SplitPrefixed splits "prefix:local" into its parts.
func SplitPrefixed(value string) (prefix, local string, hasPrefix bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", false, fmt.Errorf("invalid identifier: empty string")
	}
	before, after, found := strings.Cut(value, ":")
	if !found {
		if !IsIdentifier(value) {
			return "", "", false, fmt.Errorf("invalid identifier %q", value)
		}
		return "", value, false, nil
	}
	if !IsIdentifier(before) {
		return "", "", false, fmt.Errorf("invalid prefix in %q", value)
	}
	if !IsIdentifier(after) {
		return "", "", false, fmt.Errorf("invalid identifier in %q", value)
	}
	return before, after, true, nil
}

// IsIdentifier reports whether s is a valid YANG identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case i > 0 && (c >= '0' && c <= '9' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// ValidateRevision checks the YYYY-MM-DD revision format.
func ValidateRevision(revision string) error {
	if _, err := time.Parse(time.DateOnly, revision); err != nil {
		return fmt.Errorf("invalid revision %q: %w", revision, err)
	}
	return nil
}

package model

import "github.com/jacoelho/yang/internal/qname"

// FindFirst returns the first substatement of e with keyword.
func FindFirst(e Effective, keyword string) (Effective, bool) {
	for _, sub := range e.Substatements() {
		if sub.Keyword() == keyword {
			return sub, true
		}
	}
	return nil, false
}

// FindArgument returns the argument of the first substatement of e with
// keyword, if it has type T.
func FindArgument[T any](e Effective, keyword string) (T, bool) {
	var zero T
	sub, ok := FindFirst(e, keyword)
	if !ok {
		return zero, false
	}
	v, ok := sub.Argument().(T)
	return v, ok
}

// SchemaChildren returns the schema tree children of e.
func SchemaChildren(e Effective) []Effective {
	var out []Effective
	for _, sub := range e.Substatements() {
		if sub.Flags().Has(FlagSchemaTree) {
			out = append(out, sub)
		}
	}
	return out
}

// FindSchemaChild returns the schema tree child of e named name.
func FindSchemaChild(e Effective, name qname.QName) (Effective, bool) {
	for _, sub := range e.Substatements() {
		if !sub.Flags().Has(FlagSchemaTree) {
			continue
		}
		if q, ok := sub.Argument().(qname.QName); ok && q == name {
			return sub, true
		}
	}
	return nil, false
}

// Walk visits e and its substatements depth-first until visit returns false.
func Walk(e Effective, visit func(Effective) bool) bool {
	if !visit(e) {
		return false
	}
	for _, sub := range e.Substatements() {
		if !Walk(sub, visit) {
			return false
		}
	}
	return true
}

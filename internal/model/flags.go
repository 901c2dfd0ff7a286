package model

import "strings"

// Flags carries per-statement bits derived during the build.
type Flags uint16

const (
	FlagAddedByUses Flags = 1 << iota
	FlagAugmenting
	FlagConfigTrue
	FlagConfigFalse
	FlagMandatory
	FlagSchemaTree
	FlagDeprecated
	FlagObsolete
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagAddedByUses, "added-by-uses"},
	{FlagAugmenting, "augmenting"},
	{FlagConfigTrue, "config"},
	{FlagConfigFalse, "state"},
	{FlagMandatory, "mandatory"},
	{FlagSchemaTree, "schema-tree"},
	{FlagDeprecated, "deprecated"},
	{FlagObsolete, "obsolete"},
}

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

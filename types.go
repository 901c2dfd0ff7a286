package yang

import (
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/source"
)

// QName is a schema node name qualified by its module.
type QName = qname.QName

// Module identifies a module by namespace and revision.
type Module = qname.Module

// Declared is a statement as written in a source.
type Declared = model.Declared

// Effective is a statement after groupings, augments and deviations were
// applied.
type Effective = model.Effective

// ModuleStatement is the effective form of a module or submodule.
type ModuleStatement = model.ModuleStatement

// Flags carries per-statement bits derived during the build.
type Flags = model.Flags

// Effective statement flags.
const (
	FlagAddedByUses = model.FlagAddedByUses
	FlagAugmenting  = model.FlagAugmenting
	FlagConfigTrue  = model.FlagConfigTrue
	FlagConfigFalse = model.FlagConfigFalse
	FlagMandatory   = model.FlagMandatory
	FlagSchemaTree  = model.FlagSchemaTree
	FlagDeprecated  = model.FlagDeprecated
	FlagObsolete    = model.FlagObsolete
)

// Source produces the statements of one module or submodule.
type Source = source.StreamSource

// Identifier names a source by module name and revision.
type Identifier = source.Identifier

// NewQName returns the name local in module.
func NewQName(module Module, local string) QName {
	return qname.New(module, local)
}

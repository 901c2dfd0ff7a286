// Package model holds the declared and effective statement objects
// produced by a build.
package model

import (
	"slices"

	"github.com/jacoelho/yang/internal/source"
)

// Declared is the as-written form of a statement.
type Declared interface {
	Keyword() string
	RawArgument() string
	Argument() any
	Ref() source.Ref
	Substatements() []Declared
}

// Effective is the resolved form of a statement.
type Effective interface {
	Keyword() string
	Argument() any
	// Declared returns nil for statements synthesized during the build.
	Declared() Declared
	Substatements() []Effective
	Flags() Flags
}

// DeclaredStatement is the default Declared implementation.
type DeclaredStatement struct {
	argument any
	keyword  string
	raw      string
	subs     []Declared
	ref      source.Ref
}

// NewDeclared builds a declared statement. subs is retained.
func NewDeclared(keyword, raw string, argument any, ref source.Ref, subs []Declared) *DeclaredStatement {
	return &DeclaredStatement{keyword: keyword, raw: raw, argument: argument, ref: ref, subs: subs}
}

func (d *DeclaredStatement) Keyword() string { return d.keyword }
func (d *DeclaredStatement) RawArgument() string { return d.raw }
func (d *DeclaredStatement) Argument() any { return d.argument }
func (d *DeclaredStatement) Ref() source.Ref { return d.ref }
func (d *DeclaredStatement) Substatements() []Declared { return slices.Clip(d.subs) }

// EffectiveStatement is the default Effective implementation.
type EffectiveStatement struct {
	argument any
	declared Declared
	keyword  string
	subs     []Effective
	flags    Flags
}

// NewEffective builds an effective statement. subs is retained.
func NewEffective(keyword string, argument any, declared Declared, flags Flags, subs []Effective) *EffectiveStatement {
	return &EffectiveStatement{keyword: keyword, argument: argument, declared: declared, flags: flags, subs: subs}
}

func (e *EffectiveStatement) Keyword() string { return e.keyword }
func (e *EffectiveStatement) Argument() any { return e.argument }
func (e *EffectiveStatement) Declared() Declared { return e.declared }
func (e *EffectiveStatement) Substatements() []Effective { return slices.Clip(e.subs) }
func (e *EffectiveStatement) Flags() Flags { return e.flags }

// Rebind returns a copy of e carrying a new argument and flags while
// sharing e's substatements.
func (e *EffectiveStatement) Rebind(argument any, flags Flags) *EffectiveStatement {
	out := *e
	out.argument = argument
	out.flags = flags
	return &out
}

// State returns the interning key of e.
func (e *EffectiveStatement) State() State {
	return State{Argument: e.argument, Flags: e.flags}
}

// State identifies the semantic content of an effective statement apart
// from its substatements. Argument must hold a comparable value.
type State struct {
	Argument any
	Flags    Flags
}

// Mutable is implemented by effective statements that accept late
// additions until the build seals them.
type Mutable interface {
	Seal()
	Sealed() bool
}

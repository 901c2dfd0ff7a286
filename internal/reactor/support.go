package reactor

import (
	"fmt"
	"reflect"

	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
)

// CopyPolicy governs how a statement behaves when its parent is
// re-instantiated elsewhere.
type CopyPolicy uint8

const (
	// ContextIndependent statements are unaffected by their location and
	// are replicated when all their substatements agree.
	ContextIndependent CopyPolicy = iota
	// ExactReplica statements are always aliased, never copied.
	ExactReplica
	// DeclaredCopy statements are copied and rebuilt at the new location.
	DeclaredCopy
	// Ignore statements are dropped from copies.
	Ignore
	// Reject statements fail the copy.
	Reject
)

func (p CopyPolicy) String() string {
	switch p {
	case ContextIndependent:
		return "context-independent"
	case ExactReplica:
		return "exact-replica"
	case DeclaredCopy:
		return "declared-copy"
	case Ignore:
		return "ignore"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("CopyPolicy(%d)", uint8(p))
	}
}

// ConfigMode decides how a statement derives its effective config.
type ConfigMode uint8

const (
	// InheritConfig follows the config substatement or the parent.
	InheritConfig ConfigMode = iota
	// IgnoreConfig marks subtrees where config does not apply.
	IgnoreConfig
	// UndeterminedConfig marks reusable definitions such as groupings.
	UndeterminedConfig
)

// Support is the per-keyword behaviour plugged into the reactor.
type Support interface {
	Keyword() string
	CopyPolicy() CopyPolicy
	ConfigMode() ConfigMode
	// IsSchemaTree reports whether statements are addressable through the
	// schema tree namespace by their QName argument.
	IsSchemaTree() bool

	ParseArgument(ctx Ctx, raw string) (any, error)
	// AdaptArgument returns the argument a copy of ctx bound to target has.
	AdaptArgument(ctx Ctx, target qname.Module) any
	// ImplicitParent returns the statement to interpose between parent and
	// a child of the given support, if any.
	ImplicitParent(parent Ctx, child Support) (Support, bool)

	OnStatementAdded(ctx Ctx) error
	// OnDeclared runs each time the statement's declaration ends in a
	// declaration pass.
	OnDeclared(p phase.Phase, ctx Ctx) error

	CreateDeclared(ctx Ctx, subs []model.Declared) (model.Declared, error)
	CreateEffective(ctx Ctx, subs []model.Effective) (model.Effective, error)
	// CanReuseCurrent reports whether copy may share current's effective
	// statement outright.
	CanReuseCurrent(copy, current Ctx) bool
	// CopyEffective builds copy's effective statement from original while
	// sharing original's substatements.
	CopyEffective(copy Ctx, original model.Effective) (model.Effective, error)
	// EffectiveState returns the interning key of e, if it has one.
	EffectiveState(e model.Effective) (model.State, bool)
}

// BaseSupport provides the default behaviour of every Support method.
// Concrete supports embed it and override what they need.
type BaseSupport struct {
	Name       string
	Policy     CopyPolicy
	Config     ConfigMode
	SchemaTree bool
}

func (b BaseSupport) Keyword() string { return b.Name }
func (b BaseSupport) CopyPolicy() CopyPolicy { return b.Policy }
func (b BaseSupport) ConfigMode() ConfigMode { return b.Config }
func (b BaseSupport) IsSchemaTree() bool { return b.SchemaTree }

// ParseArgument keeps the raw argument.
func (b BaseSupport) ParseArgument(_ Ctx, raw string) (any, error) { return raw, nil }

// AdaptArgument rebinds QName arguments and keeps everything else.
func (b BaseSupport) AdaptArgument(ctx Ctx, target qname.Module) any {
	if q, ok := ctx.Argument().(qname.QName); ok && !target.IsZero() {
		return q.BindTo(target)
	}
	return ctx.Argument()
}

func (b BaseSupport) ImplicitParent(Ctx, Support) (Support, bool) { return nil, false }
func (b BaseSupport) OnStatementAdded(Ctx) error { return nil }
func (b BaseSupport) OnDeclared(phase.Phase, Ctx) error { return nil }

func (b BaseSupport) CreateDeclared(ctx Ctx, subs []model.Declared) (model.Declared, error) {
	return model.NewDeclared(ctx.Keyword(), ctx.RawArgument(), ctx.Argument(), ctx.Ref(), subs), nil
}

func (b BaseSupport) CreateEffective(ctx Ctx, subs []model.Effective) (model.Effective, error) {
	declared, err := ctx.Declared()
	if err != nil {
		return nil, err
	}
	return model.NewEffective(ctx.Keyword(), ctx.Argument(), declared, b.Flags(ctx), subs), nil
}

// Flags derives the default effective flags of ctx.
func (b BaseSupport) Flags(ctx Ctx) model.Flags {
	flags := ctx.History().Flags()
	if b.SchemaTree {
		flags |= model.FlagSchemaTree | configFlags(ctx)
	}
	return flags
}

// CanReuseCurrent allows reuse when nothing observable differs.
func (b BaseSupport) CanReuseCurrent(copy, current Ctx) bool {
	switch b.Policy {
	case ContextIndependent, ExactReplica:
		return true
	default:
		return copy.History().Flags() == current.History().Flags() &&
			copy.EffectiveConfig() == current.EffectiveConfig() &&
			SameArgument(copy.Argument(), current.Argument())
	}
}

func (b BaseSupport) CopyEffective(copy Ctx, original model.Effective) (model.Effective, error) {
	stmt, ok := original.(*model.EffectiveStatement)
	if !ok {
		return original, nil
	}
	return stmt.Rebind(copy.Argument(), b.Flags(copy)), nil
}

func (b BaseSupport) EffectiveState(e model.Effective) (model.State, bool) {
	stmt, ok := e.(*model.EffectiveStatement)
	if !ok || !isComparable(stmt.Argument()) {
		return model.State{}, false
	}
	return stmt.State(), true
}

// SameArgument compares two arguments, treating incomparable values as
// different unless they are both nil.
func SameArgument(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

func isComparable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

func configFlags(ctx Ctx) model.Flags {
	switch ctx.EffectiveConfig() {
	case EffectiveConfigTrue:
		return model.FlagConfigTrue
	case EffectiveConfigFalse:
		return model.FlagConfigFalse
	default:
		return 0
	}
}

// Bundle is the set of supports visible in one phase. Bundles chain to the
// bundle of the previous phase.
type Bundle struct {
	parent   *Bundle
	supports map[string]Support
	phase    phase.Phase
}

// NewBundle creates a bundle for p on top of parent.
func NewBundle(p phase.Phase, parent *Bundle, supports ...Support) *Bundle {
	b := &Bundle{parent: parent, phase: p, supports: make(map[string]Support, len(supports))}
	for _, s := range supports {
		b.supports[s.Keyword()] = s
	}
	return b
}

// Phase returns the phase the bundle was declared for.
func (b *Bundle) Phase() phase.Phase { return b.phase }

// Lookup returns the support for keyword, searching parent bundles.
func (b *Bundle) Lookup(keyword string) (Support, bool) {
	for cur := b; cur != nil; cur = cur.parent {
		if s, ok := cur.supports[keyword]; ok {
			return s, true
		}
	}
	return nil, false
}

// Keywords returns the number of supports visible through b.
func (b *Bundle) Keywords() int {
	seen := make(map[string]struct{})
	for cur := b; cur != nil; cur = cur.parent {
		for k := range cur.supports {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}

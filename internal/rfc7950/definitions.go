package rfc7950

import (
	"fmt"
	"slices"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/reactor"
)

var builtinTypes = []string{
	"binary", "bits", "boolean", "decimal64", "empty", "enumeration",
	"identityref", "instance-identifier", "int8", "int16", "int32", "int64",
	"leafref", "string", "uint8", "uint16", "uint32", "uint64", "union",
}

func isBuiltinType(name string) bool {
	return slices.Contains(builtinTypes, name)
}

// localName parses an unprefixed identifier bound to the source module.
func localName(ctx reactor.Ctx, raw string) (qname.QName, error) {
	if !qname.IsIdentifier(raw) {
		return qname.QName{}, fmt.Errorf("%q is not an identifier", raw)
	}
	mod, err := moduleOf(ctx)
	if err != nil {
		return qname.QName{}, err
	}
	return qname.New(mod, raw), nil
}

// definitionSupport declares a named, module-wide definition such as a
// feature, identity or extension.
type definitionSupport struct {
	reactor.BaseSupport
	ns *namespace.Namespace[qname.QName, reactor.Ctx]
}

func (definitionSupport) ParseArgument(ctx reactor.Ctx, raw string) (any, error) {
	return localName(ctx, raw)
}

func (s definitionSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.StatementDefinition {
		return nil
	}
	q, ok := ctx.Argument().(qname.QName)
	if !ok {
		return nil
	}
	return register(s.ns, ctx, q)
}

// scopedSupport declares a grouping or typedef, visible from its parent
// and every descendant.
type scopedSupport struct {
	reactor.BaseSupport
	ns *namespace.Namespace[qname.QName, reactor.Ctx]
}

func (s scopedSupport) ParseArgument(ctx reactor.Ctx, raw string) (any, error) {
	if s.ns == Typedefs && isBuiltinType(raw) {
		return nil, fmt.Errorf("typedef %s shadows a built-in type", raw)
	}
	return localName(ctx, raw)
}

func (s scopedSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.FullDeclaration {
		return nil
	}
	return registerIn(s.ns, ctx)
}

// requireDefinition waits in phase p until q is defined in ns, looked up
// from ctx or from the root of the module q belongs to.
func requireDefinition(ctx reactor.Ctx, p phase.Phase, ns *namespace.Namespace[qname.QName, reactor.Ctx],
	q qname.QName, what string) error {
	from := ctx
	if own, err := moduleOf(ctx); err == nil && own != q.Module && ns.Behaviour() == namespace.TreeScoped {
		root, ok := ModuleRoots.Get(ctx, q.Module)
		if !ok {
			return reactor.NewSourceError(ctx, yangerrors.ErrUnresolved, "module of %s %s is not imported", what, q)
		}
		from = root
	}
	m, err := ctx.NewInferenceAction(p)
	if err != nil {
		return err
	}
	reactor.RequiresKey(m, from, ns, q, min(p, phase.FullDeclaration))
	return m.Apply(reactor.ActionFuncs{
		FailedFunc: func([]reactor.Prerequisite) error {
			return reactor.NewInferenceError(ctx, yangerrors.ErrUnresolved, "%s %s not found", what, q.Local)
		},
	})
}

type baseSupport struct{ reactor.BaseSupport }

func (baseSupport) ParseArgument(ctx reactor.Ctx, raw string) (any, error) {
	return resolveQName(ctx, raw)
}

// OnDeclared checks the base identity exists. Bases of identities are
// declared with the identities; bases of identityref types later.
func (baseSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	q, ok := ctx.Argument().(qname.QName)
	if !ok {
		return nil
	}
	switch {
	case p == phase.StatementDefinition:
	case p == phase.FullDeclaration && ctx.Parent().Keyword() == "type":
	default:
		return nil
	}
	return requireDefinition(ctx, p, Identities, q, "base identity")
}

type typeSupport struct{ reactor.BaseSupport }

func (typeSupport) ParseArgument(ctx reactor.Ctx, raw string) (any, error) {
	if isBuiltinType(raw) {
		return qname.QName{Local: raw}, nil
	}
	return resolveQName(ctx, raw)
}

func (typeSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.FullDeclaration {
		return nil
	}
	q, ok := ctx.Argument().(qname.QName)
	if !ok || q.Module.IsZero() {
		return nil
	}
	return requireDefinition(ctx, phase.EffectiveModel, Typedefs, q, "typedef")
}

// extensionInstanceSupport handles prefixed keywords that name an
// extension defined by some module.
type extensionInstanceSupport struct{ reactor.BaseSupport }

func (extensionInstanceSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.FullDeclaration {
		return nil
	}
	q, err := resolveQName(ctx, ctx.Keyword())
	if err != nil {
		return reactor.NewSourceError(ctx, yangerrors.ErrUnknownStatement, "unknown statement %q: %v", ctx.Keyword(), err)
	}
	if _, ok := Extensions.Get(ctx, q); !ok {
		return reactor.NewSourceError(ctx, yangerrors.ErrUnknownStatement, "extension %s is not defined", ctx.Keyword())
	}
	return nil
}

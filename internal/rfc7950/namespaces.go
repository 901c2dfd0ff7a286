package rfc7950

import (
	"fmt"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/reactor"
	"github.com/jacoelho/yang/internal/source"
)

var (
	// Modules maps module identifiers to module roots.
	Modules = namespace.New[source.Identifier, reactor.Ctx]("module", namespace.Global)
	// Submodules maps submodule identifiers to submodule roots.
	Submodules = namespace.New[source.Identifier, reactor.Ctx]("submodule", namespace.Global)
	// ModuleRoots maps a module namespace and revision to the module root.
	ModuleRoots = namespace.New[qname.Module, reactor.Ctx]("module-namespace", namespace.Global)
	// Prefixes maps the prefixes bound in one source to modules.
	Prefixes = namespace.New[string, qname.Module]("prefix", namespace.SourceLocal)

	Features   = namespace.New[qname.QName, reactor.Ctx]("feature", namespace.Global)
	Identities = namespace.New[qname.QName, reactor.Ctx]("identity", namespace.Global)
	Extensions = namespace.New[qname.QName, reactor.Ctx]("extension", namespace.Global)

	Groupings = namespace.New[qname.QName, reactor.Ctx]("grouping", namespace.TreeScoped)
	Typedefs  = namespace.New[qname.QName, reactor.Ctx]("typedef", namespace.TreeScoped)

	sourceModules = namespace.New[sourceKey, qname.Module]("source-module", namespace.SourceLocal)
)

type sourceKey struct{}

// moduleOf returns the module the statements of ctx's source belong to.
// Submodules belong to the module they name in belongs-to.
func moduleOf(ctx reactor.Ctx) (qname.Module, error) {
	if mod, ok := sourceModules.Get(ctx, sourceKey{}); ok {
		return mod, nil
	}
	return qname.Module{}, fmt.Errorf("module of %s is not known yet", ctx.Root().Identifier())
}

// resolveQName binds a possibly prefixed identifier to a module.
func resolveQName(ctx reactor.Ctx, raw string) (qname.QName, error) {
	prefix, local, hasPrefix, err := qname.SplitPrefixed(raw)
	if err != nil {
		return qname.QName{}, err
	}
	if !hasPrefix {
		mod, err := moduleOf(ctx)
		if err != nil {
			return qname.QName{}, err
		}
		return qname.New(mod, local), nil
	}
	mod, ok := Prefixes.Get(ctx, prefix)
	if !ok {
		return qname.QName{}, reactor.NewSourceError(ctx, yangerrors.ErrUnresolved, "prefix %q is not bound", prefix)
	}
	return qname.New(mod, local), nil
}

// bindPrefix records prefix for mod in ctx's source.
func bindPrefix(ctx reactor.Ctx, prefix string, mod qname.Module) error {
	prev, loaded, err := Prefixes.PutIfAbsent(ctx, prefix, mod)
	if err != nil {
		return err
	}
	if loaded && prev != mod {
		return reactor.NewSourceError(ctx, yangerrors.ErrPrefixCollision,
			"prefix %q is already bound to %s", prefix, prev)
	}
	return nil
}

// register puts ctx under key, reporting a duplicate when another
// statement already claimed it.
func register[K comparable](ns *namespace.Namespace[K, reactor.Ctx], ctx reactor.Ctx, key K) error {
	prev, loaded, err := ns.PutIfAbsent(ctx, key, ctx)
	if err != nil {
		return err
	}
	if loaded && prev != ctx {
		return reactor.NewSourceError(ctx, yangerrors.ErrDuplicate,
			"%s %v is already defined by %s", ns.Name(), key, reactor.Describe(prev))
	}
	return nil
}

// registerIn is register for tree-scoped namespaces written on the parent.
func registerIn(ns *namespace.Namespace[qname.QName, reactor.Ctx], ctx reactor.Ctx) error {
	q, ok := ctx.Argument().(qname.QName)
	if !ok {
		return nil
	}
	prev, loaded, err := ns.PutIfAbsent(ctx.Parent(), q, ctx)
	if err != nil {
		return err
	}
	if loaded && prev != ctx {
		return reactor.NewSourceError(ctx, yangerrors.ErrDuplicate,
			"%s %s is already defined by %s", ns.Name(), q.Local, reactor.Describe(prev))
	}
	return nil
}

// moduleName returns the name of the module bound to mod.
func moduleName(ctx reactor.Ctx, mod qname.Module) (string, bool) {
	root, ok := ModuleRoots.Get(ctx, mod)
	if !ok {
		return "", false
	}
	return root.RawArgument(), true
}

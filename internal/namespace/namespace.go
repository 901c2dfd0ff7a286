// Package namespace implements typed keyed registries attached to nodes of
// the statement tree, together with their propagation rules and change
// listeners.
//
// Nothing in this package is safe for concurrent use.
package namespace

import (
	"errors"
	"fmt"
	"maps"
)

// Behaviour decides which storage a namespace reads and writes.
type Behaviour uint8

const (
	// Global entries live in the single build-wide storage.
	Global Behaviour = iota
	// SourceLocal entries live with the source being processed.
	SourceLocal
	// RootLocal entries live on the root statement of a source and are
	// visible through included roots.
	RootLocal
	// StatementLocal entries live on the statement they were written to.
	StatementLocal
	// TreeScoped entries are written locally and looked up along the
	// ancestor chain up to the root.
	TreeScoped
)

func (b Behaviour) String() string {
	switch b {
	case Global:
		return "global"
	case SourceLocal:
		return "source-local"
	case RootLocal:
		return "root-local"
	case StatementLocal:
		return "statement-local"
	case TreeScoped:
		return "tree-scoped"
	default:
		return fmt.Sprintf("Behaviour(%d)", uint8(b))
	}
}

// ErrNoStorage reports a write from a node with no storage of the
// namespace's scope above it.
var ErrNoStorage = errors.New("no storage for namespace")

// Listener receives an entry once it becomes visible.
type Listener[K comparable, V any] func(key K, value V) error

// Loader materializes a missing statement-local entry on demand.
type Loader[K comparable, V any] func(node StorageNode, key K) (V, bool)

// Criterion matches entries by key. Select picks the preferred of two
// matching keys; it must be deterministic.
type Criterion[K comparable] struct {
	Match  func(key K) bool
	Select func(best, candidate K) K
}

// Namespace is a typed token identifying one keyed registry.
// Tokens are compared by identity, so each namespace is declared once as a
// package-level variable.
type Namespace[K comparable, V any] struct {
	name      string
	behaviour Behaviour
	loader    Loader[K, V]
	derived   []func(node StorageNode, key K, value V) error
}

// New declares a namespace.
func New[K comparable, V any](name string, behaviour Behaviour) *Namespace[K, V] {
	return &Namespace[K, V]{name: name, behaviour: behaviour}
}

// WithLoader installs an on-demand loader consulted when a statement-local
// lookup misses. It must be called during package initialization.
func (ns *Namespace[K, V]) WithLoader(loader Loader[K, V]) *Namespace[K, V] {
	ns.loader = loader
	return ns
}

// Derive declares a namespace whose key space is computed from src writes.
// Entries are forwarded with the translated key; the first writer wins.
func Derive[K, D comparable, V any](name string, src *Namespace[K, V], key func(K) D) *Namespace[D, V] {
	dst := New[D, V](name, src.behaviour)
	src.derived = append(src.derived, func(node StorageNode, k K, v V) error {
		_, _, err := dst.PutIfAbsent(node, key(k), v)
		return err
	})
	return dst
}

// Name returns the namespace name.
func (ns *Namespace[K, V]) Name() string { return ns.name }

// Behaviour returns the namespace propagation behaviour.
func (ns *Namespace[K, V]) Behaviour() Behaviour { return ns.behaviour }

func (ns *Namespace[K, V]) String() string { return ns.name }

func (ns *Namespace[K, V]) target(node StorageNode) StorageNode {
	switch ns.behaviour {
	case Global:
		return ancestorOfType(node, GlobalStorage)
	case SourceLocal:
		return ancestorOfType(node, SourceStorage)
	case RootLocal:
		return ancestorOfType(node, RootStorage)
	default:
		return node
	}
}

// Get returns the entry for key visible from node. It never blocks.
func (ns *Namespace[K, V]) Get(node StorageNode, key K) (V, bool) {
	var zero V
	if node == nil {
		return zero, false
	}
	switch ns.behaviour {
	case TreeScoped:
		for n := node; n != nil; n = n.ParentStorage() {
			typ := n.StorageType()
			if typ == SourceStorage || typ == GlobalStorage {
				break
			}
			if v, ok := ns.lookupWithIncludes(n, key); ok {
				return v, true
			}
		}
		return zero, false
	case StatementLocal:
		if v, ok := ns.lookupWithIncludes(node, key); ok {
			return v, true
		}
		if ns.loader != nil {
			return ns.loader(node, key)
		}
		return zero, false
	default:
		target := ns.target(node)
		if target == nil {
			return zero, false
		}
		return ns.lookupWithIncludes(target, key)
	}
}

func (ns *Namespace[K, V]) lookupWithIncludes(node StorageNode, key K) (V, bool) {
	if v, ok := typedMap(node.Storage(), ns)[key]; ok {
		return v, true
	}
	if node.StorageType() == RootStorage {
		for _, inc := range includedOf(node) {
			if v, ok := typedMap(inc.Storage(), ns)[key]; ok {
				return v, true
			}
		}
	}
	var zero V
	return zero, false
}

// Entries returns a copy of the entries stored where node's writes land,
// merged with included roots for root storage.
func (ns *Namespace[K, V]) Entries(node StorageNode) map[K]V {
	target := ns.target(node)
	if target == nil {
		return nil
	}
	out := maps.Clone(typedMap(target.Storage(), ns))
	if target.StorageType() != RootStorage {
		return out
	}
	for _, inc := range includedOf(target) {
		for k, v := range typedMap(inc.Storage(), ns) {
			if out == nil {
				out = make(map[K]V)
			}
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out
}

// Put stores value under key unless an entry already exists.
func (ns *Namespace[K, V]) Put(node StorageNode, key K, value V) error {
	_, _, err := ns.PutIfAbsent(node, key, value)
	return err
}

// PutIfAbsent stores value under key unless an entry exists, in which case
// the existing value is returned with loaded set. New entries are
// forwarded to derived namespaces and delivered to waiting listeners.
func (ns *Namespace[K, V]) PutIfAbsent(node StorageNode, key K, value V) (V, bool, error) {
	var zero V
	target := ns.target(node)
	if target == nil {
		return zero, false, fmt.Errorf("namespace %s: %w", ns.name, ErrNoStorage)
	}
	m, err := ensureMap(target.Storage(), ns)
	if err != nil {
		return zero, false, err
	}
	if prev, ok := m[key]; ok {
		return prev, true, nil
	}
	m[key] = value

	var errs []error
	for _, forward := range ns.derived {
		if err := forward(target, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if reg := registryOf(target); reg != nil {
		if err := notify(reg, ns, target, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return value, false, errors.Join(errs...)
}

// OnKey invokes fn once key becomes visible from node. If the entry is
// already present fn runs synchronously.
func (ns *Namespace[K, V]) OnKey(node StorageNode, key K, fn Listener[K, V]) error {
	if v, ok := ns.Get(node, key); ok {
		return fn(key, v)
	}
	reg := registryOf(node)
	if reg == nil {
		return fmt.Errorf("namespace %s: no registry reachable", ns.name)
	}
	set := listenersOf(reg, ns)
	set.keyed = append(set.keyed, &keyedListener[K, V]{node: node, key: key, fn: fn})
	return nil
}

// OnMatch invokes fn once with the best entry matching c. Existing entries
// are considered first; otherwise the first matching write fires fn.
func (ns *Namespace[K, V]) OnMatch(node StorageNode, c Criterion[K], fn Listener[K, V]) error {
	var (
		best    K
		found   bool
		present = ns.Entries(node)
	)
	for k := range present {
		if !c.Match(k) {
			continue
		}
		switch {
		case !found:
			best, found = k, true
		case c.Select != nil:
			best = c.Select(best, k)
		}
	}
	if found {
		return fn(best, present[best])
	}
	reg := registryOf(node)
	if reg == nil {
		return fmt.Errorf("namespace %s: no registry reachable", ns.name)
	}
	set := listenersOf(reg, ns)
	set.matched = append(set.matched, &matchListener[K, V]{node: node, match: c.Match, fn: fn})
	return nil
}

// visible reports whether an entry written to owner can be seen from node.
func (ns *Namespace[K, V]) visible(node, owner StorageNode) bool {
	switch ns.behaviour {
	case TreeScoped:
		for n := node; n != nil; n = n.ParentStorage() {
			typ := n.StorageType()
			if typ == SourceStorage || typ == GlobalStorage {
				return false
			}
			if n == owner || includes(n, owner) {
				return true
			}
		}
		return false
	default:
		target := ns.target(node)
		return target == owner || includes(target, owner)
	}
}

func includes(node, owner StorageNode) bool {
	if node == nil || node.StorageType() != RootStorage {
		return false
	}
	for _, inc := range includedOf(node) {
		if inc == owner {
			return true
		}
	}
	return false
}

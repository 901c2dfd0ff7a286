package namespace

import "errors"

// Registry keeps listeners waiting for namespace entries during one build.
type Registry struct {
	listeners map[any]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{listeners: make(map[any]any)}
}

// Pending reports the number of listeners not yet delivered.
func (r *Registry) Pending() int {
	n := 0
	for _, set := range r.listeners {
		n += set.(interface{ pending() int }).pending()
	}
	return n
}

type keyedListener[K comparable, V any] struct {
	node StorageNode
	key  K
	fn   Listener[K, V]
}

type matchListener[K comparable, V any] struct {
	node  StorageNode
	match func(K) bool
	fn    Listener[K, V]
}

type listenerSet[K comparable, V any] struct {
	keyed   []*keyedListener[K, V]
	matched []*matchListener[K, V]
}

func (s *listenerSet[K, V]) pending() int {
	return len(s.keyed) + len(s.matched)
}

func registryOf(node StorageNode) *Registry {
	for n := node; n != nil; n = n.ParentStorage() {
		if holder, ok := n.(RegistryHolder); ok {
			return holder.Registry()
		}
	}
	return nil
}

func listenersOf[K comparable, V any](reg *Registry, ns *Namespace[K, V]) *listenerSet[K, V] {
	if raw, ok := reg.listeners[ns]; ok {
		return raw.(*listenerSet[K, V])
	}
	set := &listenerSet[K, V]{}
	reg.listeners[ns] = set
	return set
}

// notify delivers a new entry to every listener that can see it, in
// registration order. Delivered listeners are removed before any callback
// runs, so callbacks may register further listeners.
func notify[K comparable, V any](reg *Registry, ns *Namespace[K, V], owner StorageNode, key K, value V) error {
	raw, ok := reg.listeners[ns]
	if !ok {
		return nil
	}
	set := raw.(*listenerSet[K, V])

	var fire []Listener[K, V]
	keptKeyed := set.keyed[:0]
	for _, l := range set.keyed {
		if l.key == key && ns.visible(l.node, owner) {
			fire = append(fire, l.fn)
			continue
		}
		keptKeyed = append(keptKeyed, l)
	}
	clear(set.keyed[len(keptKeyed):])
	set.keyed = keptKeyed

	keptMatched := set.matched[:0]
	for _, l := range set.matched {
		if l.match(key) && ns.visible(l.node, owner) {
			fire = append(fire, l.fn)
			continue
		}
		keptMatched = append(keptMatched, l)
	}
	clear(set.matched[len(keptMatched):])
	set.matched = keptMatched

	var errs []error
	for _, fn := range fire {
		if err := fn(key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

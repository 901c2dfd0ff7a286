package namespace

import "fmt"

// StorageType classifies where a storage node sits in the build hierarchy.
type StorageType uint8

const (
	GlobalStorage StorageType = iota
	SourceStorage
	RootStorage
	StatementStorage
)

func (t StorageType) String() string {
	switch t {
	case GlobalStorage:
		return "global"
	case SourceStorage:
		return "source"
	case RootStorage:
		return "root"
	case StatementStorage:
		return "statement"
	default:
		return fmt.Sprintf("StorageType(%d)", uint8(t))
	}
}

// StorageNode is any participant owning namespace storage.
type StorageNode interface {
	StorageType() StorageType
	// ParentStorage returns the enclosing node, nil for the global node.
	ParentStorage() StorageNode
	Storage() *Storage
}

// Includer is implemented by root nodes whose lookups also consult linked
// roots, such as a module and its included submodules.
type Includer interface {
	IncludedStorages() []StorageNode
}

// RegistryHolder is implemented by the global storage node.
type RegistryHolder interface {
	Registry() *Registry
}

type storageState uint8

const (
	storageEmpty storageState = iota
	storageSingle
	storageMulti
	storageDiscarded
)

// Storage holds the namespace maps owned by one node.
// Most nodes use zero or one namespace, so the backing map is only
// allocated once a second namespace is written.
type Storage struct {
	singleNS  any
	singleMap any
	multi     map[any]any
	state     storageState
}

func (s *Storage) lookup(ns any) any {
	switch s.state {
	case storageSingle:
		if s.singleNS == ns {
			return s.singleMap
		}
	case storageMulti:
		return s.multi[ns]
	}
	return nil
}

func (s *Storage) install(ns, m any) error {
	switch s.state {
	case storageEmpty:
		s.singleNS, s.singleMap = ns, m
		s.state = storageSingle
	case storageSingle:
		s.multi = map[any]any{s.singleNS: s.singleMap, ns: m}
		s.singleNS, s.singleMap = nil, nil
		s.state = storageMulti
	case storageMulti:
		s.multi[ns] = m
	case storageDiscarded:
		return fmt.Errorf("storage discarded")
	}
	return nil
}

// Namespaces reports how many namespaces have entries in s.
func (s *Storage) Namespaces() int {
	switch s.state {
	case storageSingle:
		return 1
	case storageMulti:
		return len(s.multi)
	default:
		return 0
	}
}

// Discard releases all maps. Later writes fail and reads miss.
func (s *Storage) Discard() {
	s.singleNS, s.singleMap, s.multi = nil, nil, nil
	s.state = storageDiscarded
}

// Discarded reports whether Discard was called.
func (s *Storage) Discarded() bool {
	return s.state == storageDiscarded
}

func typedMap[K comparable, V any](s *Storage, ns *Namespace[K, V]) map[K]V {
	if s == nil {
		return nil
	}
	raw := s.lookup(ns)
	if raw == nil {
		return nil
	}
	m, ok := raw.(map[K]V)
	if !ok {
		panic(fmt.Sprintf("namespace %s: storage holds %T", ns.name, raw))
	}
	return m
}

func ensureMap[K comparable, V any](s *Storage, ns *Namespace[K, V]) (map[K]V, error) {
	if m := typedMap(s, ns); m != nil {
		return m, nil
	}
	m := make(map[K]V, 1)
	if err := s.install(ns, m); err != nil {
		return nil, fmt.Errorf("namespace %s: %w", ns.name, err)
	}
	return m, nil
}

func ancestorOfType(node StorageNode, typ StorageType) StorageNode {
	for n := node; n != nil; n = n.ParentStorage() {
		if n.StorageType() == typ {
			return n
		}
	}
	return nil
}

func includedOf(node StorageNode) []StorageNode {
	if inc, ok := node.(Includer); ok {
		return inc.IncludedStorages()
	}
	return nil
}

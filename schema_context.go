package yang

import (
	"slices"

	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/reactor"
	"github.com/jacoelho/yang/internal/source"
)

// BuildStats summarizes the work done by a build.
type BuildStats = reactor.Stats

// SchemaContext holds the declared and effective models of one build.
type SchemaContext struct {
	buildID   string
	declared  []Declared
	effective []Effective
	modules   []*ModuleStatement
	stats     BuildStats
}

func newSchemaContext(res *reactor.Result) *SchemaContext {
	sc := &SchemaContext{
		buildID:   res.BuildID,
		declared:  res.Declared,
		effective: res.Effective,
		stats:     res.Stats,
	}
	for _, e := range res.Effective {
		if ms, ok := e.(*model.ModuleStatement); ok && ms.Keyword() == "module" {
			sc.modules = append(sc.modules, ms)
		}
	}
	return sc
}

// BuildID returns the identifier the build logged with.
func (s *SchemaContext) BuildID() string { return s.buildID }

// Stats returns build counters.
func (s *SchemaContext) Stats() BuildStats { return s.stats }

// DeclaredRoots returns the declared root of each source in input order.
func (s *SchemaContext) DeclaredRoots() []Declared { return slices.Clone(s.declared) }

// EffectiveRoots returns the effective root of each source in input order.
func (s *SchemaContext) EffectiveRoots() []Effective { return slices.Clone(s.effective) }

// Modules returns the effective modules, submodules excluded.
func (s *SchemaContext) Modules() []*ModuleStatement { return slices.Clone(s.modules) }

// Module returns the latest revision of the module named name.
func (s *SchemaContext) Module(name string) (*ModuleStatement, bool) {
	var best *ModuleStatement
	for _, ms := range s.modules {
		if ms.Name() != name {
			continue
		}
		if best == nil || ms.Module().Revision > best.Module().Revision {
			best = ms
		}
	}
	return best, best != nil
}

// ModuleIdentifier returns the name and revision of ms.
func ModuleIdentifier(ms *ModuleStatement) Identifier {
	return source.Identifier{Name: ms.Name(), Revision: ms.Module().Revision}
}

// FindSchemaNode follows path from the module of its first element.
// Choice and case nodes are part of the path.
func (s *SchemaContext) FindSchemaNode(path ...QName) (Effective, bool) {
	if len(path) == 0 {
		return nil, false
	}
	var node Effective
	for _, ms := range s.modules {
		if ms.Module() == path[0].Module {
			node = ms
			break
		}
	}
	if node == nil {
		return nil, false
	}
	for _, step := range path {
		next, ok := model.FindSchemaChild(node, step)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

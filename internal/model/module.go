package model

import (
	"fmt"

	"github.com/jacoelho/yang/internal/qname"
)

// ModuleStatement is the effective form of a module or submodule.
// Included submodules are attached after construction, then sealed.
type ModuleStatement struct {
	*EffectiveStatement
	submodules []*ModuleStatement
	module     qname.Module
	prefix     string
	sealed     bool
}

// NewModule wraps an effective statement with module identity.
func NewModule(e *EffectiveStatement, module qname.Module, prefix string) *ModuleStatement {
	return &ModuleStatement{EffectiveStatement: e, module: module, prefix: prefix}
}

// Module returns the namespace and revision of the module.
func (m *ModuleStatement) Module() qname.Module { return m.module }

// Prefix returns the module's own prefix.
func (m *ModuleStatement) Prefix() string { return m.prefix }

// Name returns the module name.
func (m *ModuleStatement) Name() string {
	name, _ := m.Argument().(string)
	return name
}

// Submodules returns included submodules.
func (m *ModuleStatement) Submodules() []*ModuleStatement { return m.submodules }

// AddSubmodule attaches an included submodule.
func (m *ModuleStatement) AddSubmodule(sub *ModuleStatement) error {
	if m.sealed {
		return fmt.Errorf("module %s: sealed", m.Name())
	}
	for _, existing := range m.submodules {
		if existing == sub {
			return nil
		}
	}
	m.submodules = append(m.submodules, sub)
	return nil
}

// Seal freezes the submodule list.
func (m *ModuleStatement) Seal() { m.sealed = true }

// Sealed reports whether Seal was called.
func (m *ModuleStatement) Sealed() bool { return m.sealed }

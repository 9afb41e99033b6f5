package programs

import (
	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/model/vm"
)

// LoadedModule is a verified module whose imports are resolved and linked.
type LoadedModule struct {
	ID     vm.ModuleID
	Module *bytecode.CompiledModule
	// Size is the length of the serialized code.
	Size uint64
	// Deps are the resolved imports, in the order of Module.Imports.
	Deps []*LoadedModule
}

// Function looks up a declared function.
func (m *LoadedModule) Function(name string) (*bytecode.Function, bool) {
	return m.Module.Function(name)
}

// LoadedScript is a verified script whose imports are resolved and linked.
type LoadedScript struct {
	Hash   vm.Identifier
	Script *bytecode.CompiledScript
	Size   uint64
	Deps   []*LoadedModule
}

// ReferencedModules returns every module reachable from deps, each once, in
// depth-first order of first appearance.
func ReferencedModules(deps []*LoadedModule) []*LoadedModule {
	var result []*LoadedModule
	seen := make(map[vm.ModuleID]struct{})

	var visit func(m *LoadedModule)
	visit = func(m *LoadedModule) {
		if _, ok := seen[m.ID]; ok {
			return
		}
		seen[m.ID] = struct{}{}
		result = append(result, m)
		for _, dep := range m.Deps {
			visit(dep)
		}
	}

	for _, dep := range deps {
		visit(dep)
	}
	return result
}

// ReferencedSize returns the total code size of all modules reachable from
// deps.
func ReferencedSize(deps []*LoadedModule) uint64 {
	var size uint64
	for _, m := range ReferencedModules(deps) {
		size += m.Size
	}
	return size
}

package programs

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module"
	"github.com/onflow/vm-runtime/module/metrics"
)

const DefaultScriptCacheSize = 256

// BlockPrograms is the code cache of one block. Modules are loaded from the
// snapshot or from publications committed earlier in the block, verified
// once, and shared by all later transactions. It lives for exactly one block
// and is not safe for concurrent use.
type BlockPrograms struct {
	snapshot storage.StorageSnapshot
	verifier bytecode.Verifier
	metrics  module.CodeCacheMetrics

	modules   map[vm.ModuleID]*LoadedModule
	published map[vm.ModuleID][]byte
	scripts   *lru.Cache[vm.Identifier, *LoadedScript]
}

type BlockProgramsOption func(*BlockPrograms)

func WithMetrics(metrics module.CodeCacheMetrics) BlockProgramsOption {
	return func(p *BlockPrograms) {
		p.metrics = metrics
	}
}

// NewBlockPrograms creates an empty code cache over snapshot.
func NewBlockPrograms(
	snapshot storage.StorageSnapshot,
	verifier bytecode.Verifier,
	scriptCacheSize int,
	opts ...BlockProgramsOption,
) (*BlockPrograms, error) {
	if scriptCacheSize <= 0 {
		scriptCacheSize = DefaultScriptCacheSize
	}
	scripts, err := lru.New[vm.Identifier, *LoadedScript](scriptCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create script cache: %w", err)
	}

	p := &BlockPrograms{
		snapshot:  snapshot,
		verifier:  verifier,
		metrics:   metrics.NewNoopCollector(),
		modules:   make(map[vm.ModuleID]*LoadedModule),
		published: make(map[vm.ModuleID][]byte),
		scripts:   scripts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// CachedModules returns the number of loaded modules.
func (p *BlockPrograms) CachedModules() int {
	return len(p.modules)
}

// Resolve returns the loaded module with the given id, loading, verifying and
// linking it and its dependencies on first use.
func (p *BlockPrograms) Resolve(id vm.ModuleID) (*LoadedModule, error) {
	return p.resolve(id, make(map[vm.ModuleID]struct{}))
}

// Exists returns true if a module with the given id is published, either in
// the snapshot or earlier in the block.
func (p *BlockPrograms) Exists(id vm.ModuleID) (bool, error) {
	if _, ok := p.modules[id]; ok {
		return true, nil
	}
	if _, ok := p.published[id]; ok {
		return true, nil
	}
	path := vm.ModuleCodePath(id)
	code, err := p.snapshot.Get(path)
	if err != nil {
		return false, errors.NewStorageFailure(path, err)
	}
	return code != nil, nil
}

func (p *BlockPrograms) resolve(
	id vm.ModuleID,
	visiting map[vm.ModuleID]struct{},
) (*LoadedModule, error) {
	if loaded, ok := p.modules[id]; ok {
		p.metrics.CodeCacheHit(metrics.CodeCacheKindModule)
		return loaded, nil
	}

	if _, ok := visiting[id]; ok {
		return nil, errors.NewCyclicModuleDependencyError(id)
	}

	code, err := p.moduleCode(id)
	if err != nil {
		return nil, err
	}

	compiled, err := bytecode.DeserializeModule(code)
	if err != nil {
		return nil, errors.NewCodeDeserializationError(err)
	}
	if compiled.ID() != id {
		return nil, errors.NewBytecodeVerificationError(
			id.String(),
			fmt.Errorf("code declares module %s", compiled.ID()))
	}

	if err := p.verifier.VerifyModule(compiled); err != nil {
		return nil, errors.NewBytecodeVerificationError(id.String(), err)
	}

	visiting[id] = struct{}{}
	deps, err := p.link(compiled.Imports, compiled.Calls, visiting)
	delete(visiting, id)
	if err != nil {
		return nil, err
	}

	loaded := &LoadedModule{
		ID:     id,
		Module: compiled,
		Size:   uint64(len(code)),
		Deps:   deps,
	}
	p.modules[id] = loaded
	p.metrics.CodeCacheMiss(metrics.CodeCacheKindModule)
	return loaded, nil
}

func (p *BlockPrograms) moduleCode(id vm.ModuleID) ([]byte, error) {
	if code, ok := p.published[id]; ok {
		return code, nil
	}

	path := vm.ModuleCodePath(id)
	code, err := p.snapshot.Get(path)
	if err != nil {
		return nil, errors.NewStorageFailure(path, err)
	}
	if code == nil {
		return nil, errors.NewModuleNotFoundError(id)
	}
	return code, nil
}

// link resolves imports and checks every imported call target against the
// declaration in the resolved module.
func (p *BlockPrograms) link(
	imports []vm.ModuleID,
	calls []bytecode.CallTarget,
	visiting map[vm.ModuleID]struct{},
) ([]*LoadedModule, error) {
	deps := make([]*LoadedModule, 0, len(imports))
	for _, dep := range imports {
		loaded, err := p.resolve(dep, visiting)
		if err != nil {
			return nil, err
		}
		deps = append(deps, loaded)
	}

	for _, call := range calls {
		if call.Import == bytecode.SelfImport {
			continue
		}
		if call.Import < 0 || call.Import >= len(deps) {
			return nil, errors.NewInvariantViolationf(
				"verified call target %s has import index %d out of %d imports",
				call.Function,
				call.Import,
				len(deps))
		}
		dep := deps[call.Import]
		f, ok := dep.Function(call.Function)
		if !ok {
			return nil, errors.NewImportedFunctionNotFoundError(dep.ID, call.Function)
		}
		expected := bytecode.Signature{Params: call.Params, Returns: call.Returns}
		if !f.Signature().Equal(expected) {
			return nil, errors.NewBytecodeVerificationError(
				dep.ID.String(),
				fmt.Errorf("function %s does not match the imported signature", call.Function))
		}
	}
	return deps, nil
}

// LoadScript returns the loaded script for code, verifying and linking it on
// first use. Scripts are cached by content hash.
func (p *BlockPrograms) LoadScript(code []byte) (*LoadedScript, error) {
	hash := bytecode.ScriptHash(code)
	if loaded, ok := p.scripts.Get(hash); ok {
		p.metrics.CodeCacheHit(metrics.CodeCacheKindScript)
		return loaded, nil
	}

	compiled, err := bytecode.DeserializeScript(code)
	if err != nil {
		return nil, errors.NewCodeDeserializationError(err)
	}

	if err := p.verifier.VerifyScript(compiled); err != nil {
		return nil, errors.NewBytecodeVerificationError("script", err)
	}

	deps, err := p.link(compiled.Imports, compiled.Calls, make(map[vm.ModuleID]struct{}))
	if err != nil {
		return nil, err
	}

	loaded := &LoadedScript{
		Hash:   hash,
		Script: compiled,
		Size:   uint64(len(code)),
		Deps:   deps,
	}
	p.scripts.Add(hash, loaded)
	p.metrics.CodeCacheMiss(metrics.CodeCacheKindScript)
	return loaded, nil
}

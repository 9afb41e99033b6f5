package programs

import (
	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/model/vm"
)

// TransactionPrograms is the view of the block code cache used by one
// transaction. Modules published by the transaction are staged and only
// become visible to later transactions after Commit.
type TransactionPrograms struct {
	block *BlockPrograms

	staged     *LoadedModule
	stagedCode []byte
}

// NewTransactionPrograms returns a view used by a single transaction.
func (p *BlockPrograms) NewTransactionPrograms() *TransactionPrograms {
	return &TransactionPrograms{block: p}
}

// Resolve returns a module visible to the transaction.
func (t *TransactionPrograms) Resolve(id vm.ModuleID) (*LoadedModule, error) {
	if t.staged != nil && t.staged.ID == id {
		return t.staged, nil
	}
	return t.block.Resolve(id)
}

// LoadScript loads script code through the block cache.
func (t *TransactionPrograms) LoadScript(code []byte) (*LoadedScript, error) {
	return t.block.LoadScript(code)
}

// StageModule deserializes, verifies and links module code published by
// sender, and stages it for commit.
func (t *TransactionPrograms) StageModule(code []byte, sender vm.Address) (*LoadedModule, error) {
	if t.staged != nil {
		return nil, errors.NewMalformedPayloadErrorf("a transaction can publish only one module")
	}

	compiled, err := bytecode.DeserializeModule(code)
	if err != nil {
		return nil, errors.NewCodeDeserializationError(err)
	}

	id := compiled.ID()
	if compiled.Address != sender {
		return nil, errors.NewModuleAddressMismatchError(id, sender)
	}

	exists, err := t.block.Exists(id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewDuplicateModuleNameError(id)
	}

	if err := t.block.verifier.VerifyModule(compiled); err != nil {
		return nil, errors.NewBytecodeVerificationError(id.String(), err)
	}

	visiting := map[vm.ModuleID]struct{}{id: {}}
	deps, err := t.block.link(compiled.Imports, compiled.Calls, visiting)
	if err != nil {
		return nil, err
	}

	t.staged = &LoadedModule{
		ID:     id,
		Module: compiled,
		Size:   uint64(len(code)),
		Deps:   deps,
	}
	t.stagedCode = code
	return t.staged, nil
}

// Commit makes the staged module visible to later transactions of the block.
func (t *TransactionPrograms) Commit() error {
	if t.staged == nil {
		return nil
	}

	id := t.staged.ID
	if _, ok := t.block.published[id]; ok {
		return errors.NewInvariantViolationf(
			"module %s committed twice",
			id)
	}

	t.block.published[id] = t.stagedCode
	t.block.modules[id] = t.staged
	t.staged = nil
	t.stagedCode = nil
	return nil
}

// Discard drops the staged module.
func (t *TransactionPrograms) Discard() {
	t.staged = nil
	t.stagedCode = nil
}

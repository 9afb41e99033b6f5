package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	fvmStorage "github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/storage"
	"github.com/onflow/vm-runtime/storage/badger/operation"
)

// State is the ledger state persisted in badger. The virtual machine only
// reads it through a snapshot, and the caller commits the write sets of kept
// transactions after a block is executed.
type State struct {
	db *badger.DB
}

var _ fvmStorage.StorageSnapshot = (*State)(nil)

func NewState(db *badger.DB) *State {
	return &State{db: db}
}

// Get returns the value at path, or nil if it is absent.
func (s *State) Get(path vm.AccessPath) ([]byte, error) {
	var value []byte
	err := s.db.View(operation.RetrieveStateValue(path, &value))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return value, nil
}

// Commit applies the write sets in order, atomically.
func (s *State) Commit(writeSets ...vm.WriteSet) error {
	return s.db.Update(func(tx *badger.Txn) error {
		for i, ws := range writeSets {
			err := operation.ApplyWriteSet(ws)(tx)
			if err != nil {
				return fmt.Errorf("could not apply write set %d: %w", i, err)
			}
		}
		return operation.IncrementCommittedWriteSets(uint64(len(writeSets)))(tx)
	})
}

// CommittedWriteSets returns the number of write sets applied to the state.
func (s *State) CommittedWriteSets() (uint64, error) {
	var count uint64
	err := s.db.View(operation.RetrieveCommittedWriteSets(&count))
	if err != nil {
		return 0, fmt.Errorf("could not read write set count: %w", err)
	}
	return count, nil
}

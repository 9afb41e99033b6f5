package operation

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/storage"
)

// RetrieveStateValue reads the value stored at path. It returns
// storage.ErrNotFound if the path holds no value.
func RetrieveStateValue(path vm.AccessPath, value *[]byte) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		item, err := tx.Get(makePrefix(codeStateValue, path))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("could not load value: %w", err)
		}

		*value, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("could not copy value: %w", err)
		}
		// a stored empty value is present, nil means absent
		if *value == nil {
			*value = []byte{}
		}
		return nil
	}
}

// UpsertStateValue stores value at path, replacing any previous value.
func UpsertStateValue(path vm.AccessPath, value []byte) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := tx.Set(makePrefix(codeStateValue, path), value)
		if err != nil {
			return fmt.Errorf("could not store value: %w", err)
		}
		return nil
	}
}

// RemoveStateValue deletes the value at path. Removing an absent path is a
// no-op.
func RemoveStateValue(path vm.AccessPath) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := tx.Delete(makePrefix(codeStateValue, path))
		if err != nil {
			return fmt.Errorf("could not remove value: %w", err)
		}
		return nil
	}
}

// ApplyWriteSet applies every operation of ws.
func ApplyWriteSet(ws vm.WriteSet) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		for _, entry := range ws {
			var err error
			if entry.Op.IsDelete() {
				err = RemoveStateValue(entry.Path)(tx)
			} else {
				err = UpsertStateValue(entry.Path, entry.Op.Value)(tx)
			}
			if err != nil {
				return fmt.Errorf("could not apply %s: %w", entry.Path, err)
			}
		}
		return nil
	}
}

// RetrieveCommittedWriteSets reads the number of write sets committed so far.
// It is 0 for a fresh database.
func RetrieveCommittedWriteSets(count *uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		item, err := tx.Get(makePrefix(codeCommittedWriteSets))
		if errors.Is(err, badger.ErrKeyNotFound) {
			*count = 0
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not load write set count: %w", err)
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("invalid write set count of length %d", len(val))
			}
			*count = binary.BigEndian.Uint64(val)
			return nil
		})
	}
}

// IncrementCommittedWriteSets adds n to the number of committed write sets.
func IncrementCommittedWriteSets(n uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		var count uint64
		err := RetrieveCommittedWriteSets(&count)(tx)
		if err != nil {
			return err
		}
		return tx.Set(makePrefix(codeCommittedWriteSets), b(count+n))
	}
}

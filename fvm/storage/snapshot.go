package storage

import (
	"github.com/onflow/vm-runtime/model/vm"
)

// StorageSnapshot is a read-only view of ledger state. A nil value means the
// path is absent. Implementations must be safe for concurrent reads.
type StorageSnapshot interface {
	Get(path vm.AccessPath) ([]byte, error)
}

// SnapshotFunc adapts a function to a StorageSnapshot.
type SnapshotFunc func(path vm.AccessPath) ([]byte, error)

func (f SnapshotFunc) Get(path vm.AccessPath) ([]byte, error) {
	return f(path)
}

// EmptyStorageSnapshot holds no values.
type EmptyStorageSnapshot struct{}

func (EmptyStorageSnapshot) Get(vm.AccessPath) ([]byte, error) {
	return nil, nil
}

// MapStorageSnapshot is an in-memory snapshot.
type MapStorageSnapshot map[vm.AccessPath][]byte

func (m MapStorageSnapshot) Get(path vm.AccessPath) ([]byte, error) {
	return m[path], nil
}

// ApplyWriteSets returns a new snapshot with the write sets applied in order
// on top of base. base is not modified.
func (m MapStorageSnapshot) ApplyWriteSets(writeSets ...vm.WriteSet) MapStorageSnapshot {
	next := make(MapStorageSnapshot, len(m))
	for path, value := range m {
		next[path] = value
	}
	for _, ws := range writeSets {
		for _, entry := range ws {
			if entry.Op.IsDelete() {
				delete(next, entry.Path)
				continue
			}
			next[entry.Path] = entry.Op.Value
		}
	}
	return next
}

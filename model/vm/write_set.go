package vm

import (
	"fmt"
	"sort"
)

// WriteOpKind distinguishes between writes and deletes.
type WriteOpKind uint8

const (
	WriteOpWrite WriteOpKind = iota
	WriteOpDelete
)

func (k WriteOpKind) String() string {
	switch k {
	case WriteOpWrite:
		return "write"
	case WriteOpDelete:
		return "delete"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// WriteOp is a single mutation of one access path.
type WriteOp struct {
	Kind  WriteOpKind
	Value []byte
}

// Write returns a WriteOp that sets a value.
func Write(value []byte) WriteOp {
	return WriteOp{Kind: WriteOpWrite, Value: value}
}

// Delete returns a WriteOp that removes a value.
func Delete() WriteOp {
	return WriteOp{Kind: WriteOpDelete}
}

// IsDelete returns true for deletions.
func (op WriteOp) IsDelete() bool {
	return op.Kind == WriteOpDelete
}

// WriteSetEntry is one (AccessPath, WriteOp) pair of a write set.
type WriteSetEntry struct {
	Path AccessPath
	Op   WriteOp
}

// WriteSet is the complete, ordered set of state mutations produced by one
// transaction. Access paths are unique within a write set.
type WriteSet []WriteSetEntry

// NewWriteSet builds a write set from a map of pending writes. Entries are
// sorted by access path so that the result does not depend on map order.
func NewWriteSet(writes map[AccessPath]WriteOp) WriteSet {
	ws := make(WriteSet, 0, len(writes))
	for path, op := range writes {
		ws = append(ws, WriteSetEntry{Path: path, Op: op})
	}
	sort.Slice(ws, func(i, j int) bool {
		return ws[i].Path.Compare(ws[j].Path) < 0
	})
	return ws
}

// Get returns the operation recorded for path, if any.
func (ws WriteSet) Get(path AccessPath) (WriteOp, bool) {
	for _, entry := range ws {
		if entry.Path == path {
			return entry.Op, true
		}
	}
	return WriteOp{}, false
}

// Validate checks that no access path appears twice.
func (ws WriteSet) Validate() error {
	seen := make(map[AccessPath]struct{}, len(ws))
	for _, entry := range ws {
		if _, ok := seen[entry.Path]; ok {
			return fmt.Errorf("duplicate access path %s in write set", entry.Path)
		}
		seen[entry.Path] = struct{}{}
	}
	return nil
}

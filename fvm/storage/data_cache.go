package storage

import (
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/model/vm"
)

// TODO we started with high numbers here and we might
// tune (reduce) them when we have more data
const (
	DefaultMaxKeySize   = 16_000     // ~16KB
	DefaultMaxValueSize = 64_000_000 // ~64MB
)

type DataCacheOption func(c *DataCache) *DataCache

// WithMaxKeySizeAllowed sets limit on max key size
func WithMaxKeySizeAllowed(limit uint64) DataCacheOption {
	return func(c *DataCache) *DataCache {
		c.maxKeySizeAllowed = limit
		return c
	}
}

// WithMaxValueSizeAllowed sets limit on max value size
func WithMaxValueSizeAllowed(limit uint64) DataCacheOption {
	return func(c *DataCache) *DataCache {
		c.maxValueSizeAllowed = limit
		return c
	}
}

// DataCache is the pending-write overlay of one transaction on top of a
// shared snapshot. Writes are last-write-wins per path. It is not safe for
// concurrent use.
type DataCache struct {
	snapshot StorageSnapshot

	draft     map[vm.AccessPath]vm.WriteOp
	readCache map[vm.AccessPath][]byte

	maxKeySizeAllowed   uint64
	maxValueSizeAllowed uint64

	consumed bool
}

// NewDataCache constructs an empty overlay over snapshot.
func NewDataCache(snapshot StorageSnapshot, opts ...DataCacheOption) *DataCache {
	c := &DataCache{
		snapshot:            snapshot,
		draft:               make(map[vm.AccessPath]vm.WriteOp),
		readCache:           make(map[vm.AccessPath][]byte),
		maxKeySizeAllowed:   DefaultMaxKeySize,
		maxValueSizeAllowed: DefaultMaxValueSize,
	}
	for _, applyOption := range opts {
		c = applyOption(c)
	}
	return c
}

// Get returns the pending value for path if there is one, otherwise the value
// in the snapshot. A pending delete reads as absent.
func (c *DataCache) Get(path vm.AccessPath) ([]byte, bool, error) {
	if c.consumed {
		return nil, false, errors.NewDataCacheConsumedFailure()
	}

	if err := c.checkSize(path, nil); err != nil {
		return nil, false, err
	}

	if op, ok := c.draft[path]; ok {
		if op.IsDelete() {
			return nil, false, nil
		}
		return op.Value, true, nil
	}

	if value, ok := c.readCache[path]; ok {
		return value, value != nil, nil
	}

	value, err := c.snapshot.Get(path)
	if err != nil {
		return nil, false, errors.NewStorageFailure(path, err)
	}

	c.readCache[path] = value
	return value, value != nil, nil
}

// Set records a write of value to path.
func (c *DataCache) Set(path vm.AccessPath, value []byte) error {
	if c.consumed {
		return errors.NewDataCacheConsumedFailure()
	}

	if err := c.checkSize(path, value); err != nil {
		return err
	}

	if value == nil {
		value = []byte{}
	}
	c.draft[path] = vm.Write(value)
	return nil
}

// Delete records a deletion of path.
func (c *DataCache) Delete(path vm.AccessPath) error {
	if c.consumed {
		return errors.NewDataCacheConsumedFailure()
	}

	if err := c.checkSize(path, nil); err != nil {
		return err
	}

	c.draft[path] = vm.Delete()
	return nil
}

// Pending returns the number of paths with pending writes.
func (c *DataCache) Pending() int {
	return len(c.draft)
}

// IntoWriteSet drains the pending writes into a sorted write set. The cache
// can not be used afterwards.
func (c *DataCache) IntoWriteSet() (vm.WriteSet, error) {
	if c.consumed {
		return nil, errors.NewDataCacheConsumedFailure()
	}
	c.consumed = true

	ws := vm.NewWriteSet(c.draft)
	c.draft = nil
	c.readCache = nil
	return ws, nil
}

func (c *DataCache) checkSize(path vm.AccessPath, value []byte) error {
	keySize := path.Size()
	if keySize > c.maxKeySizeAllowed {
		return errors.NewStateKeySizeLimitError(path, keySize, c.maxKeySizeAllowed)
	}
	valueSize := uint64(len(value))
	if valueSize > c.maxValueSizeAllowed {
		return errors.NewStateValueSizeLimitError(path, valueSize, c.maxValueSizeAllowed)
	}
	return nil
}

package storage_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
)

var (
	addr  = vm.HexToAddress("0a")
	pathA = vm.DataPath(addr, []byte("a"))
	pathB = vm.DataPath(addr, []byte("b"))
	pathC = vm.DataPath(addr, []byte("c"))
)

func TestDataCache_ReadThrough(t *testing.T) {
	snapshot := storage.MapStorageSnapshot{
		pathA: []byte("snapshot-a"),
		pathB: []byte("snapshot-b"),
	}
	cache := storage.NewDataCache(snapshot)

	value, ok, err := cache.Get(pathA)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("snapshot-a"), value)

	_, ok, err = cache.Get(pathC)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(pathA, []byte("one")))
	require.NoError(t, cache.Set(pathA, []byte("two")))
	require.NoError(t, cache.Delete(pathB))
	require.NoError(t, cache.Set(pathC, []byte("new")))

	value, ok, err = cache.Get(pathA)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("two"), value)

	_, ok, err = cache.Get(pathB)
	require.NoError(t, err)
	assert.False(t, ok)

	// the snapshot is never mutated
	assert.Equal(t, []byte("snapshot-b"), snapshot[pathB])
	assert.Equal(t, 3, cache.Pending())

	ws, err := cache.IntoWriteSet()
	require.NoError(t, err)

	expected := vm.WriteSet{
		{Path: pathA, Op: vm.Write([]byte("two"))},
		{Path: pathB, Op: vm.Delete()},
		{Path: pathC, Op: vm.Write([]byte("new"))},
	}
	if diff := cmp.Diff(expected, ws); diff != "" {
		t.Fatalf("unexpected write set (-want +got):\n%s", diff)
	}
}

func TestDataCache_Consumed(t *testing.T) {
	cache := storage.NewDataCache(storage.EmptyStorageSnapshot{})
	_, err := cache.IntoWriteSet()
	require.NoError(t, err)

	_, _, err = cache.Get(pathA)
	require.True(t, errors.IsFailure(err))
	require.True(t, errors.HasErrorCode(err, errors.FailureCodeDataCacheConsumed))

	require.True(t, errors.IsFailure(cache.Set(pathA, nil)))
	require.True(t, errors.IsFailure(cache.Delete(pathA)))

	_, err = cache.IntoWriteSet()
	require.True(t, errors.IsFailure(err))
}

func TestDataCache_SizeLimits(t *testing.T) {
	cache := storage.NewDataCache(
		storage.EmptyStorageSnapshot{},
		storage.WithMaxKeySizeAllowed(vm.AddressLength+8),
		storage.WithMaxValueSizeAllowed(4))

	err := cache.Set(vm.DataPath(addr, []byte("long-key")), []byte{1})
	require.True(t, errors.HasErrorCode(err, errors.ErrCodeStateKeySizeLimit))
	require.False(t, errors.IsFailure(err))

	err = cache.Set(pathA, []byte{1, 2, 3, 4, 5})
	require.True(t, errors.HasErrorCode(err, errors.ErrCodeStateValueSizeLimit))

	require.NoError(t, cache.Set(pathA, []byte{1, 2, 3, 4}))
	require.Equal(t, 1, cache.Pending())
}

func TestDataCache_SnapshotError(t *testing.T) {
	snapshot := storage.SnapshotFunc(func(path vm.AccessPath) ([]byte, error) {
		return nil, fmt.Errorf("disk on fire")
	})
	cache := storage.NewDataCache(snapshot)

	_, _, err := cache.Get(pathA)
	require.True(t, errors.IsFailure(err))
	require.True(t, errors.HasErrorCode(err, errors.FailureCodeStorageFailure))
}

func TestDataCache_ReadsAreCached(t *testing.T) {
	reads := 0
	snapshot := storage.SnapshotFunc(func(path vm.AccessPath) ([]byte, error) {
		reads++
		return nil, nil
	})
	cache := storage.NewDataCache(snapshot)

	for i := 0; i < 3; i++ {
		_, ok, err := cache.Get(pathA)
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.Equal(t, 1, reads)
}

func TestMapStorageSnapshot_ApplyWriteSets(t *testing.T) {
	base := storage.MapStorageSnapshot{pathA: []byte{1}, pathB: []byte{2}}
	next := base.ApplyWriteSets(
		vm.WriteSet{{Path: pathA, Op: vm.Write([]byte{3})}},
		vm.WriteSet{{Path: pathB, Op: vm.Delete()}, {Path: pathC, Op: vm.Write([]byte{4})}},
	)

	require.Equal(t, storage.MapStorageSnapshot{pathA: []byte{3}, pathC: []byte{4}}, next)
	require.Equal(t, []byte{1}, base[pathA])
}

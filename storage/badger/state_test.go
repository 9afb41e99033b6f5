package badger_test

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"

	"github.com/onflow/vm-runtime/fvm"
	fvmStorage "github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
	bstorage "github.com/onflow/vm-runtime/storage/badger"
	"github.com/onflow/vm-runtime/utils/unittest"
)

func TestState_Commit(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		state := bstorage.NewState(db)
		address := unittest.AddressFixture()
		kept := vm.DataPath(address, []byte("kept"))
		removed := vm.DataPath(address, []byte("removed"))

		value, err := state.Get(kept)
		require.NoError(t, err)
		require.Nil(t, value)

		err = state.Commit(
			vm.WriteSet{
				{Path: kept, Op: vm.Write([]byte("1"))},
				{Path: removed, Op: vm.Write([]byte("2"))},
			},
			vm.WriteSet{
				{Path: removed, Op: vm.Delete()},
			},
		)
		require.NoError(t, err)

		value, err = state.Get(kept)
		require.NoError(t, err)
		require.Equal(t, []byte("1"), value)

		value, err = state.Get(removed)
		require.NoError(t, err)
		require.Nil(t, value)

		count, err := state.CommittedWriteSets()
		require.NoError(t, err)
		require.Equal(t, uint64(2), count)
	})
}

func TestState_EmptyValue(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		state := bstorage.NewState(db)
		path := vm.DataPath(unittest.AddressFixture(), []byte("empty"))
		ws := vm.WriteSet{{Path: path, Op: vm.Write([]byte{})}}

		require.NoError(t, state.Commit(ws))

		value, err := state.Get(path)
		require.NoError(t, err)
		require.NotNil(t, value)
		require.Empty(t, value)

		// reads agree with the in-memory snapshot
		inMemory := fvmStorage.MapStorageSnapshot{}.ApplyWriteSets(ws)
		for _, snapshot := range []fvmStorage.StorageSnapshot{state, inMemory} {
			_, exists, err := fvmStorage.NewDataCache(snapshot).Get(path)
			require.NoError(t, err)
			require.True(t, exists)
		}
	})
}

func TestState_ExecuteAndCommit(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		state := bstorage.NewState(db)
		alice := unittest.NewTestAccount("alice")

		encoded, err := vm.EncodeAccount(alice.Resource(1_000_000, 0))
		require.NoError(t, err)
		require.NoError(t, state.Commit(vm.WriteSet{
			{Path: vm.AccountResourcePath(alice.Address), Op: vm.Write(encoded)},
		}))

		machine := fvm.NewVirtualMachine()
		ctx := fvm.NewContext(fvm.WithLogger(unittest.Logger()))
		payload := unittest.ScriptPayload(t, unittest.WriteScriptFixture([]byte("key"), []byte("value")))

		for seq := uint64(0); seq < 3; seq++ {
			tx := unittest.TransactionFixture(t, alice, seq, payload)
			outputs, err := machine.ExecuteBlock(ctx, []vm.Transaction{tx}, state)
			require.NoError(t, err)
			require.True(t, outputs[0].Executed())
			require.NoError(t, state.Commit(outputs[0].WriteSet))
		}

		account := unittest.ReadAccount(t, state, alice.Address)
		require.Equal(t, uint64(3), account.SequenceNumber)
		require.Less(t, account.Balance, uint64(1_000_000))

		value, err := state.Get(vm.DataPath(alice.Address, []byte("key")))
		require.NoError(t, err)
		require.Equal(t, []byte("value"), value)
	})
}

package unittest

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/fvm/crypto"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
)

// TestAccount is an address with a deterministic signing key.
type TestAccount struct {
	Address vm.Address
	Key     *crypto.PrivateKey
}

// NewTestAccount derives an account from name.
func NewTestAccount(name string) TestAccount {
	hash := sha3.Sum256([]byte("address:" + name))
	return TestAccount{
		Address: vm.BytesToAddress(hash[:]),
		Key:     crypto.PrivateKeyFromSeed([]byte("key:" + name)),
	}
}

// AuthKey returns the authentication key of the account's signing key.
func (a TestAccount) AuthKey() [vm.AuthKeyLength]byte {
	return crypto.AuthKey(a.Key.PublicKey())
}

// Resource returns the account resource with the given balance and sequence
// number.
func (a TestAccount) Resource(balance, sequenceNumber uint64) vm.Account {
	return vm.Account{
		Balance:        balance,
		SequenceNumber: sequenceNumber,
		AuthKey:        a.AuthKey(),
	}
}

func AddressFixture() vm.Address {
	var addr vm.Address
	_, _ = rand.Read(addr[:])
	return addr
}

// AddAccount stores the account resource in snapshot.
func AddAccount(
	t testing.TB,
	snapshot storage.MapStorageSnapshot,
	account TestAccount,
	balance uint64,
	sequenceNumber uint64,
) {
	encoded, err := vm.EncodeAccount(account.Resource(balance, sequenceNumber))
	require.NoError(t, err)
	snapshot[vm.AccountResourcePath(account.Address)] = encoded
}

// AddModule stores module code in snapshot.
func AddModule(t testing.TB, snapshot storage.MapStorageSnapshot, module *bytecode.CompiledModule) {
	snapshot[vm.ModuleCodePath(module.ID())] = ModuleCode(t, module)
}

// ReadAccount decodes the account resource of address from snapshot.
func ReadAccount(t testing.TB, snapshot storage.StorageSnapshot, address vm.Address) vm.Account {
	value, err := snapshot.Get(vm.AccountResourcePath(address))
	require.NoError(t, err)
	require.NotNil(t, value, "account %s does not exist", address)

	account, err := vm.DecodeAccount(value)
	require.NoError(t, err)
	return account
}

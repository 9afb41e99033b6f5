package unittest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onflow/vm-runtime/model/vm"
)

const (
	DefaultMaxGasAmount = 100_000
	DefaultGasUnitPrice = 1
)

type TransactionOption func(tx *vm.SignedTransaction)

func WithMaxGasAmount(maxGas uint64) TransactionOption {
	return func(tx *vm.SignedTransaction) {
		tx.MaxGasAmount = maxGas
	}
}

func WithGasUnitPrice(price uint64) TransactionOption {
	return func(tx *vm.SignedTransaction) {
		tx.GasUnitPrice = price
	}
}

func WithExpirationTime(expiration uint64) TransactionOption {
	return func(tx *vm.SignedTransaction) {
		tx.ExpirationTime = expiration
	}
}

// TransactionFixture returns a transaction from account signed with its key.
// Options are applied before signing.
func TransactionFixture(
	t testing.TB,
	account TestAccount,
	sequenceNumber uint64,
	payload vm.Payload,
	opts ...TransactionOption,
) *vm.UserTransaction {
	tx := vm.SignedTransaction{
		RawTransaction: vm.RawTransaction{
			Sender:         account.Address,
			SequenceNumber: sequenceNumber,
			Payload:        payload,
			MaxGasAmount:   DefaultMaxGasAmount,
			GasUnitPrice:   DefaultGasUnitPrice,
			ExpirationTime: math.MaxUint64,
		},
	}
	for _, opt := range opts {
		opt(&tx)
	}

	require.NoError(t, account.Key.SignTransaction(&tx))
	return vm.NewUserTransaction(tx)
}

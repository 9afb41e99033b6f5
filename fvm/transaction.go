package fvm

import (
	"fmt"

	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/model/vm"
)

// Disposition tells the caller whether a transaction belongs in the block.
type Disposition int

const (
	// DispositionDiscard drops the transaction. It has no effect and pays no
	// gas.
	DispositionDiscard Disposition = iota
	// DispositionKeep includes the transaction. Its write set is applied and
	// its gas is charged.
	DispositionKeep
)

func (d Disposition) String() string {
	switch d {
	case DispositionDiscard:
		return "discard"
	case DispositionKeep:
		return "keep"
	}
	return fmt.Sprintf("disposition(%d)", int(d))
}

// TransactionOutput is the result of processing one transaction.
type TransactionOutput struct {
	WriteSet vm.WriteSet
	GasUsed  uint64
	// Err is nil when the transaction executed successfully.
	Err         errors.CodedError
	Events      []vm.Event
	Disposition Disposition
}

// Executed returns true if the transaction was kept with its full effects.
func (o *TransactionOutput) Executed() bool {
	return o.Disposition == DispositionKeep && o.Err == nil
}

// Family returns the error family of the status, or "executed" on success.
func (o *TransactionOutput) Family() string {
	if o.Err == nil {
		return "executed"
	}
	return o.Err.Code().Family().String()
}

func discardedOutput(err errors.CodedError) *TransactionOutput {
	return &TransactionOutput{
		WriteSet:    vm.WriteSet{},
		Err:         err,
		Disposition: DispositionDiscard,
	}
}

// dispositionOf maps a transaction status to its disposition. Every family
// is listed, and a status that does not belong to any of them is a failure.
func dispositionOf(err errors.CodedError) (Disposition, error) {
	if err == nil {
		return DispositionKeep, nil
	}

	switch err.Code().Family() {
	case errors.FamilyValidation:
		return DispositionDiscard, nil
	case errors.FamilyVerification:
		return DispositionDiscard, nil
	case errors.FamilyExecution:
		return DispositionKeep, nil
	case errors.FamilyInvariantViolation:
		return DispositionDiscard, errors.NewInvariantViolationf(
			"invariant violation reported as transaction status: %v",
			err)
	default:
		return DispositionDiscard, errors.NewUnknownFailure(
			fmt.Errorf("status with unknown family: %w", err))
	}
}

// TransactionProcedure is a transaction together with its position in the
// block.
type TransactionProcedure struct {
	ID          vm.Identifier
	Transaction vm.Transaction
	TxIndex     uint32
}

// Transaction returns the procedure of tx at position txIndex.
func Transaction(tx vm.Transaction, txIndex uint32) (*TransactionProcedure, error) {
	id, err := TransactionID(tx)
	if err != nil {
		return nil, err
	}
	return &TransactionProcedure{
		ID:          id,
		Transaction: tx,
		TxIndex:     txIndex,
	}, nil
}

// TransactionID returns the identifier of a transaction.
func TransactionID(tx vm.Transaction) (vm.Identifier, error) {
	switch tx := tx.(type) {
	case *vm.UserTransaction:
		return tx.ID()
	case *vm.SystemTransaction:
		encoded, err := vm.EncodeTransactions([]vm.Transaction{tx})
		if err != nil {
			return vm.ZeroID, err
		}
		return vm.MakeID(encoded), nil
	}
	return vm.ZeroID, fmt.Errorf("unknown transaction type %T", tx)
}

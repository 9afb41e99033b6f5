package fvm

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module/trace"
)

// VM runs transactions against a read-only view of the ledger.
type VM interface {
	ExecuteBlock(ctx Context, txs []vm.Transaction, snapshot storage.StorageSnapshot) ([]*TransactionOutput, error)
	ValidateTransaction(ctx Context, tx vm.Transaction, snapshot storage.StorageSnapshot) errors.CodedError
}

var _ VM = (*VirtualMachine)(nil)

// A VirtualMachine executes blocks of transactions and validates single
// transactions for admission. It holds no state across calls apart from
// counters, and is safe for concurrent use.
type VirtualMachine struct {
	validated *atomic.Uint64
	rejected  *atomic.Uint64
}

func NewVirtualMachine() *VirtualMachine {
	return &VirtualMachine{
		validated: atomic.NewUint64(0),
		rejected:  atomic.NewUint64(0),
	}
}

// ValidationStats returns the number of transactions validated by this
// machine, and how many of them were rejected.
func (machine *VirtualMachine) ValidationStats() (validated uint64, rejected uint64) {
	return machine.validated.Load(), machine.rejected.Load()
}

// ValidateTransaction runs admission and the prologue of tx against snapshot.
// It returns nil if tx is admissible, and never mutates state. Failures are
// reported as an invariant violation status.
func (machine *VirtualMachine) ValidateTransaction(
	ctx Context,
	tx vm.Transaction,
	snapshot storage.StorageSnapshot,
) errors.CodedError {
	status := machine.validateTransaction(ctx, tx, snapshot)

	machine.validated.Inc()
	family := "valid"
	if status != nil {
		machine.rejected.Inc()
		family = status.Code().Family().String()
	}
	ctx.MetricsReporter.ExecutionTransactionValidated(family)

	return status
}

func (machine *VirtualMachine) validateTransaction(
	ctx Context,
	tx vm.Transaction,
	snapshot storage.StorageSnapshot,
) errors.CodedError {
	userTx, ok := tx.(*vm.UserTransaction)
	if !ok {
		return errors.NewSystemTransactionNotAdmissibleError()
	}

	proc, err := Transaction(userTx, 0)
	if err != nil {
		return errors.NewEncodingFailuref(err, "could not compute transaction id")
	}

	rootSpan, _ := ctx.Tracer.StartSpanFromContext(context.Background(), trace.VMValidateTransaction)
	defer rootSpan.End()

	executor := newTransactionExecutor(ctx, trace.VMVerifyTransaction, rootSpan, proc, userTx, nil, snapshot)
	defer executor.Cleanup()

	txErr, failure := executor.handleError(executor.validate(), "validate")
	if failure != nil {
		return failure
	}
	return txErr
}

// ValidateTransactions validates txs concurrently, each against its own
// overlay of snapshot. The statuses are returned in the order of txs.
func (machine *VirtualMachine) ValidateTransactions(
	ctx Context,
	txs []vm.Transaction,
	snapshot storage.StorageSnapshot,
) []errors.CodedError {
	statuses := make([]errors.CodedError, len(txs))

	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, tx := range txs {
		i, tx := i, tx
		group.Go(func() error {
			// failures are statuses too, reported in the slot of their transaction
			statuses[i] = machine.ValidateTransaction(ctx, tx, snapshot)
			return nil
		})
	}
	_ = group.Wait()

	return statuses
}

// ExecuteBlock runs txs in order against snapshot and returns one output per
// transaction. The error is only returned for a failure, in which case no
// outputs are returned and the whole block must be dropped.
func (machine *VirtualMachine) ExecuteBlock(
	ctx Context,
	txs []vm.Transaction,
	snapshot storage.StorageSnapshot,
) ([]*TransactionOutput, error) {
	executor, err := newBlockExecutor(ctx, snapshot)
	if err != nil {
		return nil, errors.NewUnknownFailure(
			fmt.Errorf("could not create block executor: %w", err))
	}
	defer executor.Cleanup()

	return executor.Execute(txs)
}

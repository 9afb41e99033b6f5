package fvm

import (
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module/trace"
)

type TransactionPayerBalanceChecker struct{}

// CheckPayerBalanceAndReturnMaxFees checks that the sender can pay for the
// whole gas budget of the transaction, and returns that amount.
func (_ TransactionPayerBalanceChecker) CheckPayerBalanceAndReturnMaxFees(
	ctx Context,
	span otelTrace.Span,
	account vm.Account,
	tx *vm.UserTransaction,
) (uint64, error) {
	span = ctx.Tracer.StartSpanFromParent(span, trace.VMPayerBalanceCheck)
	defer span.End()

	maxFees, ok := tx.MaxFee()
	if !ok {
		return 0, errors.NewMaxFeeOverflowError(tx.MaxGasAmount, tx.GasUnitPrice)
	}

	if account.Balance < maxFees {
		return 0, errors.NewInsufficientBalanceForTransactionFeeError(
			tx.Sender,
			account.Balance,
			maxFees)
	}

	return maxFees, nil
}

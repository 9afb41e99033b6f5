package fvm

import (
	"fmt"

	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/onflow/vm-runtime/fvm/environment"
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module/trace"
)

type TransactionFeeDeductor struct{}

// DeductTransactionFees charges gasUsed at the transaction's gas unit price to
// the sender and bumps its sequence number. It is not metered.
func (d *TransactionFeeDeductor) DeductTransactionFees(
	ctx Context,
	span otelTrace.Span,
	env *environment.ExecutionContext,
	tx *vm.UserTransaction,
	gasUsed uint64,
) error {
	span = ctx.Tracer.StartSpanFromParent(span, trace.VMDeductTransactionFees)
	defer span.End()

	fee := gasUsed * tx.GasUnitPrice
	if tx.GasUnitPrice != 0 && fee/tx.GasUnitPrice != gasUsed {
		return errors.NewFeeDeductionFailedError(
			tx.Sender,
			fee,
			fmt.Errorf("fee overflows"))
	}

	accounts := env.Accounts()
	account, ok, err := accounts.Get(tx.Sender)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewFeeDeductionFailedError(
			tx.Sender,
			fee,
			fmt.Errorf("sender account no longer exists"))
	}

	if account.Balance < fee {
		return errors.NewFeeDeductionFailedError(
			tx.Sender,
			fee,
			fmt.Errorf("balance %d is lower than the fee", account.Balance))
	}

	account.Balance -= fee
	account.SequenceNumber++
	return accounts.Set(tx.Sender, account)
}

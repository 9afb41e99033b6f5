package fvm

import (
	"go.opentelemetry.io/otel/attribute"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module/trace"
)

type TransactionSequenceNumberChecker struct{}

// CheckSequenceNumber checks that the transaction carries the next sequence
// number of its sender. The number is bumped by the epilogue.
func (c *TransactionSequenceNumberChecker) CheckSequenceNumber(
	ctx Context,
	span otelTrace.Span,
	account vm.Account,
	tx *vm.UserTransaction,
) error {
	span = ctx.Tracer.StartSpanFromParent(span, trace.VMSeqNumCheck)
	span.SetAttributes(
		attribute.Int64("transaction.sequence_number", int64(tx.SequenceNumber)),
		attribute.Int64("account.sequence_number", int64(account.SequenceNumber)),
	)
	defer span.End()

	switch {
	case tx.SequenceNumber < account.SequenceNumber:
		return errors.NewSequenceNumberTooOldError(
			tx.Sender,
			tx.SequenceNumber,
			account.SequenceNumber)
	case tx.SequenceNumber > account.SequenceNumber:
		return errors.NewSequenceNumberTooNewError(
			tx.Sender,
			tx.SequenceNumber,
			account.SequenceNumber)
	}
	return nil
}

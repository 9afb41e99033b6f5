package fvm

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/onflow/vm-runtime/fvm/crypto"
	"github.com/onflow/vm-runtime/fvm/environment"
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module/trace"
)

// TransactionVerifier checks that a transaction is well-formed, correctly
// signed and within the configured limits, and that its sender is authorized.
type TransactionVerifier struct{}

// CheckAdmission runs the checks that need no state. The signature is
// checked first.
func (v *TransactionVerifier) CheckAdmission(
	ctx Context,
	span otelTrace.Span,
	tx *vm.UserTransaction,
) error {
	span = ctx.Tracer.StartSpanFromParent(span, trace.VMVerifyTransaction)
	defer span.End()

	if err := v.verifySignature(ctx, tx); err != nil {
		return err
	}

	payload := tx.Payload
	if (payload.Script == nil) == (payload.Module == nil) {
		return errors.NewMalformedPayloadErrorf(
			"payload must hold exactly one of a script and a module")
	}

	size, err := tx.Size()
	if err != nil {
		return errors.NewEncodingFailuref(err, "could not encode transaction")
	}
	span.SetAttributes(attribute.Int64("transaction.size", int64(size)))

	limits := ctx.VMConfig
	if size > limits.MaxTransactionSizeBytes {
		return errors.NewTransactionSizeExceededError(size, limits.MaxTransactionSizeBytes)
	}

	if tx.MaxGasAmount > limits.MaxGasAmount {
		return errors.NewMaxGasAmountExceedsLimitError(tx.MaxGasAmount, limits.MaxGasAmount)
	}

	intrinsic, ok := limits.CostTable.IntrinsicGas(size)
	if !ok || tx.MaxGasAmount < intrinsic {
		return errors.NewMaxGasAmountBelowIntrinsicGasError(tx.MaxGasAmount, intrinsic)
	}

	if tx.GasUnitPrice < limits.MinGasUnitPrice {
		return errors.NewGasUnitPriceBelowMinError(tx.GasUnitPrice, limits.MinGasUnitPrice)
	}
	if tx.GasUnitPrice > limits.MaxGasUnitPrice {
		return errors.NewGasUnitPriceAboveMaxError(tx.GasUnitPrice, limits.MaxGasUnitPrice)
	}

	if _, ok := tx.MaxFee(); !ok {
		return errors.NewMaxFeeOverflowError(tx.MaxGasAmount, tx.GasUnitPrice)
	}

	return nil
}

func (v *TransactionVerifier) verifySignature(ctx Context, tx *vm.UserTransaction) error {
	if !ctx.SignatureVerificationEnabled {
		return nil
	}

	message, err := tx.SigningMessage()
	if err != nil {
		return errors.NewEncodingFailuref(err, "could not compute signing message")
	}

	valid, err := ctx.SignatureVerifier.Verify(tx.Signature, message, tx.PublicKey)
	if err != nil {
		return errors.NewInvalidSignatureError(err)
	}
	if !valid {
		return errors.NewInvalidSignatureError(
			fmt.Errorf("signature does not match the transaction"))
	}
	return nil
}

// CheckAuthorization checks that the sender account exists, that the
// transaction key matches its authentication key and that the transaction
// has not expired. It returns the sender account.
func (v *TransactionVerifier) CheckAuthorization(
	ctx Context,
	accounts environment.Accounts,
	tx *vm.UserTransaction,
) (vm.Account, error) {
	account, ok, err := accounts.Get(tx.Sender)
	if err != nil {
		return vm.Account{}, err
	}
	if !ok {
		return vm.Account{}, errors.NewSenderAccountDoesNotExistError(tx.Sender)
	}

	if crypto.AuthKey(tx.PublicKey) != account.AuthKey {
		return vm.Account{}, errors.NewInvalidAuthKeyError(tx.Sender)
	}

	if ctx.BlockTime >= tx.ExpirationTime {
		return vm.Account{}, errors.NewTransactionExpiredError(tx.ExpirationTime, ctx.BlockTime)
	}

	return account, nil
}

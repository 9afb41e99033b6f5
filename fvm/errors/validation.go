package errors

import (
	"github.com/onflow/vm-runtime/model/vm"
)

// Validation errors are raised during admission and the prologue. A
// transaction failing with one of them is discarded without charge.

// NewInvalidSignatureError indicates that the signature does not verify
// against the public key and signing message of the transaction.
func NewInvalidSignatureError(err error) CodedError {
	return WrapCodedError(ErrCodeInvalidSignature, err, "invalid transaction signature")
}

func IsInvalidSignatureError(err error) bool {
	return HasErrorCode(err, ErrCodeInvalidSignature)
}

func NewTransactionSizeExceededError(size, limit uint64) CodedError {
	return NewCodedError(
		ErrCodeTransactionSizeExceeded,
		"transaction byte size (%d) exceeds the maximum byte size allowed for a transaction (%d)",
		size,
		limit)
}

func NewMaxGasAmountExceedsLimitError(maxGas, limit uint64) CodedError {
	return NewCodedError(
		ErrCodeMaxGasAmountExceedsLimit,
		"max gas amount (%d) exceeds the limit (%d)",
		maxGas,
		limit)
}

func NewMaxGasAmountBelowIntrinsicGasError(maxGas, intrinsic uint64) CodedError {
	return NewCodedError(
		ErrCodeMaxGasAmountBelowIntrinsicGas,
		"max gas amount (%d) does not cover the intrinsic gas (%d)",
		maxGas,
		intrinsic)
}

func NewGasUnitPriceBelowMinError(price, min uint64) CodedError {
	return NewCodedError(
		ErrCodeGasUnitPriceBelowMin,
		"gas unit price (%d) is below the minimum (%d)",
		price,
		min)
}

func NewGasUnitPriceAboveMaxError(price, max uint64) CodedError {
	return NewCodedError(
		ErrCodeGasUnitPriceAboveMax,
		"gas unit price (%d) is above the maximum (%d)",
		price,
		max)
}

func NewMaxFeeOverflowError(maxGas, price uint64) CodedError {
	return NewCodedError(
		ErrCodeMaxFeeOverflow,
		"max gas amount (%d) times gas unit price (%d) overflows",
		maxGas,
		price)
}

func NewSenderAccountDoesNotExistError(address vm.Address) CodedError {
	return NewCodedError(
		ErrCodeSenderAccountDoesNotExist,
		"sender account %s does not exist",
		address)
}

func NewInvalidAuthKeyError(address vm.Address) CodedError {
	return NewCodedError(
		ErrCodeInvalidAuthKey,
		"public key does not match the authentication key of account %s",
		address)
}

func NewSequenceNumberTooOldError(address vm.Address, got, expected uint64) CodedError {
	return NewCodedError(
		ErrCodeSequenceNumberTooOld,
		"sequence number %d for account %s is too old, expected %d",
		got,
		address,
		expected)
}

func NewSequenceNumberTooNewError(address vm.Address, got, expected uint64) CodedError {
	return NewCodedError(
		ErrCodeSequenceNumberTooNew,
		"sequence number %d for account %s is too new, expected %d",
		got,
		address,
		expected)
}

// NewTransactionExpiredError indicates that the expiration time of the
// transaction is not after the current block time.
func NewTransactionExpiredError(expiration, blockTime uint64) CodedError {
	return NewCodedError(
		ErrCodeTransactionExpired,
		"transaction is expired: expiration_time=%d block_time=%d",
		expiration,
		blockTime)
}

func NewInsufficientBalanceForTransactionFeeError(
	address vm.Address,
	balance uint64,
	maxFee uint64,
) CodedError {
	return NewCodedError(
		ErrCodeInsufficientBalanceForTransactionFee,
		"account %s balance (%d) can not cover the maximum transaction fee (%d)",
		address,
		balance,
		maxFee)
}

func IsInsufficientBalanceForTransactionFeeError(err error) bool {
	return HasErrorCode(err, ErrCodeInsufficientBalanceForTransactionFee)
}

func NewSystemTransactionNotAdmissibleError() CodedError {
	return NewCodedError(
		ErrCodeSystemTransactionNotAdmissible,
		"system transactions can not be submitted for admission")
}

func NewInvalidWriteSetErrorf(msg string, args ...interface{}) CodedError {
	return NewCodedError(ErrCodeInvalidWriteSet, "invalid write set: "+msg, args...)
}

func NewMalformedPayloadErrorf(msg string, args ...interface{}) CodedError {
	return NewCodedError(ErrCodeMalformedPayload, "malformed payload: "+msg, args...)
}

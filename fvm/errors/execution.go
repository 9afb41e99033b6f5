package errors

import (
	"github.com/onflow/vm-runtime/model/vm"
)

// Execution errors are raised while running verified code. A transaction
// failing with one of them is kept and charged for the gas it used.

// NewAbortedError indicates that the code aborted with the given code.
func NewAbortedError(code uint64) CodedError {
	return NewCodedError(ErrCodeAborted, "execution aborted with code %d", code)
}

func IsAbortedError(err error) bool {
	return HasErrorCode(err, ErrCodeAborted)
}

func NewArithmeticErrorf(msg string, args ...interface{}) CodedError {
	return NewCodedError(ErrCodeArithmeticError, "arithmetic error: "+msg, args...)
}

// NewOutOfGasError indicates a charge that did not fit in the remaining
// budget.
func NewOutOfGasError(limit uint64) CodedError {
	return NewCodedError(
		ErrCodeOutOfGas,
		"gas limit (%d) exceeded",
		limit)
}

func IsOutOfGasError(err error) bool {
	return HasErrorCode(err, ErrCodeOutOfGas)
}

func NewCallStackOverflowError(limit uint) CodedError {
	return NewCodedError(
		ErrCodeCallStackOverflow,
		"call stack depth exceeds the limit (%d)",
		limit)
}

// NewStateKeySizeLimitError indicates that the key of a written path is too
// large.
func NewStateKeySizeLimitError(path vm.AccessPath, size, limit uint64) CodedError {
	return NewCodedError(
		ErrCodeStateKeySizeLimit,
		"key %s has size %d which is higher than storage key size limit %d",
		path,
		size,
		limit)
}

// NewStateValueSizeLimitError indicates that a written value is too large.
func NewStateValueSizeLimitError(path vm.AccessPath, size, limit uint64) CodedError {
	return NewCodedError(
		ErrCodeStateValueSizeLimit,
		"value for key %s has size %d which is higher than storage value size limit %d",
		path,
		size,
		limit)
}

func NewEventSizeLimitError(size, limit uint64) CodedError {
	return NewCodedError(
		ErrCodeEventSizeLimit,
		"event has size %d which is higher than the limit %d",
		size,
		limit)
}

func NewFeeDeductionFailedError(address vm.Address, fee uint64, err error) CodedError {
	return WrapCodedError(
		ErrCodeFeeDeductionFailed,
		err,
		"failed to deduct transaction fee %d from %s",
		fee,
		address)
}

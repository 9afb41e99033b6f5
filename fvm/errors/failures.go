package errors

import (
	"github.com/onflow/vm-runtime/model/vm"
)

// NewUnknownFailure wraps an un-coded error.
func NewUnknownFailure(err error) CodedFailure {
	return WrapFailure(FailureCodeUnknownFailure, err, "unknown failure")
}

// NewEncodingFailuref reports a value the virtual machine produced itself but
// could not encode or decode.
func NewEncodingFailuref(
	err error,
	msg string,
	args ...interface{},
) CodedFailure {
	return WrapFailure(FailureCodeEncodingFailure, err, "encoding failed: "+msg, args...)
}

// NewStorageFailure reports an error returned by the state view.
func NewStorageFailure(path vm.AccessPath, err error) CodedFailure {
	return WrapFailure(FailureCodeStorageFailure, err, "could not read %s", path)
}

// NewInvariantViolationf reports a state that verified code can never reach,
// such as a stack underflow.
func NewInvariantViolationf(msg string, args ...interface{}) CodedFailure {
	return NewFailure(FailureCodeInvariantViolation, "invariant violation: "+msg, args...)
}

// NewCodeCacheFailure reports that a module which was verified and linked
// earlier can no longer be resolved.
func NewCodeCacheFailure(id vm.ModuleID, err error) CodedFailure {
	return WrapFailure(FailureCodeCodeCacheFailure, err, "verified module %s can not be resolved", id)
}

// NewDataCacheConsumedFailure reports use of a data cache after it was
// converted into a write set.
func NewDataCacheConsumedFailure() CodedFailure {
	return NewFailure(FailureCodeDataCacheConsumed, "data cache used after conversion into a write set")
}

func IsInvariantViolation(err error) bool {
	return HasErrorCode(err, FailureCodeInvariantViolation)
}

package errors

import (
	"github.com/onflow/vm-runtime/model/vm"
)

// Verification errors are raised while loading and verifying code. A
// transaction failing with one of them is discarded without charge.

func NewCodeDeserializationError(err error) CodedError {
	return WrapCodedError(ErrCodeCodeDeserialization, err, "could not deserialize code")
}

func NewBytecodeVerificationError(name string, err error) CodedError {
	return WrapCodedError(ErrCodeBytecodeVerification, err, "%s failed bytecode verification", name)
}

func IsBytecodeVerificationError(err error) bool {
	return HasErrorCode(err, ErrCodeBytecodeVerification)
}

func NewArgumentTypeMismatchErrorf(msg string, args ...interface{}) CodedError {
	return NewCodedError(
		ErrCodeArgumentTypeMismatch,
		"transaction arguments are invalid: ("+msg+")",
		args...)
}

func NewModuleNotFoundError(id vm.ModuleID) CodedError {
	return NewCodedError(ErrCodeModuleNotFound, "module %s is not published", id)
}

func IsModuleNotFoundError(err error) bool {
	return HasErrorCode(err, ErrCodeModuleNotFound)
}

func NewCyclicModuleDependencyError(id vm.ModuleID) CodedError {
	return NewCodedError(ErrCodeCyclicModuleDependency, "module %s depends on itself", id)
}

func NewModuleAddressMismatchError(module vm.ModuleID, sender vm.Address) CodedError {
	return NewCodedError(
		ErrCodeModuleAddressMismatch,
		"module %s can not be published by sender %s",
		module,
		sender)
}

func NewDuplicateModuleNameError(id vm.ModuleID) CodedError {
	return NewCodedError(ErrCodeDuplicateModuleName, "module %s is already published", id)
}

func NewImportedFunctionNotFoundError(id vm.ModuleID, function string) CodedError {
	return NewCodedError(
		ErrCodeImportedFunctionNotFound,
		"function %s is not declared by module %s",
		function,
		id)
}

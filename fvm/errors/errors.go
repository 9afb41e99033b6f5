package errors

import (
	stdErrors "errors"
	"fmt"
)

// CodedError is implemented by every error produced while processing a
// transaction.
type CodedError interface {
	Code() ErrorCode
	Unwrap() error
	error
}

// CodedFailure is a CodedError carrying a failure code. A failure means the
// virtual machine itself is in an inconsistent state and the block can not be
// executed.
type CodedFailure interface {
	CodedError
	isFailure()
}

func Is(err, target error) bool {
	return stdErrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stdErrors.As(err, target)
}

// Find returns the first error in err's chain with the given code, or nil.
func Find(originalErr error, code ErrorCode) CodedError {
	if originalErr == nil {
		return nil
	}

	var coded CodedError
	if !As(originalErr, &coded) {
		return nil
	}

	if coded.Code() == code {
		return coded
	}

	return Find(coded.Unwrap(), code)
}

// HasErrorCode returns true if the error or one of its wrapped errors carries
// the given code.
func HasErrorCode(err error, code ErrorCode) bool {
	return Find(err, code) != nil
}

// IsFailure returns true if the error is un-coded, or if the error contains a
// failure code.
func IsFailure(err error) bool {
	if err == nil {
		return false
	}

	coded, isCoded := findImportantCodedError(err)
	return !isCoded || coded.Code().IsFailure()
}

// findImportantCodedError walks the chain of coded errors. It returns the
// shallowest failure if there is one, otherwise the deepest coded error.
func findImportantCodedError(err error) (CodedError, bool) {
	var coded CodedError
	if !As(err, &coded) {
		return nil, false
	}

	for {
		if coded.Code().IsFailure() {
			return coded, true
		}

		var next CodedError
		if !As(coded.Unwrap(), &next) {
			return coded, true
		}

		coded = next
	}
}

// SplitErrorTypes splits the error into a transaction error or a failure.
// Exactly one of the returned values is non-nil for a non-nil input. Un-coded
// errors are treated as unknown failures.
func SplitErrorTypes(inp error) (err CodedError, failure CodedFailure) {
	if inp == nil {
		return nil, nil
	}

	coded, isCoded := findImportantCodedError(inp)
	if !isCoded {
		return nil, NewUnknownFailure(inp)
	}

	if coded.Code().IsFailure() {
		if f, ok := inp.(CodedFailure); ok && CodedError(f) == coded {
			return nil, f
		}
		return nil, WrapFailure(coded.Code(), inp, "failure caused by")
	}

	if c, ok := inp.(CodedError); ok && c == coded {
		return c, nil
	}
	return WrapCodedError(coded.Code(), inp, "error caused by"), nil
}

type codedError struct {
	code ErrorCode

	err error
}

func newError(code ErrorCode, rootCause error) *codedError {
	return &codedError{
		code: code,
		err:  rootCause,
	}
}

// WrapCodedError wraps err with a new coded error, prefixing its message.
func WrapCodedError(
	code ErrorCode,
	err error,
	prefixMsgFormat string,
	formatArguments ...interface{},
) CodedError {
	if prefixMsgFormat != "" {
		msg := fmt.Sprintf(prefixMsgFormat, formatArguments...)
		err = fmt.Errorf("%s: %w", msg, err)
	}
	return newError(code, err)
}

// NewCodedError constructs a coded error from a format string.
func NewCodedError(
	code ErrorCode,
	format string,
	formatArguments ...interface{},
) CodedError {
	return newError(code, fmt.Errorf(format, formatArguments...))
}

func (err *codedError) Unwrap() error {
	return err.err
}

func (err *codedError) Error() string {
	return fmt.Sprintf("%v %v", err.code, err.err)
}

func (err *codedError) Code() ErrorCode {
	return err.code
}

type codedFailure struct {
	*codedError
}

func (*codedFailure) isFailure() {}

// NewFailure constructs a failure from a format string. The code must be a
// failure code.
func NewFailure(
	code ErrorCode,
	format string,
	formatArguments ...interface{},
) CodedFailure {
	return &codedFailure{codedError: newError(code, fmt.Errorf(format, formatArguments...))}
}

// WrapFailure wraps err with a failure code.
func WrapFailure(
	code ErrorCode,
	err error,
	prefixMsgFormat string,
	formatArguments ...interface{},
) CodedFailure {
	if prefixMsgFormat != "" {
		msg := fmt.Sprintf(prefixMsgFormat, formatArguments...)
		err = fmt.Errorf("%s: %w", msg, err)
	}
	return &codedFailure{codedError: newError(code, err)}
}

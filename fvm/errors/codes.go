package errors

import "fmt"

type ErrorCode uint16

func (ec ErrorCode) String() string {
	return fmt.Sprintf("[Error Code: %d]", ec)
}

// IsFailure returns true for codes reserved for invariant violations.
func (ec ErrorCode) IsFailure() bool {
	return ec >= FailureCodeUnknownFailure
}

// Family is the class of status an error code belongs to.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyValidation
	FamilyVerification
	FamilyExecution
	FamilyInvariantViolation
)

func (f Family) String() string {
	switch f {
	case FamilyValidation:
		return "validation"
	case FamilyVerification:
		return "verification"
	case FamilyExecution:
		return "execution"
	case FamilyInvariantViolation:
		return "invariant_violation"
	}
	return "unknown"
}

// Family derives the status family from the code range.
func (ec ErrorCode) Family() Family {
	switch {
	case ec >= 1000 && ec < 1050:
		return FamilyValidation
	case ec >= 1050 && ec < 1100:
		return FamilyVerification
	case ec >= 1100 && ec < 1200:
		return FamilyExecution
	case ec.IsFailure():
		return FamilyInvariantViolation
	}
	return FamilyUnknown
}

const (
	FailureCodeUnknownFailure     ErrorCode = 2000
	FailureCodeEncodingFailure    ErrorCode = 2001
	FailureCodeStorageFailure     ErrorCode = 2002
	FailureCodeInvariantViolation ErrorCode = 2003
	FailureCodeCodeCacheFailure   ErrorCode = 2004
	FailureCodeDataCacheConsumed  ErrorCode = 2005
)

const (
	// validation errors 1000 - 1049
	ErrCodeInvalidSignature                     ErrorCode = 1000
	ErrCodeTransactionSizeExceeded              ErrorCode = 1001
	ErrCodeMaxGasAmountExceedsLimit             ErrorCode = 1002
	ErrCodeMaxGasAmountBelowIntrinsicGas        ErrorCode = 1003
	ErrCodeGasUnitPriceBelowMin                 ErrorCode = 1004
	ErrCodeGasUnitPriceAboveMax                 ErrorCode = 1005
	ErrCodeMaxFeeOverflow                       ErrorCode = 1006
	ErrCodeSenderAccountDoesNotExist            ErrorCode = 1007
	ErrCodeInvalidAuthKey                       ErrorCode = 1008
	ErrCodeSequenceNumberTooOld                 ErrorCode = 1009
	ErrCodeSequenceNumberTooNew                 ErrorCode = 1010
	ErrCodeTransactionExpired                   ErrorCode = 1011
	ErrCodeInsufficientBalanceForTransactionFee ErrorCode = 1012
	ErrCodeSystemTransactionNotAdmissible       ErrorCode = 1013
	ErrCodeInvalidWriteSet                      ErrorCode = 1014
	ErrCodeMalformedPayload                     ErrorCode = 1015

	// verification errors 1050 - 1099
	ErrCodeCodeDeserialization      ErrorCode = 1050
	ErrCodeBytecodeVerification     ErrorCode = 1051
	ErrCodeArgumentTypeMismatch     ErrorCode = 1052
	ErrCodeModuleNotFound           ErrorCode = 1053
	ErrCodeCyclicModuleDependency   ErrorCode = 1054
	ErrCodeModuleAddressMismatch    ErrorCode = 1055
	ErrCodeDuplicateModuleName      ErrorCode = 1056
	ErrCodeImportedFunctionNotFound ErrorCode = 1057

	// execution errors 1100 - 1199
	ErrCodeAborted             ErrorCode = 1100
	ErrCodeArithmeticError     ErrorCode = 1101
	ErrCodeOutOfGas            ErrorCode = 1102
	ErrCodeCallStackOverflow   ErrorCode = 1103
	ErrCodeStateKeySizeLimit   ErrorCode = 1104
	ErrCodeStateValueSizeLimit ErrorCode = 1105
	ErrCodeEventSizeLimit      ErrorCode = 1106
	ErrCodeFeeDeductionFailed  ErrorCode = 1107
)

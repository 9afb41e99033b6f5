package errors

import (
	"github.com/hashicorp/go-multierror"
)

// ErrorsCollector accumulates errors across the phases of a transaction. Once
// a failure is collected, the collection as a whole is a failure.
type ErrorsCollector struct {
	errors  *multierror.Error
	failure error
}

func NewErrorsCollector() *ErrorsCollector {
	return &ErrorsCollector{}
}

func (collector *ErrorsCollector) CollectedFailure() bool {
	return collector.failure != nil
}

func (collector *ErrorsCollector) CollectedError() bool {
	return collector.errors != nil
}

// ErrorOrNil returns nil if nothing was collected. If a failure was collected
// the result carries the failure's code.
func (collector *ErrorsCollector) ErrorOrNil() error {
	err := collector.errors.ErrorOrNil()
	if err == nil {
		return nil
	}

	if collector.failure == nil {
		return err
	}

	_, failure := SplitErrorTypes(collector.failure)
	return WrapFailure(failure.Code(), err, "failure caused by")
}

// Collect appends err, ignoring nil.
func (collector *ErrorsCollector) Collect(err error) *ErrorsCollector {
	if err == nil {
		return collector
	}

	if collector.failure == nil && IsFailure(err) {
		collector.failure = err
	}

	collector.errors = multierror.Append(collector.errors, err)
	return collector
}

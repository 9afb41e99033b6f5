package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onflow/vm-runtime/model/vm"
)

func TestErrorsCollector(t *testing.T) {
	t.Run("basic collection", func(t *testing.T) {
		collector := ErrorsCollector{}

		// Collecting nil is ok
		require.False(t, collector.Collect(nil).CollectedFailure())
		require.False(t, collector.CollectedError())
		require.Nil(t, collector.ErrorOrNil())

		// Collected non-fatal errors
		require.False(
			t,
			collector.Collect(
				fmt.Errorf(
					"error wrapped: %w",
					NewAbortedError(1)),
			).CollectedFailure())

		require.True(t, collector.CollectedError())
		err := collector.ErrorOrNil()
		require.NotNil(t, err)
		require.ErrorContains(t, err, "aborted with code 1")
		require.False(t, IsFailure(err))

		nonFatal, fatal := SplitErrorTypes(err)
		require.Nil(t, fatal)
		require.NotNil(t, nonFatal)
		require.Equal(t, ErrCodeAborted, nonFatal.Code())

		require.False(
			t,
			collector.Collect(
				NewArgumentTypeMismatchErrorf("bad arg"),
			).CollectedFailure())

		err = collector.ErrorOrNil()
		require.ErrorContains(t, err, "error wrapped")
		require.ErrorContains(t, err, "bad arg")

		nonFatal, fatal = SplitErrorTypes(err)
		require.Nil(t, fatal)
		require.Equal(t, ErrCodeAborted, nonFatal.Code())

		// Collected fatal error
		require.True(
			t,
			collector.Collect(
				fmt.Errorf(
					"failure wrapped: %w",
					NewStorageFailure(
						vm.AccountResourcePath(vm.EmptyAddress),
						fmt.Errorf("fatal1"))),
			).CollectedFailure())

		err = collector.ErrorOrNil()
		require.ErrorContains(t, err, "failure wrapped")
		require.ErrorContains(t, err, "fatal1")
		require.True(t, IsFailure(err))

		nonFatal, fatal = SplitErrorTypes(err)
		require.Nil(t, nonFatal)
		require.Equal(t, FailureCodeStorageFailure, fatal.Code())

		// Collecting a non-fatal error after a fatal error should still be
		// fatal
		require.True(
			t,
			collector.Collect(NewOutOfGasError(3)).CollectedFailure())

		err = collector.ErrorOrNil()
		require.ErrorContains(t, err, "gas limit (3) exceeded")
		require.True(t, IsFailure(err))

		nonFatal, fatal = SplitErrorTypes(err)
		require.Nil(t, nonFatal)
		require.Equal(t, FailureCodeStorageFailure, fatal.Code())

		// A second failure keeps the first failure's code.
		require.True(
			t,
			collector.Collect(fmt.Errorf("fatal2")).CollectedFailure())

		err = collector.ErrorOrNil()
		require.ErrorContains(t, err, "fatal2")

		nonFatal, fatal = SplitErrorTypes(err)
		require.Nil(t, nonFatal)
		require.Equal(t, FailureCodeStorageFailure, fatal.Code())
	})

	t.Run("failure only", func(t *testing.T) {
		collector := ErrorsCollector{}

		require.True(
			t,
			collector.Collect(fmt.Errorf("fatal1")).CollectedFailure())

		require.True(t, collector.CollectedError())
		err := collector.ErrorOrNil()
		require.ErrorContains(t, err, "fatal1")
		require.True(t, IsFailure(err))

		nonFatal, fatal := SplitErrorTypes(err)
		require.Nil(t, nonFatal)
		require.Equal(t, FailureCodeUnknownFailure, fatal.Code())
	})
}

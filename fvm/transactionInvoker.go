package fvm

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/onflow/vm-runtime/fvm/environment"
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/meter"
	"github.com/onflow/vm-runtime/fvm/programs"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module/trace"
)

// transactionExecutor runs one user transaction through admission, the
// prologue, loading, execution and the epilogue.
type transactionExecutor struct {
	TransactionVerifier
	TransactionSequenceNumberChecker
	TransactionPayerBalanceChecker
	TransactionLoader
	TransactionFeeDeductor

	ctx  Context
	proc *TransactionProcedure
	tx   *vm.UserTransaction
	log  zerolog.Logger
	span otelTrace.Span

	blockPrograms *programs.BlockPrograms

	data        *storage.DataCache
	txnPrograms *programs.TransactionPrograms
	meter       *meter.Meter
	env         *environment.ExecutionContext
	loaded      *loadedTransaction

	errs *errors.ErrorsCollector
}

func newTransactionExecutor(
	ctx Context,
	spanName trace.SpanName,
	parentSpan otelTrace.Span,
	proc *TransactionProcedure,
	tx *vm.UserTransaction,
	blockPrograms *programs.BlockPrograms,
	snapshot storage.StorageSnapshot,
) *transactionExecutor {
	span := ctx.Tracer.StartSpanFromParent(
		parentSpan,
		spanName,
		trace.TransactionAttributes(proc.ID.String(), int(proc.TxIndex)))

	return &transactionExecutor{
		ctx:  ctx,
		proc: proc,
		tx:   tx,
		log: ctx.Logger.With().
			Str("tx_id", proc.ID.String()).
			Uint32("tx_index", proc.TxIndex).
			Logger(),
		span:          span,
		blockPrograms: blockPrograms,
		data:          storage.NewDataCache(snapshot, ctx.VMConfig.DataCacheOptions()...),
		errs:          errors.NewErrorsCollector(),
	}
}

func (executor *transactionExecutor) Cleanup() {
	executor.span.End()
}

// handleError splits err into a transaction status and a failure, logging
// the failure with the step it happened in.
func (executor *transactionExecutor) handleError(
	err error,
	step string,
) (errors.CodedError, errors.CodedFailure) {
	txErr, failure := errors.SplitErrorTypes(err)
	if failure != nil {
		executor.log.Err(failure).
			Str("step", step).
			Msg("fatal error when handling a transaction")
		return nil, failure
	}
	return txErr, nil
}

// Execute returns the output of the transaction, or a failure that aborts
// the block.
func (executor *transactionExecutor) Execute() (*TransactionOutput, error) {
	start := time.Now()

	output, err := executor.execute()
	if err != nil {
		return nil, err
	}

	executor.span.SetAttributes(
		attribute.Int64("transaction.gas_used", int64(output.GasUsed)),
		attribute.String("transaction.disposition", output.Disposition.String()),
	)
	executor.ctx.MetricsReporter.ExecutionTransactionExecuted(
		time.Since(start),
		output.GasUsed,
		output.Disposition.String(),
		output.Family())

	return output, nil
}

func (executor *transactionExecutor) execute() (*TransactionOutput, error) {
	txErr, err := executor.handleError(executor.preprocess(), "preprocess")
	if err != nil {
		return nil, err
	}
	if txErr != nil {
		if executor.txnPrograms != nil {
			executor.txnPrograms.Discard()
		}
		return executor.output(txErr)
	}

	txErr, err = executor.handleError(executor.executeTransactionBody(), "executing")
	if err != nil {
		return nil, err
	}
	return executor.output(txErr)
}

// preprocess runs the phases that never charge gas: validation and loading.
func (executor *transactionExecutor) preprocess() error {
	err := executor.validate()
	if err != nil {
		return err
	}

	executor.txnPrograms = executor.blockPrograms.NewTransactionPrograms()
	executor.loaded, err = executor.LoadTransaction(
		executor.ctx,
		executor.span,
		executor.txnPrograms,
		executor.tx)
	return err
}

// validate runs admission and the prologue. It is all ValidateTransaction
// does. The prologue is unmetered and must not fail with an execution error,
// which would keep the transaction without charging gas.
func (executor *transactionExecutor) validate() error {
	txErr, failure := errors.SplitErrorTypes(executor.checkTransaction())
	if failure != nil {
		return failure
	}
	if txErr != nil && txErr.Code().Family() == errors.FamilyExecution {
		return errors.NewInvariantViolationf("prologue failed during execution: %v", txErr)
	}
	if txErr != nil {
		return txErr
	}
	return nil
}

func (executor *transactionExecutor) checkTransaction() error {
	err := executor.CheckAdmission(executor.ctx, executor.span, executor.tx)
	if err != nil {
		return err
	}

	account, err := executor.CheckAuthorization(
		executor.ctx,
		environment.NewAccounts(executor.data),
		executor.tx)
	if err != nil {
		return err
	}

	err = executor.CheckSequenceNumber(executor.ctx, executor.span, account, executor.tx)
	if err != nil {
		return err
	}

	_, err = executor.CheckPayerBalanceAndReturnMaxFees(executor.ctx, executor.span, account, executor.tx)
	return err
}

func (executor *transactionExecutor) executeTransactionBody() error {
	vmConfig := executor.ctx.VMConfig
	executor.meter = meter.NewMeter(
		executor.tx.MaxGasAmount,
		meter.WithCostTable(vmConfig.CostTable))
	executor.env = environment.NewExecutionContext(
		executor.log,
		vmConfig.ExecutionParams(),
		executor.meter,
		executor.data,
		executor.txnPrograms,
		executor.proc.ID,
		executor.tx.Sender)

	executor.errs.Collect(executor.normalExecution())
	if executor.errs.CollectedFailure() {
		return executor.errs.ErrorOrNil()
	}

	// log the intensities here, so that they do not contain the epilogue
	environment.LogGasIntensities(executor.log, executor.env)
	for kind, intensity := range executor.env.GasIntensities() {
		executor.ctx.MetricsReporter.ExecutionGasIntensity(kind.String(), intensity)
	}

	if executor.errs.CollectedError() {
		executor.errorExecution()
	}

	return executor.errs.ErrorOrNil()
}

func (executor *transactionExecutor) normalExecution() error {
	size, err := executor.tx.Size()
	if err != nil {
		return errors.NewEncodingFailuref(err, "could not encode transaction")
	}

	err = executor.env.MeterGas(meter.KindIntrinsicBase, 1)
	if err != nil {
		return err
	}
	err = executor.env.MeterGas(meter.KindIntrinsicByte, uint(size))
	if err != nil {
		return err
	}

	loadSize := programs.ReferencedSize(executor.loaded.referenced)
	err = executor.env.MeterGas(meter.KindModuleLoadByte, uint(loadSize))
	if err != nil {
		return err
	}

	switch {
	case executor.loaded.script != nil:
		err = executor.invokeScript()
	case executor.loaded.module != nil:
		err = executor.env.PublishModule(
			executor.loaded.module.ID,
			executor.tx.Payload.Module.Code)
	}
	if err != nil {
		return err
	}

	return executor.DeductTransactionFees(
		executor.ctx,
		executor.span,
		executor.env,
		executor.tx,
		executor.meter.Used())
}

func (executor *transactionExecutor) invokeScript() error {
	span := executor.ctx.Tracer.StartSpanFromParent(executor.span, trace.VMInvokeTransaction)
	defer span.End()

	start := time.Now()
	defer func() {
		executor.ctx.MetricsReporter.RuntimeTransactionInterpreted(time.Since(start))
	}()

	return executor.ctx.Interpreter.InvokeScript(
		executor.env,
		executor.loaded.script,
		executor.loaded.args)
}

// errorExecution drops every effect of a transaction that failed during
// execution.
func (executor *transactionExecutor) errorExecution() {
	executor.log.Info().
		Err(executor.errs.ErrorOrNil()).
		Msg("transaction executed with error")

	executor.txnPrograms.Discard()
}

func (executor *transactionExecutor) output(txErr errors.CodedError) (*TransactionOutput, error) {
	disposition, err := dispositionOf(txErr)
	if err != nil {
		return nil, err
	}

	if disposition == DispositionDiscard {
		return discardedOutput(txErr), nil
	}

	if txErr != nil {
		return &TransactionOutput{
			WriteSet:    vm.WriteSet{},
			GasUsed:     executor.failedGasUsed(),
			Err:         txErr,
			Disposition: DispositionKeep,
		}, nil
	}

	writeSet, err := executor.env.IntoWriteSet()
	if err != nil {
		return nil, err
	}
	err = executor.txnPrograms.Commit()
	if err != nil {
		return nil, err
	}

	return &TransactionOutput{
		WriteSet:    writeSet,
		GasUsed:     executor.meter.Used(),
		Events:      executor.env.Events(),
		Disposition: DispositionKeep,
	}, nil
}

// failedGasUsed is the gas charged for a transaction that failed during
// execution: the gas used plus the failure surcharge, capped at the budget.
func (executor *transactionExecutor) failedGasUsed() uint64 {
	limit := executor.tx.MaxGasAmount
	if executor.meter == nil {
		return 0
	}
	used := executor.meter.Used()
	surcharge := executor.ctx.VMConfig.FailureSurcharge
	if surcharge > limit-used {
		return limit
	}
	return used + surcharge
}

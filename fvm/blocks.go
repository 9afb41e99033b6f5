package fvm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/programs"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module/trace"
)

// blockExecutor owns the code cache of one ExecuteBlock call.
type blockExecutor struct {
	ctx      Context
	snapshot storage.StorageSnapshot
	programs *programs.BlockPrograms
	span     otelTrace.Span
}

func newBlockExecutor(ctx Context, snapshot storage.StorageSnapshot) (*blockExecutor, error) {
	blockPrograms, err := programs.NewBlockPrograms(
		snapshot,
		ctx.Verifier,
		ctx.VMConfig.ScriptCacheSize,
		programs.WithMetrics(ctx.MetricsReporter))
	if err != nil {
		return nil, err
	}

	span, _ := ctx.Tracer.StartSpanFromContext(context.Background(), trace.VMExecuteBlock)

	return &blockExecutor{
		ctx:      ctx,
		snapshot: snapshot,
		programs: blockPrograms,
		span:     span,
	}, nil
}

func (b *blockExecutor) Cleanup() {
	b.span.End()
}

func (b *blockExecutor) Execute(txs []vm.Transaction) ([]*TransactionOutput, error) {
	start := time.Now()

	b.span.SetAttributes(attribute.Int("block.transactions", len(txs)))

	ctx := b.ctx
	outputs := make([]*TransactionOutput, 0, len(txs))
	var gasUsed uint64
	for i, tx := range txs {
		proc, err := Transaction(tx, uint32(i))
		if err != nil {
			return nil, errors.NewEncodingFailuref(err, "could not compute id of transaction %d", i)
		}

		var output *TransactionOutput
		switch tx := tx.(type) {
		case *vm.UserTransaction:
			output, err = b.executeUserTransaction(ctx, proc, tx)
		case *vm.SystemTransaction:
			output, err = executeSystemTransaction(ctx, b.span, proc, tx)
			if err == nil && output.Disposition == DispositionKeep {
				ctx = NewContextFromParent(ctx, WithBlockTime(nextBlockTime(ctx.BlockTime, tx)))
			}
		default:
			err = errors.NewInvariantViolationf("unknown transaction type %T", tx)
		}
		if err != nil {
			b.ctx.Logger.Error().
				Err(err).
				Uint32("tx_index", proc.TxIndex).
				Msg("block execution aborted")
			return nil, err
		}

		gasUsed += output.GasUsed
		outputs = append(outputs, output)
	}

	b.ctx.MetricsReporter.ExecutionBlockExecuted(time.Since(start), len(txs), gasUsed)
	b.ctx.MetricsReporter.ExecutionBlockCachedPrograms(b.programs.CachedModules())

	b.ctx.Logger.Debug().
		Int("transactions", len(txs)).
		Uint64("gas_used", gasUsed).
		Dur("duration", time.Since(start)).
		Msg("block executed")

	return outputs, nil
}

func (b *blockExecutor) executeUserTransaction(
	ctx Context,
	proc *TransactionProcedure,
	tx *vm.UserTransaction,
) (*TransactionOutput, error) {
	executor := newTransactionExecutor(
		ctx,
		trace.VMExecuteTransaction,
		b.span,
		proc,
		tx,
		b.programs,
		b.snapshot)
	defer executor.Cleanup()

	return executor.Execute()
}

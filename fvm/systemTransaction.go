package fvm

import (
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module/trace"
)

// executeSystemTransaction applies a transaction produced by the node. System
// transactions are not metered, and are kept with 0 gas unless their payload
// is invalid.
func executeSystemTransaction(
	ctx Context,
	parentSpan otelTrace.Span,
	proc *TransactionProcedure,
	tx *vm.SystemTransaction,
) (*TransactionOutput, error) {
	span := ctx.Tracer.StartSpanFromParent(
		parentSpan,
		trace.VMExecuteSystemTx,
		trace.TransactionAttributes(proc.ID.String(), int(proc.TxIndex)))
	defer span.End()

	var (
		writeSet vm.WriteSet
		err      error
	)
	switch payload := tx.Payload.(type) {
	case *vm.BlockMetadata:
		writeSet, err = blockMetadataWriteSet(payload)
	case *vm.WriteSetPayload:
		writeSet, err = directWriteSet(payload)
	default:
		err = errors.NewInvariantViolationf("unknown system payload %T", tx.Payload)
	}

	txErr, failure := errors.SplitErrorTypes(err)
	if failure != nil {
		ctx.Logger.Err(failure).
			Str("tx_id", proc.ID.String()).
			Uint32("tx_index", proc.TxIndex).
			Msg("fatal error when applying a system transaction")
		return nil, failure
	}
	if txErr != nil {
		return discardedOutput(txErr), nil
	}

	return &TransactionOutput{
		WriteSet:    writeSet,
		Disposition: DispositionKeep,
	}, nil
}

func blockMetadataWriteSet(md *vm.BlockMetadata) (vm.WriteSet, error) {
	value, err := vm.EncodeBlockMetadata(*md)
	if err != nil {
		return nil, errors.NewEncodingFailuref(err, "could not encode block metadata")
	}
	return vm.WriteSet{{
		Path: vm.BlockMetadataPath(),
		Op:   vm.Write(value),
	}}, nil
}

func directWriteSet(payload *vm.WriteSetPayload) (vm.WriteSet, error) {
	if err := payload.WriteSet.Validate(); err != nil {
		return nil, errors.NewInvalidWriteSetErrorf("%v", err)
	}

	writes := make(map[vm.AccessPath]vm.WriteOp, len(payload.WriteSet))
	for _, entry := range payload.WriteSet {
		if entry.Op.Kind != vm.WriteOpWrite && entry.Op.Kind != vm.WriteOpDelete {
			return nil, errors.NewInvalidWriteSetErrorf(
				"unknown operation %v on %s",
				entry.Op.Kind,
				entry.Path)
		}
		writes[entry.Path] = entry.Op
	}
	return vm.NewWriteSet(writes), nil
}

// nextBlockTime returns the block time after a kept system transaction.
func nextBlockTime(blockTime uint64, tx *vm.SystemTransaction) uint64 {
	if md, ok := tx.Payload.(*vm.BlockMetadata); ok {
		return md.Timestamp
	}
	return blockTime
}

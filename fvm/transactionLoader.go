package fvm

import (
	"time"

	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/programs"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/module/trace"
)

// loadedTransaction is the verified and linked code of a transaction.
type loadedTransaction struct {
	script *programs.LoadedScript
	args   []bytecode.Value

	module *programs.LoadedModule

	// referenced are the modules the transaction loads, charged per byte.
	referenced []*programs.LoadedModule
}

// TransactionLoader loads the payload of a transaction through the code
// cache and type-checks its arguments.
type TransactionLoader struct{}

func (l *TransactionLoader) LoadTransaction(
	ctx Context,
	span otelTrace.Span,
	txnPrograms *programs.TransactionPrograms,
	tx *vm.UserTransaction,
) (*loadedTransaction, error) {
	span = ctx.Tracer.StartSpanFromParent(span, trace.VMLoadTransaction)
	defer span.End()

	start := time.Now()
	defer func() {
		ctx.MetricsReporter.RuntimeTransactionChecked(time.Since(start))
	}()

	switch {
	case tx.Payload.Script != nil:
		return l.loadScript(txnPrograms, tx.Payload.Script)
	case tx.Payload.Module != nil:
		module, err := txnPrograms.StageModule(tx.Payload.Module.Code, tx.Sender)
		if err != nil {
			return nil, err
		}
		return &loadedTransaction{
			module:     module,
			referenced: []*programs.LoadedModule{module},
		}, nil
	}
	return nil, errors.NewMalformedPayloadErrorf("payload is empty")
}

func (l *TransactionLoader) loadScript(
	txnPrograms *programs.TransactionPrograms,
	script *vm.Script,
) (*loadedTransaction, error) {
	loaded, err := txnPrograms.LoadScript(script.Code)
	if err != nil {
		return nil, err
	}

	params := loaded.Script.Main.Params
	if len(script.Arguments) != len(params) {
		return nil, errors.NewArgumentTypeMismatchErrorf(
			"main expects %d arguments, got %d",
			len(params),
			len(script.Arguments))
	}

	args := make([]bytecode.Value, len(params))
	for i, arg := range script.Arguments {
		value, err := bytecode.ArgumentValue(arg)
		if err != nil {
			return nil, errors.NewArgumentTypeMismatchErrorf("argument %d: %v", i, err)
		}
		if value.Type != params[i] {
			return nil, errors.NewArgumentTypeMismatchErrorf(
				"argument %d is %v, expected %v",
				i,
				value.Type,
				params[i])
		}
		args[i] = value
	}

	return &loadedTransaction{
		script:     loaded,
		args:       args,
		referenced: loaded.Deps,
	}, nil
}

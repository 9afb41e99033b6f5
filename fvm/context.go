package fvm

import (
	"github.com/rs/zerolog"

	"github.com/onflow/vm-runtime/config"
	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/fvm/crypto"
	"github.com/onflow/vm-runtime/fvm/interpreter"
	"github.com/onflow/vm-runtime/module"
	"github.com/onflow/vm-runtime/module/metrics"
	"github.com/onflow/vm-runtime/module/trace"
)

// A Context defines a set of execution parameters used by the virtual machine.
type Context struct {
	Logger zerolog.Logger

	VMConfig config.VMConfig

	Verifier          bytecode.Verifier
	SignatureVerifier crypto.SignatureVerifier
	Interpreter       interpreter.Interpreter

	MetricsReporter module.ExecutionMetrics
	Tracer          *trace.Tracer

	// BlockTime is the timestamp, in seconds, transactions expire against.
	BlockTime uint64

	SignatureVerificationEnabled bool
}

// NewContext initializes a new execution context with the provided options.
func NewContext(opts ...Option) Context {
	return newContext(defaultContext(), opts...)
}

// NewContextFromParent spawns a child execution context with the provided options.
func NewContextFromParent(parent Context, opts ...Option) Context {
	return newContext(parent, opts...)
}

func newContext(ctx Context, opts ...Option) Context {
	for _, applyOption := range opts {
		ctx = applyOption(ctx)
	}

	return ctx
}

func defaultContext() Context {
	return Context{
		Logger:                       zerolog.Nop(),
		VMConfig:                     config.DefaultVMConfig(),
		Verifier:                     bytecode.NewDefaultVerifier(),
		SignatureVerifier:            crypto.NewDefaultSignatureVerifier(),
		Interpreter:                  interpreter.NewReferenceInterpreter(),
		MetricsReporter:              metrics.NewNoopCollector(),
		Tracer:                       trace.NewNoopTracer(),
		SignatureVerificationEnabled: true,
	}
}

// An Option sets a configuration parameter for a virtual machine context.
type Option func(ctx Context) Context

// WithLogger sets the context logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(ctx Context) Context {
		ctx.Logger = logger
		return ctx
	}
}

// WithVMConfig sets the gas schedule and limits.
func WithVMConfig(vmConfig config.VMConfig) Option {
	return func(ctx Context) Context {
		ctx.VMConfig = vmConfig
		return ctx
	}
}

// WithVerifier sets the bytecode verifier.
func WithVerifier(verifier bytecode.Verifier) Option {
	return func(ctx Context) Context {
		ctx.Verifier = verifier
		return ctx
	}
}

// WithSignatureVerifier sets the verifier of transaction signatures.
func WithSignatureVerifier(verifier crypto.SignatureVerifier) Option {
	return func(ctx Context) Context {
		ctx.SignatureVerifier = verifier
		return ctx
	}
}

// WithInterpreter sets the interpreter running transaction scripts.
func WithInterpreter(i interpreter.Interpreter) Option {
	return func(ctx Context) Context {
		ctx.Interpreter = i
		return ctx
	}
}

// WithMetricsReporter sets the metrics collector.
func WithMetricsReporter(mr module.ExecutionMetrics) Option {
	return func(ctx Context) Context {
		if mr != nil {
			ctx.MetricsReporter = mr
		}
		return ctx
	}
}

// WithTracer sets the tracer.
func WithTracer(tr *trace.Tracer) Option {
	return func(ctx Context) Context {
		if tr != nil {
			ctx.Tracer = tr
		}
		return ctx
	}
}

// WithBlockTime sets the time transactions expire against.
func WithBlockTime(blockTime uint64) Option {
	return func(ctx Context) Context {
		ctx.BlockTime = blockTime
		return ctx
	}
}

// WithSignatureVerificationEnabled enables or disables signature checks.
//
// This is disabled only by tests.
func WithSignatureVerificationEnabled(enabled bool) Option {
	return func(ctx Context) Context {
		ctx.SignatureVerificationEnabled = enabled
		return ctx
	}
}

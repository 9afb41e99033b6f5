package interpreter_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/fvm/environment"
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/interpreter"
	"github.com/onflow/vm-runtime/fvm/meter"
	"github.com/onflow/vm-runtime/fvm/programs"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/utils/unittest"
)

type testRun struct {
	ctx    *environment.ExecutionContext
	script *programs.LoadedScript
}

func prepare(
	t *testing.T,
	snapshot storage.StorageSnapshot,
	sender vm.Address,
	script *bytecode.CompiledScript,
	limit uint64,
) testRun {
	blockPrograms, err := programs.NewBlockPrograms(snapshot, bytecode.NewDefaultVerifier(), 0)
	require.NoError(t, err)

	loaded, err := blockPrograms.LoadScript(unittest.ScriptCode(t, script))
	require.NoError(t, err)

	ctx := environment.NewExecutionContext(
		unittest.Logger(),
		environment.DefaultExecutionParams(),
		meter.NewMeter(limit),
		storage.NewDataCache(snapshot),
		blockPrograms.NewTransactionPrograms(),
		vm.Identifier{7},
		sender)

	return testRun{ctx: ctx, script: loaded}
}

func (r testRun) invoke(args ...bytecode.Value) error {
	return interpreter.NewReferenceInterpreter().InvokeScript(r.ctx, r.script, args)
}

func TestInterpreter_Control(t *testing.T) {
	sender := unittest.AddressFixture()

	t.Run("noop", func(t *testing.T) {
		run := prepare(t, storage.EmptyStorageSnapshot{}, sender, unittest.NoopScriptFixture(), 1_000)
		require.NoError(t, run.invoke())
		require.Equal(t, uint64(1), run.ctx.GasUsed())
	})

	t.Run("abort", func(t *testing.T) {
		run := prepare(t, storage.EmptyStorageSnapshot{}, sender, unittest.AbortScriptFixture(42), 10_000)
		err := run.invoke()
		require.True(t, errors.IsAbortedError(err))
		require.Contains(t, err.Error(), "42")
	})

	t.Run("infinite loop runs out of gas", func(t *testing.T) {
		run := prepare(t, storage.EmptyStorageSnapshot{}, sender, unittest.InfiniteLoopScriptFixture(), 1_000)
		err := run.invoke()
		require.True(t, errors.IsOutOfGasError(err))
		require.LessOrEqual(t, run.ctx.GasUsed(), uint64(1_000))
	})

	t.Run("unbounded recursion overflows the call stack", func(t *testing.T) {
		address := unittest.AddressFixture()
		snapshot := storage.MapStorageSnapshot{}
		unittest.AddModule(t, snapshot, unittest.RecursionModuleFixture(address))

		run := prepare(t, snapshot, sender, unittest.RecursionScriptFixture(address), 1_000_000)
		err := run.invoke()
		require.True(t, errors.HasErrorCode(err, errors.ErrCodeCallStackOverflow))
		require.Equal(t, uint(0), run.ctx.CallDepth())
	})

	t.Run("branches", func(t *testing.T) {
		// sums 1..10 into a local and aborts with the sum
		script := &bytecode.CompiledScript{
			Main: bytecode.Function{
				Name:   bytecode.MainFunctionName,
				Locals: []bytecode.Type{bytecode.TypeU64, bytecode.TypeU64},
				Code: bytecode.Code{
					bytecode.OpArg(bytecode.LOAD_LOCAL, 0),
					bytecode.OpArg(bytecode.PUSH_U64, 10),
					bytecode.Op(bytecode.EQ),
					bytecode.OpArg(bytecode.BRANCH_TRUE, 13),
					bytecode.OpArg(bytecode.LOAD_LOCAL, 0),
					bytecode.OpArg(bytecode.PUSH_U64, 1),
					bytecode.Op(bytecode.ADD),
					bytecode.OpArg(bytecode.STORE_LOCAL, 0),
					bytecode.OpArg(bytecode.LOAD_LOCAL, 1),
					bytecode.OpArg(bytecode.LOAD_LOCAL, 0),
					bytecode.Op(bytecode.ADD),
					bytecode.OpArg(bytecode.STORE_LOCAL, 1),
					bytecode.OpArg(bytecode.BRANCH, 0),
					bytecode.OpArg(bytecode.LOAD_LOCAL, 1),
					bytecode.Op(bytecode.ABORT),
				},
			},
		}
		run := prepare(t, storage.EmptyStorageSnapshot{}, sender, script, 10_000)
		err := run.invoke()
		require.True(t, errors.IsAbortedError(err))
		require.Contains(t, err.Error(), "code 55")
	})
}

func TestInterpreter_Arithmetic(t *testing.T) {
	sender := unittest.AddressFixture()

	binary := func(a, b uint64, op bytecode.OpCode) *bytecode.CompiledScript {
		return &bytecode.CompiledScript{
			Main: bytecode.Function{
				Name: bytecode.MainFunctionName,
				Code: bytecode.Code{
					bytecode.OpArg(bytecode.PUSH_U64, a),
					bytecode.OpArg(bytecode.PUSH_U64, b),
					bytecode.Op(op),
					bytecode.Op(bytecode.ABORT),
				},
			},
		}
	}

	cases := []struct {
		name   string
		a, b   uint64
		op     bytecode.OpCode
		result string
	}{
		{"add", 2, 3, bytecode.ADD, "code 5"},
		{"sub", 7, 3, bytecode.SUB, "code 4"},
		{"mul", 6, 7, bytecode.MUL, "code 42"},
		{"div", 9, 2, bytecode.DIV, "code 4"},
		{"mod", 9, 2, bytecode.MOD, "code 1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			run := prepare(t, storage.EmptyStorageSnapshot{}, sender, binary(c.a, c.b, c.op), 1_000)
			err := run.invoke()
			require.True(t, errors.IsAbortedError(err))
			require.Contains(t, err.Error(), c.result)
		})
	}

	faults := []struct {
		name string
		a, b uint64
		op   bytecode.OpCode
	}{
		{"add overflow", math.MaxUint64, 1, bytecode.ADD},
		{"sub underflow", 1, 2, bytecode.SUB},
		{"mul overflow", math.MaxUint64, 2, bytecode.MUL},
		{"div by zero", 1, 0, bytecode.DIV},
		{"mod by zero", 1, 0, bytecode.MOD},
	}
	for _, c := range faults {
		t.Run(c.name, func(t *testing.T) {
			run := prepare(t, storage.EmptyStorageSnapshot{}, sender, binary(c.a, c.b, c.op), 1_000)
			err := run.invoke()
			require.True(t, errors.HasErrorCode(err, errors.ErrCodeArithmeticError))
			require.Equal(t, errors.FamilyExecution, errors.ErrCodeArithmeticError.Family())
		})
	}

	t.Run("arithmetic is metered", func(t *testing.T) {
		run := prepare(t, storage.EmptyStorageSnapshot{}, sender, binary(1, 1, bytecode.ADD), 1_000)
		_ = run.invoke()

		table := meter.DefaultCostTable()
		require.Equal(t, 4*table.Instruction+table.Arithmetic, run.ctx.GasUsed())
	})
}

func TestInterpreter_Calls(t *testing.T) {
	sender := unittest.AddressFixture()
	mathAddress := unittest.AddressFixture()
	wrapperAddress := unittest.AddressFixture()

	snapshot := storage.MapStorageSnapshot{}
	unittest.AddModule(t, snapshot, unittest.MathModuleFixture(mathAddress))
	unittest.AddModule(t, snapshot, unittest.WrapperModuleFixture(wrapperAddress, mathAddress))

	t.Run("imported function", func(t *testing.T) {
		run := prepare(t, snapshot, sender, unittest.CallDoubleScriptFixture(mathAddress, 21, 42), 10_000)
		require.NoError(t, run.invoke())
		require.Equal(t, uint(1), run.ctx.GasIntensities()[meter.KindFunctionCall])
	})

	t.Run("imported function with a wrong result", func(t *testing.T) {
		run := prepare(t, snapshot, sender, unittest.CallDoubleScriptFixture(mathAddress, 21, 41), 10_000)
		require.True(t, errors.IsAbortedError(run.invoke()))
	})

	t.Run("transitive imports and self calls", func(t *testing.T) {
		script := &bytecode.CompiledScript{
			Imports: []vm.ModuleID{vm.NewModuleID(wrapperAddress, "Wrapper")},
			Calls: []bytecode.CallTarget{{
				Import:   0,
				Function: "octo",
				Params:   []bytecode.Type{bytecode.TypeU64},
				Returns:  []bytecode.Type{bytecode.TypeU64},
			}},
			Main: bytecode.Function{
				Name: bytecode.MainFunctionName,
				Code: bytecode.Code{
					bytecode.OpArg(bytecode.PUSH_U64, 3),
					bytecode.OpArg(bytecode.CALL, 0),
					bytecode.Op(bytecode.ABORT),
				},
			},
		}
		run := prepare(t, snapshot, sender, script, 10_000)
		err := run.invoke()
		require.True(t, errors.IsAbortedError(err))
		require.Contains(t, err.Error(), "code 24")
		// octo, quad and two doubles
		require.Equal(t, uint(4), run.ctx.GasIntensities()[meter.KindFunctionCall])
	})
}

func TestInterpreter_Environment(t *testing.T) {
	alice := unittest.NewTestAccount("alice")
	bob := unittest.NewTestAccount("bob")

	snapshot := storage.MapStorageSnapshot{}
	unittest.AddAccount(t, snapshot, alice, 1_000, 0)
	unittest.AddAccount(t, snapshot, bob, 0, 0)

	t.Run("write and emit", func(t *testing.T) {
		run := prepare(t, snapshot, alice.Address, unittest.WriteScriptFixture([]byte("k"), []byte("v")), 10_000)
		require.NoError(t, run.invoke())

		ws, err := run.ctx.IntoWriteSet()
		require.NoError(t, err)
		op, ok := ws.Get(vm.DataPath(alice.Address, []byte("k")))
		require.True(t, ok)
		require.Equal(t, []byte("v"), op.Value)

		events := run.ctx.Events()
		require.Len(t, events, 1)
		require.Equal(t, []byte("k"), events[0].Key)
		require.Equal(t, []byte("v"), events[0].Payload)
	})

	t.Run("transfer", func(t *testing.T) {
		run := prepare(t, snapshot, alice.Address, unittest.TransferScriptFixture(), 10_000)
		require.NoError(t, run.invoke(bytecode.Address(bob.Address), bytecode.U64(300)))

		ws, err := run.ctx.IntoWriteSet()
		require.NoError(t, err)
		after := snapshot.ApplyWriteSets(ws)
		require.Equal(t, uint64(700), unittest.ReadAccount(t, after, alice.Address).Balance)
		require.Equal(t, uint64(300), unittest.ReadAccount(t, after, bob.Address).Balance)
	})

	t.Run("transfer beyond balance aborts", func(t *testing.T) {
		run := prepare(t, snapshot, alice.Address, unittest.TransferScriptFixture(), 10_000)
		err := run.invoke(bytecode.Address(bob.Address), bytecode.U64(1_001))
		require.True(t, errors.IsAbortedError(err))
	})

	t.Run("concat, read and balance", func(t *testing.T) {
		script := &bytecode.CompiledScript{
			Constants: []bytecode.Value{
				bytecode.Bytes([]byte("ba")),
				bytecode.Bytes([]byte("lance")),
			},
			Main: bytecode.Function{
				Name: bytecode.MainFunctionName,
				Code: bytecode.Code{
					// data[balance] = to_bytes(balance(sender))
					bytecode.OpArg(bytecode.PUSH_CONST, 0),
					bytecode.OpArg(bytecode.PUSH_CONST, 1),
					bytecode.Op(bytecode.CONCAT),
					bytecode.Op(bytecode.SENDER),
					bytecode.Op(bytecode.BALANCE),
					bytecode.Op(bytecode.TO_BYTES),
					bytecode.Op(bytecode.WRITE),
					// abort with 1 unless the value reads back
					bytecode.Op(bytecode.SENDER),
					bytecode.OpArg(bytecode.PUSH_CONST, 0),
					bytecode.OpArg(bytecode.PUSH_CONST, 1),
					bytecode.Op(bytecode.CONCAT),
					bytecode.Op(bytecode.READ_AT),
					bytecode.OpArg(bytecode.PUSH_U64, 1_000),
					bytecode.Op(bytecode.TO_BYTES),
					bytecode.Op(bytecode.EQ),
					bytecode.OpArg(bytecode.BRANCH_TRUE, 18),
					bytecode.OpArg(bytecode.PUSH_U64, 1),
					bytecode.Op(bytecode.ABORT),
					bytecode.Op(bytecode.RETURN),
				},
			},
		}
		run := prepare(t, snapshot, alice.Address, script, 10_000)
		require.NoError(t, run.invoke())
	})

	t.Run("arguments of the wrong type", func(t *testing.T) {
		run := prepare(t, snapshot, alice.Address, unittest.TransferScriptFixture(), 10_000)
		err := run.invoke(bytecode.U64(1), bytecode.U64(300))
		require.True(t, errors.IsFailure(err))
		require.True(t, errors.IsInvariantViolation(err))
	})
}

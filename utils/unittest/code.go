package unittest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/model/vm"
)

func ScriptCode(t testing.TB, script *bytecode.CompiledScript) []byte {
	code, err := script.Serialize()
	require.NoError(t, err)
	return code
}

func ModuleCode(t testing.TB, module *bytecode.CompiledModule) []byte {
	code, err := module.Serialize()
	require.NoError(t, err)
	return code
}

// ScriptPayload serializes script into a payload.
func ScriptPayload(t testing.TB, script *bytecode.CompiledScript, args ...vm.TransactionArgument) vm.Payload {
	return vm.ScriptPayload(ScriptCode(t, script), args...)
}

// ModulePayload serializes module into a payload.
func ModulePayload(t testing.TB, module *bytecode.CompiledModule) vm.Payload {
	return vm.ModulePayload(ModuleCode(t, module))
}

func mainFunction(params []bytecode.Type, locals []bytecode.Type, code ...bytecode.Instruction) bytecode.Function {
	return bytecode.Function{
		Name:   bytecode.MainFunctionName,
		Params: params,
		Locals: locals,
		Code:   code,
	}
}

// NoopScriptFixture returns immediately.
func NoopScriptFixture() *bytecode.CompiledScript {
	return &bytecode.CompiledScript{
		Main: mainFunction(nil, nil, bytecode.Op(bytecode.RETURN)),
	}
}

// AbortScriptFixture writes a value and then aborts with code.
func AbortScriptFixture(code uint64) *bytecode.CompiledScript {
	return &bytecode.CompiledScript{
		Constants: []bytecode.Value{
			bytecode.Bytes([]byte("key")),
			bytecode.Bytes([]byte("value")),
		},
		Main: mainFunction(nil, nil,
			bytecode.OpArg(bytecode.PUSH_CONST, 0),
			bytecode.OpArg(bytecode.PUSH_CONST, 1),
			bytecode.Op(bytecode.WRITE),
			bytecode.OpArg(bytecode.PUSH_U64, code),
			bytecode.Op(bytecode.ABORT),
		),
	}
}

// WriteScriptFixture writes value under key in the sender's data and emits
// an event with the same key and value.
func WriteScriptFixture(key, value []byte) *bytecode.CompiledScript {
	return &bytecode.CompiledScript{
		Constants: []bytecode.Value{
			bytecode.Bytes(key),
			bytecode.Bytes(value),
		},
		Main: mainFunction(nil, nil,
			bytecode.OpArg(bytecode.PUSH_CONST, 0),
			bytecode.OpArg(bytecode.PUSH_CONST, 1),
			bytecode.Op(bytecode.WRITE),
			bytecode.OpArg(bytecode.PUSH_CONST, 0),
			bytecode.OpArg(bytecode.PUSH_CONST, 1),
			bytecode.Op(bytecode.EMIT),
			bytecode.Op(bytecode.RETURN),
		),
	}
}

// TransferScriptFixture transfers main's second argument to the address in
// its first argument.
func TransferScriptFixture() *bytecode.CompiledScript {
	return &bytecode.CompiledScript{
		Main: mainFunction(
			[]bytecode.Type{bytecode.TypeAddress, bytecode.TypeU64},
			nil,
			bytecode.OpArg(bytecode.LOAD_LOCAL, 0),
			bytecode.OpArg(bytecode.LOAD_LOCAL, 1),
			bytecode.Op(bytecode.TRANSFER),
			bytecode.Op(bytecode.RETURN),
		),
	}
}

// InfiniteLoopScriptFixture never terminates and eventually runs out of gas.
func InfiniteLoopScriptFixture() *bytecode.CompiledScript {
	return &bytecode.CompiledScript{
		Main: mainFunction(nil, nil,
			bytecode.Op(bytecode.NOP),
			bytecode.OpArg(bytecode.BRANCH, 0),
		),
	}
}

// RecursionScriptFixture calls the recursive function Recursion.down of the
// module returned by RecursionModuleFixture.
func RecursionScriptFixture(address vm.Address) *bytecode.CompiledScript {
	return &bytecode.CompiledScript{
		Imports: []vm.ModuleID{vm.NewModuleID(address, "Recursion")},
		Calls: []bytecode.CallTarget{
			{Import: 0, Function: "down"},
		},
		Main: mainFunction(nil, nil,
			bytecode.OpArg(bytecode.CALL, 0),
			bytecode.Op(bytecode.RETURN),
		),
	}
}

// RecursionModuleFixture declares a function that calls itself forever.
func RecursionModuleFixture(address vm.Address) *bytecode.CompiledModule {
	return &bytecode.CompiledModule{
		Address: address,
		Name:    "Recursion",
		Calls: []bytecode.CallTarget{
			{Import: bytecode.SelfImport, Function: "down"},
		},
		Functions: []bytecode.Function{{
			Name: "down",
			Code: bytecode.Code{
				bytecode.OpArg(bytecode.CALL, 0),
				bytecode.Op(bytecode.RETURN),
			},
		}},
	}
}

// InvalidScriptFixture fails verification with a stack underflow.
func InvalidScriptFixture() *bytecode.CompiledScript {
	return &bytecode.CompiledScript{
		Main: mainFunction(nil, nil,
			bytecode.Op(bytecode.ADD),
			bytecode.Op(bytecode.RETURN),
		),
	}
}

var doubleSignature = bytecode.CallTarget{
	Function: "double",
	Params:   []bytecode.Type{bytecode.TypeU64},
	Returns:  []bytecode.Type{bytecode.TypeU64},
}

// MathModuleFixture declares double(u64) u64 and quad(u64) u64, which calls
// double twice.
func MathModuleFixture(address vm.Address) *bytecode.CompiledModule {
	self := doubleSignature
	self.Import = bytecode.SelfImport

	return &bytecode.CompiledModule{
		Address: address,
		Name:    "Math",
		Calls:   []bytecode.CallTarget{self},
		Functions: []bytecode.Function{
			{
				Name:    "double",
				Params:  []bytecode.Type{bytecode.TypeU64},
				Returns: []bytecode.Type{bytecode.TypeU64},
				Code: bytecode.Code{
					bytecode.OpArg(bytecode.LOAD_LOCAL, 0),
					bytecode.OpArg(bytecode.PUSH_U64, 2),
					bytecode.Op(bytecode.MUL),
					bytecode.Op(bytecode.RETURN),
				},
			},
			{
				Name:    "quad",
				Params:  []bytecode.Type{bytecode.TypeU64},
				Returns: []bytecode.Type{bytecode.TypeU64},
				Code: bytecode.Code{
					bytecode.OpArg(bytecode.LOAD_LOCAL, 0),
					bytecode.OpArg(bytecode.CALL, 0),
					bytecode.OpArg(bytecode.CALL, 0),
					bytecode.Op(bytecode.RETURN),
				},
			},
		},
	}
}

// WrapperModuleFixture declares octo(u64) u64 built on the quad function of
// the math module at mathAddress.
func WrapperModuleFixture(address vm.Address, mathAddress vm.Address) *bytecode.CompiledModule {
	return &bytecode.CompiledModule{
		Address: address,
		Name:    "Wrapper",
		Imports: []vm.ModuleID{vm.NewModuleID(mathAddress, "Math")},
		Calls: []bytecode.CallTarget{
			{
				Import:   0,
				Function: "quad",
				Params:   []bytecode.Type{bytecode.TypeU64},
				Returns:  []bytecode.Type{bytecode.TypeU64},
			},
		},
		Functions: []bytecode.Function{{
			Name:    "octo",
			Params:  []bytecode.Type{bytecode.TypeU64},
			Returns: []bytecode.Type{bytecode.TypeU64},
			Code: bytecode.Code{
				bytecode.OpArg(bytecode.LOAD_LOCAL, 0),
				bytecode.OpArg(bytecode.CALL, 0),
				bytecode.OpArg(bytecode.PUSH_U64, 2),
				bytecode.Op(bytecode.MUL),
				bytecode.Op(bytecode.RETURN),
			},
		}},
	}
}

// CallDoubleScriptFixture calls Math.double(input) and aborts with code 1
// unless the result equals expected.
func CallDoubleScriptFixture(mathAddress vm.Address, input, expected uint64) *bytecode.CompiledScript {
	call := doubleSignature
	call.Import = 0

	return &bytecode.CompiledScript{
		Imports: []vm.ModuleID{vm.NewModuleID(mathAddress, "Math")},
		Calls:   []bytecode.CallTarget{call},
		Main: mainFunction(nil, nil,
			bytecode.OpArg(bytecode.PUSH_U64, input),
			bytecode.OpArg(bytecode.CALL, 0),
			bytecode.OpArg(bytecode.PUSH_U64, expected),
			bytecode.Op(bytecode.EQ),
			bytecode.OpArg(bytecode.BRANCH_TRUE, 7),
			bytecode.OpArg(bytecode.PUSH_U64, 1),
			bytecode.Op(bytecode.ABORT),
			bytecode.Op(bytecode.RETURN),
		),
	}
}

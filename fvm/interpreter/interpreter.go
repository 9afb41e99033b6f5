package interpreter

import (
	"fmt"
	"math/bits"

	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/fvm/environment"
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/meter"
	"github.com/onflow/vm-runtime/fvm/programs"
)

// Interpreter runs verified, linked code inside an execution context.
type Interpreter interface {
	InvokeScript(
		ctx *environment.ExecutionContext,
		script *programs.LoadedScript,
		args []bytecode.Value,
	) error
}

// ReferenceInterpreter is a straightforward interpreter of the reference
// bytecode. Every instruction is metered before it executes.
type ReferenceInterpreter struct{}

var _ Interpreter = ReferenceInterpreter{}

func NewReferenceInterpreter() ReferenceInterpreter {
	return ReferenceInterpreter{}
}

// scope is what a running function can reference: the call table, the
// constant pool and the linked imports of the module or script that declares
// it.
type scope struct {
	owner     string
	self      *programs.LoadedModule
	deps      []*programs.LoadedModule
	calls     []bytecode.CallTarget
	constants []bytecode.Value
}

func moduleScope(m *programs.LoadedModule) scope {
	return scope{
		owner:     m.ID.String(),
		self:      m,
		deps:      m.Deps,
		calls:     m.Module.Calls,
		constants: m.Module.Constants,
	}
}

// InvokeScript runs the main function of script with args.
func (ReferenceInterpreter) InvokeScript(
	ctx *environment.ExecutionContext,
	script *programs.LoadedScript,
	args []bytecode.Value,
) error {
	main := &script.Script.Main
	if len(args) != len(main.Params) {
		return errors.NewInvariantViolationf(
			"main expects %d arguments, got %d",
			len(main.Params),
			len(args))
	}

	sc := scope{
		owner:     "script",
		deps:      script.Deps,
		calls:     script.Script.Calls,
		constants: script.Script.Constants,
	}

	if err := ctx.EnterCall(); err != nil {
		return err
	}
	defer ctx.ExitCall()

	_, err := invoke(ctx, sc, main, args)
	return err
}

// resolve returns the function a call table entry refers to, together with
// the scope it runs in.
func (sc scope) resolve(target bytecode.CallTarget) (scope, *bytecode.Function, error) {
	var callee *programs.LoadedModule
	switch {
	case target.Import == bytecode.SelfImport && sc.self != nil:
		callee = sc.self
	case target.Import >= 0 && target.Import < len(sc.deps):
		callee = sc.deps[target.Import]
	default:
		return scope{}, nil, errors.NewInvariantViolationf(
			"%s: call target import %d does not resolve",
			sc.owner,
			target.Import)
	}

	f, ok := callee.Function(target.Function)
	if !ok {
		return scope{}, nil, errors.NewCodeCacheFailure(
			callee.ID,
			fmt.Errorf("function %s is not declared", target.Function))
	}
	return moduleScope(callee), f, nil
}

func invoke(
	ctx *environment.ExecutionContext,
	sc scope,
	f *bytecode.Function,
	args []bytecode.Value,
) ([]bytecode.Value, error) {
	localTypes := f.LocalTypes()
	locals := make([]bytecode.Value, len(localTypes))
	for i, t := range localTypes {
		if i < len(args) {
			if args[i].Type != t {
				return nil, errors.NewInvariantViolationf(
					"%s.%s: argument %d is %v, expected %v",
					sc.owner,
					f.Name,
					i,
					args[i].Type,
					t)
			}
			locals[i] = args[i]
			continue
		}
		locals[i] = bytecode.ZeroValue(t)
	}

	s := newStack()
	code := f.Code
	pc := 0

	for {
		if pc < 0 || pc >= len(code) {
			return nil, errors.NewInvariantViolationf(
				"%s.%s: program counter %d out of range",
				sc.owner,
				f.Name,
				pc)
		}
		instr := code[pc]
		pc++

		if err := ctx.MeterGas(meter.KindInstruction, 1); err != nil {
			return nil, err
		}
		if instr.Op.IsArithmetic() {
			if err := ctx.MeterGas(meter.KindArithmetic, 1); err != nil {
				return nil, err
			}
		}

		var err error
		switch instr.Op {
		case bytecode.NOP:

		case bytecode.PUSH_CONST:
			if instr.Arg >= uint64(len(sc.constants)) {
				return nil, errors.NewInvariantViolationf("%s: constant %d out of range", sc.owner, instr.Arg)
			}
			err = s.push(sc.constants[instr.Arg])
		case bytecode.PUSH_U64:
			err = s.push(bytecode.U64(instr.Arg))
		case bytecode.PUSH_BOOL:
			err = s.push(bytecode.Bool(instr.Arg == 1))
		case bytecode.POP:
			_, err = s.popAny()

		case bytecode.LOAD_LOCAL:
			if instr.Arg >= uint64(len(locals)) {
				return nil, errors.NewInvariantViolationf("%s: local %d out of range", sc.owner, instr.Arg)
			}
			err = s.push(locals[instr.Arg])
		case bytecode.STORE_LOCAL:
			if instr.Arg >= uint64(len(locals)) {
				return nil, errors.NewInvariantViolationf("%s: local %d out of range", sc.owner, instr.Arg)
			}
			var v bytecode.Value
			v, err = s.pop(localTypes[instr.Arg])
			locals[instr.Arg] = v

		case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
			bytecode.LT, bytecode.GT:
			err = opBinaryU64(s, instr.Op)
		case bytecode.EQ:
			err = opEq(s)
		case bytecode.NOT:
			var b bool
			if b, err = s.popBool(); err == nil {
				err = s.push(bytecode.Bool(!b))
			}
		case bytecode.AND, bytecode.OR:
			err = opBinaryBool(s, instr.Op)

		case bytecode.BRANCH:
			pc = int(instr.Arg)
		case bytecode.BRANCH_TRUE, bytecode.BRANCH_FALSE:
			var b bool
			if b, err = s.popBool(); err == nil && b == (instr.Op == bytecode.BRANCH_TRUE) {
				pc = int(instr.Arg)
			}

		case bytecode.CALL:
			err = opCall(ctx, sc, s, instr.Arg)

		case bytecode.RETURN:
			if s.len() != len(f.Returns) {
				return nil, errors.NewInvariantViolationf(
					"%s.%s: returned %d values, expected %d",
					sc.owner,
					f.Name,
					s.len(),
					len(f.Returns))
			}
			return s.popN(f.Returns)

		case bytecode.ABORT:
			var abortCode uint64
			if abortCode, err = s.popU64(); err == nil {
				err = errors.NewAbortedError(abortCode)
			}

		default:
			err = execEnvironmentOp(ctx, s, instr.Op)
		}

		if err != nil {
			return nil, err
		}
	}
}

func opBinaryU64(s *stack, op bytecode.OpCode) error {
	b, err := s.popU64()
	if err != nil {
		return err
	}
	a, err := s.popU64()
	if err != nil {
		return err
	}

	var result uint64
	switch op {
	case bytecode.ADD:
		var carry uint64
		result, carry = bits.Add64(a, b, 0)
		if carry != 0 {
			return errors.NewArithmeticErrorf("%d + %d overflows", a, b)
		}
	case bytecode.SUB:
		if a < b {
			return errors.NewArithmeticErrorf("%d - %d underflows", a, b)
		}
		result = a - b
	case bytecode.MUL:
		hi, lo := bits.Mul64(a, b)
		if hi != 0 {
			return errors.NewArithmeticErrorf("%d * %d overflows", a, b)
		}
		result = lo
	case bytecode.DIV, bytecode.MOD:
		if b == 0 {
			return errors.NewArithmeticErrorf("division by zero")
		}
		if op == bytecode.DIV {
			result = a / b
		} else {
			result = a % b
		}
	case bytecode.LT:
		return s.push(bytecode.Bool(a < b))
	case bytecode.GT:
		return s.push(bytecode.Bool(a > b))
	}
	return s.push(bytecode.U64(result))
}

func opBinaryBool(s *stack, op bytecode.OpCode) error {
	b, err := s.popBool()
	if err != nil {
		return err
	}
	a, err := s.popBool()
	if err != nil {
		return err
	}
	if op == bytecode.AND {
		return s.push(bytecode.Bool(a && b))
	}
	return s.push(bytecode.Bool(a || b))
}

func opEq(s *stack) error {
	b, err := s.popAny()
	if err != nil {
		return err
	}
	a, err := s.pop(b.Type)
	if err != nil {
		return err
	}
	return s.push(bytecode.Bool(a.Equal(b)))
}

func opCall(
	ctx *environment.ExecutionContext,
	sc scope,
	s *stack,
	index uint64,
) error {
	if err := ctx.MeterGas(meter.KindFunctionCall, 1); err != nil {
		return err
	}
	if index >= uint64(len(sc.calls)) {
		return errors.NewInvariantViolationf("%s: call %d out of range", sc.owner, index)
	}

	calleeScope, callee, err := sc.resolve(sc.calls[index])
	if err != nil {
		return err
	}

	args, err := s.popN(callee.Params)
	if err != nil {
		return err
	}

	if err := ctx.EnterCall(); err != nil {
		return err
	}
	results, err := invoke(ctx, calleeScope, callee, args)
	ctx.ExitCall()
	if err != nil {
		return err
	}

	for _, v := range results {
		if err := s.push(v); err != nil {
			return err
		}
	}
	return nil
}

// execEnvironmentOp executes the instructions that touch the execution
// context.
func execEnvironmentOp(
	ctx *environment.ExecutionContext,
	s *stack,
	op bytecode.OpCode,
) error {
	switch op {
	case bytecode.SENDER:
		return s.push(bytecode.Address(ctx.Sender()))

	case bytecode.EXISTS:
		key, err := s.popBytes()
		if err != nil {
			return err
		}
		exists, err := ctx.Exists(key)
		if err != nil {
			return err
		}
		return s.push(bytecode.Bool(exists))

	case bytecode.READ:
		key, err := s.popBytes()
		if err != nil {
			return err
		}
		value, err := ctx.Read(ctx.Sender(), key)
		if err != nil {
			return err
		}
		return s.push(bytecode.Bytes(value))

	case bytecode.READ_AT:
		key, err := s.popBytes()
		if err != nil {
			return err
		}
		address, err := s.pop(bytecode.TypeAddress)
		if err != nil {
			return err
		}
		value, err := ctx.Read(address.Address, key)
		if err != nil {
			return err
		}
		return s.push(bytecode.Bytes(value))

	case bytecode.WRITE, bytecode.EMIT:
		value, err := s.popBytes()
		if err != nil {
			return err
		}
		key, err := s.popBytes()
		if err != nil {
			return err
		}
		if op == bytecode.WRITE {
			return ctx.Write(key, value)
		}
		return ctx.EmitEvent(key, value)

	case bytecode.DELETE:
		key, err := s.popBytes()
		if err != nil {
			return err
		}
		return ctx.Delete(key)

	case bytecode.BALANCE:
		address, err := s.pop(bytecode.TypeAddress)
		if err != nil {
			return err
		}
		balance, err := ctx.Balance(address.Address)
		if err != nil {
			return err
		}
		return s.push(bytecode.U64(balance))

	case bytecode.TRANSFER:
		amount, err := s.popU64()
		if err != nil {
			return err
		}
		recipient, err := s.pop(bytecode.TypeAddress)
		if err != nil {
			return err
		}
		return ctx.Transfer(recipient.Address, amount)

	case bytecode.CONCAT:
		b, err := s.popBytes()
		if err != nil {
			return err
		}
		a, err := s.popBytes()
		if err != nil {
			return err
		}
		// the result is charged an instruction per byte
		if err := ctx.MeterGas(meter.KindInstruction, uint(len(a)+len(b))); err != nil {
			return err
		}
		result := make([]byte, 0, len(a)+len(b))
		result = append(result, a...)
		result = append(result, b...)
		return s.push(bytecode.Bytes(result))

	case bytecode.TO_BYTES:
		v, err := s.popAny()
		if err != nil {
			return err
		}
		return s.push(bytecode.Bytes(v.ToBytes()))
	}

	return errors.NewInvariantViolationf("unknown opcode %v", op)
}

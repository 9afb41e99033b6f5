package bytecode

import (
	"fmt"
)

// verifyFunction runs a type-level abstract interpretation of the function
// body. Every reachable instruction must see the same stack types along all
// incoming paths, and every RETURN must leave exactly the declared returns.
func verifyFunction(f *Function, calls []CallTarget, constants []Value) error {
	if errs := verifyTypes("signature", f.Params, f.Returns, f.Locals); len(errs) > 0 {
		return errs[0]
	}

	locals := f.LocalTypes()
	if len(locals) > MaxLocals {
		return fmt.Errorf("too many locals: %d > %d", len(locals), MaxLocals)
	}

	code := f.Code
	if len(code) == 0 {
		return fmt.Errorf("empty function body")
	}
	if !code[len(code)-1].Op.IsTerminal() {
		return fmt.Errorf("control flow falls off the end of the function")
	}

	a := &analysis{
		function:  f,
		calls:     calls,
		constants: constants,
		locals:    locals,
	}

	states := make([][]Type, len(code))
	visited := make([]bool, len(code))
	visited[0] = true
	states[0] = []Type{}
	worklist := []int{0}

	for len(worklist) > 0 {
		pc := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		instr := code[pc]
		out, err := a.step(instr, states[pc], len(code))
		if err != nil {
			return fmt.Errorf("pc %d (%v): %w", pc, instr, err)
		}
		if len(out) > MaxStackHeight {
			return fmt.Errorf("pc %d (%v): stack height exceeds %d", pc, instr, MaxStackHeight)
		}

		var successors []int
		if !instr.Op.IsTerminal() {
			successors = append(successors, pc+1)
		}
		if instr.Op.IsBranch() {
			successors = append(successors, int(instr.Arg))
		}

		for _, next := range successors {
			if !visited[next] {
				visited[next] = true
				states[next] = out
				worklist = append(worklist, next)
				continue
			}
			if !sameTypes(states[next], out) {
				return fmt.Errorf("pc %d: inconsistent stack types %v and %v", next, states[next], out)
			}
		}
	}
	return nil
}

type analysis struct {
	function  *Function
	calls     []CallTarget
	constants []Value
	locals    []Type
}

type typeStack []Type

func (s *typeStack) pop(expected Type) error {
	if len(*s) == 0 {
		return fmt.Errorf("stack underflow")
	}
	top := (*s)[len(*s)-1]
	if expected != 0 && top != expected {
		return fmt.Errorf("expected %v on the stack, found %v", expected, top)
	}
	*s = (*s)[:len(*s)-1]
	return nil
}

func (s *typeStack) popAny() (Type, error) {
	if len(*s) == 0 {
		return 0, fmt.Errorf("stack underflow")
	}
	top := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return top, nil
}

func (s *typeStack) push(types ...Type) {
	*s = append(*s, types...)
}

// step returns the stack types after executing instr. The input slice is
// never modified.
func (a *analysis) step(instr Instruction, in []Type, codeLen int) ([]Type, error) {
	if !instr.Op.IsValid() {
		return nil, fmt.Errorf("invalid opcode")
	}
	if !instr.Op.HasArgument() && instr.Arg != 0 {
		return nil, fmt.Errorf("unexpected argument")
	}

	s := make(typeStack, len(in), len(in)+2)
	copy(s, in)

	popAll := func(types ...Type) error {
		for i := len(types) - 1; i >= 0; i-- {
			if err := s.pop(types[i]); err != nil {
				return err
			}
		}
		return nil
	}

	switch instr.Op {
	case NOP:
	case PUSH_CONST:
		if instr.Arg >= uint64(len(a.constants)) {
			return nil, fmt.Errorf("constant index %d out of range", instr.Arg)
		}
		s.push(a.constants[instr.Arg].Type)
	case PUSH_U64:
		s.push(TypeU64)
	case PUSH_BOOL:
		if instr.Arg > 1 {
			return nil, fmt.Errorf("bool immediate must be 0 or 1")
		}
		s.push(TypeBool)
	case POP:
		if _, err := s.popAny(); err != nil {
			return nil, err
		}
	case LOAD_LOCAL:
		if instr.Arg >= uint64(len(a.locals)) {
			return nil, fmt.Errorf("local index %d out of range", instr.Arg)
		}
		s.push(a.locals[instr.Arg])
	case STORE_LOCAL:
		if instr.Arg >= uint64(len(a.locals)) {
			return nil, fmt.Errorf("local index %d out of range", instr.Arg)
		}
		if err := s.pop(a.locals[instr.Arg]); err != nil {
			return nil, err
		}
	case ADD, SUB, MUL, DIV, MOD:
		if err := popAll(TypeU64, TypeU64); err != nil {
			return nil, err
		}
		s.push(TypeU64)
	case LT, GT:
		if err := popAll(TypeU64, TypeU64); err != nil {
			return nil, err
		}
		s.push(TypeBool)
	case EQ:
		t, err := s.popAny()
		if err != nil {
			return nil, err
		}
		if err := s.pop(t); err != nil {
			return nil, err
		}
		s.push(TypeBool)
	case NOT:
		if err := s.pop(TypeBool); err != nil {
			return nil, err
		}
		s.push(TypeBool)
	case AND, OR:
		if err := popAll(TypeBool, TypeBool); err != nil {
			return nil, err
		}
		s.push(TypeBool)
	case BRANCH:
		if instr.Arg >= uint64(codeLen) {
			return nil, fmt.Errorf("branch target %d out of range", instr.Arg)
		}
	case BRANCH_TRUE, BRANCH_FALSE:
		if instr.Arg >= uint64(codeLen) {
			return nil, fmt.Errorf("branch target %d out of range", instr.Arg)
		}
		if err := s.pop(TypeBool); err != nil {
			return nil, err
		}
	case CALL:
		if instr.Arg >= uint64(len(a.calls)) {
			return nil, fmt.Errorf("call index %d out of range", instr.Arg)
		}
		call := a.calls[instr.Arg]
		if err := popAll(call.Params...); err != nil {
			return nil, err
		}
		s.push(call.Returns...)
	case RETURN:
		if !sameTypes(s, a.function.Returns) {
			return nil, fmt.Errorf("returned %v, expected %v", []Type(s), a.function.Returns)
		}
	case ABORT:
		if err := s.pop(TypeU64); err != nil {
			return nil, err
		}
	case SENDER:
		s.push(TypeAddress)
	case EXISTS:
		if err := s.pop(TypeBytes); err != nil {
			return nil, err
		}
		s.push(TypeBool)
	case READ:
		if err := s.pop(TypeBytes); err != nil {
			return nil, err
		}
		s.push(TypeBytes)
	case READ_AT:
		if err := popAll(TypeAddress, TypeBytes); err != nil {
			return nil, err
		}
		s.push(TypeBytes)
	case WRITE, EMIT, CONCAT:
		if err := popAll(TypeBytes, TypeBytes); err != nil {
			return nil, err
		}
		if instr.Op == CONCAT {
			s.push(TypeBytes)
		}
	case DELETE:
		if err := s.pop(TypeBytes); err != nil {
			return nil, err
		}
	case BALANCE:
		if err := s.pop(TypeAddress); err != nil {
			return nil, err
		}
		s.push(TypeU64)
	case TRANSFER:
		if err := popAll(TypeAddress, TypeU64); err != nil {
			return nil, err
		}
	case TO_BYTES:
		if _, err := s.popAny(); err != nil {
			return nil, err
		}
		s.push(TypeBytes)
	default:
		return nil, fmt.Errorf("unhandled opcode")
	}

	return s, nil
}

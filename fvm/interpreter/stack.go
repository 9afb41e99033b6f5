package interpreter

import (
	"github.com/onflow/vm-runtime/fvm/bytecode"
	"github.com/onflow/vm-runtime/fvm/errors"
)

// stack is the operand stack of a single frame. Verified code never
// underflows it or pops a value of the wrong type, so both are reported as
// invariant violations.
type stack struct {
	data []bytecode.Value
}

func newStack() *stack {
	return &stack{data: make([]bytecode.Value, 0, 16)}
}

func (s *stack) len() int {
	return len(s.data)
}

func (s *stack) push(v bytecode.Value) error {
	if len(s.data) >= bytecode.MaxStackHeight {
		return errors.NewInvariantViolationf("operand stack overflow")
	}
	s.data = append(s.data, v)
	return nil
}

func (s *stack) popAny() (bytecode.Value, error) {
	if len(s.data) == 0 {
		return bytecode.Value{}, errors.NewInvariantViolationf("operand stack underflow")
	}
	v := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return v, nil
}

func (s *stack) pop(t bytecode.Type) (bytecode.Value, error) {
	v, err := s.popAny()
	if err != nil {
		return bytecode.Value{}, err
	}
	if v.Type != t {
		return bytecode.Value{}, errors.NewInvariantViolationf(
			"expected %v on the operand stack, found %v",
			t,
			v.Type)
	}
	return v, nil
}

func (s *stack) popU64() (uint64, error) {
	v, err := s.pop(bytecode.TypeU64)
	return v.U64, err
}

func (s *stack) popBool() (bool, error) {
	v, err := s.pop(bytecode.TypeBool)
	return v.Bool, err
}

func (s *stack) popBytes() ([]byte, error) {
	v, err := s.pop(bytecode.TypeBytes)
	return v.Bytes, err
}

// popN pops values of the given types, pushed in order, and returns them in
// push order.
func (s *stack) popN(types []bytecode.Type) ([]bytecode.Value, error) {
	values := make([]bytecode.Value, len(types))
	for i := len(types) - 1; i >= 0; i-- {
		v, err := s.pop(types[i])
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

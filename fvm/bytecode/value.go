package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/onflow/vm-runtime/model/vm"
)

// Type is the type of a value on the operand stack.
type Type uint8

const (
	TypeU64 Type = iota + 1
	TypeBool
	TypeAddress
	TypeBytes
)

func (t Type) String() string {
	switch t {
	case TypeU64:
		return "u64"
	case TypeBool:
		return "bool"
	case TypeAddress:
		return "address"
	case TypeBytes:
		return "bytes"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// IsValid returns true for defined types.
func (t Type) IsValid() bool {
	return t >= TypeU64 && t <= TypeBytes
}

// Value is a typed runtime value.
type Value struct {
	Type    Type
	U64     uint64     `cbor:",omitempty"`
	Bool    bool       `cbor:",omitempty"`
	Address vm.Address `cbor:",omitempty"`
	Bytes   []byte     `cbor:",omitempty"`
}

func U64(v uint64) Value {
	return Value{Type: TypeU64, U64: v}
}

func Bool(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

func Address(v vm.Address) Value {
	return Value{Type: TypeAddress, Address: v}
}

func Bytes(v []byte) Value {
	return Value{Type: TypeBytes, Bytes: v}
}

// ZeroValue returns the initial value of a local of type t.
func ZeroValue(t Type) Value {
	return Value{Type: t}
}

// Equal compares two values of the same type.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeU64:
		return v.U64 == other.U64
	case TypeBool:
		return v.Bool == other.Bool
	case TypeAddress:
		return v.Address == other.Address
	case TypeBytes:
		return bytes.Equal(v.Bytes, other.Bytes)
	}
	return false
}

// ToBytes returns the byte encoding used by the TO_BYTES instruction.
func (v Value) ToBytes() []byte {
	switch v.Type {
	case TypeU64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, v.U64)
		return b
	case TypeBool:
		if v.Bool {
			return []byte{1}
		}
		return []byte{0}
	case TypeAddress:
		return v.Address.Bytes()
	case TypeBytes:
		return v.Bytes
	}
	return nil
}

func (v Value) String() string {
	switch v.Type {
	case TypeU64:
		return fmt.Sprintf("%d", v.U64)
	case TypeBool:
		return fmt.Sprintf("%t", v.Bool)
	case TypeAddress:
		return "0x" + v.Address.Short()
	case TypeBytes:
		return fmt.Sprintf("%x", v.Bytes)
	}
	return "invalid"
}

// ArgumentValue converts a transaction argument into a runtime value.
func ArgumentValue(arg vm.TransactionArgument) (Value, error) {
	switch arg.Type {
	case vm.ArgumentTypeU64:
		return U64(arg.U64), nil
	case vm.ArgumentTypeBool:
		return Bool(arg.Bool), nil
	case vm.ArgumentTypeAddress:
		return Address(arg.Address), nil
	case vm.ArgumentTypeBytes:
		return Bytes(arg.Bytes), nil
	}
	return Value{}, fmt.Errorf("unknown argument type %v", arg.Type)
}

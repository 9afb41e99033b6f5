package bytecode

import "fmt"

// OpCode is an instruction of the reference stack machine.
type OpCode uint8

const (
	NOP OpCode = iota
	PUSH_CONST
	PUSH_U64
	PUSH_BOOL
	POP
	LOAD_LOCAL
	STORE_LOCAL

	ADD
	SUB
	MUL
	DIV
	MOD
	LT
	GT
	EQ
	NOT
	AND
	OR

	BRANCH
	BRANCH_TRUE
	BRANCH_FALSE
	CALL
	RETURN
	ABORT

	SENDER
	EXISTS
	READ
	READ_AT
	WRITE
	DELETE
	EMIT
	BALANCE
	TRANSFER
	CONCAT
	TO_BYTES

	// NUM_OPCODES is the number of valid opcodes. It must remain last.
	NUM_OPCODES
)

var opCodeNames = [NUM_OPCODES]string{
	NOP:          "NOP",
	PUSH_CONST:   "PUSH_CONST",
	PUSH_U64:     "PUSH_U64",
	PUSH_BOOL:    "PUSH_BOOL",
	POP:          "POP",
	LOAD_LOCAL:   "LOAD_LOCAL",
	STORE_LOCAL:  "STORE_LOCAL",
	ADD:          "ADD",
	SUB:          "SUB",
	MUL:          "MUL",
	DIV:          "DIV",
	MOD:          "MOD",
	LT:           "LT",
	GT:           "GT",
	EQ:           "EQ",
	NOT:          "NOT",
	AND:          "AND",
	OR:           "OR",
	BRANCH:       "BRANCH",
	BRANCH_TRUE:  "BRANCH_TRUE",
	BRANCH_FALSE: "BRANCH_FALSE",
	CALL:         "CALL",
	RETURN:       "RETURN",
	ABORT:        "ABORT",
	SENDER:       "SENDER",
	EXISTS:       "EXISTS",
	READ:         "READ",
	READ_AT:      "READ_AT",
	WRITE:        "WRITE",
	DELETE:       "DELETE",
	EMIT:         "EMIT",
	BALANCE:      "BALANCE",
	TRANSFER:     "TRANSFER",
	CONCAT:       "CONCAT",
	TO_BYTES:     "TO_BYTES",
}

func (op OpCode) String() string {
	if op < NUM_OPCODES {
		return opCodeNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// IsValid returns true for defined opcodes.
func (op OpCode) IsValid() bool {
	return op < NUM_OPCODES
}

// HasArgument returns true if the opcode reads its argument.
func (op OpCode) HasArgument() bool {
	switch op {
	case PUSH_CONST, PUSH_U64, PUSH_BOOL, LOAD_LOCAL, STORE_LOCAL,
		BRANCH, BRANCH_TRUE, BRANCH_FALSE, CALL:
		return true
	}
	return false
}

// IsTerminal returns true if control never falls through to the next
// instruction.
func (op OpCode) IsTerminal() bool {
	return op == BRANCH || op == RETURN || op == ABORT
}

// IsBranch returns true if the argument is a jump target.
func (op OpCode) IsBranch() bool {
	return op == BRANCH || op == BRANCH_TRUE || op == BRANCH_FALSE
}

// IsArithmetic returns true for instructions metered as arithmetic.
func (op OpCode) IsArithmetic() bool {
	return op >= ADD && op <= MOD
}

// Instruction is a single opcode with its argument.
type Instruction struct {
	Op  OpCode
	Arg uint64 `cbor:",omitempty"`
}

// Code is the body of a function.
type Code []Instruction

func (i Instruction) String() string {
	if i.Op.HasArgument() {
		return fmt.Sprintf("%v %d", i.Op, i.Arg)
	}
	return i.Op.String()
}

// Op builds an instruction without argument.
func Op(op OpCode) Instruction {
	return Instruction{Op: op}
}

// OpArg builds an instruction with an argument.
func OpArg(op OpCode, arg uint64) Instruction {
	return Instruction{Op: op, Arg: arg}
}

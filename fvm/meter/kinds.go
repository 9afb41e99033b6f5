package meter

import "fmt"

// CostKind names a class of metered work.
type CostKind uint16

const (
	KindInstruction CostKind = iota + 1
	KindArithmetic
	KindFunctionCall
	KindStateRead
	KindStateReadByte
	KindStateWrite
	KindStateWriteByte
	KindModuleLoadByte
	KindEvent
	KindEventByte
	KindIntrinsicBase
	KindIntrinsicByte
)

var kindNames = map[CostKind]string{
	KindInstruction:    "instruction",
	KindArithmetic:     "arithmetic",
	KindFunctionCall:   "function_call",
	KindStateRead:      "state_read",
	KindStateReadByte:  "state_read_byte",
	KindStateWrite:     "state_write",
	KindStateWriteByte: "state_write_byte",
	KindModuleLoadByte: "module_load_byte",
	KindEvent:          "event",
	KindEventByte:      "event_byte",
	KindIntrinsicBase:  "intrinsic_base",
	KindIntrinsicByte:  "intrinsic_byte",
}

func (k CostKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint16(k))
}

// ExecutionWeights maps each cost kind to its price in gas units.
type ExecutionWeights map[CostKind]uint64

// CostTable is the configurable gas schedule. It is immutable for the
// duration of a block.
type CostTable struct {
	Instruction    uint64 `mapstructure:"instruction"`
	Arithmetic     uint64 `mapstructure:"arithmetic"`
	FunctionCall   uint64 `mapstructure:"function_call"`
	StateRead      uint64 `mapstructure:"state_read"`
	StateReadByte  uint64 `mapstructure:"state_read_byte"`
	StateWrite     uint64 `mapstructure:"state_write"`
	StateWriteByte uint64 `mapstructure:"state_write_byte"`
	ModuleLoadByte uint64 `mapstructure:"module_load_byte"`
	Event          uint64 `mapstructure:"event"`
	EventByte      uint64 `mapstructure:"event_byte"`
	IntrinsicBase  uint64 `mapstructure:"intrinsic_base" validate:"gt=0"`
	IntrinsicByte  uint64 `mapstructure:"intrinsic_byte"`
}

// DefaultCostTable returns the gas schedule used when none is configured.
func DefaultCostTable() CostTable {
	return CostTable{
		Instruction:    1,
		Arithmetic:     2,
		FunctionCall:   10,
		StateRead:      50,
		StateReadByte:  1,
		StateWrite:     100,
		StateWriteByte: 2,
		ModuleLoadByte: 1,
		Event:          20,
		EventByte:      1,
		IntrinsicBase:  600,
		IntrinsicByte:  8,
	}
}

// Weights returns the table as per-kind weights.
func (c CostTable) Weights() ExecutionWeights {
	return ExecutionWeights{
		KindInstruction:    c.Instruction,
		KindArithmetic:     c.Arithmetic,
		KindFunctionCall:   c.FunctionCall,
		KindStateRead:      c.StateRead,
		KindStateReadByte:  c.StateReadByte,
		KindStateWrite:     c.StateWrite,
		KindStateWriteByte: c.StateWriteByte,
		KindModuleLoadByte: c.ModuleLoadByte,
		KindEvent:          c.Event,
		KindEventByte:      c.EventByte,
		KindIntrinsicBase:  c.IntrinsicBase,
		KindIntrinsicByte:  c.IntrinsicByte,
	}
}

// IntrinsicGas returns the gas charged for a transaction of txSize bytes
// before any code runs. The second result is false on overflow.
func (c CostTable) IntrinsicGas(txSize uint64) (uint64, bool) {
	perByte, ok := mul(c.IntrinsicByte, txSize)
	if !ok {
		return 0, false
	}
	return add(c.IntrinsicBase, perByte)
}

func mul(a, b uint64) (uint64, bool) {
	if a != 0 && b > ^uint64(0)/a {
		return 0, false
	}
	return a * b, true
}

func add(a, b uint64) (uint64, bool) {
	if a > ^uint64(0)-b {
		return 0, false
	}
	return a + b, true
}

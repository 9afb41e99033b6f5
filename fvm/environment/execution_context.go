package environment

import (
	"github.com/rs/zerolog"

	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/meter"
	"github.com/onflow/vm-runtime/fvm/programs"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
)

const (
	DefaultMaxCallDepth = 256
	DefaultMaxEventSize = 256_000
)

// Abort codes raised by the runtime on behalf of bytecode.
const (
	AbortCodeInsufficientBalance   uint64 = 0x1_0001
	AbortCodeRecipientDoesNotExist uint64 = 0x1_0002
	AbortCodeDataKeyEmpty          uint64 = 0x1_0003
)

type ExecutionParams struct {
	MaxCallDepth uint
	MaxEventSize uint64
}

func DefaultExecutionParams() ExecutionParams {
	return ExecutionParams{
		MaxCallDepth: DefaultMaxCallDepth,
		MaxEventSize: DefaultMaxEventSize,
	}
}

// ExecutionContext is the state of one running transaction: its gas meter,
// its pending writes, its call depth and the events it emitted. Everything
// but the writes and the events is dropped when the transaction ends.
type ExecutionContext struct {
	Meter

	log      zerolog.Logger
	params   ExecutionParams
	data     *storage.DataCache
	accounts *StatefulAccounts
	programs *programs.TransactionPrograms

	txID   vm.Identifier
	sender vm.Address

	depth  uint
	events []vm.Event
}

func NewExecutionContext(
	log zerolog.Logger,
	params ExecutionParams,
	m *meter.Meter,
	data *storage.DataCache,
	txnPrograms *programs.TransactionPrograms,
	txID vm.Identifier,
	sender vm.Address,
) *ExecutionContext {
	return &ExecutionContext{
		Meter:    NewMeter(m),
		log:      log,
		params:   params,
		data:     data,
		accounts: NewAccounts(data),
		programs: txnPrograms,
		txID:     txID,
		sender:   sender,
	}
}

func (c *ExecutionContext) Logger() zerolog.Logger {
	return c.log
}

func (c *ExecutionContext) Sender() vm.Address {
	return c.sender
}

func (c *ExecutionContext) TransactionID() vm.Identifier {
	return c.txID
}

func (c *ExecutionContext) Programs() *programs.TransactionPrograms {
	return c.programs
}

// Accounts gives unmetered access to account resources.
func (c *ExecutionContext) Accounts() Accounts {
	return c.accounts
}

// EnterCall pushes a frame on the call stack.
func (c *ExecutionContext) EnterCall() error {
	if c.depth >= c.params.MaxCallDepth {
		return errors.NewCallStackOverflowError(c.params.MaxCallDepth)
	}
	c.depth++
	return nil
}

// ExitCall pops a frame from the call stack.
func (c *ExecutionContext) ExitCall() {
	if c.depth > 0 {
		c.depth--
	}
}

func (c *ExecutionContext) CallDepth() uint {
	return c.depth
}

func (c *ExecutionContext) read(path vm.AccessPath) ([]byte, bool, error) {
	if err := c.MeterGas(meter.KindStateRead, 1); err != nil {
		return nil, false, err
	}
	value, ok, err := c.data.Get(path)
	if err != nil {
		return nil, false, err
	}
	if err := c.MeterGas(meter.KindStateReadByte, uint(len(value))); err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

// Exists returns true if the sender holds a value under key.
func (c *ExecutionContext) Exists(key []byte) (bool, error) {
	_, ok, err := c.read(vm.DataPath(c.sender, key))
	return ok, err
}

// Read returns the value stored by address under key. An absent value reads
// as empty.
func (c *ExecutionContext) Read(address vm.Address, key []byte) ([]byte, error) {
	value, _, err := c.read(vm.DataPath(address, key))
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Write stores value under key in the state of the sender.
func (c *ExecutionContext) Write(key []byte, value []byte) error {
	if len(key) == 0 {
		return errors.NewAbortedError(AbortCodeDataKeyEmpty)
	}
	path := vm.DataPath(c.sender, key)
	if err := c.MeterGas(meter.KindStateWrite, 1); err != nil {
		return err
	}
	if err := c.MeterGas(meter.KindStateWriteByte, uint(path.Size())+uint(len(value))); err != nil {
		return err
	}
	return c.data.Set(path, value)
}

// Delete removes the value stored under key in the state of the sender.
func (c *ExecutionContext) Delete(key []byte) error {
	if len(key) == 0 {
		return errors.NewAbortedError(AbortCodeDataKeyEmpty)
	}
	path := vm.DataPath(c.sender, key)
	if err := c.MeterGas(meter.KindStateWrite, 1); err != nil {
		return err
	}
	if err := c.MeterGas(meter.KindStateWriteByte, uint(path.Size())); err != nil {
		return err
	}
	return c.data.Delete(path)
}

// PublishModule stores the code of a module published by the transaction.
func (c *ExecutionContext) PublishModule(id vm.ModuleID, code []byte) error {
	if id.Address != c.sender {
		return errors.NewInvariantViolationf(
			"module %s published by %s",
			id,
			c.sender)
	}
	path := vm.ModuleCodePath(id)
	if err := c.MeterGas(meter.KindStateWrite, 1); err != nil {
		return err
	}
	if err := c.MeterGas(meter.KindStateWriteByte, uint(path.Size())+uint(len(code))); err != nil {
		return err
	}
	return c.data.Set(path, code)
}

// Balance returns the balance of address, zero if it has no account.
func (c *ExecutionContext) Balance(address vm.Address) (uint64, error) {
	if err := c.MeterGas(meter.KindStateRead, 1); err != nil {
		return 0, err
	}
	account, _, err := c.accounts.Get(address)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Transfer moves amount from the sender to recipient.
func (c *ExecutionContext) Transfer(recipient vm.Address, amount uint64) error {
	if err := c.MeterGas(meter.KindStateRead, 2); err != nil {
		return err
	}
	if err := c.MeterGas(meter.KindStateWrite, 2); err != nil {
		return err
	}

	from, ok, err := c.accounts.Get(c.sender)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewInvariantViolationf("sender account %s does not exist", c.sender)
	}
	to, ok, err := c.accounts.Get(recipient)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewAbortedError(AbortCodeRecipientDoesNotExist)
	}
	if from.Balance < amount {
		return errors.NewAbortedError(AbortCodeInsufficientBalance)
	}
	if recipient == c.sender {
		return nil
	}
	if to.Balance+amount < to.Balance {
		return errors.NewArithmeticErrorf("balance of %s overflows", recipient)
	}

	from.Balance -= amount
	to.Balance += amount
	if err := c.accounts.Set(c.sender, from); err != nil {
		return err
	}
	return c.accounts.Set(recipient, to)
}

// EmitEvent records an event emitted by the sender.
func (c *ExecutionContext) EmitEvent(key []byte, payload []byte) error {
	size := uint64(len(key)) + uint64(len(payload))
	if size > c.params.MaxEventSize {
		return errors.NewEventSizeLimitError(size, c.params.MaxEventSize)
	}
	if err := c.MeterGas(meter.KindEvent, 1); err != nil {
		return err
	}
	if err := c.MeterGas(meter.KindEventByte, uint(size)); err != nil {
		return err
	}

	c.events = append(c.events, vm.Event{
		TransactionID: c.txID,
		EventIndex:    uint32(len(c.events)),
		Emitter:       c.sender,
		Key:           key,
		Payload:       payload,
	})
	return nil
}

func (c *ExecutionContext) Events() []vm.Event {
	return c.events
}

// IntoWriteSet drains the pending writes. The context can not access state
// afterwards.
func (c *ExecutionContext) IntoWriteSet() (vm.WriteSet, error) {
	return c.data.IntoWriteSet()
}

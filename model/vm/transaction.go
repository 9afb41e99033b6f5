package vm

import (
	"fmt"
)

// Transaction is the closed set of transaction kinds accepted by the virtual
// machine: *UserTransaction and *SystemTransaction.
type Transaction interface {
	isTransaction()
}

// UserTransaction wraps a transaction signed and submitted by an account.
type UserTransaction struct {
	SignedTransaction
}

// NewUserTransaction wraps a signed transaction.
func NewUserTransaction(tx SignedTransaction) *UserTransaction {
	return &UserTransaction{SignedTransaction: tx}
}

func (*UserTransaction) isTransaction() {}

// SystemTransaction carries a payload produced by the node itself. It is never
// signed and is only accepted as part of a block.
type SystemTransaction struct {
	Payload SystemPayload
}

// NewSystemTransaction wraps a system payload.
func NewSystemTransaction(payload SystemPayload) *SystemTransaction {
	return &SystemTransaction{Payload: payload}
}

func (*SystemTransaction) isTransaction() {}

// SystemPayload is the closed set of system transaction payloads:
// *BlockMetadata and *WriteSetPayload.
type SystemPayload interface {
	isSystemPayload()
}

// BlockMetadata records the block that is being executed.
type BlockMetadata struct {
	Height    uint64
	Timestamp uint64
	Proposer  Address
}

func (*BlockMetadata) isSystemPayload() {}

// WriteSetPayload applies a write set directly, e.g. at genesis.
type WriteSetPayload struct {
	WriteSet WriteSet
}

func (*WriteSetPayload) isSystemPayload() {}

// ArgumentType is the type of a transaction argument.
type ArgumentType uint8

const (
	ArgumentTypeU64 ArgumentType = iota + 1
	ArgumentTypeBool
	ArgumentTypeAddress
	ArgumentTypeBytes
)

func (t ArgumentType) String() string {
	switch t {
	case ArgumentTypeU64:
		return "u64"
	case ArgumentTypeBool:
		return "bool"
	case ArgumentTypeAddress:
		return "address"
	case ArgumentTypeBytes:
		return "bytes"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// TransactionArgument is an argument passed to the main function of a script.
type TransactionArgument struct {
	Type    ArgumentType
	U64     uint64  `cbor:",omitempty"`
	Bool    bool    `cbor:",omitempty"`
	Address Address `cbor:",omitempty"`
	Bytes   []byte  `cbor:",omitempty"`
}

func U64Argument(v uint64) TransactionArgument {
	return TransactionArgument{Type: ArgumentTypeU64, U64: v}
}

func BoolArgument(v bool) TransactionArgument {
	return TransactionArgument{Type: ArgumentTypeBool, Bool: v}
}

func AddressArgument(v Address) TransactionArgument {
	return TransactionArgument{Type: ArgumentTypeAddress, Address: v}
}

func BytesArgument(v []byte) TransactionArgument {
	return TransactionArgument{Type: ArgumentTypeBytes, Bytes: v}
}

// Script is a payload that runs the main function of serialized script
// bytecode.
type Script struct {
	Code      []byte
	Arguments []TransactionArgument
}

// Module is a payload that publishes serialized module bytecode under the
// sender's address.
type Module struct {
	Code []byte
}

// Payload holds exactly one of Script or Module.
type Payload struct {
	Script *Script `cbor:",omitempty"`
	Module *Module `cbor:",omitempty"`
}

// ScriptPayload builds a script payload.
func ScriptPayload(code []byte, args ...TransactionArgument) Payload {
	return Payload{Script: &Script{Code: code, Arguments: args}}
}

// ModulePayload builds a module publishing payload.
func ModulePayload(code []byte) Payload {
	return Payload{Module: &Module{Code: code}}
}

// RawTransaction is the portion of a user transaction covered by its
// signature.
type RawTransaction struct {
	Sender         Address
	SequenceNumber uint64
	Payload        Payload
	MaxGasAmount   uint64
	GasUnitPrice   uint64
	ExpirationTime uint64
}

// SignedTransaction is a raw transaction together with the public key and
// signature of its sender.
type SignedTransaction struct {
	RawTransaction
	PublicKey []byte
	Signature []byte
}

// MaxFee is the highest fee the transaction may be charged. The product is
// checked for overflow during admission.
func (tx *RawTransaction) MaxFee() (uint64, bool) {
	if tx.GasUnitPrice != 0 && tx.MaxGasAmount > ^uint64(0)/tx.GasUnitPrice {
		return 0, false
	}
	return tx.MaxGasAmount * tx.GasUnitPrice, true
}

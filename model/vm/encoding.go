package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/sha3"
)

// transactionSigningSalt is prepended to the canonical encoding of a raw
// transaction before hashing, so that signatures can not be replayed on other
// encoded entities.
const transactionSigningSalt = "VM::RawTransaction"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("could not create canonical cbor encoder: %w", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(fmt.Errorf("could not create cbor decoder: %w", err))
	}
}

// Encode returns the canonical CBOR encoding of v.
func Encode(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Decode decodes canonical CBOR data into v.
func Decode(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}

// SigningMessage returns the hash that the sender signs.
func (tx *RawTransaction) SigningMessage() ([]byte, error) {
	encoded, err := Encode(tx)
	if err != nil {
		return nil, fmt.Errorf("could not encode raw transaction: %w", err)
	}
	hasher := sha3.New256()
	_, _ = hasher.Write([]byte(transactionSigningSalt))
	_, _ = hasher.Write(encoded)
	return hasher.Sum(nil), nil
}

// Encode returns the canonical encoding of the signed transaction.
func (tx *SignedTransaction) Encode() ([]byte, error) {
	return Encode(tx)
}

// ID returns the sha3-256 hash of the canonical encoding of the transaction.
func (tx *SignedTransaction) ID() (Identifier, error) {
	encoded, err := tx.Encode()
	if err != nil {
		return ZeroID, err
	}
	return MakeID(encoded), nil
}

// MakeID returns the sha3-256 hash of encoded.
func MakeID(encoded []byte) Identifier {
	return sha3.Sum256(encoded)
}

// Size returns the length in bytes of the canonical encoding.
func (tx *SignedTransaction) Size() (uint64, error) {
	encoded, err := tx.Encode()
	if err != nil {
		return 0, err
	}
	return uint64(len(encoded)), nil
}

// transactionEnvelope is the wire shape of a Transaction. Exactly one field is
// set.
type transactionEnvelope struct {
	User          *SignedTransaction `cbor:"1,keyasint,omitempty"`
	BlockMetadata *BlockMetadata     `cbor:"2,keyasint,omitempty"`
	WriteSet      *WriteSetPayload   `cbor:"3,keyasint,omitempty"`
}

// EncodeTransactions encodes an ordered batch of transactions.
func EncodeTransactions(txs []Transaction) ([]byte, error) {
	envelopes := make([]transactionEnvelope, len(txs))
	for i, tx := range txs {
		switch t := tx.(type) {
		case *UserTransaction:
			envelopes[i].User = &t.SignedTransaction
		case *SystemTransaction:
			switch p := t.Payload.(type) {
			case *BlockMetadata:
				envelopes[i].BlockMetadata = p
			case *WriteSetPayload:
				envelopes[i].WriteSet = p
			default:
				return nil, fmt.Errorf("transaction %d: unknown system payload %T", i, t.Payload)
			}
		default:
			return nil, fmt.Errorf("transaction %d: unknown transaction kind %T", i, tx)
		}
	}
	return Encode(envelopes)
}

// DecodeTransactions decodes a batch encoded with EncodeTransactions.
func DecodeTransactions(data []byte) ([]Transaction, error) {
	var envelopes []transactionEnvelope
	if err := Decode(data, &envelopes); err != nil {
		return nil, fmt.Errorf("could not decode transactions: %w", err)
	}
	txs := make([]Transaction, len(envelopes))
	for i, env := range envelopes {
		switch {
		case env.User != nil:
			txs[i] = NewUserTransaction(*env.User)
		case env.BlockMetadata != nil:
			txs[i] = NewSystemTransaction(env.BlockMetadata)
		case env.WriteSet != nil:
			txs[i] = NewSystemTransaction(env.WriteSet)
		default:
			return nil, fmt.Errorf("transaction %d: empty envelope", i)
		}
	}
	return txs, nil
}

package vm

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v4"
)

// AuthKeyLength is the size of an account authentication key.
const AuthKeyLength = 32

// Account is the resource stored under AccountResourcePath.
type Account struct {
	Balance        uint64
	SequenceNumber uint64
	AuthKey        [AuthKeyLength]byte
}

// EncodeAccount encodes an account resource.
func EncodeAccount(account Account) ([]byte, error) {
	b, err := msgpack.Marshal(account)
	if err != nil {
		return nil, fmt.Errorf("could not encode account: %w", err)
	}
	return b, nil
}

// DecodeAccount decodes an account resource.
func DecodeAccount(data []byte) (Account, error) {
	var account Account
	if err := msgpack.Unmarshal(data, &account); err != nil {
		return Account{}, fmt.Errorf("could not decode account: %w", err)
	}
	return account, nil
}

// EncodeBlockMetadata encodes the block metadata resource.
func EncodeBlockMetadata(md BlockMetadata) ([]byte, error) {
	b, err := msgpack.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("could not encode block metadata: %w", err)
	}
	return b, nil
}

// DecodeBlockMetadata decodes the block metadata resource.
func DecodeBlockMetadata(data []byte) (BlockMetadata, error) {
	var md BlockMetadata
	if err := msgpack.Unmarshal(data, &md); err != nil {
		return BlockMetadata{}, fmt.Errorf("could not decode block metadata: %w", err)
	}
	return md, nil
}

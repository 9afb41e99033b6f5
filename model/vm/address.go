package vm

import (
	"encoding/hex"
	"fmt"
)

// AddressLength is the size of an account address.
const AddressLength = 16

// Address represents the 16 byte address of an account.
type Address [AddressLength]byte

var (
	// EmptyAddress is the zero value of an address; it never holds an account.
	EmptyAddress = Address{}

	// SystemAddress owns system resources such as the block metadata.
	SystemAddress = BytesToAddress([]byte{0x01})
)

// HexToAddress converts a hex string to an Address.
func HexToAddress(h string) Address {
	b, _ := hex.DecodeString(h)
	return BytesToAddress(b)
}

// BytesToAddress returns Address with value b.
//
// If b is larger than 16, b will be cropped from the left.
// If b is smaller than 16, b will be padded by zeroes at the front.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the hex string representation of the address.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// String returns the string representation of the address.
func (a Address) String() string {
	return a.Hex()
}

// Short returns the string representation of the address with leading zeros
// removed.
func (a Address) Short() string {
	hexStr := a.Hex()
	for i := 0; i < len(hexStr)-1; i++ {
		if hexStr[i] != '0' {
			return hexStr[i:]
		}
	}
	return hexStr[len(hexStr)-1:]
}

// MarshalText implements encoding.TextMarshaler so addresses render as hex in
// JSON and log output.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("could not decode address %q: %w", text, err)
	}
	*a = BytesToAddress(b)
	return nil
}

// IdentifierLength is the size of a transaction identifier.
const IdentifierLength = 32

// Identifier is the sha3-256 hash of a canonically encoded entity.
type Identifier [IdentifierLength]byte

// ZeroID is the lowest value in the 32-byte ID space.
var ZeroID = Identifier{}

func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

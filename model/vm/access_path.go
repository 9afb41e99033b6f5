package vm

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// ResourcePathPrefix prefixes system owned resources such as accounts.
	ResourcePathPrefix = "resource/"
	// CodePathPrefix prefixes published module code.
	CodePathPrefix = "code/"
	// DataPathPrefix prefixes values written by user bytecode.
	DataPathPrefix = "data/"

	accountResourceName       = "account"
	blockMetadataResourceName = "block_metadata"
)

// AccessPath is the fully-qualified identifier of one storage location within
// an account's state.
type AccessPath struct {
	Address Address
	Path    string
}

// NewAccessPath returns the access path of key within the state of address.
func NewAccessPath(address Address, path string) AccessPath {
	return AccessPath{
		Address: address,
		Path:    path,
	}
}

// AccountResourcePath returns the path holding the account resource of address.
func AccountResourcePath(address Address) AccessPath {
	return NewAccessPath(address, ResourcePathPrefix+accountResourceName)
}

// BlockMetadataPath returns the path holding the latest block metadata.
func BlockMetadataPath() AccessPath {
	return NewAccessPath(SystemAddress, ResourcePathPrefix+blockMetadataResourceName)
}

// MaxResourcePathSize returns the key size of the largest system resource
// path. Key size limits below it make accounts unreadable.
func MaxResourcePathSize() uint64 {
	size := AccountResourcePath(Address{}).Size()
	if metadata := BlockMetadataPath().Size(); metadata > size {
		size = metadata
	}
	return size
}

// ModuleCodePath returns the path holding the published code of a module.
func ModuleCodePath(id ModuleID) AccessPath {
	return NewAccessPath(id.Address, CodePathPrefix+id.Name)
}

// DataPath returns the path of a user value stored under key.
func DataPath(address Address, key []byte) AccessPath {
	return NewAccessPath(address, DataPathPrefix+string(key))
}

// IsCode returns true if the path holds module code.
func (p AccessPath) IsCode() bool {
	return strings.HasPrefix(p.Path, CodePathPrefix)
}

// Size returns the key size accounted against storage limits.
func (p AccessPath) Size() uint64 {
	return uint64(AddressLength + len(p.Path))
}

// Compare orders access paths by address, then by path.
func (p AccessPath) Compare(other AccessPath) int {
	if c := bytes.Compare(p.Address[:], other.Address[:]); c != 0 {
		return c
	}
	return strings.Compare(p.Path, other.Path)
}

func (p AccessPath) String() string {
	return fmt.Sprintf("%s/%s", p.Address.Hex(), p.Path)
}

package vm

import (
	"fmt"
)

// ModuleID identifies a published module by the address that owns it and its
// name.
type ModuleID struct {
	Address Address
	Name    string
}

// NewModuleID returns the ID of module name published under address.
func NewModuleID(address Address, name string) ModuleID {
	return ModuleID{
		Address: address,
		Name:    name,
	}
}

func (id ModuleID) String() string {
	return fmt.Sprintf("0x%s::%s", id.Address.Short(), id.Name)
}

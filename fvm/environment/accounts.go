package environment

import (
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
)

// Accounts reads and writes account resources.
type Accounts interface {
	Get(address vm.Address) (vm.Account, bool, error)
	Exists(address vm.Address) (bool, error)
	Set(address vm.Address, account vm.Account) error
}

var _ Accounts = &StatefulAccounts{}

// StatefulAccounts stores account resources in a DataCache. It does not
// meter.
type StatefulAccounts struct {
	data *storage.DataCache
}

func NewAccounts(data *storage.DataCache) *StatefulAccounts {
	return &StatefulAccounts{
		data: data,
	}
}

func (a *StatefulAccounts) Get(address vm.Address) (vm.Account, bool, error) {
	path := vm.AccountResourcePath(address)
	value, ok, err := a.data.Get(path)
	if err != nil {
		return vm.Account{}, false, err
	}
	if !ok {
		return vm.Account{}, false, nil
	}

	account, err := vm.DecodeAccount(value)
	if err != nil {
		return vm.Account{}, false, errors.NewEncodingFailuref(
			err,
			"account resource of %s is malformed",
			address)
	}
	return account, true, nil
}

func (a *StatefulAccounts) Exists(address vm.Address) (bool, error) {
	_, ok, err := a.Get(address)
	return ok, err
}

func (a *StatefulAccounts) Set(address vm.Address, account vm.Account) error {
	value, err := vm.EncodeAccount(account)
	if err != nil {
		return errors.NewEncodingFailuref(err, "could not encode account %s", address)
	}
	return a.data.Set(vm.AccountResourcePath(address), value)
}

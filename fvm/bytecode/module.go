package bytecode

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/onflow/vm-runtime/model/vm"
)

// SelfImport is the CallTarget.Import value of a call to a function declared
// by the calling module itself.
const SelfImport = -1

// MainFunctionName is the name of the entry point of a script.
const MainFunctionName = "main"

// CallTarget is an entry of a call table. CALL instructions index into it.
type CallTarget struct {
	// Import is an index into Imports, or SelfImport.
	Import   int
	Function string
	Params   []Type
	Returns  []Type
}

// Signature is the parameter and return types of a function.
type Signature struct {
	Params  []Type
	Returns []Type
}

// Function is a function body together with its signature.
type Function struct {
	Name    string
	Params  []Type
	Returns []Type
	// Locals are the types of locals declared in addition to the parameters.
	Locals []Type
	Code   Code
}

// Signature returns the signature of the function.
func (f *Function) Signature() Signature {
	return Signature{Params: f.Params, Returns: f.Returns}
}

// LocalTypes returns the types of all locals, parameters first.
func (f *Function) LocalTypes() []Type {
	locals := make([]Type, 0, len(f.Params)+len(f.Locals))
	locals = append(locals, f.Params...)
	return append(locals, f.Locals...)
}

// CompiledModule is a deserialized, unverified module.
type CompiledModule struct {
	Address   vm.Address
	Name      string
	Imports   []vm.ModuleID
	Calls     []CallTarget
	Constants []Value
	Functions []Function
}

// ID returns the ID the module is published under.
func (m *CompiledModule) ID() vm.ModuleID {
	return vm.NewModuleID(m.Address, m.Name)
}

// Function looks up a function by name.
func (m *CompiledModule) Function(name string) (*Function, bool) {
	for i := range m.Functions {
		if m.Functions[i].Name == name {
			return &m.Functions[i], true
		}
	}
	return nil, false
}

// CompiledScript is a deserialized, unverified script.
type CompiledScript struct {
	Imports   []vm.ModuleID
	Calls     []CallTarget
	Constants []Value
	Main      Function
}

// Serialize returns the canonical encoding of the module.
func (m *CompiledModule) Serialize() ([]byte, error) {
	b, err := vm.Encode(m)
	if err != nil {
		return nil, fmt.Errorf("could not serialize module %s: %w", m.ID(), err)
	}
	return b, nil
}

// Serialize returns the canonical encoding of the script.
func (s *CompiledScript) Serialize() ([]byte, error) {
	b, err := vm.Encode(s)
	if err != nil {
		return nil, fmt.Errorf("could not serialize script: %w", err)
	}
	return b, nil
}

// DeserializeModule decodes module code.
func DeserializeModule(code []byte) (*CompiledModule, error) {
	var m CompiledModule
	if err := vm.Decode(code, &m); err != nil {
		return nil, fmt.Errorf("could not deserialize module: %w", err)
	}
	return &m, nil
}

// DeserializeScript decodes script code.
func DeserializeScript(code []byte) (*CompiledScript, error) {
	var s CompiledScript
	if err := vm.Decode(code, &s); err != nil {
		return nil, fmt.Errorf("could not deserialize script: %w", err)
	}
	return &s, nil
}

// ScriptHash identifies script code by content.
func ScriptHash(code []byte) vm.Identifier {
	return sha3.Sum256(code)
}

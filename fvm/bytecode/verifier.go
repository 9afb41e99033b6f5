package bytecode

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/onflow/vm-runtime/model/vm"
)

const (
	// MaxStackHeight bounds the operand stack of a single frame.
	MaxStackHeight = 1024
	// MaxLocals bounds the locals of a single function.
	MaxLocals = 256
)

// Verifier checks the safety of deserialized code in isolation. It does not
// resolve imports.
type Verifier interface {
	VerifyModule(module *CompiledModule) error
	VerifyScript(script *CompiledScript) error
}

// DefaultVerifier checks structural well-formedness and performs a type-level
// stack analysis of every function.
type DefaultVerifier struct{}

var _ Verifier = DefaultVerifier{}

func NewDefaultVerifier() DefaultVerifier {
	return DefaultVerifier{}
}

func (v DefaultVerifier) VerifyModule(module *CompiledModule) error {
	if module.Name == "" {
		return fmt.Errorf("module name is empty")
	}

	var errs *multierror.Error
	errs = multierror.Append(errs, verifyPools(module.Imports, module.Calls, module.Constants, true)...)

	names := make(map[string]struct{}, len(module.Functions))
	for i := range module.Functions {
		f := &module.Functions[i]
		if _, ok := names[f.Name]; ok {
			errs = multierror.Append(errs, fmt.Errorf("function %s is declared twice", f.Name))
			continue
		}
		names[f.Name] = struct{}{}
	}

	// Self calls are checked against the declared signature.
	for i, call := range module.Calls {
		if call.Import != SelfImport {
			continue
		}
		f, ok := module.Function(call.Function)
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("call %d: function %s is not declared", i, call.Function))
			continue
		}
		if !f.Signature().Equal(Signature{Params: call.Params, Returns: call.Returns}) {
			errs = multierror.Append(errs, fmt.Errorf("call %d: signature does not match function %s", i, call.Function))
		}
	}

	if errs.ErrorOrNil() != nil {
		return errs
	}

	for i := range module.Functions {
		f := &module.Functions[i]
		if err := verifyFunction(f, module.Calls, module.Constants); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errs.ErrorOrNil()
}

func (v DefaultVerifier) VerifyScript(script *CompiledScript) error {
	var errs *multierror.Error
	errs = multierror.Append(errs, verifyPools(script.Imports, script.Calls, script.Constants, false)...)

	if script.Main.Name != MainFunctionName {
		errs = multierror.Append(errs, fmt.Errorf("script entry point must be named %s", MainFunctionName))
	}
	if len(script.Main.Returns) != 0 {
		errs = multierror.Append(errs, fmt.Errorf("script entry point must not return values"))
	}

	if errs.ErrorOrNil() != nil {
		return errs
	}

	if err := verifyFunction(&script.Main, script.Calls, script.Constants); err != nil {
		return fmt.Errorf("function %s: %w", script.Main.Name, err)
	}
	return nil
}

func verifyPools(imports []vm.ModuleID, calls []CallTarget, constants []Value, allowSelf bool) []error {
	var errs []error

	seen := make(map[string]struct{}, len(imports))
	for _, id := range imports {
		if _, ok := seen[id.String()]; ok {
			errs = append(errs, fmt.Errorf("module %s is imported twice", id))
		}
		seen[id.String()] = struct{}{}
	}

	for i, call := range calls {
		switch {
		case call.Import == SelfImport && !allowSelf:
			errs = append(errs, fmt.Errorf("call %d: scripts can not call themselves", i))
		case call.Import < SelfImport || call.Import >= len(imports):
			errs = append(errs, fmt.Errorf("call %d: import index %d out of range", i, call.Import))
		}
		if call.Function == "" {
			errs = append(errs, fmt.Errorf("call %d: function name is empty", i))
		}
		errs = append(errs, verifyTypes(fmt.Sprintf("call %d", i), call.Params, call.Returns)...)
	}

	for i, c := range constants {
		if !c.Type.IsValid() {
			errs = append(errs, fmt.Errorf("constant %d has invalid type %v", i, c.Type))
		}
	}
	return errs
}

func verifyTypes(context string, lists ...[]Type) []error {
	var errs []error
	for _, list := range lists {
		for _, t := range list {
			if !t.IsValid() {
				errs = append(errs, fmt.Errorf("%s: invalid type %v", context, t))
			}
		}
	}
	return errs
}

// Equal returns true if both signatures have the same parameter and return
// types.
func (s Signature) Equal(other Signature) bool {
	return sameTypes(s.Params, other.Params) && sameTypes(s.Returns, other.Returns)
}

func sameTypes(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

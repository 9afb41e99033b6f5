package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/onflow/vm-runtime/fvm/environment"
	"github.com/onflow/vm-runtime/fvm/meter"
	"github.com/onflow/vm-runtime/fvm/programs"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
)

const (
	// EnvPrefix prefixes the environment variables overriding the config,
	// for example VM_MAX_GAS_AMOUNT or VM_COST_TABLE_STATE_READ.
	EnvPrefix = "VM"

	DefaultMaxTransactionSizeBytes = 4096
	DefaultMaxGasAmount            = 4_000_000
	DefaultMinGasUnitPrice         = 0
	DefaultMaxGasUnitPrice         = 10_000
	DefaultFailureSurcharge        = 100
)

// VMConfig holds the gas schedule and limits of the VM. It is immutable for
// the duration of a block.
type VMConfig struct {
	CostTable meter.CostTable `mapstructure:"cost_table"`

	MaxTransactionSizeBytes uint64 `mapstructure:"max_transaction_size_bytes" validate:"gt=0"`
	MaxGasAmount            uint64 `mapstructure:"max_gas_amount" validate:"gt=0"`
	MinGasUnitPrice         uint64 `mapstructure:"min_gas_unit_price"`
	MaxGasUnitPrice         uint64 `mapstructure:"max_gas_unit_price" validate:"gtefield=MinGasUnitPrice"`
	// FailureSurcharge is added to the gas used by a transaction that fails
	// during execution.
	FailureSurcharge uint64 `mapstructure:"failure_surcharge"`

	MaxKeySize      uint64 `mapstructure:"max_key_size" validate:"gt=0"`
	MaxValueSize    uint64 `mapstructure:"max_value_size" validate:"gt=0"`
	MaxCallDepth    uint   `mapstructure:"max_call_depth" validate:"gt=0"`
	MaxEventSize    uint64 `mapstructure:"max_event_size" validate:"gt=0"`
	ScriptCacheSize int    `mapstructure:"script_cache_size" validate:"gt=0"`
}

func DefaultVMConfig() VMConfig {
	return VMConfig{
		CostTable:               meter.DefaultCostTable(),
		MaxTransactionSizeBytes: DefaultMaxTransactionSizeBytes,
		MaxGasAmount:            DefaultMaxGasAmount,
		MinGasUnitPrice:         DefaultMinGasUnitPrice,
		MaxGasUnitPrice:         DefaultMaxGasUnitPrice,
		FailureSurcharge:        DefaultFailureSurcharge,
		MaxKeySize:              storage.DefaultMaxKeySize,
		MaxValueSize:            storage.DefaultMaxValueSize,
		MaxCallDepth:            environment.DefaultMaxCallDepth,
		MaxEventSize:            environment.DefaultMaxEventSize,
		ScriptCacheSize:         programs.DefaultScriptCacheSize,
	}
}

// Validate checks the config for consistency.
func (c VMConfig) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		if c.MaxKeySize < vm.MaxResourcePathSize() {
			return fmt.Errorf(
				"invalid vm config: MaxKeySize (%d) is below the resource path size (%d)",
				c.MaxKeySize,
				vm.MaxResourcePathSize())
		}
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", e.Namespace(), e.Tag()))
		}
		return fmt.Errorf("invalid vm config: %s", strings.Join(fields, ", "))
	}
	return fmt.Errorf("invalid vm config: %w", err)
}

// ExecutionParams returns the limits applied to running code.
func (c VMConfig) ExecutionParams() environment.ExecutionParams {
	return environment.ExecutionParams{
		MaxCallDepth: c.MaxCallDepth,
		MaxEventSize: c.MaxEventSize,
	}
}

// DataCacheOptions returns the size limits applied to state access.
func (c VMConfig) DataCacheOptions() []storage.DataCacheOption {
	return []storage.DataCacheOption{
		storage.WithMaxKeySizeAllowed(c.MaxKeySize),
		storage.WithMaxValueSizeAllowed(c.MaxValueSize),
	}
}

// LoadVMConfig reads the config from the file at path, if path is not empty,
// and from VM_ prefixed environment variables on top of the defaults.
func LoadVMConfig(path string) (VMConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultVMConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return VMConfig{}, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	var c VMConfig
	if err := v.Unmarshal(&c); err != nil {
		return VMConfig{}, fmt.Errorf("could not decode vm config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return VMConfig{}, err
	}
	return c, nil
}

// setDefaults registers every key so that environment overrides are picked
// up by Unmarshal.
func setDefaults(v *viper.Viper, c VMConfig) {
	t := c.CostTable
	v.SetDefault("cost_table.instruction", t.Instruction)
	v.SetDefault("cost_table.arithmetic", t.Arithmetic)
	v.SetDefault("cost_table.function_call", t.FunctionCall)
	v.SetDefault("cost_table.state_read", t.StateRead)
	v.SetDefault("cost_table.state_read_byte", t.StateReadByte)
	v.SetDefault("cost_table.state_write", t.StateWrite)
	v.SetDefault("cost_table.state_write_byte", t.StateWriteByte)
	v.SetDefault("cost_table.module_load_byte", t.ModuleLoadByte)
	v.SetDefault("cost_table.event", t.Event)
	v.SetDefault("cost_table.event_byte", t.EventByte)
	v.SetDefault("cost_table.intrinsic_base", t.IntrinsicBase)
	v.SetDefault("cost_table.intrinsic_byte", t.IntrinsicByte)

	v.SetDefault("max_transaction_size_bytes", c.MaxTransactionSizeBytes)
	v.SetDefault("max_gas_amount", c.MaxGasAmount)
	v.SetDefault("min_gas_unit_price", c.MinGasUnitPrice)
	v.SetDefault("max_gas_unit_price", c.MaxGasUnitPrice)
	v.SetDefault("failure_surcharge", c.FailureSurcharge)
	v.SetDefault("max_key_size", c.MaxKeySize)
	v.SetDefault("max_value_size", c.MaxValueSize)
	v.SetDefault("max_call_depth", c.MaxCallDepth)
	v.SetDefault("max_event_size", c.MaxEventSize)
	v.SetDefault("script_cache_size", c.ScriptCacheSize)
}

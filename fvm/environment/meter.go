package environment

import (
	"github.com/rs/zerolog"

	"github.com/onflow/vm-runtime/fvm/meter"
)

// Meter is the gas accounting visible to executing code.
type Meter interface {
	MeterGas(kind meter.CostKind, intensity uint) error
	GasUsed() uint64
	GasRemaining() uint64
	GasIntensities() meter.MeteredIntensities
}

type meterImpl struct {
	meter *meter.Meter
}

func NewMeter(m *meter.Meter) Meter {
	return &meterImpl{
		meter: m,
	}
}

func (m *meterImpl) MeterGas(kind meter.CostKind, intensity uint) error {
	return m.meter.Charge(kind, intensity)
}

func (m *meterImpl) GasUsed() uint64 {
	return m.meter.Used()
}

func (m *meterImpl) GasRemaining() uint64 {
	return m.meter.Remaining()
}

func (m *meterImpl) GasIntensities() meter.MeteredIntensities {
	return m.meter.Intensities()
}

// LogGasIntensities logs the accepted intensity of every cost kind at debug
// level.
func LogGasIntensities(log zerolog.Logger, m Meter) {
	if !log.Debug().Enabled() {
		return
	}
	dict := zerolog.Dict()
	for kind, intensity := range m.GasIntensities() {
		dict = dict.Uint(kind.String(), intensity)
	}
	log.Debug().
		Uint64("gas_used", m.GasUsed()).
		Dict("intensities", dict).
		Msg("gas intensities")
}

package meter

import (
	"github.com/onflow/vm-runtime/fvm/errors"
)

// MeteredIntensities records the accepted intensity per cost kind.
type MeteredIntensities map[CostKind]uint

// Meter tracks the gas used by one transaction against its budget. For each
// charge it adds intensity multiplied by the weight of the kind.
type Meter struct {
	used  uint64
	limit uint64

	intensities MeteredIntensities
	weights     ExecutionWeights
}

type MeterOptions func(*Meter)

// NewMeter constructs a new Meter with the given gas budget.
func NewMeter(limit uint64, options ...MeterOptions) *Meter {
	m := &Meter{
		limit:       limit,
		weights:     DefaultCostTable().Weights(),
		intensities: make(MeteredIntensities),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// WithWeights sets the weights for cost kinds.
func WithWeights(weights ExecutionWeights) MeterOptions {
	return func(m *Meter) {
		m.weights = weights
	}
}

// WithCostTable sets the weights from a cost table.
func WithCostTable(table CostTable) MeterOptions {
	return WithWeights(table.Weights())
}

// Charge consumes weight(kind) * intensity gas. A charge that does not fit
// in the remaining budget is rejected as a whole, leaving the meter unchanged.
func (m *Meter) Charge(kind CostKind, intensity uint) error {
	w, ok := m.weights[kind]
	if !ok || w == 0 || intensity == 0 {
		m.intensities[kind] += intensity
		return nil
	}

	cost, ok := mul(w, uint64(intensity))
	if !ok {
		return errors.NewOutOfGasError(m.limit)
	}

	total, ok := add(m.used, cost)
	if !ok || total > m.limit {
		return errors.NewOutOfGasError(m.limit)
	}

	m.used = total
	m.intensities[kind] += intensity
	return nil
}

// Used returns the gas consumed so far.
func (m *Meter) Used() uint64 {
	return m.used
}

// Limit returns the gas budget.
func (m *Meter) Limit() uint64 {
	return m.limit
}

// Remaining returns the gas left in the budget.
func (m *Meter) Remaining() uint64 {
	return m.limit - m.used
}

// Intensities returns all the accepted intensities.
func (m *Meter) Intensities() MeteredIntensities {
	return m.intensities
}

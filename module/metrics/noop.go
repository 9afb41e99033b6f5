package metrics

import (
	"time"

	"github.com/onflow/vm-runtime/module"
)

type NoopCollector struct{}

var _ module.ExecutionMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) ExecutionBlockExecuted(dur time.Duration, transactions int, gasUsed uint64) {
}
func (nc *NoopCollector) ExecutionBlockCachedPrograms(programs int) {}
func (nc *NoopCollector) ExecutionTransactionExecuted(dur time.Duration, gasUsed uint64, disposition string, family string) {
}
func (nc *NoopCollector) ExecutionTransactionValidated(family string)       {}
func (nc *NoopCollector) ExecutionGasIntensity(kind string, intensity uint) {}
func (nc *NoopCollector) RuntimeTransactionChecked(dur time.Duration)       {}
func (nc *NoopCollector) RuntimeTransactionInterpreted(dur time.Duration)   {}
func (nc *NoopCollector) CodeCacheHit(kind string)                          {}
func (nc *NoopCollector) CodeCacheMiss(kind string)                         {}

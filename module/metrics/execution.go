package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/onflow/vm-runtime/module"
)

type ExecutionCollector struct {
	blockExecutionTime        prometheus.Histogram
	blockTransactionCount     prometheus.Histogram
	gasUsedPerBlock           prometheus.Histogram
	blockCachedPrograms       prometheus.Gauge
	transactionExecutionTime  prometheus.Histogram
	transactionGasUsed        prometheus.Histogram
	transactions              *prometheus.CounterVec
	transactionsValidated     *prometheus.CounterVec
	transactionCheckTime      prometheus.Histogram
	transactionInterpretTime  prometheus.Histogram
	codeCacheHits             *prometheus.CounterVec
	codeCacheMisses           *prometheus.CounterVec
	transactionGasIntensities *prometheus.CounterVec
}

var _ module.ExecutionMetrics = (*ExecutionCollector)(nil)

func NewExecutionCollector(registerer prometheus.Registerer) *ExecutionCollector {
	factory := promauto.With(registerer)

	return &ExecutionCollector{
		blockExecutionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemBlock,
			Name:      "execution_time_milliseconds",
			Help:      "the total time spent on block execution in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		blockTransactionCount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemBlock,
			Name:      "transaction_count",
			Help:      "the number of transactions in a block",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		gasUsedPerBlock: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemBlock,
			Name:      "gas_used",
			Help:      "the total gas charged for a block",
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 10),
		}),
		blockCachedPrograms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemBlock,
			Name:      "cached_programs",
			Help:      "the number of modules cached at the end of the last block",
		}),
		transactionExecutionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemRuntime,
			Name:      "transaction_execution_time_milliseconds",
			Help:      "the total time spent on transaction execution in milliseconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		transactionGasUsed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemRuntime,
			Name:      "transaction_gas_used",
			Help:      "the gas charged for a transaction",
			Buckets:   prometheus.ExponentialBuckets(100, 2, 16),
		}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemRuntime,
			Name:      "transactions_total",
			Help:      "the number of executed transactions by disposition and status family",
		}, []string{LabelDisposition, LabelFamily}),
		transactionsValidated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemRuntime,
			Name:      "transactions_validated_total",
			Help:      "the number of admission checks by status family",
		}, []string{LabelFamily}),
		transactionCheckTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemRuntime,
			Name:      "transaction_check_time_nanoseconds",
			Help:      "the time spent loading and verifying the code of a transaction",
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 10),
		}),
		transactionInterpretTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemRuntime,
			Name:      "transaction_interpret_time_nanoseconds",
			Help:      "the time spent interpreting the code of a transaction",
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 10),
		}),
		codeCacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemCodeCache,
			Name:      "hits_total",
			Help:      "the number of code cache hits",
		}, []string{LabelKind}),
		codeCacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemCodeCache,
			Name:      "misses_total",
			Help:      "the number of code cache misses",
		}, []string{LabelKind}),
		transactionGasIntensities: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemRuntime,
			Name:      "gas_intensities_total",
			Help:      "the unweighted intensity of each cost kind",
		}, []string{LabelCostKind}),
	}
}

// ExecutionBlockExecuted reports execution meta data after executing a block
func (ec *ExecutionCollector) ExecutionBlockExecuted(dur time.Duration, transactions int, gasUsed uint64) {
	ec.blockExecutionTime.Observe(float64(dur.Milliseconds()))
	ec.blockTransactionCount.Observe(float64(transactions))
	ec.gasUsedPerBlock.Observe(float64(gasUsed))
}

func (ec *ExecutionCollector) ExecutionBlockCachedPrograms(programs int) {
	ec.blockCachedPrograms.Set(float64(programs))
}

// ExecutionTransactionExecuted reports the time, gas and outcome of a single transaction
func (ec *ExecutionCollector) ExecutionTransactionExecuted(dur time.Duration, gasUsed uint64, disposition string, family string) {
	ec.transactionExecutionTime.Observe(float64(dur.Milliseconds()))
	ec.transactionGasUsed.Observe(float64(gasUsed))
	ec.transactions.WithLabelValues(disposition, family).Inc()
}

func (ec *ExecutionCollector) ExecutionTransactionValidated(family string) {
	ec.transactionsValidated.WithLabelValues(family).Inc()
}

func (ec *ExecutionCollector) ExecutionGasIntensity(kind string, intensity uint) {
	ec.transactionGasIntensities.WithLabelValues(kind).Add(float64(intensity))
}

// RuntimeTransactionChecked reports the time spent loading and verifying code
func (ec *ExecutionCollector) RuntimeTransactionChecked(dur time.Duration) {
	ec.transactionCheckTime.Observe(float64(dur.Nanoseconds()))
}

// RuntimeTransactionInterpreted reports the time spent interpreting a single transaction
func (ec *ExecutionCollector) RuntimeTransactionInterpreted(dur time.Duration) {
	ec.transactionInterpretTime.Observe(float64(dur.Nanoseconds()))
}

func (ec *ExecutionCollector) CodeCacheHit(kind string) {
	ec.codeCacheHits.WithLabelValues(kind).Inc()
}

func (ec *ExecutionCollector) CodeCacheMiss(kind string) {
	ec.codeCacheMisses.WithLabelValues(kind).Inc()
}

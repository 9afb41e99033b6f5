package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestExecutionCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewExecutionCollector(registry)

	collector.CodeCacheHit(CodeCacheKindModule)
	collector.CodeCacheHit(CodeCacheKindModule)
	collector.CodeCacheMiss(CodeCacheKindScript)
	collector.ExecutionTransactionExecuted(time.Millisecond, 100, "keep", "execution")
	collector.ExecutionTransactionValidated("validation")
	collector.ExecutionGasIntensity("instruction", 12)
	collector.ExecutionBlockExecuted(time.Second, 3, 1000)
	collector.ExecutionBlockCachedPrograms(4)

	require.Equal(t, float64(2), testutil.ToFloat64(collector.codeCacheHits.WithLabelValues(CodeCacheKindModule)))
	require.Equal(t, float64(1), testutil.ToFloat64(collector.codeCacheMisses.WithLabelValues(CodeCacheKindScript)))
	require.Equal(t, float64(1), testutil.ToFloat64(collector.transactions.WithLabelValues("keep", "execution")))
	require.Equal(t, float64(1), testutil.ToFloat64(collector.transactionsValidated.WithLabelValues("validation")))
	require.Equal(t, float64(12), testutil.ToFloat64(collector.transactionGasIntensities.WithLabelValues("instruction")))
	require.Equal(t, float64(4), testutil.ToFloat64(collector.blockCachedPrograms))

	// registering a second collector on the same registry must fail
	require.Panics(t, func() { NewExecutionCollector(registry) })
}

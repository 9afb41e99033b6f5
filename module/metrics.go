package module

import (
	"time"
)

// CodeCacheMetrics reports the effectiveness of the block-scoped code cache.
type CodeCacheMetrics interface {
	// CodeCacheHit counts a module or script served from the cache.
	CodeCacheHit(kind string)

	// CodeCacheMiss counts a module or script loaded and verified.
	CodeCacheMiss(kind string)
}

type RuntimeMetrics interface {
	// RuntimeTransactionChecked reports the time spent loading and verifying
	// the code of a single transaction
	RuntimeTransactionChecked(dur time.Duration)

	// RuntimeTransactionInterpreted reports the time spent interpreting a single transaction
	RuntimeTransactionInterpreted(dur time.Duration)
}

// ExecutionMetrics is the metrics surface of the virtual machine.
type ExecutionMetrics interface {
	CodeCacheMetrics
	RuntimeMetrics

	// ExecutionBlockExecuted reports the total time, transaction count and gas
	// spent on executing a block
	ExecutionBlockExecuted(dur time.Duration, transactions int, gasUsed uint64)

	// ExecutionBlockCachedPrograms reports the number of cached modules at the end of a block
	ExecutionBlockCachedPrograms(programs int)

	// ExecutionTransactionExecuted reports stats on executing a single transaction
	ExecutionTransactionExecuted(dur time.Duration, gasUsed uint64, disposition string, family string)

	// ExecutionTransactionValidated counts admission checks by outcome
	ExecutionTransactionValidated(family string)

	// ExecutionGasIntensity reports the unweighted intensity of a cost kind
	// used by a single transaction
	ExecutionGasIntensity(kind string, intensity uint)
}

package metrics

// Prometheus metric namespaces
const (
	namespaceExecution = "execution"
)

// Execution subsystems
const (
	subsystemRuntime   = "runtime"
	subsystemCodeCache = "code_cache"
	subsystemBlock     = "block"
)

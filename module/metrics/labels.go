package metrics

const (
	LabelDisposition = "disposition"
	LabelFamily      = "family"
	LabelKind        = "kind"
	LabelCostKind    = "cost_kind"
)

// Code cache entry kinds.
const (
	CodeCacheKindModule = "module"
	CodeCacheKindScript = "script"
)

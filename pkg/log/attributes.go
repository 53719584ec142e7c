// Package log defines standard attribute keys for kernel machine operations.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples", "solver.iterations") so that training runs can be filtered
// and aggregated by log pipelines.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "SVC", "OneClassSVM", "OneVsRest"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies a specific estimator instance, e.g. a submachine
	// index inside a multiclass ensemble.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "kernel", "svm", "multiclass"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey is the number of feature vectors involved.
	SamplesKey = "data.samples"

	// FeaturesKey is the dimensionality of the feature vectors.
	FeaturesKey = "data.features"

	// ClassesKey is the number of distinct classes.
	ClassesKey = "data.classes"

	// FoldKey is the cross-validation fold index.
	FoldKey = "data.fold"
)

// Kernel and Cache
const (
	// KernelKey is the name of the pairwise similarity function.
	KernelKey = "kernel.name"

	// CacheSizeMBKey is the configured cache budget in megabytes.
	CacheSizeMBKey = "kernel.cache_mb"

	// CacheEntriesKey is the number of packed entries in a precomputed cache.
	CacheEntriesKey = "kernel.cache_entries"
)

// Solver
const (
	// IterationKey records the number of solver iterations.
	IterationKey = "solver.iterations"

	// ObjectiveKey records the dual objective value.
	ObjectiveKey = "solver.objective"

	// KKTViolationKey records the maximal KKT violation m(a) - M(a).
	KKTViolationKey = "solver.kkt_violation"

	// ConvergedKey reports whether the solver met its tolerance.
	ConvergedKey = "solver.converged"

	// ActiveSizeKey records the number of variables not shrunk out.
	ActiveSizeKey = "solver.active_size"

	// SupportVectorsKey records the number of support vectors.
	SupportVectorsKey = "model.support_vectors"

	// CompactedSizeKey records the size of a deduplicated support-vector set.
	CompactedSizeKey = "model.compacted_size"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy.
	AccuracyKey = "metrics.accuracy"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit        = "fit"
	OperationPredict    = "predict"
	OperationScore      = "score"
	OperationPrecompute = "precompute"
	OperationRemap      = "remap"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"

	ErrorConfig              = "CONFIG"
	ErrorInternalConsistency = "INTERNAL_CONSISTENCY"
	ErrorConvergence         = "CONVERGENCE_FAILURE"
	ErrorNotFitted           = "NOT_FITTED"
)

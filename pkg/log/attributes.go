package log

// Standard attribute keys. The dotted names let log pipelines group fields
// by concern.
const (
	// ModelNameKey identifies the estimator type, e.g. "DSFT", "StandardScaler".
	ModelNameKey = "model.name"
	// OperationKey is one of the Operation* values below.
	OperationKey = "ml.operation"
	ComponentKey = "ml.component"
	PhaseKey     = "ml.phase"
	// DomainKey records which domain ("source" or "target") a call concerns.
	DomainKey = "ml.domain"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	// SourceSamplesKey and TargetSamplesKey record n and m for a two-domain fit.
	SourceSamplesKey = "data.source_samples"
	TargetSamplesKey = "data.target_samples"
	// CommonFeaturesKey is n_c; the distinctive keys are ns_d and nt_d.
	CommonFeaturesKey         = "data.common_features"
	SourceDistinctFeaturesKey = "data.source_distinct_features"
	TargetDistinctFeaturesKey = "data.target_distinct_features"
)

// Performance and metrics.
const (
	DurationMsKey = "perf.duration_ms"
	// DiscrepancyKey records an MMD value.
	DiscrepancyKey = "metrics.mmd"
)

// Errors.
const (
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters.
const (
	AlphaKey = "hyperparams.alpha"
	BetaKey  = "hyperparams.beta"
)

// Standard values.
const (
	OperationFit          = "fit"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationExport       = "export_weights"
	OperationImport       = "import_weights"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)

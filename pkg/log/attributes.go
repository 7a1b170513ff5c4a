// Package log defines standard attribute keys for training and prediction logs.
//
// Using the same keys everywhere keeps log lines from the trainer, the
// predictor and the command line tools filterable by one schema
// (e.g. "ml.operation", "data.samples").

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LinearRegression", "MinMaxScaler"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies one training run. Populated with a UUID.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "linear", "preprocessing", "dataset"
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey is the number of samples in the dataset.
	SamplesKey = "data.samples"

	// SourceKey names where data or state was read from (a path or "memory").
	SourceKey = "data.source"
)

// Performance and training progress.
const (
	DurationMsKey = "perf.duration_ms"
	LossKey       = "metrics.loss"
	R2ScoreKey    = "metrics.r2_score"
	RMSEKey       = "metrics.rmse"
	IterationKey  = "training.iteration"
)

// Coefficients.
const (
	Theta0Key = "model.theta0"
	Theta1Key = "model.theta1"
)

// Predictions.
const (
	// InputKey is the raw input value given to the predictor.
	InputKey = "preds.input"

	// PredictionKey is the predicted value.
	PredictionKey = "preds.value"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters.
const (
	LearningRateKey = "hyperparams.learning_rate"
	IterationsKey   = "hyperparams.iterations"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationScore     = "score"
	OperationLoad      = "load"
	OperationSave      = "save"
	OperationTransform = "transform"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorEmptyData      = "EMPTY_DATA"
	ErrorDegenerateAxis = "DEGENERATE_AXIS"
	ErrorInvalidInput   = "INVALID_INPUT"
	ErrorDiverged       = "NUMERICAL_INSTABILITY"
	ErrorValidation     = "VALIDATION_ERROR"
)

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model.
	// Examples: "GradientBoostedEnsemble", "DecisionTreeClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "build"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	TargetsKey  = "data.targets"
	ClassesKey  = "data.classes"

	// DatasetKey names an evaluation dataset ("training", "valid_0", ...).
	DatasetKey = "data.set"

	// PathKey is a file path being read or written.
	PathKey = "data.path"
)

// Training progress and metrics.
const (
	IterationKey    = "training.iteration"
	LossKey         = "metrics.loss"
	R2ScoreKey      = "metrics.r2_score"
	AccuracyKey     = "metrics.accuracy"
	DurationMsKey   = "perf.duration_ms"
	LearningRateKey = "hyperparams.learning_rate"
	BestIterKey     = "training.best_iteration"
)

// Tree structure.
const (
	TreeDepthKey  = "tree.depth"
	TreeLeavesKey = "tree.leaves"
	TreeCountKey  = "tree.count"
	FeatureKey    = "split.feature"
	ThresholdKey  = "split.threshold"
	GainKey       = "split.gain"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationBuild   = "build"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"
)

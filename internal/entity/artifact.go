package entity

// Stage artifacts are the sole channel of information between stages. Each
// is produced by its stage and never mutated afterwards; a stage may only
// read artifacts of stages that ran strictly before it in the same run.

// IngestionArtifact records where the ingested splits were written.
type IngestionArtifact struct {
	TrainFilePath string
	TestFilePath  string
}

// ValidationArtifact records the outcome of data validation.
type ValidationArtifact struct {
	Passed     bool
	Message    string
	ReportPath string
}

// TransformationArtifact records the encoded arrays and the fitted
// preprocessing transform.
type TransformationArtifact struct {
	TrainArrayPath string
	TestArrayPath  string
	TransformPath  string
}

// Metrics holds the held-out classification metrics of a trained model.
type Metrics struct {
	Accuracy  float64
	F1        float64
	Precision float64
	Recall    float64
}

// TrainerArtifact records the persisted bundle and its metrics.
type TrainerArtifact struct {
	BundlePath string
	Metrics    Metrics
}

// EvaluationArtifact records whether the freshly trained bundle was accepted
// against the currently published one.
type EvaluationArtifact struct {
	Accepted      bool
	AccuracyDelta float64
	RemoteKey     string
	LocalPath     string
}

// PusherArtifact records where the bundle was published.
type PusherArtifact struct {
	Bucket    string
	RemoteKey string
}

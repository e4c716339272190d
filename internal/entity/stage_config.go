package entity

import (
	"path/filepath"

	"github.com/vehicleml/vehicleml/internal/config"
)

// Directory and file names of the per-run artifact tree.
const (
	ingestionDirName      = "data_ingestion"
	featureStoreDirName   = "feature_store"
	ingestedDirName       = "ingested"
	validationDirName     = "data_validation"
	transformationDirName = "data_transformation"
	transformedDirName    = "transformed"
	transformObjectDir    = "transformed_object"
	trainerDirName        = "model_trainer"
	trainedModelDirName   = "trained_model"

	featureStoreFileName = "data.csv"
	reportFileName       = "report.yaml"
	trainFileName        = "train.csv"
	testFileName         = "test.csv"
	trainArrayFileName   = "train.gob"
	testArrayFileName    = "test.gob"
	transformFileName    = "preprocessing.gob"
	bundleFileName       = "model.gob"
)

// IngestionConfig holds the ingestion stage's derived paths and tunables.
type IngestionConfig struct {
	FeatureStorePath string
	TrainFilePath    string
	TestFilePath     string
	SplitRatio       float64
	SplitSeed        int64
	Collection       string
}

// ValidationConfig holds the validation stage's derived paths.
type ValidationConfig struct {
	ReportPath string
}

// TransformationConfig holds the transformation stage's derived paths.
type TransformationConfig struct {
	TrainArrayPath string
	TestArrayPath  string
	TransformPath  string
}

// TrainerConfig holds the trainer stage's derived paths and hyperparameters.
type TrainerConfig struct {
	BundlePath       string
	ExpectedAccuracy float64
	LearningRate     float64
	Epochs           int
	BatchSize        int
	Seed             int64
}

// EvaluationConfig holds the evaluation stage's tunables.
type EvaluationConfig struct {
	Bucket    string
	RemoteKey string
}

// PusherConfig holds the publish stage's destination.
type PusherConfig struct {
	Bucket    string
	RemoteKey string
}

// StageConfigs is the full set of per-stage configs for one run, computed
// once from the run context and process configuration.
type StageConfigs struct {
	Ingestion      IngestionConfig
	Validation     ValidationConfig
	Transformation TransformationConfig
	Trainer        TrainerConfig
	Evaluation     EvaluationConfig
	Pusher         PusherConfig
}

// NewStageConfigs derives every stage config from rc and cfg.
func NewStageConfigs(rc RunContext, cfg *config.Config) StageConfigs {
	runDir := rc.RunDir()
	ingestionDir := filepath.Join(runDir, ingestionDirName)
	transformationDir := filepath.Join(runDir, transformationDirName)
	trainerDir := filepath.Join(runDir, trainerDirName)

	return StageConfigs{
		Ingestion: IngestionConfig{
			FeatureStorePath: filepath.Join(ingestionDir, featureStoreDirName, featureStoreFileName),
			TrainFilePath:    filepath.Join(ingestionDir, ingestedDirName, trainFileName),
			TestFilePath:     filepath.Join(ingestionDir, ingestedDirName, testFileName),
			SplitRatio:       cfg.Pipeline.SplitRatio,
			SplitSeed:        cfg.Pipeline.SplitSeed,
			Collection:       cfg.Source.Collection,
		},
		Validation: ValidationConfig{
			ReportPath: filepath.Join(runDir, validationDirName, reportFileName),
		},
		Transformation: TransformationConfig{
			TrainArrayPath: filepath.Join(transformationDir, transformedDirName, trainArrayFileName),
			TestArrayPath:  filepath.Join(transformationDir, transformedDirName, testArrayFileName),
			TransformPath:  filepath.Join(transformationDir, transformObjectDir, transformFileName),
		},
		Trainer: TrainerConfig{
			BundlePath:       filepath.Join(trainerDir, trainedModelDirName, bundleFileName),
			ExpectedAccuracy: cfg.Pipeline.ExpectedAccuracy,
			LearningRate:     cfg.Pipeline.LearningRate,
			Epochs:           cfg.Pipeline.Epochs,
			BatchSize:        cfg.Pipeline.BatchSize,
			Seed:             cfg.Pipeline.TrainSeed,
		},
		Evaluation: EvaluationConfig{
			Bucket:    cfg.Store.Bucket,
			RemoteKey: cfg.Store.ModelKey,
		},
		Pusher: PusherConfig{
			Bucket:    cfg.Store.Bucket,
			RemoteKey: cfg.Store.ModelKey,
		},
	}
}

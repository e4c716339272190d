package pipeline

import (
	"context"
	"log/slog"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/entity"
	"github.com/vehicleml/vehicleml/internal/mlerr"
	"github.com/vehicleml/vehicleml/internal/model"
)

// Trainer fits the classifier on the transformed arrays, evaluates it on
// the held-out split, and assembles the model bundle. A model that does not
// clear the configured accuracy floor is never persisted; the acceptance
// gate protects the model store from holding anything below it.
type Trainer struct {
	cfg    entity.TrainerConfig
	logger *slog.Logger
}

// NewTrainer creates the trainer stage.
func NewTrainer(cfg entity.TrainerConfig, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{cfg: cfg, logger: logger}
}

// Fit trains on the train array and reports metrics on the test array.
// Arrays carry features in all columns except the last, which is the label.
func (s *Trainer) Fit(train, test [][]float64) (*model.LogisticRegression, model.Report, error) {
	trainX, trainY := splitFeatures(train)
	testX, testY := splitFeatures(test)

	clf := model.NewLogisticRegression(s.cfg.LearningRate, s.cfg.Epochs, s.cfg.BatchSize, s.cfg.Seed)
	if err := clf.Fit(trainX, trainY); err != nil {
		return nil, model.Report{}, mlerr.New(mlerr.CodePrediction, err)
	}

	testPred, err := clf.Predict(testX)
	if err != nil {
		return nil, model.Report{}, mlerr.New(mlerr.CodePrediction, err)
	}
	return clf, model.Evaluate(testY, testPred), nil
}

// Run executes the stage against the transformation artifact.
func (s *Trainer) Run(ctx context.Context, transformation entity.TransformationArtifact) (entity.TrainerArtifact, error) {
	var artifact entity.TrainerArtifact
	if err := ctx.Err(); err != nil {
		return artifact, err
	}

	train, err := dataset.LoadMatrix(transformation.TrainArrayPath)
	if err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}
	test, err := dataset.LoadMatrix(transformation.TestArrayPath)
	if err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}

	clf, report, err := s.Fit(train, test)
	if err != nil {
		return artifact, err
	}
	s.logger.Info("model trained", "accuracy", report.Accuracy, "f1", report.F1,
		"precision", report.Precision, "recall", report.Recall)

	trainX, trainY := splitFeatures(train)
	trainPred, err := clf.Predict(trainX)
	if err != nil {
		return artifact, mlerr.New(mlerr.CodePrediction, err)
	}
	trainAccuracy := model.Accuracy(trainY, trainPred)
	if trainAccuracy < s.cfg.ExpectedAccuracy {
		return artifact, mlerr.Newf(mlerr.CodeBelowThreshold,
			"training accuracy %.4f below expected %.4f", trainAccuracy, s.cfg.ExpectedAccuracy)
	}

	scaler, err := model.LoadScaler(transformation.TransformPath)
	if err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}
	bundle := model.NewBundle(scaler, clf)
	if err := bundle.Save(s.cfg.BundlePath); err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}
	s.logger.Info("bundle saved", "path", s.cfg.BundlePath)

	artifact = entity.TrainerArtifact{
		BundlePath: s.cfg.BundlePath,
		Metrics: entity.Metrics{
			Accuracy:  report.Accuracy,
			F1:        report.F1,
			Precision: report.Precision,
			Recall:    report.Recall,
		},
	}
	return artifact, nil
}

func splitFeatures(arr [][]float64) (X [][]float64, y []float64) {
	X = make([][]float64, len(arr))
	y = make([]float64, len(arr))
	for i, row := range arr {
		last := len(row) - 1
		X[i] = row[:last]
		y[i] = row[last]
	}
	return X, y
}

package pipeline

import (
	"context"
	"log/slog"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/entity"
	"github.com/vehicleml/vehicleml/internal/mlerr"
	"github.com/vehicleml/vehicleml/internal/model"
	"github.com/vehicleml/vehicleml/internal/schema"
)

// Transformation reconciles the ingested splits to the canonical schema,
// fits the scaler on the training split only, and writes the encoded arrays
// plus the fitted transform. This stage fixes the column order every later
// consumer depends on.
type Transformation struct {
	cfg    entity.TransformationConfig
	policy schema.Policy
	logger *slog.Logger
}

// NewTransformation creates the transformation stage.
func NewTransformation(cfg entity.TransformationConfig, policy schema.Policy, logger *slog.Logger) *Transformation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformation{cfg: cfg, policy: policy, logger: logger}
}

// Run executes the stage against the ingestion artifact.
func (s *Transformation) Run(ctx context.Context, ingestion entity.IngestionArtifact) (entity.TransformationArtifact, error) {
	var artifact entity.TransformationArtifact
	if err := ctx.Err(); err != nil {
		return artifact, err
	}

	trainRecords, err := dataset.ReadRecordsCSV(ingestion.TrainFilePath)
	if err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}
	testRecords, err := dataset.ReadRecordsCSV(ingestion.TestFilePath)
	if err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}

	trainArr, scaler, err := s.encodeTrain(trainRecords)
	if err != nil {
		return artifact, err
	}
	testArr, err := s.encode(testRecords, scaler)
	if err != nil {
		return artifact, err
	}
	s.logger.Info("splits encoded", "train_rows", len(trainArr), "test_rows", len(testArr),
		"columns", len(scaler.Columns))

	if err := dataset.SaveMatrix(s.cfg.TrainArrayPath, trainArr); err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}
	if err := dataset.SaveMatrix(s.cfg.TestArrayPath, testArr); err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}
	if err := scaler.Save(s.cfg.TransformPath); err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}

	artifact = entity.TransformationArtifact{
		TrainArrayPath: s.cfg.TrainArrayPath,
		TestArrayPath:  s.cfg.TestArrayPath,
		TransformPath:  s.cfg.TransformPath,
	}
	return artifact, nil
}

// encodeTrain fits the scaler on the training split and returns the encoded
// array. Fitting never sees the test split; that would leak its
// distribution into the transform.
func (s *Transformation) encodeTrain(records []dataset.Record) ([][]float64, *model.StandardScaler, error) {
	frame, err := schema.Reconcile(records, s.policy)
	if err != nil {
		return nil, nil, err
	}
	scaler := model.NewStandardScaler(schema.Columns())
	features, err := scaler.FitTransform(frame)
	if err != nil {
		return nil, nil, mlerr.New(mlerr.CodeIngestion, err)
	}
	arr, err := s.withLabels(features, records)
	if err != nil {
		return nil, nil, err
	}
	return arr, scaler, nil
}

func (s *Transformation) encode(records []dataset.Record, scaler *model.StandardScaler) ([][]float64, error) {
	frame, err := schema.Reconcile(records, s.policy)
	if err != nil {
		return nil, err
	}
	features, err := scaler.Transform(frame)
	if err != nil {
		return nil, mlerr.New(mlerr.CodeIngestion, err)
	}
	return s.withLabels(features, records)
}

// withLabels appends the label as the last column. The trainer splits
// features and label back apart by this position.
func (s *Transformation) withLabels(features [][]float64, records []dataset.Record) ([][]float64, error) {
	labels, err := schema.Labels(records, s.policy)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(features))
	for i, row := range features {
		out[i] = append(append(make([]float64, 0, len(row)+1), row...), labels[i])
	}
	return out, nil
}

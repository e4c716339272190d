// Package pipeline implements the sequential training pipeline: ingestion,
// validation, transformation and training stages, the evaluation and publish
// stages, and the orchestrator that chains their artifacts.
package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"os"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/entity"
	"github.com/vehicleml/vehicleml/internal/mlerr"
	"github.com/vehicleml/vehicleml/internal/source"
)

// Ingestion pulls all rows of the configured collection, saves the feature
// store copy, and writes the reproducible train/test split.
type Ingestion struct {
	cfg    entity.IngestionConfig
	source source.RowSource
	logger *slog.Logger
}

// NewIngestion creates the ingestion stage.
func NewIngestion(cfg entity.IngestionConfig, src source.RowSource, logger *slog.Logger) *Ingestion {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestion{cfg: cfg, source: src, logger: logger}
}

// Export fetches every row of the collection and persists the feature store
// copy. An empty collection fails the stage.
func (s *Ingestion) Export(ctx context.Context) ([]dataset.Record, error) {
	s.logger.Info("exporting collection", "collection", s.cfg.Collection)

	records, err := s.source.FetchAll(ctx, s.cfg.Collection)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, mlerr.Newf(mlerr.CodeIngestion, "collection %q is empty", s.cfg.Collection)
	}
	s.logger.Info("collection exported", "rows", len(records))

	columns := dataset.ColumnUnion(records)
	if err := dataset.WriteRecordsCSV(s.cfg.FeatureStorePath, columns, records); err != nil {
		return nil, mlerr.New(mlerr.CodeIngestion, err)
	}
	return records, nil
}

// Split shuffles records with the configured seed and cuts off the test
// fraction. Same data, same ratio, same seed: same split.
func (s *Ingestion) Split(records []dataset.Record, ratio float64) (train, test []dataset.Record) {
	shuffled := make([]dataset.Record, len(records))
	copy(shuffled, records)
	rng := rand.New(rand.NewSource(s.cfg.SplitSeed))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	testN := int(float64(len(shuffled)) * ratio)
	return shuffled[testN:], shuffled[:testN]
}

// Run executes the stage. Train and test files are written together or not
// at all: a failed test write removes the already-written train file so no
// partial split can pass as a complete one.
func (s *Ingestion) Run(ctx context.Context) (entity.IngestionArtifact, error) {
	var artifact entity.IngestionArtifact

	records, err := s.Export(ctx)
	if err != nil {
		return artifact, err
	}

	train, test := s.Split(records, s.cfg.SplitRatio)
	s.logger.Info("split performed", "train", len(train), "test", len(test), "ratio", s.cfg.SplitRatio)

	columns := dataset.ColumnUnion(records)
	if err := dataset.WriteRecordsCSV(s.cfg.TrainFilePath, columns, train); err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}
	if err := dataset.WriteRecordsCSV(s.cfg.TestFilePath, columns, test); err != nil {
		_ = os.Remove(s.cfg.TrainFilePath)
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}

	artifact = entity.IngestionArtifact{
		TrainFilePath: s.cfg.TrainFilePath,
		TestFilePath:  s.cfg.TestFilePath,
	}
	s.logger.Info("ingestion complete", "train", artifact.TrainFilePath, "test", artifact.TestFilePath)
	return artifact, nil
}

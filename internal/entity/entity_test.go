package entity

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehicleml/vehicleml/internal/config"
)

func TestNewRunContext(t *testing.T) {
	rc := NewRunContext("vehicleml", "artifact")

	assert.Equal(t, "vehicleml", rc.PipelineName)
	assert.NotEmpty(t, rc.RunID)
	// timestamp format: day_month_year__hour_minute_second
	require.Len(t, strings.Split(rc.Timestamp, "__"), 2)
	assert.Equal(t, filepath.Join("artifact", rc.Timestamp), rc.RunDir())
}

func TestNewRunContext_UniqueRunIDs(t *testing.T) {
	a := NewRunContext("vehicleml", "artifact")
	b := NewRunContext("vehicleml", "artifact")
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestNewStageConfigs(t *testing.T) {
	rc := RunContext{
		PipelineName: "vehicleml",
		ArtifactRoot: "artifact",
		RunID:        "run",
		Timestamp:    "01_01_26__12_00_00",
	}
	cfg := &config.Config{
		Store: config.StoreConfig{Bucket: "models", ModelKey: "registry/model.gob"},
		Source: config.SourceConfig{
			Collection: "vehicle_data",
		},
		Pipeline: config.PipelineConfig{
			SplitRatio:       0.25,
			SplitSeed:        6,
			ExpectedAccuracy: 0.6,
			LearningRate:     0.1,
			Epochs:           50,
			BatchSize:        64,
			TrainSeed:        42,
		},
	}

	cfgs := NewStageConfigs(rc, cfg)
	runDir := rc.RunDir()

	assert.Equal(t, filepath.Join(runDir, "data_ingestion", "feature_store", "data.csv"),
		cfgs.Ingestion.FeatureStorePath)
	assert.Equal(t, filepath.Join(runDir, "data_ingestion", "ingested", "train.csv"),
		cfgs.Ingestion.TrainFilePath)
	assert.Equal(t, filepath.Join(runDir, "data_ingestion", "ingested", "test.csv"),
		cfgs.Ingestion.TestFilePath)
	assert.Equal(t, "vehicle_data", cfgs.Ingestion.Collection)
	assert.Equal(t, 0.25, cfgs.Ingestion.SplitRatio)

	assert.Equal(t, filepath.Join(runDir, "data_validation", "report.yaml"),
		cfgs.Validation.ReportPath)

	assert.Equal(t, filepath.Join(runDir, "data_transformation", "transformed", "train.gob"),
		cfgs.Transformation.TrainArrayPath)
	assert.Equal(t, filepath.Join(runDir, "data_transformation", "transformed_object", "preprocessing.gob"),
		cfgs.Transformation.TransformPath)

	assert.Equal(t, filepath.Join(runDir, "model_trainer", "trained_model", "model.gob"),
		cfgs.Trainer.BundlePath)
	assert.Equal(t, 0.6, cfgs.Trainer.ExpectedAccuracy)
	assert.Equal(t, int64(42), cfgs.Trainer.Seed)

	assert.Equal(t, "models", cfgs.Pusher.Bucket)
	assert.Equal(t, "registry/model.gob", cfgs.Pusher.RemoteKey)
}

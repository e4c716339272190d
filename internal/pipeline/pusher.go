package pipeline

import (
	"context"
	"log/slog"
	"os"

	"github.com/vehicleml/vehicleml/internal/entity"
	"github.com/vehicleml/vehicleml/internal/mlerr"
	"github.com/vehicleml/vehicleml/internal/store"
)

// Pusher publishes the accepted bundle to the remote model store under the
// well-known key, overwriting the previously published bundle.
type Pusher struct {
	cfg      entity.PusherConfig
	registry *store.ModelRegistry
	logger   *slog.Logger
}

// NewPusher creates the publish stage.
func NewPusher(cfg entity.PusherConfig, registry *store.ModelRegistry, logger *slog.Logger) *Pusher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pusher{cfg: cfg, registry: registry, logger: logger}
}

// Run executes the stage against the evaluation artifact.
func (s *Pusher) Run(ctx context.Context, evaluation entity.EvaluationArtifact) (entity.PusherArtifact, error) {
	var artifact entity.PusherArtifact
	if !evaluation.Accepted {
		return artifact, mlerr.Newf(mlerr.CodeBelowThreshold, "bundle was not accepted for publishing")
	}

	data, err := os.ReadFile(evaluation.LocalPath)
	if err != nil {
		return artifact, mlerr.New(mlerr.CodeIngestion, err)
	}
	if err := s.registry.Save(ctx, data); err != nil {
		return artifact, err
	}

	artifact = entity.PusherArtifact{Bucket: s.cfg.Bucket, RemoteKey: s.cfg.RemoteKey}
	s.logger.Info("bundle published", "bucket", artifact.Bucket, "key", artifact.RemoteKey)
	return artifact, nil
}

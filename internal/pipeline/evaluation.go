package pipeline

import (
	"context"
	"log/slog"

	"github.com/vehicleml/vehicleml/internal/entity"
)

// Evaluation is a stubbed extension point with the same contract shape as
// the real stages. A full implementation would load the currently published
// bundle, score both on the held-out split, and accept only on improvement.
// Until then every freshly trained bundle is accepted.
type Evaluation struct {
	cfg    entity.EvaluationConfig
	logger *slog.Logger
}

// NewEvaluation creates the evaluation stage.
func NewEvaluation(cfg entity.EvaluationConfig, logger *slog.Logger) *Evaluation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluation{cfg: cfg, logger: logger}
}

// Run executes the stage against the trainer artifact.
func (s *Evaluation) Run(ctx context.Context, trainer entity.TrainerArtifact) (entity.EvaluationArtifact, error) {
	if err := ctx.Err(); err != nil {
		return entity.EvaluationArtifact{}, err
	}
	artifact := entity.EvaluationArtifact{
		Accepted:      true,
		AccuracyDelta: 0,
		RemoteKey:     s.cfg.RemoteKey,
		LocalPath:     trainer.BundlePath,
	}
	s.logger.Info("evaluation accepted bundle", "path", trainer.BundlePath)
	return artifact, nil
}

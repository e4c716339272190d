package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vehicleml/vehicleml/internal/entity"
	"github.com/vehicleml/vehicleml/internal/mlerr"
	"github.com/vehicleml/vehicleml/internal/schema"
	"github.com/vehicleml/vehicleml/internal/source"
	"github.com/vehicleml/vehicleml/internal/store"
)

// Orchestrator runs the stages strictly in order, feeding each one only
// artifacts produced before it. The first failing stage aborts the run; no
// retries happen at this layer. The orchestrator is the sole writer of the
// run's artifact directory.
type Orchestrator struct {
	run      entity.RunContext
	cfgs     entity.StageConfigs
	source   source.RowSource
	registry *store.ModelRegistry
	policy   schema.Policy
	logger   *slog.Logger
}

// NewOrchestrator wires a run. The registry may be nil, in which case the
// evaluation and publish stages are skipped and the run ends at training.
func NewOrchestrator(run entity.RunContext, cfgs entity.StageConfigs, src source.RowSource,
	registry *store.ModelRegistry, policy schema.Policy, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		run:      run,
		cfgs:     cfgs,
		source:   src,
		registry: registry,
		policy:   policy,
		logger:   logger.With("pipeline", run.PipelineName, "run_id", run.RunID),
	}
}

// Run executes the pipeline and returns the trainer artifact of a
// successful run.
func (o *Orchestrator) Run(ctx context.Context) (entity.TrainerArtifact, error) {
	var trainer entity.TrainerArtifact

	o.logger.Info("pipeline run starting", "artifact_dir", o.run.RunDir())

	ingestion, err := NewIngestion(o.cfgs.Ingestion, o.source, o.logger).Run(ctx)
	if err != nil {
		return trainer, fmt.Errorf("ingestion stage: %w", err)
	}

	validation, err := NewValidation(o.cfgs.Validation, o.logger).Run(ctx, ingestion)
	if err != nil {
		return trainer, fmt.Errorf("validation stage: %w", err)
	}
	if !validation.Passed {
		return trainer, fmt.Errorf("validation stage: %w",
			mlerr.Newf(mlerr.CodeIngestion, "%s", validation.Message))
	}

	transformation, err := NewTransformation(o.cfgs.Transformation, o.policy, o.logger).Run(ctx, ingestion)
	if err != nil {
		return trainer, fmt.Errorf("transformation stage: %w", err)
	}

	trainer, err = NewTrainer(o.cfgs.Trainer, o.logger).Run(ctx, transformation)
	if err != nil {
		return entity.TrainerArtifact{}, fmt.Errorf("trainer stage: %w", err)
	}

	if o.registry == nil {
		o.logger.Info("no model registry configured, skipping evaluation and publish")
		return trainer, nil
	}

	evaluation, err := NewEvaluation(o.cfgs.Evaluation, o.logger).Run(ctx, trainer)
	if err != nil {
		return trainer, fmt.Errorf("evaluation stage: %w", err)
	}
	if _, err := NewPusher(o.cfgs.Pusher, o.registry, o.logger).Run(ctx, evaluation); err != nil {
		return trainer, fmt.Errorf("pusher stage: %w", err)
	}

	o.logger.Info("pipeline run complete",
		"accuracy", trainer.Metrics.Accuracy, "f1", trainer.Metrics.F1)
	return trainer, nil
}

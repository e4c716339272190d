// Package entity holds the pure value objects threaded through the training
// pipeline: the run context, per-stage configs and per-stage artifacts.
package entity

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// RunContext identifies one orchestrator invocation. It is created once per
// run and immutable afterwards; every stage output path derives from it.
type RunContext struct {
	PipelineName string
	ArtifactRoot string
	RunID        string
	Timestamp    string
}

// NewRunContext creates the context for a fresh run, stamped with the
// current time.
func NewRunContext(pipelineName, artifactRoot string) RunContext {
	return RunContext{
		PipelineName: pipelineName,
		ArtifactRoot: artifactRoot,
		RunID:        uuid.NewString(),
		Timestamp:    time.Now().Format("02_01_06__15_04_05"),
	}
}

// RunDir returns the artifact directory for this run.
func (rc RunContext) RunDir() string {
	return filepath.Join(rc.ArtifactRoot, rc.Timestamp)
}

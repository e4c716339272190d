// Package serve implements the inference service: it loads the published
// model bundle, reconciles caller-supplied rows to the canonical schema,
// predicts, and maps class indices to response labels.
package serve

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/model"
	"github.com/vehicleml/vehicleml/internal/schema"
	"github.com/vehicleml/vehicleml/internal/store"
)

// Response labels returned to callers.
const (
	LabelYes = "Response-Yes"
	LabelNo  = "Response-No"
)

// DebugInfo exposes the transformed features of a request for inspection.
type DebugInfo struct {
	TransformedShape    [2]int    `json:"transformed_shape"`
	TransformedFirstRow []float64 `json:"transformed_first_row"`
}

// Service serves predictions against one shared, read-only bundle. The
// bundle is loaded from the registry on first use and cached across
// requests; Reload swaps it after a republish. Safe for concurrent use.
type Service struct {
	registry *store.ModelRegistry
	policy   schema.Policy
	codec    model.LabelCodec
	logger   *slog.Logger

	mu     sync.RWMutex
	bundle *model.Bundle
}

// NewService creates the inference service.
func NewService(registry *store.ModelRegistry, policy schema.Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		policy:   policy,
		codec:    model.NewLabelCodec(),
		logger:   logger,
	}
}

// PredictOne predicts the label for a single raw record. It goes through
// the same path as PredictMany so the two always agree.
func (s *Service) PredictOne(ctx context.Context, record dataset.Record) (string, error) {
	labels, err := s.PredictMany(ctx, []dataset.Record{record})
	if err != nil {
		return "", err
	}
	return labels[0], nil
}

// PredictMany predicts labels for a batch of raw records.
func (s *Service) PredictMany(ctx context.Context, records []dataset.Record) ([]string, error) {
	labels, _, err := s.predict(ctx, records, false)
	return labels, err
}

// PredictManyDebug is PredictMany plus the transformed features of the
// batch, for callers that asked for debug output.
func (s *Service) PredictManyDebug(ctx context.Context, records []dataset.Record) ([]string, *DebugInfo, error) {
	return s.predict(ctx, records, true)
}

// Reload drops the cached bundle so the next request fetches the freshly
// published one.
func (s *Service) Reload() {
	s.mu.Lock()
	s.bundle = nil
	s.mu.Unlock()
}

func (s *Service) predict(ctx context.Context, records []dataset.Record, debug bool) ([]string, *DebugInfo, error) {
	bundle, err := s.loadBundle(ctx)
	if err != nil {
		return nil, nil, err
	}

	frame, err := schema.Reconcile(records, s.policy)
	if err != nil {
		return nil, nil, err
	}

	var info *DebugInfo
	if debug {
		// Best-effort peek at the transformed features; failures here do not
		// affect the prediction itself.
		if features, err := bundle.TransformOnly(frame); err == nil && len(features) > 0 {
			info = &DebugInfo{
				TransformedShape:    [2]int{len(features), len(features[0])},
				TransformedFirstRow: features[0],
			}
		}
	}

	preds, err := bundle.Predict(frame)
	if err != nil {
		return nil, nil, err
	}

	labels := make([]string, len(preds))
	for i, p := range preds {
		labels[i] = s.responseLabel(int(p))
	}
	return labels, info, nil
}

func (s *Service) responseLabel(classIndex int) string {
	if s.codec.Label(classIndex) == "yes" {
		return LabelYes
	}
	return LabelNo
}

func (s *Service) loadBundle(ctx context.Context) (*model.Bundle, error) {
	s.mu.RLock()
	bundle := s.bundle
	s.mu.RUnlock()
	if bundle != nil {
		return bundle, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundle != nil {
		return s.bundle, nil
	}

	data, err := s.registry.Load(ctx)
	if err != nil {
		return nil, err
	}
	bundle, err = model.DecodeBundle(data)
	if err != nil {
		return nil, err
	}
	s.bundle = bundle
	s.logger.Info("model bundle loaded", "bucket", s.registry.Bucket(), "key", s.registry.Key())
	return bundle, nil
}

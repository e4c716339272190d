// Package source provides the tabular source: fetch-all access to a named
// collection of raw rows, used only at ingestion time.
package source

import (
	"context"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/mlerr"
)

// RowSource abstracts the tabular source. Callers must treat every call as
// potentially failing; no retries happen beneath this interface.
type RowSource interface {
	Ping(ctx context.Context) error
	FetchAll(ctx context.Context, collection string) ([]dataset.Record, error)
}

// MemorySource serves rows from memory, standing in for the real source in
// tests.
type MemorySource struct {
	Collections map[string][]dataset.Record
}

// NewMemorySource creates a memory source over the given collections.
func NewMemorySource(collections map[string][]dataset.Record) *MemorySource {
	return &MemorySource{Collections: collections}
}

func (s *MemorySource) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemorySource) FetchAll(ctx context.Context, collection string) ([]dataset.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, ok := s.Collections[collection]
	if !ok {
		return nil, mlerr.Newf(mlerr.CodeSourceUnavailable, "collection %q not found", collection)
	}
	return rows, nil
}

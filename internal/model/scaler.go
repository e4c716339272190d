package model

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/vehicleml/vehicleml/internal/dataset"
)

// MissingColumnsError reports the exact set of required columns a frame
// lacks, so callers can heal structurally instead of parsing message text.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("columns are missing: {%s}", strings.Join(e.Missing, ", "))
}

// StandardScaler standardizes each column to zero mean and unit variance.
// The column list fixed at fit time is the canonical schema every later
// transform expects. Fields are exported for gob.
type StandardScaler struct {
	Columns []string
	Mean    []float64
	Std     []float64
}

// NewStandardScaler creates an unfitted scaler over the given column order.
func NewStandardScaler(columns []string) *StandardScaler {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &StandardScaler{Columns: cols}
}

// Fit computes per-column mean and standard deviation from frame. Columns
// with zero variance scale by 1 to keep the transform defined.
func (s *StandardScaler) Fit(frame *dataset.Frame) error {
	idx, err := s.columnIndices(frame)
	if err != nil {
		return err
	}
	n := float64(frame.NumRows())
	if n == 0 {
		return fmt.Errorf("cannot fit scaler on empty frame")
	}

	s.Mean = make([]float64, len(s.Columns))
	s.Std = make([]float64, len(s.Columns))
	for j, src := range idx {
		sum := 0.0
		for _, row := range frame.Rows {
			sum += row[src]
		}
		mean := sum / n
		ss := 0.0
		for _, row := range frame.Rows {
			d := row[src] - mean
			ss += d * d
		}
		std := math.Sqrt(ss / n)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return nil
}

// Transform projects frame onto the fitted column order and standardizes it.
// A frame lacking required columns yields MissingColumnsError; extra columns
// are ignored. The input is never mutated.
func (s *StandardScaler) Transform(frame *dataset.Frame) ([][]float64, error) {
	if len(s.Mean) != len(s.Columns) {
		return nil, fmt.Errorf("scaler is not fitted")
	}
	idx, err := s.columnIndices(frame)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, frame.NumRows())
	for i, row := range frame.Rows {
		scaled := make([]float64, len(s.Columns))
		for j, src := range idx {
			scaled[j] = (row[src] - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits on frame and returns its transform.
func (s *StandardScaler) FitTransform(frame *dataset.Frame) ([][]float64, error) {
	if err := s.Fit(frame); err != nil {
		return nil, err
	}
	return s.Transform(frame)
}

// Save writes the fitted scaler to path, creating parent directories as
// needed.
func (s *StandardScaler) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("encode scaler: %w", err)
	}
	return f.Sync()
}

// LoadScaler reads a scaler written by Save.
func LoadScaler(path string) (*StandardScaler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	var s StandardScaler
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	return &s, nil
}

func (s *StandardScaler) columnIndices(frame *dataset.Frame) ([]int, error) {
	idx := make([]int, len(s.Columns))
	var missing []string
	for j, col := range s.Columns {
		i := frame.ColumnIndex(col)
		if i < 0 {
			missing = append(missing, col)
			continue
		}
		idx[j] = i
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	return idx, nil
}

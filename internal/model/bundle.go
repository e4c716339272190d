package model

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/mlerr"
)

// Transformer is the preprocessing contract a bundle carries: project and
// encode a frame into the feature matrix the classifier was trained on.
type Transformer interface {
	Transform(frame *dataset.Frame) ([][]float64, error)
}

func init() {
	// Concrete transformer types crossing the gob boundary.
	gob.Register(&StandardScaler{})
}

// Bundle is the atomic pairing of a fitted preprocessing transform and a
// fitted classifier. The two are persisted and loaded as one unit; the
// transform's output shape is the classifier's only valid input contract.
type Bundle struct {
	Transform  Transformer
	Classifier *LogisticRegression
}

// NewBundle pairs a fitted transform with a fitted classifier.
func NewBundle(transform Transformer, classifier *LogisticRegression) *Bundle {
	return &Bundle{Transform: transform, Classifier: classifier}
}

// Predict transforms frame and runs the classifier, returning raw numeric
// class indices. If the transform reports missing columns, each named column
// is inserted with value 0 and the transform retried exactly once; a second
// missing-column failure surfaces as a schema mismatch. Repeated healing
// would hide genuine train/serve drift.
func (b *Bundle) Predict(frame *dataset.Frame) ([]float64, error) {
	features, err := b.Transform.Transform(frame)
	if err != nil {
		var missing *MissingColumnsError
		if !errors.As(err, &missing) {
			return nil, mlerr.New(mlerr.CodePrediction, err)
		}
		for _, col := range missing.Missing {
			if !frame.HasColumn(col) {
				frame.AddColumn(col, 0)
			}
		}
		features, err = b.Transform.Transform(frame)
		if err != nil {
			return nil, mlerr.New(mlerr.CodeSchemaMismatch, err)
		}
	}

	preds, err := b.Classifier.Predict(features)
	if err != nil {
		return nil, mlerr.New(mlerr.CodePrediction, err)
	}
	return preds, nil
}

// TransformOnly exposes the transformed features without predicting, for
// debug inspection of the serving path.
func (b *Bundle) TransformOnly(frame *dataset.Frame) ([][]float64, error) {
	return b.Transform.Transform(frame)
}

// Encode serializes the bundle with gob.
func (b *Bundle) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBundle deserializes a bundle written by Encode.
func DecodeBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Transform == nil || b.Classifier == nil {
		return nil, fmt.Errorf("decoded bundle is incomplete")
	}
	return &b, nil
}

// Save writes the bundle to path, creating parent directories as needed.
func (b *Bundle) Save(path string) error {
	data, err := b.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadBundle reads a bundle written by Save.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return DecodeBundle(data)
}

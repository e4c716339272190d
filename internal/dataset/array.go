package dataset

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// SaveMatrix persists a numeric array to path using gob, creating parent
// directories as needed.
func SaveMatrix(path string, m [][]float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Sync()
}

// LoadMatrix reads a numeric array written by SaveMatrix.
func LoadMatrix(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	var m [][]float64
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}

package model

import (
	"fmt"
	"math"
	"math/rand"
)

// LogisticRegression is a binary classifier trained with mini-batch gradient
// descent. Fields are exported for gob; Predict is safe for concurrent use
// once the model is fitted.
type LogisticRegression struct {
	Weights []float64
	Bias    float64

	LearningRate float64
	Epochs       int
	BatchSize    int
	Seed         int64
}

// NewLogisticRegression creates an untrained model with the given
// hyperparameters. The seed makes re-training reproducible.
func NewLogisticRegression(learningRate float64, epochs, batchSize int, seed int64) *LogisticRegression {
	return &LogisticRegression{
		LearningRate: learningRate,
		Epochs:       epochs,
		BatchSize:    batchSize,
		Seed:         seed,
	}
}

// Fit trains on features X and binary labels y.
func (m *LogisticRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("cannot fit on empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ", len(X), len(y))
	}
	nFeatures := len(X[0])
	rng := rand.New(rand.NewSource(m.Seed))

	m.Weights = make([]float64, nFeatures)
	for i := range m.Weights {
		m.Weights[i] = rng.NormFloat64() * 0.01
	}
	m.Bias = 0

	batchSize := m.BatchSize
	if batchSize <= 0 || batchSize > len(X) {
		batchSize = len(X)
	}

	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < m.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += batchSize {
			end := start + batchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]

			gw := make([]float64, nFeatures)
			gb := 0.0
			for _, i := range batch {
				row := X[i]
				if len(row) != nFeatures {
					return fmt.Errorf("row %d has %d features, expected %d", i, len(row), nFeatures)
				}
				p := sigmoid(m.decision(row))
				d := (p - y[i]) / float64(len(batch)) // dBCE/dz
				for j, x := range row {
					gw[j] += d * x
				}
				gb += d
			}
			for j := range m.Weights {
				m.Weights[j] -= m.LearningRate * gw[j]
			}
			m.Bias -= m.LearningRate * gb
		}
	}
	return nil
}

// PredictProba returns the positive-class probability for each row.
func (m *LogisticRegression) PredictProba(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Weights) {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), len(m.Weights))
		}
		out[i] = sigmoid(m.decision(row))
	}
	return out, nil
}

// Predict returns class labels 0 or 1 at the 0.5 probability threshold.
func (m *LogisticRegression) Predict(X [][]float64) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func (m *LogisticRegression) decision(row []float64) float64 {
	sum := m.Bias
	for j, v := range row {
		sum += m.Weights[j] * v
	}
	return sum
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable returns a linearly separable toy set: label is 1 when the first
// feature is positive.
func separable() (X [][]float64, y []float64) {
	for i := 0; i < 40; i++ {
		sign := 1.0
		label := 1.0
		if i%2 == 0 {
			sign = -1
			label = 0
		}
		X = append(X, []float64{sign * (1 + float64(i%7)), float64(i%3) - 1})
		y = append(y, label)
	}
	return X, y
}

func TestLogisticRegression_LearnsSeparableData(t *testing.T) {
	X, y := separable()
	clf := NewLogisticRegression(0.5, 200, 0, 1)
	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Predict(X)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, Accuracy(y, pred), 0.95)
}

func TestLogisticRegression_Deterministic(t *testing.T) {
	X, y := separable()

	a := NewLogisticRegression(0.5, 50, 8, 7)
	b := NewLogisticRegression(0.5, 50, 8, 7)
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.Bias, b.Bias)
}

func TestLogisticRegression_FeatureCountMismatch(t *testing.T) {
	X, y := separable()
	clf := NewLogisticRegression(0.5, 10, 0, 1)
	require.NoError(t, clf.Fit(X, y))

	_, err := clf.Predict([][]float64{{1, 2, 3}})
	require.Error(t, err)
}

func TestLogisticRegression_EmptyTrainingSet(t *testing.T) {
	clf := NewLogisticRegression(0.5, 10, 0, 1)
	require.Error(t, clf.Fit(nil, nil))
}

func TestEvaluate(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0, 1}
	yPred := []float64{1, 0, 0, 1, 1}

	r := Evaluate(yTrue, yPred)
	assert.InDelta(t, 0.6, r.Accuracy, 1e-9)
	assert.InDelta(t, 2.0/3.0, r.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, r.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, r.F1, 1e-9)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/mlerr"
)

func fittedBundle(t *testing.T) *Bundle {
	t.Helper()
	frame := twoColFrame([]float64{2, 0}, []float64{-2, 0}, []float64{3, 1}, []float64{-3, 1})

	scaler := NewStandardScaler([]string{"a", "b"})
	X, err := scaler.FitTransform(frame)
	require.NoError(t, err)

	clf := NewLogisticRegression(0.5, 200, 0, 1)
	require.NoError(t, clf.Fit(X, []float64{1, 0, 1, 0}))
	return NewBundle(scaler, clf)
}

func TestBundle_Predict(t *testing.T) {
	b := fittedBundle(t)
	frame := twoColFrame([]float64{2.5, 0}, []float64{-2.5, 1})

	preds, err := b.Predict(frame)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, preds)
}

func TestBundle_PredictHealsMissingColumnOnce(t *testing.T) {
	b := fittedBundle(t)

	// frame lacks column "b"; the bundle must zero-fill it and retry once
	partial := dataset.NewFrame([]string{"a"})
	require.NoError(t, partial.AppendRow([]float64{2.5}))

	preds, err := b.Predict(partial)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.True(t, partial.HasColumn("b"))
}

// brokenTransform always reports the same missing column, no matter what is
// inserted, simulating a transform whose schema the frame can never satisfy.
type brokenTransform struct {
	calls int
}

func (bt *brokenTransform) Transform(*dataset.Frame) ([][]float64, error) {
	bt.calls++
	return nil, &MissingColumnsError{Missing: []string{"ghost_column"}}
}

func TestBundle_PredictRetriesExactlyOnce(t *testing.T) {
	bt := &brokenTransform{}
	b := NewBundle(bt, NewLogisticRegression(0.5, 1, 0, 1))

	frame := dataset.NewFrame([]string{"a"})
	require.NoError(t, frame.AppendRow([]float64{1}))

	_, err := b.Predict(frame)
	require.Error(t, err)
	assert.True(t, mlerr.HasCode(err, mlerr.CodeSchemaMismatch))
	assert.Equal(t, 2, bt.calls)
}

func TestBundle_EncodeDecodeRoundTrip(t *testing.T) {
	b := fittedBundle(t)
	data, err := b.Encode()
	require.NoError(t, err)

	loaded, err := DecodeBundle(data)
	require.NoError(t, err)

	frame := twoColFrame([]float64{2.5, 0}, []float64{-2.5, 1})
	want, err := b.Predict(frame)
	require.NoError(t, err)

	frame2 := twoColFrame([]float64{2.5, 0}, []float64{-2.5, 1})
	got, err := loaded.Predict(frame2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeBundle_RejectsGarbage(t *testing.T) {
	_, err := DecodeBundle([]byte("not a bundle"))
	require.Error(t, err)
}

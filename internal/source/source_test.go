package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/mlerr"
)

func TestMemorySource_FetchAll(t *testing.T) {
	src := NewMemorySource(map[string][]dataset.Record{
		"vehicle_data": {{"Age": dataset.Number(30)}},
	})

	records, err := src.FetchAll(context.Background(), "vehicle_data")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestMemorySource_UnknownCollection(t *testing.T) {
	src := NewMemorySource(nil)

	_, err := src.FetchAll(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, mlerr.HasCode(err, mlerr.CodeSourceUnavailable))
}

func TestMemorySource_CancelledContext(t *testing.T) {
	src := NewMemorySource(map[string][]dataset.Record{"c": nil})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, src.Ping(ctx))
	_, err := src.FetchAll(ctx, "c")
	assert.Error(t, err)
}

func TestNewPostgresSource_RequiresDSN(t *testing.T) {
	_, err := NewPostgresSource(context.Background(), "", 0)
	require.Error(t, err)
	assert.True(t, mlerr.HasCode(err, mlerr.CodeSourceUnavailable))
}

func TestCellValue(t *testing.T) {
	assert.True(t, cellValue(nil).IsMissing())
	assert.True(t, cellValue("na").IsMissing())
	assert.True(t, cellValue(" NA ").IsMissing())
	assert.True(t, cellValue([]byte("na")).IsMissing())

	s, ok := cellValue("Male").AsString()
	assert.True(t, ok)
	assert.Equal(t, "Male", s)

	for _, v := range []any{float64(7), float32(7), int64(7), int32(7), int16(7)} {
		n, ok := cellValue(v).AsNumber()
		assert.True(t, ok, "%T", v)
		assert.Equal(t, 7.0, n, "%T", v)
	}

	b, ok := cellValue(true).AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 1.0, b)
}

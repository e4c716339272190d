package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/vehicleml/vehicleml/internal/config"
	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/model"
	"github.com/vehicleml/vehicleml/internal/schema"
	"github.com/vehicleml/vehicleml/internal/serve"
	"github.com/vehicleml/vehicleml/internal/source"
	"github.com/vehicleml/vehicleml/internal/store"
)

func trainingRecords(n int) []dataset.Record {
	records := make([]dataset.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := dataset.Record{
			"Gender":               dataset.String("Male"),
			"Driving_License":      dataset.Number(1),
			"Region_Code":          dataset.Number(28),
			"Policy_Sales_Channel": dataset.Number(124),
			"Vintage":              dataset.Number(float64(40 + i%7)),
		}
		if i%2 == 0 {
			rec["Age"] = dataset.Number(62)
			rec["Previously_Insured"] = dataset.Number(0)
			rec["Vehicle_Age"] = dataset.String("> 2 Years")
			rec["Vehicle_Damage"] = dataset.String("Yes")
			rec["Annual_Premium"] = dataset.Number(45000)
			rec["Response"] = dataset.Number(1)
		} else {
			rec["Age"] = dataset.Number(23)
			rec["Previously_Insured"] = dataset.Number(1)
			rec["Vehicle_Age"] = dataset.String("< 1 Year")
			rec["Vehicle_Damage"] = dataset.String("No")
			rec["Annual_Premium"] = dataset.Number(28000)
			rec["Response"] = dataset.Number(0)
		}
		records = append(records, rec)
	}
	return records
}

func publishTestBundle(t *testing.T, registry *store.ModelRegistry) {
	t.Helper()
	records := trainingRecords(20)

	frame, err := schema.Reconcile(records, schema.DefaultPolicy())
	require.NoError(t, err)
	scaler := model.NewStandardScaler(schema.Columns())
	features, err := scaler.FitTransform(frame)
	require.NoError(t, err)

	labels, err := schema.Labels(records, schema.DefaultPolicy())
	require.NoError(t, err)
	clf := model.NewLogisticRegression(0.5, 300, 0, 42)
	require.NoError(t, clf.Fit(features, labels))

	data, err := model.NewBundle(scaler, clf).Encode()
	require.NoError(t, err)
	require.NoError(t, registry.Save(context.Background(), data))
}

func newTestServer(t *testing.T, src source.RowSource) *server {
	t.Helper()
	cfg := &config.Config{
		Store: config.StoreConfig{
			Bucket:   "vehicleml-models",
			ModelKey: "model-registry/model.gob",
		},
		Source: config.SourceConfig{Collection: "vehicle_data"},
		Pipeline: config.PipelineConfig{
			Name:             "vehicleml",
			ArtifactRoot:     t.TempDir(),
			SplitRatio:       0.25,
			SplitSeed:        6,
			ExpectedAccuracy: 0.8,
			LearningRate:     0.5,
			Epochs:           300,
			BatchSize:        0,
			TrainSeed:        42,
		},
		ExternalCallTimeoutSecs: 30,
	}
	registry := store.NewModelRegistry(store.NewLocalStore(t.TempDir()),
		cfg.Store.Bucket, cfg.Store.ModelKey, cfg.ExternalCallTimeout())
	publishTestBundle(t, registry)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &server{
		cfg:          cfg,
		service:      serve.NewService(registry, schema.DefaultPolicy(), logger),
		source:       src,
		registry:     registry,
		logger:       logger,
		trainLimiter: rate.NewLimiter(rate.Every(time.Minute), 1),
	}
}

func doRequest(srv *server, handler echo.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = handler(c)
	return rec
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestPredictHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, srv.predictHandler, formRequest(url.Values{
		"Gender":             {"Male"},
		"Age":                {"62"},
		"Previously_Insured": {"0"},
		"Vehicle_Age":        {"> 2 Years"},
		"Vehicle_Damage":     {"Yes"},
		"Annual_Premium":     {"45000"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, []string{serve.LabelYes, serve.LabelNo}, body["prediction"])
}

func TestPredictBatchHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	payload := `{"rows": [
		{"Gender": "Male", "Age": 62, "Vehicle_Damage": "Yes", "Annual_Premium": 45000},
		{"Gender": "Female", "Age": 23, "Vehicle_Damage": "No", "Annual_Premium": 28000}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/predict_batch", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(srv, srv.predictBatchHandler, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Predictions, 2)
	assert.Nil(t, body.Debug)
}

func TestPredictBatchHandler_Debug(t *testing.T) {
	srv := newTestServer(t, nil)

	payload := `{"debug": true, "rows": [{"Age": 62, "Vehicle_Damage": "Yes"}]}`
	req := httptest.NewRequest(http.MethodPost, "/predict_batch", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(srv, srv.predictBatchHandler, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Debug)
	assert.Equal(t, [2]int{1, len(schema.Columns())}, body.Debug.TransformedShape)
}

func TestPredictBatchHandler_EmptyRows(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/predict_batch", strings.NewReader(`{"rows": []}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(srv, srv.predictBatchHandler, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "rows")
}

func TestTrainHandler_NoSource(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/train", nil)
	rec := doRequest(srv, srv.trainHandler, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error Occurred!")
}

func TestTrainHandler_Success(t *testing.T) {
	src := source.NewMemorySource(map[string][]dataset.Record{
		"vehicle_data": trainingRecords(40),
	})
	srv := newTestServer(t, src)

	req := httptest.NewRequest(http.MethodGet, "/train", nil)
	rec := doRequest(srv, srv.trainHandler, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Training successful!!!", rec.Body.String())
}

func TestTrainHandler_RateLimited(t *testing.T) {
	src := source.NewMemorySource(map[string][]dataset.Record{
		"vehicle_data": trainingRecords(40),
	})
	srv := newTestServer(t, src)

	first := doRequest(srv, srv.trainHandler, httptest.NewRequest(http.MethodGet, "/train", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(srv, srv.trainHandler, httptest.NewRequest(http.MethodGet, "/train", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestIndexHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, srv.indexHandler, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, col := range schema.Columns() {
		assert.Contains(t, rec.Body.String(), col)
	}
}

func TestFormPredictHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, srv.formPredictHandler, formRequest(url.Values{
		"Age":            {"62"},
		"Vehicle_Damage": {"Yes"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Response-")
}

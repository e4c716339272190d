package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/vehicleml/vehicleml/internal/config"
	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/entity"
	"github.com/vehicleml/vehicleml/internal/pipeline"
	"github.com/vehicleml/vehicleml/internal/schema"
	"github.com/vehicleml/vehicleml/internal/serve"
	"github.com/vehicleml/vehicleml/internal/source"
	"github.com/vehicleml/vehicleml/internal/store"
)

type server struct {
	cfg          *config.Config
	service      *serve.Service
	source       source.RowSource
	registry     *store.ModelRegistry
	logger       *slog.Logger
	trainLimiter *rate.Limiter
}

type batchRequest struct {
	Rows  []map[string]any `json:"rows"`
	Debug bool             `json:"debug"`
}

type batchResponse struct {
	Predictions []string         `json:"predictions"`
	Debug       *serve.DebugInfo `json:"debug,omitempty"`
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(http.StatusOK, map[string]string{"error": err.Error()})
}

func (s *server) indexHandler(c echo.Context) error {
	return c.HTML(http.StatusOK, indexPage(""))
}

// formPredictHandler serves the HTML form flow: predict and render the
// result into the page.
func (s *server) formPredictHandler(c echo.Context) error {
	record, err := recordFromForm(c)
	if err != nil {
		return errorJSON(c, err)
	}
	label, err := s.service.PredictOne(c.Request().Context(), record)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.HTML(http.StatusOK, indexPage(label))
}

func (s *server) predictHandler(c echo.Context) error {
	record, err := recordFromForm(c)
	if err != nil {
		return errorJSON(c, err)
	}
	label, err := s.service.PredictOne(c.Request().Context(), record)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"prediction": label})
}

func (s *server) predictBatchHandler(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, fmt.Errorf("provide 'rows' as a list of objects"))
	}
	if len(req.Rows) == 0 {
		return errorJSON(c, fmt.Errorf("provide 'rows' as a list of objects"))
	}

	records := make([]dataset.Record, len(req.Rows))
	for i, row := range req.Rows {
		records[i] = dataset.RecordFromAny(row)
	}

	if req.Debug {
		labels, info, err := s.service.PredictManyDebug(c.Request().Context(), records)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, batchResponse{Predictions: labels, Debug: info})
	}

	labels, err := s.service.PredictMany(c.Request().Context(), records)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, batchResponse{Predictions: labels})
}

// trainHandler triggers a full pipeline run. The response is plain text,
// never structured.
func (s *server) trainHandler(c echo.Context) error {
	if s.source == nil {
		return c.String(http.StatusOK, "Error Occurred! no tabular source configured")
	}
	if !s.trainLimiter.Allow() {
		return c.String(http.StatusTooManyRequests, "Error Occurred! a training run was started too recently")
	}

	run := entity.NewRunContext(s.cfg.Pipeline.Name, s.cfg.Pipeline.ArtifactRoot)
	cfgs := entity.NewStageConfigs(run, s.cfg)
	orch := pipeline.NewOrchestrator(run, cfgs, s.source, s.registry, schema.DefaultPolicy(), s.logger)

	if _, err := orch.Run(c.Request().Context()); err != nil {
		return c.String(http.StatusOK, fmt.Sprintf("Error Occurred! %v", err))
	}
	s.service.Reload()
	return c.String(http.StatusOK, "Training successful!!!")
}

// recordFromForm builds a raw record from the submitted form fields. Every
// field arrives as text; reconciliation handles the typing.
func recordFromForm(c echo.Context) (dataset.Record, error) {
	params, err := c.FormParams()
	if err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	record := make(dataset.Record, len(params))
	for key, vals := range params {
		if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
			record[key] = dataset.Missing()
			continue
		}
		record[key] = dataset.String(vals[0])
	}
	return record, nil
}

// indexPage renders the input form with an optional prediction result. The
// full frontend lives elsewhere; this page exists so the server is usable
// standalone.
func indexPage(result string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><title>Vehicle Insurance Prediction</title></head><body>`)
	b.WriteString(`<h1>Vehicle Insurance Cross-Sell</h1>`)
	if result != "" {
		b.WriteString(`<p><strong>` + result + `</strong></p>`)
	}
	b.WriteString(`<form method="post" action="/">`)
	for _, col := range schema.Columns() {
		b.WriteString(`<label>` + col + ` <input name="` + col + `"></label><br>`)
	}
	b.WriteString(`<button type="submit">Predict</button></form></body></html>`)
	return b.String()
}

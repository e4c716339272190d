// Command server runs the vehicleml HTTP server: prediction endpoints
// backed by the published model bundle, and the training pipeline trigger.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/vehicleml/vehicleml/internal/config"
	"github.com/vehicleml/vehicleml/internal/schema"
	"github.com/vehicleml/vehicleml/internal/serve"
	"github.com/vehicleml/vehicleml/internal/source"
	"github.com/vehicleml/vehicleml/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// One object-store client per process, shared by serving and publishing.
	var objectStore store.ObjectStore
	if cfg.Store.EndpointURL != "" {
		s3, err := store.NewS3Client(cfg.Store)
		if err != nil {
			log.Fatalf("connect object store: %v", err)
		}
		objectStore = s3
	} else {
		logger.Warn("no store endpoint configured, using local filesystem store")
		objectStore = store.NewLocalStore("")
	}
	registry := store.NewModelRegistry(objectStore, cfg.Store.Bucket, cfg.Store.ModelKey, cfg.ExternalCallTimeout())

	// One source pool per process; training is optional when no DSN is set.
	var rowSource source.RowSource
	if cfg.Source.DSN != "" {
		pg, err := source.NewPostgresSource(context.Background(), cfg.Source.DSN, cfg.ExternalCallTimeout())
		if err != nil {
			log.Fatalf("connect tabular source: %v", err)
		}
		defer pg.Close()
		rowSource = pg
	} else {
		logger.Warn("no source DSN configured, /train will be unavailable")
	}

	svc := serve.NewService(registry, schema.DefaultPolicy(), logger)

	srv := &server{
		cfg:      cfg,
		service:  svc,
		source:   rowSource,
		registry: registry,
		logger:   logger,
		// A full pipeline run is heavy; allow at most one start per minute.
		trainLimiter: rate.NewLimiter(rate.Every(time.Minute), 1),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	e.GET("/", srv.indexHandler)
	e.POST("/", srv.formPredictHandler)
	e.GET("/train", srv.trainHandler)
	e.POST("/predict", srv.predictHandler)
	e.POST("/predict_batch", srv.predictBatchHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server listening", "addr", addr)
	if err := e.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// Package config provides configuration loading for the vehicleml server and
// training pipeline. Values come from an optional YAML file with environment
// variables taking precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig holds remote model store (S3/MinIO) settings.
type StoreConfig struct {
	EndpointURL     string `yaml:"endpointUrl"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	Region          string `yaml:"region"`
	UseSSL          bool   `yaml:"useSSL"`
	Bucket          string `yaml:"bucket"`
	ModelKey        string `yaml:"modelKey"`
}

// SourceConfig holds tabular source (Postgres) settings.
type SourceConfig struct {
	DSN        string `yaml:"dsn"`
	Collection string `yaml:"collection"`
}

// PipelineConfig holds training pipeline tunables.
type PipelineConfig struct {
	Name             string  `yaml:"name"`
	ArtifactRoot     string  `yaml:"artifactRoot"`
	SplitRatio       float64 `yaml:"splitRatio"`
	SplitSeed        int64   `yaml:"splitSeed"`
	ExpectedAccuracy float64 `yaml:"expectedAccuracy"`
	LearningRate     float64 `yaml:"learningRate"`
	Epochs           int     `yaml:"epochs"`
	BatchSize        int     `yaml:"batchSize"`
	TrainSeed        int64   `yaml:"trainSeed"`
}

// Config is the full process configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Source   SourceConfig   `yaml:"source"`
	Pipeline PipelineConfig `yaml:"pipeline"`

	// ExternalCallTimeoutSecs bounds every call to the store and source.
	ExternalCallTimeoutSecs int `yaml:"externalCallTimeoutSecs"`
}

// Load builds a Config from defaults, an optional YAML file named by
// VEHICLEML_CONFIG_FILE, and environment variable overrides, in that order.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("VEHICLEML_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// ExternalCallTimeout returns the timeout for store/source calls.
func (c *Config) ExternalCallTimeout() time.Duration {
	return time.Duration(c.ExternalCallTimeoutSecs) * time.Second
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 5000},
		Store: StoreConfig{
			Region:   "us-east-1",
			Bucket:   "vehicleml-models",
			ModelKey: "model-registry/model.gob",
		},
		Source: SourceConfig{Collection: "vehicle_data"},
		Pipeline: PipelineConfig{
			Name:             "vehicleml",
			ArtifactRoot:     "artifact",
			SplitRatio:       0.25,
			SplitSeed:        6,
			ExpectedAccuracy: 0.6,
			LearningRate:     0.1,
			Epochs:           50,
			BatchSize:        64,
			TrainSeed:        42,
		},
		ExternalCallTimeoutSecs: 30,
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("VEHICLEML_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("VEHICLEML_PORT", cfg.Server.Port)

	cfg.Store.EndpointURL = getEnv("VEHICLEML_STORE_ENDPOINT", cfg.Store.EndpointURL)
	cfg.Store.AccessKeyID = getEnv("VEHICLEML_STORE_ACCESS_KEY", cfg.Store.AccessKeyID)
	cfg.Store.SecretAccessKey = getEnv("VEHICLEML_STORE_SECRET_KEY", cfg.Store.SecretAccessKey)
	cfg.Store.Region = getEnv("VEHICLEML_STORE_REGION", cfg.Store.Region)
	cfg.Store.Bucket = getEnv("VEHICLEML_MODEL_BUCKET", cfg.Store.Bucket)
	cfg.Store.ModelKey = getEnv("VEHICLEML_MODEL_KEY", cfg.Store.ModelKey)

	cfg.Source.DSN = getEnv("VEHICLEML_SOURCE_DSN", cfg.Source.DSN)
	cfg.Source.Collection = getEnv("VEHICLEML_SOURCE_COLLECTION", cfg.Source.Collection)

	cfg.Pipeline.ArtifactRoot = getEnv("VEHICLEML_ARTIFACT_ROOT", cfg.Pipeline.ArtifactRoot)
	cfg.Pipeline.SplitRatio = getEnvFloat("VEHICLEML_SPLIT_RATIO", cfg.Pipeline.SplitRatio)
	cfg.Pipeline.ExpectedAccuracy = getEnvFloat("VEHICLEML_EXPECTED_ACCURACY", cfg.Pipeline.ExpectedAccuracy)
	cfg.Pipeline.Epochs = getEnvInt("VEHICLEML_EPOCHS", cfg.Pipeline.Epochs)

	cfg.ExternalCallTimeoutSecs = getEnvInt("VEHICLEML_EXTERNAL_TIMEOUT_SECS", cfg.ExternalCallTimeoutSecs)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds the settings shared by the NutriLog binaries.
// Database settings are read separately by database.ConfigFromEnv.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string
	RequireTLS  bool

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	StorageBackend string
	RedisAddr      string
	RedisPassword  string

	USDAAPIKey  string
	USDABaseURL string

	Timezone string

	OTLPEndpoint    string
	OTelEnabled     bool
	OTelSampleRatio float64

	PubSubProjectID    string
	PubSubTopic        string
	PubSubSubscription string
	WorkerConcurrency  int
}

// Load reads an optional .env file and then the environment.
// A missing .env file is not an error.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables alone.
func FromEnv() (Config, error) {
	concurrency, err := strconv.Atoi(getEnvOrDefault("WORKER_CONCURRENCY", "4"))
	if err != nil || concurrency < 1 {
		return Config{}, fmt.Errorf("WORKER_CONCURRENCY must be a positive integer")
	}

	ratio, err := strconv.ParseFloat(getEnvOrDefault("OTEL_SAMPLE_RATIO", "1"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("OTEL_SAMPLE_RATIO: %w", err)
	}

	cfg := Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Environment:        getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "json"),
		RequireTLS:         os.Getenv("REQUIRE_TLS") == "true",
		JWTSigningKey:      os.Getenv("JWT_SIGNING_KEY"),
		JWTIssuer:          getEnvOrDefault("JWT_ISSUER", "https://api.nutrilog.app"),
		JWTAudience:        getEnvOrDefault("JWT_AUDIENCE", "nutrilog-api"),
		StorageBackend:     strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageMemory)),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		USDAAPIKey:         os.Getenv("USDA_API_KEY"),
		USDABaseURL:        getEnvOrDefault("USDA_BASE_URL", "https://api.nal.usda.gov/fdc/v1"),
		Timezone:           getEnvOrDefault("TIMEZONE", "UTC"),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelEnabled:        os.Getenv("OTEL_ENABLED") == "true",
		OTelSampleRatio:    ratio,
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubTopic:        getEnvOrDefault("PUBSUB_TOPIC", "nutrilog-jobs"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "nutrilog-jobs-worker"),
		WorkerConcurrency:  concurrency,
	}

	switch cfg.StorageBackend {
	case StorageMemory, StoragePostgres:
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageMemory, StoragePostgres, cfg.StorageBackend)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("TIMEZONE: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the process runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds the process logger. LOG_FORMAT=console switches to the
// human-readable writer; anything else emits JSON.
func (c Config) NewLogger(w io.Writer, service, version string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

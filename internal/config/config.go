package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Environment string
	LogLevel    string

	HTTPAddr string
	GRPCAddr string

	DataBackend string
	DatabaseURL string
	DBDriver    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL      time.Duration
	AuthAutoConfirm bool

	KafkaBrokers []string

	PublicBaseURL string
	ImageBucket   string

	// CORSAllowedOrigin is the only browser origin allowed to call the API.
	CORSAllowedOrigin string
}

// LoadEnv loads .env.local when APP_ENV is "local".
func LoadEnv() {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
		os.Setenv("APP_ENV", appEnv)
	}

	if appEnv != "local" {
		return
	}
	if err := godotenv.Load(".env.local"); err != nil {
		slog.Warn(".env.local not loaded, relying on system environment", "err", err)
		return
	}
	slog.Info("Loaded .env.local for local development")
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	LoadEnv()

	cfg := &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:      getEnv("GRPC_ADDR", ":9090"),
		DataBackend:   getEnv("DATA_BACKEND", BackendMemory),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBDriver:      getEnv("DB_DRIVER", "postgres"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		ImageBucket:   getEnv("IMAGE_BUCKET", "product-images"),

		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.AuthAutoConfirm, err = getBool("AUTH_AUTO_CONFIRM", false); err != nil {
		return nil, err
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	switch cfg.DataBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when DATA_BACKEND is postgres")
		}
	default:
		return nil, fmt.Errorf("DATA_BACKEND must be %q or %q, got %q", BackendMemory, BackendPostgres, cfg.DataBackend)
	}

	return cfg, nil
}

// IsProduction reports whether the process runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

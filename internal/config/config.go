package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"stockdash/m/internal/forecast"
)

// Config holds application configuration values.
type Config struct {
	Secret        string
	HTTPPort      string
	DataDir       string
	StoreDriver   string
	DatabaseDSN   string
	AdminUser     string
	AdminPassword string
	LogLevel      string
	LogFormat     string
	SeedDemo      bool
	LowStock      int64
	Forecast      forecast.Config
}

// Load reads configuration from the environment and an optional .env file,
// falling back to reasonable defaults.
func Load(logger *logrus.Logger) Config {
	_ = godotenv.Load()

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	cfg := Config{
		Secret:        getenv("SECRET", "dev_secret"),
		HTTPPort:      getenv("HTTP_PORT", "8080"),
		DataDir:       getenv("DATA_DIR", "data"),
		StoreDriver:   strings.ToLower(getenv("STORE_DRIVER", "csv")),
		AdminUser:     getenv("ADMIN_USER", "admin"),
		AdminPassword: getenv("ADMIN_PASSWORD", "inventory123"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "json"),
		SeedDemo:      true,
		LowStock:      5,
		Forecast:      forecast.DefaultConfig(),
	}
	cfg.DatabaseDSN = getenv("DATABASE_DSN", filepath.Join(cfg.DataDir, "stockdash.db"))

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		logger.Warnf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}

	if cfg.StoreDriver != "csv" && cfg.StoreDriver != "sqlite" {
		logger.Warnf("unknown STORE_DRIVER %q, defaulting to csv", cfg.StoreDriver)
		cfg.StoreDriver = "csv"
	}

	if v := os.Getenv("SEED_DEMO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warnf("invalid SEED_DEMO value %q, defaulting to true", v)
		} else {
			cfg.SeedDemo = b
		}
	}

	cfg.LowStock = int64(positiveInt(logger, "LOW_STOCK_THRESHOLD", int(cfg.LowStock)))
	cfg.Forecast.Horizon = positiveInt(logger, "FORECAST_HORIZON", cfg.Forecast.Horizon)
	cfg.Forecast.MinHistory = positiveInt(logger, "FORECAST_MIN_HISTORY", cfg.Forecast.MinHistory)
	cfg.Forecast.Workers = positiveInt(logger, "FORECAST_WORKERS", 4)

	if v := os.Getenv("FORECAST_ORDER"); v != "" {
		order, err := forecast.ParseOrder(v)
		if err != nil {
			logger.Warnf("invalid FORECAST_ORDER value %q, defaulting to %s", v, cfg.Forecast.Order)
		} else {
			cfg.Forecast.Order = order
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveInt(logger *logrus.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warnf("invalid %s value %q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

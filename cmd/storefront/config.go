package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/levelup/storefront/internal/receipts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	HTTPPort        string
	BackendURL      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	RedisAddr       string
	RedisPassword   string
	SessionTTL      time.Duration
	SessionIdleTTL  time.Duration
	// Receipts.Driver is empty when the ledger is disabled.
	Receipts     receipts.Config
	KafkaBrokers []string
	LogLevel     string
	AppEnv       string
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:8081/api"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		SessionTTL:      getDuration("SESSION_TTL", 7*24*time.Hour),
		SessionIdleTTL:  getDuration("SESSION_IDLE_TTL", 30*time.Minute),
		Receipts:        loadReceiptsConfig(),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AppEnv:          getEnv("APP_ENV", "production"),
	}
}

func loadReceiptsConfig() receipts.Config {
	cfg := receipts.Config{
		Driver:            getEnv("RECEIPTS_DRIVER", receipts.DriverSQLite),
		DSN:               getEnv("RECEIPTS_DSN", ""),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "internal/receipts/migrations"),
	}
	if cfg.Driver == "none" {
		return receipts.Config{}
	}
	if cfg.DSN != "" {
		return cfg
	}

	switch cfg.Driver {
	case receipts.DriverPostgres:
		cfg.DSN = receipts.Credentials{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "storefront"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "storefront"),
		}.DSN()
	default:
		cfg.DSN = "storefront.db"
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newLogger(cfg *Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.AppEnv == "development" {
		zc = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

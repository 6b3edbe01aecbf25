// Package config reads server and CLI settings from the environment.
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

	"github.com/mmynk/hostledger/internal/money"
	"github.com/mmynk/hostledger/internal/ratefeed"
	"github.com/mmynk/hostledger/internal/storage/sqlstore"
)

// Config holds everything the binaries need to start.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// DBDriver is sqlstore.DriverSQLite or sqlstore.DriverPostgres.
	DBDriver string
	// DBDSN is a file path for sqlite or a connection URL for postgres.
	DBDSN string
	// JWTSecret signs and verifies session tokens. Empty disables auth.
	JWTSecret string
	// TokenTTL is how long issued tokens remain valid.
	TokenTTL time.Duration
	// ReportingCurrency is the currency ledger entries and balances are kept in.
	ReportingCurrency string
	RateFeedURL       string
	RateFeedRPS       float64
	RateFeedBurst     int
	// RateFeedCurrencies are synced into ReportingCurrency by the server.
	// Empty disables the background sync.
	RateFeedCurrencies []string
	RateFeedInterval   time.Duration
	LogLevel          string
	LogFormat         string
}

// Load reads an optional .env file and then the process environment.
// Explicit environment variables win over .env values.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to read .env", "error", err)
	}
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DBDriver:          getEnv("DB_DRIVER", sqlstore.DriverSQLite),
		DBDSN:             getEnv("DB_DSN", "./data/hostledger.db"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ReportingCurrency: getEnv("REPORTING_CURRENCY", "THB"),
		RateFeedURL:       getEnv("RATE_FEED_URL", ratefeed.DefaultBaseURL),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.RateFeedRPS, err = strconv.ParseFloat(getEnv("RATE_FEED_RPS", "1"), 64); err != nil || cfg.RateFeedRPS <= 0 {
		return Config{}, fmt.Errorf("invalid RATE_FEED_RPS %q", os.Getenv("RATE_FEED_RPS"))
	}
	if cfg.RateFeedBurst, err = strconv.Atoi(getEnv("RATE_FEED_BURST", "2")); err != nil || cfg.RateFeedBurst < 1 {
		return Config{}, fmt.Errorf("invalid RATE_FEED_BURST %q", os.Getenv("RATE_FEED_BURST"))
	}

	if cfg.RateFeedInterval, err = time.ParseDuration(getEnv("RATE_FEED_INTERVAL", "24h")); err != nil || cfg.RateFeedInterval <= 0 {
		return Config{}, fmt.Errorf("invalid RATE_FEED_INTERVAL %q", os.Getenv("RATE_FEED_INTERVAL"))
	}
	for _, c := range strings.Split(os.Getenv("RATE_FEED_CURRENCIES"), ",") {
		if c = strings.TrimSpace(c); c == "" {
			continue
		}
		code, err := money.NormalizeCurrency(c)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RATE_FEED_CURRENCIES: %w", err)
		}
		cfg.RateFeedCurrencies = append(cfg.RateFeedCurrencies, code)
	}

	switch cfg.DBDriver {
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.ReportingCurrency, err = money.NormalizeCurrency(cfg.ReportingCurrency); err != nil {
		return Config{}, fmt.Errorf("invalid REPORTING_CURRENCY: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

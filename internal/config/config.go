package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	TelegramToken  string
	OwnerID        int64
	HTTPAddr       string
	DatabaseURL    string
	ReportInterval time.Duration
	ReportTime     string
}

// Load reads an optional .env file and then the environment, applying defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		TelegramToken:  strings.TrimSpace(getenv("TELEGRAM_TOKEN")),
		HTTPAddr:       strings.TrimSpace(getenv("HTTP_ADDR")),
		DatabaseURL:    strings.TrimSpace(getenv("DATABASE_URL")),
		ReportInterval: parseInterval(strings.TrimSpace(getenv("REPORT_INTERVAL_HOURS"))),
		ReportTime:     strings.TrimSpace(getenv("REPORT_TIME")),
	}

	if raw := strings.TrimSpace(getenv("OWNER_TELEGRAM_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("OWNER_TELEGRAM_ID must be a number: %w", err)
		}
		cfg.OwnerID = id
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 24 * time.Hour
	}

	if cfg.TelegramToken == "" && cfg.HTTPAddr == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN or HTTP_ADDR is required")
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the planner.
type Config struct {
	TelegramToken   string
	DatabaseURL     string
	DemoDataFile    string
	ReportInterval  time.Duration
	DailyReportTime string
	Location        *time.Location
	LogLevel        string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DemoDataFile:    strings.TrimSpace(os.Getenv("DEMO_DATA_FILE")),
		ReportInterval:  parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		DailyReportTime: strings.TrimSpace(os.Getenv("DAILY_REPORT_TIME")),
		LogLevel:        strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		Location:        time.Local,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "task_planner.db"
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	// The interval report is the fallback when no fixed daily time is set.
	if cfg.ReportInterval == 0 && cfg.DailyReportTime == "" {
		cfg.ReportInterval = 5 * time.Hour
	}

	return cfg, nil
}

// RequireTelegram fails when the bot cannot be started with cfg.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// LocalTime returns now in the configured location.
func (c Config) LocalTime(now time.Time) time.Time {
	if c.Location == nil {
		return now
	}
	return now.In(c.Location)
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

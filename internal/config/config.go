// Package config loads runtime settings from the environment, an optional
// config file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fintrack/internal/core"
)

// Keys double as environment variable names once upper-cased.
const (
	KeyPort                     = "port"
	KeySQLiteDBPath             = "sqlite_db_path"
	KeyLogLevel                 = "log_level"
	KeyLogFormat                = "log_format"
	KeyAMQPURL                  = "amqp_url"
	KeyAMQPExchange             = "amqp_exchange"
	KeyAMQPQueue                = "amqp_queue"
	KeyGoogleSpreadsheetID      = "google_spreadsheet_id"
	KeyGoogleSheetName          = "google_sheet_name"
	KeyGoogleServiceAccountFile = "google_service_account_file"
	KeyGoogleServiceAccountJSON = "google_service_account_json"
	KeyTrendMode                = "trend_mode"
	KeyTrendMonths              = "trend_months"
	KeyRecentLimit              = "recent_limit"
	KeySeedDefaultCategories    = "seed_default_categories"
	KeyRateLimitPerMinute       = "rate_limit_per_minute"
	KeyReportCacheTTL           = "report_cache_ttl"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP; an empty URL disables event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Reports
	TrendMode   string
	TrendMonths int
	RecentLimit int

	SeedDefaultCategories bool
	RateLimitPerMinute    int
	ReportCacheTTL        time.Duration
}

// NewViper returns a viper instance with every default registered and
// environment lookup enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, "8081")
	v.SetDefault(KeySQLiteDBPath, "./data/fintrack.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyAMQPURL, "")
	v.SetDefault(KeyAMQPExchange, "fintrack")
	v.SetDefault(KeyAMQPQueue, "ledger_events")
	v.SetDefault(KeyGoogleSpreadsheetID, "")
	v.SetDefault(KeyGoogleSheetName, "Transactions")
	v.SetDefault(KeyGoogleServiceAccountFile, "")
	v.SetDefault(KeyGoogleServiceAccountJSON, "")
	v.SetDefault(KeyTrendMode, string(core.TrendCalendar))
	v.SetDefault(KeyTrendMonths, 6)
	v.SetDefault(KeyRecentLimit, 10)
	v.SetDefault(KeySeedDefaultCategories, true)
	v.SetDefault(KeyRateLimitPerMinute, 60)
	v.SetDefault(KeyReportCacheTTL, 5*time.Minute)
	v.AutomaticEnv()
	return v
}

// ReadFile merges a YAML, TOML or JSON config file into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() *Config {
	return FromViper(NewViper())
}

// FromViper builds a Config from v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:         strings.TrimSpace(v.GetString(KeyPort)),
		SQLiteDBPath: strings.TrimSpace(v.GetString(KeySQLiteDBPath)),

		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),

		AMQPURL:      strings.TrimSpace(v.GetString(KeyAMQPURL)),
		AMQPExchange: v.GetString(KeyAMQPExchange),
		AMQPQueue:    v.GetString(KeyAMQPQueue),

		GoogleSpreadsheetID:      strings.TrimSpace(v.GetString(KeyGoogleSpreadsheetID)),
		GoogleSheetName:          v.GetString(KeyGoogleSheetName),
		GoogleServiceAccountFile: strings.TrimSpace(v.GetString(KeyGoogleServiceAccountFile)),
		GoogleServiceAccountJSON: strings.TrimSpace(v.GetString(KeyGoogleServiceAccountJSON)),

		TrendMode:   v.GetString(KeyTrendMode),
		TrendMonths: v.GetInt(KeyTrendMonths),
		RecentLimit: v.GetInt(KeyRecentLimit),

		SeedDefaultCategories: v.GetBool(KeySeedDefaultCategories),
		RateLimitPerMinute:    v.GetInt(KeyRateLimitPerMinute),
		ReportCacheTTL:        v.GetDuration(KeyReportCacheTTL),
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// ParsedTrendMode returns the validated trend mode.
func (c *Config) ParsedTrendMode() core.TrendMode {
	m, err := core.ParseTrendMode(c.TrendMode)
	if err != nil {
		return core.TrendCalendar
	}
	return m
}

// MirrorEnabled reports whether a spreadsheet mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MirrorEnabled() {
		if strings.TrimSpace(c.GoogleSheetName) == "" {
			errs = append(errs, "Google Sheet name is required when a spreadsheet is configured")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided when a spreadsheet is configured")
		}
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if _, err := core.ParseTrendMode(c.TrendMode); err != nil {
		errs = append(errs, err.Error())
	}
	if c.TrendMonths < 1 || c.TrendMonths > 24 {
		errs = append(errs, fmt.Sprintf("invalid trend months %d: must be between 1 and 24", c.TrendMonths))
	}
	if c.RecentLimit < 1 || c.RecentLimit > 100 {
		errs = append(errs, fmt.Sprintf("invalid recent limit %d: must be between 1 and 100", c.RecentLimit))
	}
	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.ReportCacheTTL < 0 || c.ReportCacheTTL > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid report cache TTL %v: must be between 0 and 24 hours", c.ReportCacheTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// ValidateWorker checks the extra settings the mirror worker needs.
func (c *Config) ValidateWorker() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.AMQPURL == "" {
		errs = append(errs, errors.New("AMQP_URL is required for the worker"))
	}
	return errors.Join(errs...)
}

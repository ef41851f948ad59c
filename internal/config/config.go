package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"claritychain/internal/core"

	"github.com/shopspring/decimal"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	SeedFile     string

	// AMQP (empty URL disables publishing and the live feed)
	AMQPURL       string
	AMQPExchange  string
	AMQPQueue     string // export worker queue
	AMQPFeedQueue string // API live feed queue, one per instance

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Simulator
	SimulatorEnabled  bool
	SimulatorInterval time.Duration

	// Dashboard
	FeedLimit               int
	HallOfFameLimit         int
	CacheTTL                time.Duration
	ForeignSalaryMultiplier string
	LocalCurrency           string

	// Worker
	BackfillInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/claritychain.db"),
		SeedFile:     getEnv("SEED_FILE", ""),

		AMQPURL:       getEnv("AMQP_URL", ""),
		AMQPExchange:  getEnv("AMQP_EXCHANGE", "claritychain.activity"),
		AMQPQueue:     getEnv("AMQP_QUEUE", "claritychain.export"),
		AMQPFeedQueue: getEnv("AMQP_FEED_QUEUE", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Donations"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		SimulatorEnabled:  getEnvBool("SIMULATOR_ENABLED", false),
		SimulatorInterval: getEnvDuration("SIMULATOR_INTERVAL", 4*time.Second),

		FeedLimit:               getEnvInt("FEED_LIMIT", 20),
		HallOfFameLimit:         getEnvInt("HALL_OF_FAME_LIMIT", core.DefaultTopDonors),
		CacheTTL:                getEnvDuration("CACHE_TTL", 30*time.Second),
		ForeignSalaryMultiplier: getEnv("FOREIGN_SALARY_MULTIPLIER", "1.10"),
		LocalCurrency:           getEnv("LOCAL_CURRENCY", core.DefaultLocalCurrency),

		BackfillInterval: getEnvDuration("BACKFILL_INTERVAL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("seed file not readable: %s", c.SeedFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPFeedQueue != "" && c.AMQPFeedQueue == c.AMQPQueue {
			errors = append(errors, "AMQP feed queue must differ from the export queue")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
	}

	if c.SimulatorEnabled && c.SimulatorInterval < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid simulator interval %v: must be at least 100ms", c.SimulatorInterval))
	}

	if c.FeedLimit < 1 || c.FeedLimit > 500 {
		errors = append(errors, fmt.Sprintf("invalid feed limit %d: must be between 1 and 500", c.FeedLimit))
	}
	if c.HallOfFameLimit < 1 || c.HallOfFameLimit > 100 {
		errors = append(errors, fmt.Sprintf("invalid hall of fame limit %d: must be between 1 and 100", c.HallOfFameLimit))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}

	if m, err := decimal.NewFromString(c.ForeignSalaryMultiplier); err != nil {
		errors = append(errors, fmt.Sprintf("invalid foreign salary multiplier '%s': %v", c.ForeignSalaryMultiplier, err))
	} else if !m.IsPositive() {
		errors = append(errors, fmt.Sprintf("invalid foreign salary multiplier %s: must be positive", m))
	}
	if !currencyCode.MatchString(c.LocalCurrency) {
		errors = append(errors, fmt.Sprintf("invalid local currency '%s': must be a 3-letter ISO code", c.LocalCurrency))
	}

	if c.BackfillInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid backfill interval %v: must be at least 1 second", c.BackfillInterval))
	} else if c.BackfillInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid backfill interval %v: must be at most 24 hours", c.BackfillInterval))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if !slices.Contains([]string{"text", "json"}, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Normalization returns the salary normalization settings. Call after
// Validate; an unparsable multiplier falls back to the default.
func (c *Config) Normalization() core.Normalization {
	norm := core.DefaultNormalization()
	if m, err := decimal.NewFromString(c.ForeignSalaryMultiplier); err == nil && m.IsPositive() {
		norm.Multiplier = m
	}
	if c.LocalCurrency != "" {
		norm.LocalCurrency = c.LocalCurrency
	}
	return norm
}

// AMQPEnabled reports whether activity events are published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether donations are exported to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

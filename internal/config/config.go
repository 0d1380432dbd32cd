// Package config loads the environment configuration of both binaries.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	OCRNone      = "none"
	OCRVision    = "vision"
	OCRTesseract = "tesseract"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	// CIDRs, besides loopback and private ranges, allowed to set
	// X-Forwarded-For.
	TrustedProxies []string

	// Storage
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string

	// Calendar
	Timezone string
	Location *time.Location

	// Stats cache
	StatsCacheSize int
	StatsCacheTTL  time.Duration

	// Receipt OCR
	OCRProvider   string
	TesseractPath string
	TesseractLang string

	// Google credentials, shared by Vision and Sheets
	GoogleServiceAccountJSON     string
	GoogleServiceAccountFile     string
	GoogleApplicationCredentials string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID  string
	GoogleSheetName      string
	SheetsRebuildOnStart bool

	// Logging
	LogLevel  string
	LogFormat string

	// parse errors found by Load, reported by Validate
	problems []string
}

func Load() *Config {
	c := &Config{}
	c.Port = getEnv("PORT", "8081")
	c.RateLimitPerMinute = c.getEnvInt("RATE_LIMIT_PER_MINUTE", 60)
	c.TrustedProxies = getEnvList("TRUSTED_PROXIES")

	c.DataBackend = strings.ToLower(getEnv("DATA_BACKEND", BackendSQLite))
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", "./data/conti.db")
	c.DatabaseURL = getEnv("DATABASE_URL", "")

	c.Timezone = getEnv("TIMEZONE", "Europe/Rome")
	if loc, err := time.LoadLocation(c.Timezone); err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid TIMEZONE '%s': %v", c.Timezone, err))
	} else {
		c.Location = loc
	}

	c.StatsCacheSize = c.getEnvInt("STATS_CACHE_SIZE", 64)
	c.StatsCacheTTL = c.getEnvDuration("STATS_CACHE_TTL", 5*time.Minute)

	c.OCRProvider = strings.ToLower(getEnv("OCR_PROVIDER", OCRNone))
	c.TesseractPath = getEnv("TESSERACT_PATH", "tesseract")
	c.TesseractLang = getEnv("TESSERACT_LANG", "ita")

	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	c.GoogleApplicationCredentials = getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")

	c.AMQPURL = getEnv("AMQP_URL", "")
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", "conti")
	c.AMQPQueue = getEnv("AMQP_QUEUE", "expense_events")

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", "")
	c.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", "Spese")
	c.SheetsRebuildOnStart = c.getEnvBool("SHEETS_REBUILD_ON_START", false)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	c.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	return c
}

// Validate checks the server configuration and reports every problem at once.
func (c *Config) Validate() error {
	return joinProblems(c.validate())
}

// ValidateWorker also requires the event bus and the spreadsheet mirror.
func (c *Config) ValidateWorker() error {
	problems := c.validate()
	if c.DataBackend == BackendMemory {
		// A private in-process store never sees the server's writes.
		problems = append(problems, "DATA_BACKEND=memory cannot be shared with the server; the worker needs sqlite or postgres")
	}
	if c.AMQPURL == "" {
		problems = append(problems, "AMQP_URL is required for the worker")
	}
	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, "GOOGLE_SPREADSHEET_ID is required for the worker")
	}
	if strings.TrimSpace(c.GoogleSheetName) == "" {
		problems = append(problems, "GOOGLE_SHEET_NAME cannot be empty")
	}
	if !c.HasGoogleCredentials() {
		problems = append(problems, "Google service account credentials are required for the worker")
	}
	return joinProblems(problems)
}

// HasGoogleCredentials reports whether any credential source is set.
func (c *Config) HasGoogleCredentials() bool {
	return c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "" || c.GoogleApplicationCredentials != ""
}

func (c *Config) validate() []string {
	problems := append([]string(nil), c.problems...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if strings.TrimSpace(c.SQLiteDBPath) == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			problems = append(problems, "DATABASE_URL is required when using postgres backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s %s]",
			c.DataBackend, BackendSQLite, BackendPostgres, BackendMemory))
	}

	if c.StatsCacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid stats cache size %d: must be at least 1", c.StatsCacheSize))
	}
	if c.StatsCacheTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid stats cache TTL %v: must be positive", c.StatsCacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			problems = append(problems, fmt.Sprintf("invalid TRUSTED_PROXIES entry '%s': must be a CIDR like 203.0.113.0/24", cidr))
		}
	}

	switch c.OCRProvider {
	case OCRNone:
	case OCRVision:
		if !c.HasGoogleCredentials() {
			problems = append(problems, "OCR_PROVIDER=vision needs GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS")
		}
	case OCRTesseract:
		if strings.TrimSpace(c.TesseractPath) == "" {
			problems = append(problems, "TESSERACT_PATH cannot be empty when OCR_PROVIDER=tesseract")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid OCR provider '%s': must be one of [%s %s %s]",
			c.OCRProvider, OCRNone, OCRVision, OCRTesseract))
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	return problems
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
		return defaultValue
	}
	return i
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': must be a duration like 5m", key, value))
		return defaultValue
	}
	return d
}

func (c *Config) getEnvBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': must be true or false", key, value))
		return defaultValue
	}
	return b
}

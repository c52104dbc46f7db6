package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/badoux/checkmail"

	"fintrack/internal/core"
)

const minJWTSecretLen = 16

type Config struct {
	// HTTP Server
	Port               string
	LogLevel           string
	RateLimitPerMinute int
	TrustedProxies     []string

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// AMQP
	AMQPURL        string
	AMQPExchange   string
	AMQPSyncQueue  string
	AMQPAlertQueue string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string

	// Workers
	SyncBatchSize         int
	SyncInterval          time.Duration
	BillProcessorInterval time.Duration

	// Dashboard
	CacheTTL            time.Duration
	CacheSize           int
	LowBalanceThreshold string
	StrictCategories    bool

	// Auth
	AuthEnabled bool
	JWTSecret   string
	TokenTTL    time.Duration

	// Email alerts
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPassword  string
	SMTPFrom      string
	NotifyEmailTo []string
}

// Load reads the configuration from the environment, falling back to
// defaults for unset keys.
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPSyncQueue:  getEnv("AMQP_SYNC_QUEUE", "transaction_sync"),
		AMQPAlertQueue: getEnv("AMQP_ALERT_QUEUE", "budget_alerts"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),

		SyncBatchSize:         getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:          getEnvDuration("SYNC_INTERVAL", 30*time.Second),
		BillProcessorInterval: getEnvDuration("BILL_PROCESSOR_INTERVAL", time.Hour),

		CacheTTL:            getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize:           getEnvInt("CACHE_SIZE", 100),
		LowBalanceThreshold: getEnv("LOW_BALANCE_THRESHOLD", "500.00"),
		StrictCategories:    getEnvBool("STRICT_CATEGORIES", false),

		AuthEnabled: getEnvBool("AUTH_ENABLED", false),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 24*time.Hour),

		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:      getEnv("SMTP_FROM", ""),
		NotifyEmailTo: getEnvList("NOTIFY_EMAIL_TO"),
	}
}

// LowBalance is the cash-flow warning threshold. "0" disables the warning
// for any non-negative balance.
func (c *Config) LowBalance() (core.Money, error) {
	s := strings.TrimSpace(c.LowBalanceThreshold)
	if s == "" || s == "0" {
		return core.Money{}, nil
	}
	return core.NewMoney(s)
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

// SheetsEnabled reports whether transactions are exported to a spreadsheet.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

// EmailEnabled reports whether email alerts can be sent.
func (c *Config) EmailEnabled() bool { return c.SMTPHost != "" }

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
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

	// Validate AMQP if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPSyncQueue == "" || c.AMQPAlertQueue == "" {
			errors = append(errors, "AMQP queue names cannot be empty when AMQP URL is provided")
		} else if c.AMQPSyncQueue == c.AMQPAlertQueue {
			errors = append(errors, fmt.Sprintf("AMQP sync and alert queues must differ, both are '%s'", c.AMQPSyncQueue))
		}
	}

	// Validate Google Sheets credentials if an export target is set
	if c.SheetsEnabled() {
		hasServiceAccount := c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != ""
		hasOAuth := c.GoogleOAuthClientFile != "" && c.GoogleOAuthTokenFile != ""
		if !hasServiceAccount && !hasOAuth {
			errors = append(errors, "Google Sheets export needs GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_SERVICE_ACCOUNT_JSON or both GOOGLE_OAUTH_CLIENT_FILE and GOOGLE_OAUTH_TOKEN_FILE")
		}
		for _, f := range []struct{ name, path string }{
			{"service account file", c.GoogleServiceAccountFile},
			{"OAuth client file", c.GoogleOAuthClientFile},
			{"OAuth token file", c.GoogleOAuthTokenFile},
		} {
			if f.path == "" {
				continue
			}
			if _, err := os.Stat(f.path); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google %s does not exist: %s", f.name, f.path))
			}
		}
	}

	// Validate worker configuration
	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}
	errors = appendIntervalError(errors, "sync interval", c.SyncInterval)
	errors = appendIntervalError(errors, "bill processor interval", c.BillProcessorInterval)

	// Validate dashboard cache
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}
	if _, err := c.LowBalance(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid low balance threshold '%s': must be a non-negative decimal", c.LowBalanceThreshold))
	}

	// Validate auth
	if c.AuthEnabled {
		if len(c.JWTSecret) < minJWTSecretLen {
			errors = append(errors, fmt.Sprintf("JWT secret must be at least %d characters when auth is enabled", minJWTSecretLen))
		}
		if c.TokenTTL <= 0 {
			errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be positive", c.TokenTTL))
		}
	}

	// Validate SMTP if email alerts are configured
	if c.EmailEnabled() {
		if port, err := strconv.Atoi(c.SMTPPort); err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid SMTP port '%s'", c.SMTPPort))
		}
		if err := checkmail.ValidateFormat(c.SMTPFrom); err != nil {
			errors = append(errors, fmt.Sprintf("invalid SMTP sender '%s': %v", c.SMTPFrom, err))
		}
		if len(c.NotifyEmailTo) == 0 {
			errors = append(errors, "NOTIFY_EMAIL_TO is required when SMTP_HOST is set")
		}
		for _, to := range c.NotifyEmailTo {
			if err := checkmail.ValidateFormat(to); err != nil {
				errors = append(errors, fmt.Sprintf("invalid alert recipient '%s': %v", to, err))
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func appendIntervalError(errors []string, name string, d time.Duration) []string {
	if d < time.Second {
		return append(errors, fmt.Sprintf("invalid %s %v: must be at least 1 second", name, d))
	}
	if d > 24*time.Hour {
		return append(errors, fmt.Sprintf("invalid %s %v: must be at most 24 hours", name, d))
	}
	return errors
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

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

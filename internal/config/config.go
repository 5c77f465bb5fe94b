package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Persistent cache store
	CacheDBPath string

	// Cache freshness
	CategoryTTL   time.Duration
	DayAmountsTTL time.Duration

	// Remote write retry
	MaxRetries int

	// Backend selection
	DataBackend string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleAPIKey        string
	AppsScriptURL       string

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8082"),
		CacheDBPath: getEnv("CACHE_DB_PATH", "./data/wydatki.db"),

		CategoryTTL:   getEnvDuration("CATEGORY_TTL", 24*time.Hour),
		DayAmountsTTL: getEnvDuration("DAY_AMOUNTS_TTL", 6*time.Hour),

		MaxRetries: getEnvInt("SUBMIT_MAX_RETRIES", 3),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleAPIKey:        getEnv("GOOGLE_API_KEY", ""),
		AppsScriptURL:       getEnv("APPS_SCRIPT_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "wydatki"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sheets"}
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

	if c.CacheDBPath == "" {
		errors = append(errors, "cache database path cannot be empty")
	} else {
		dir := filepath.Dir(c.CacheDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create cache directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.CategoryTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid category TTL %v: must be at least 1 minute", c.CategoryTTL))
	}
	if c.DayAmountsTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid day-amounts TTL %v: must be at least 1 minute", c.DayAmountsTTL))
	}

	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		errors = append(errors, fmt.Sprintf("invalid max retries %d: must be between 0 and 10", c.MaxRetries))
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when using the sheets backend")
		}
		if c.GoogleAPIKey == "" {
			errors = append(errors, "GOOGLE_API_KEY is required when using the sheets backend")
		}
		if c.AppsScriptURL == "" {
			errors = append(errors, "APPS_SCRIPT_URL is required when using the sheets backend")
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds every setting the process needs. It is built once at startup
// and passed by value into component constructors; components never read the
// environment themselves.
type Config struct {
	// Telegram
	TelegramToken string

	// Ledger webhook (Apps Script web app)
	WebAppURL     string
	SpreadsheetID string

	// Language model endpoint
	OllamaHost  string
	OllamaModel string

	// Timeouts for ledger webhook calls. Language-model calls are
	// deliberately unbounded; see internal/llm.
	LogTimeout    time.Duration
	ActionTimeout time.Duration
	ProbeTimeout  time.Duration

	// Validation
	AmountCeiling decimal.Decimal

	// Logging
	LogLevel string
}

// Load reads configuration from the environment. A local .env file is loaded
// first when present (absent in production deployments, which is fine).
func Load() Config {
	_ = godotenv.Load()

	return Config{
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebAppURL:     getEnv("WEBAPP_URL", ""),
		SpreadsheetID: getEnv("SPREADSHEET_ID", ""),

		OllamaHost:  getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel: getEnv("OLLAMA_MODEL", "mistral"),

		LogTimeout:    getEnvDuration("LEDGER_LOG_TIMEOUT", 10*time.Second),
		ActionTimeout: getEnvDuration("LEDGER_ACTION_TIMEOUT", 30*time.Second),
		ProbeTimeout:  getEnvDuration("LEDGER_PROBE_TIMEOUT", 10*time.Second),

		AmountCeiling: getEnvDecimal("AMOUNT_CEILING", decimal.NewFromInt(1_000_000)),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}
}

// Validate checks the configuration and returns a combined error listing
// every problem found.
func (c Config) Validate() error {
	var errs []string

	if c.TelegramToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}
	if c.SpreadsheetID == "" {
		errs = append(errs, "SPREADSHEET_ID is required")
	}
	if c.WebAppURL == "" {
		errs = append(errs, "WEBAPP_URL is required")
	} else if err := validateHTTPURL(c.WebAppURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid WEBAPP_URL '%s': %v", c.WebAppURL, err))
	}

	if c.OllamaHost == "" {
		errs = append(errs, "Ollama host cannot be empty")
	} else if err := validateHTTPURL(c.OllamaHost); err != nil {
		errs = append(errs, fmt.Sprintf("invalid OLLAMA_HOST '%s': %v", c.OllamaHost, err))
	}
	if strings.TrimSpace(c.OllamaModel) == "" {
		errs = append(errs, "Ollama model name cannot be empty")
	}

	timeouts := []struct {
		name string
		val  time.Duration
	}{
		{"ledger log timeout", c.LogTimeout},
		{"ledger action timeout", c.ActionTimeout},
		{"ledger probe timeout", c.ProbeTimeout},
	}
	for _, t := range timeouts {
		if t.val < time.Second {
			errs = append(errs, fmt.Sprintf("invalid %s %v: must be at least 1 second", t.name, t.val))
		} else if t.val > 10*time.Minute {
			errs = append(errs, fmt.Sprintf("invalid %s %v: must be at most 10 minutes", t.name, t.val))
		}
	}

	if !c.AmountCeiling.IsPositive() {
		errs = append(errs, fmt.Sprintf("invalid amount ceiling %s: must be positive", c.AmountCeiling))
	}

	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of DEBUG, INFO, WARN, ERROR", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme '%s' must be 'http' or 'https'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

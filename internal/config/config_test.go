package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validConfig() Config {
	return Config{
		TelegramToken: "123456:token",
		WebAppURL:     "https://script.google.com/macros/s/abc/exec",
		SpreadsheetID: "sheet-id",
		OllamaHost:    "http://localhost:11434",
		OllamaModel:   "mistral",
		LogTimeout:    10 * time.Second,
		ActionTimeout: 30 * time.Second,
		ProbeTimeout:  10 * time.Second,
		AmountCeiling: decimal.NewFromInt(1_000_000),
		LogLevel:      "INFO",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:        "missing telegram token",
			mutate:      func(c *Config) { c.TelegramToken = "" },
			wantErr:     true,
			errContains: "TELEGRAM_BOT_TOKEN is required",
		},
		{
			name:        "missing webhook URL",
			mutate:      func(c *Config) { c.WebAppURL = "" },
			wantErr:     true,
			errContains: "WEBAPP_URL is required",
		},
		{
			name:        "webhook URL with bad scheme",
			mutate:      func(c *Config) { c.WebAppURL = "ftp://example.com/exec" },
			wantErr:     true,
			errContains: "must be 'http' or 'https'",
		},
		{
			name:        "missing spreadsheet ID",
			mutate:      func(c *Config) { c.SpreadsheetID = "" },
			wantErr:     true,
			errContains: "SPREADSHEET_ID is required",
		},
		{
			name:        "empty model name",
			mutate:      func(c *Config) { c.OllamaModel = "  " },
			wantErr:     true,
			errContains: "model name cannot be empty",
		},
		{
			name:        "timeout too short",
			mutate:      func(c *Config) { c.LogTimeout = 100 * time.Millisecond },
			wantErr:     true,
			errContains: "must be at least 1 second",
		},
		{
			name:        "timeout too long",
			mutate:      func(c *Config) { c.ActionTimeout = time.Hour },
			wantErr:     true,
			errContains: "must be at most 10 minutes",
		},
		{
			name:        "non-positive ceiling",
			mutate:      func(c *Config) { c.AmountCeiling = decimal.Zero },
			wantErr:     true,
			errContains: "must be positive",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.LogLevel = "TRACE" },
			wantErr:     true,
			errContains: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("error %q does not contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.TelegramToken = ""
	cfg.SpreadsheetID = ""
	cfg.LogLevel = "bogus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{"TELEGRAM_BOT_TOKEN", "SPREADSHEET_ID", "invalid log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("combined error missing %q: %v", want, err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.OllamaHost == "" {
		t.Error("expected default Ollama host")
	}
	if cfg.OllamaModel == "" {
		t.Error("expected default Ollama model")
	}
	if cfg.LogTimeout != 10*time.Second && cfg.LogTimeout < time.Second {
		t.Errorf("unexpected log timeout default: %v", cfg.LogTimeout)
	}
	if !cfg.AmountCeiling.IsPositive() {
		t.Errorf("expected positive default ceiling, got %s", cfg.AmountCeiling)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.API.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSecs != 60 || cfg.API.IntentTimeoutSecs != 30 {
		t.Errorf("timeouts = %d/%d", cfg.API.TimeoutSecs, cfg.API.IntentTimeoutSecs)
	}
	if cfg.Triggers.CommandPrefix != "$" {
		t.Errorf("CommandPrefix = %q", cfg.Triggers.CommandPrefix)
	}
	if !cfg.Triggers.MentionTrigger {
		t.Error("MentionTrigger should default to true")
	}
	if len(cfg.Triggers.DirectPrefixes) != 1 || cfg.Triggers.DirectPrefixes[0] != "" {
		t.Errorf("DirectPrefixes = %v", cfg.Triggers.DirectPrefixes)
	}
	if cfg.Database.Path != "./data/recap.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestParse_Overlay(t *testing.T) {
	cfg, err := Parse([]byte(`
logging:
  level: debug
api:
  model: gpt-4o
triggers:
  command_prefix: "!"
  group_keywords: ["robot"]
channels:
  telegram:
    enabled: true
    token: abc
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.API.Model != "gpt-4o" {
		t.Errorf("API.Model = %q", cfg.API.Model)
	}
	if cfg.Triggers.CommandPrefix != "!" {
		t.Errorf("CommandPrefix = %q", cfg.Triggers.CommandPrefix)
	}
	if len(cfg.Triggers.GroupKeywords) != 1 || cfg.Triggers.GroupKeywords[0] != "robot" {
		t.Errorf("GroupKeywords = %v", cfg.Triggers.GroupKeywords)
	}
	if !cfg.Channels.Telegram.Enabled || cfg.Channels.Telegram.Token != "abc" {
		t.Errorf("Telegram = %+v", cfg.Channels.Telegram)
	}

	// Untouched sections keep their defaults.
	if cfg.API.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("API.BaseURL = %q, want default", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSecs != 60 {
		t.Errorf("API.TimeoutSecs = %d, want default", cfg.API.TimeoutSecs)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("logging: [not a map")); err == nil {
		t.Fatal("expected an error for invalid YAML")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RECAP_TEST_VAR", "value-from-env")
	os.Unsetenv("RECAP_TEST_MISSING")

	tests := []struct {
		in, want string
	}{
		{"token: ${RECAP_TEST_VAR}", "token: value-from-env"},
		{"token: ${RECAP_TEST_MISSING}", "token: "},
		{"token: ${RECAP_TEST_MISSING:-fallback}", "token: fallback"},
		{"token: ${RECAP_TEST_VAR:-fallback}", "token: value-from-env"},
		{"token: plain", "token: plain"},
	}

	for _, tt := range tests {
		if got := expandEnvVars(tt.in); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("RECAP_TEST_TOKEN", "tg-token")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
api:
  api_key: secret
channels:
  telegram:
    token: ${RECAP_TEST_TOKEN}
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path, nil)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.API.APIKey != "secret" {
		t.Errorf("APIKey = %q", cfg.API.APIKey)
	}
	if cfg.Channels.Telegram.Token != "tg-token" {
		t.Errorf("Telegram.Token = %q, want the env expansion", cfg.Channels.Telegram.Token)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

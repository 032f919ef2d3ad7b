// Package config – config.go defines all configuration structures for the
// Recap bot.
package config

import (
	"github.com/hollevoet/recap/pkg/recap/channels/discord"
	"github.com/hollevoet/recap/pkg/recap/channels/telegram"
)

// Config holds all bot configuration.
type Config struct {
	// Logging configures slog output.
	Logging LoggingConfig `yaml:"logging"`

	// API configures the LLM provider endpoint.
	API APIConfig `yaml:"api"`

	// Triggers configures trigger classification and the command prefix.
	Triggers TriggersConfig `yaml:"triggers"`

	// Sessions configures session-key resolution.
	Sessions SessionsConfig `yaml:"sessions"`

	// Database configures the SQLite store.
	Database DatabaseConfig `yaml:"database"`

	// Channels configures communication channels.
	Channels ChannelsConfig `yaml:"channels"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// APIConfig configures the LLM endpoint.
type APIConfig struct {
	// BaseURL is the OpenAI-compatible API base (default: https://api.openai.com/v1).
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token. Prefer ${OPENAI_API_KEY} or the OS keyring
	// over a plaintext value here.
	APIKey string `yaml:"api_key"`

	// Model is the chat model name.
	Model string `yaml:"model"`

	// Proxy is an optional outbound HTTP proxy URL.
	Proxy string `yaml:"proxy"`

	// TimeoutSecs bounds the summarization call (default: 60).
	TimeoutSecs int `yaml:"timeout_secs"`

	// IntentTimeoutSecs bounds the intent-translation call (default: 30).
	IntentTimeoutSecs int `yaml:"intent_timeout_secs"`
}

// TriggersConfig describes when a message counts as a bot command.
type TriggersConfig struct {
	// CommandPrefix starts a summarize command (default: "$").
	CommandPrefix string `yaml:"command_prefix"`

	// GroupPrefixes trigger the bot in group chats by prefix match.
	GroupPrefixes []string `yaml:"group_prefixes"`

	// GroupKeywords trigger the bot in group chats by substring match.
	GroupKeywords []string `yaml:"group_keywords"`

	// MentionTrigger treats an explicit @-mention as a trigger (default: true).
	MentionTrigger bool `yaml:"mention_trigger"`

	// DirectPrefixes trigger the bot in direct messages by prefix match.
	// The default [""] makes every direct message a trigger.
	DirectPrefixes []string `yaml:"direct_prefixes"`
}

// SessionsConfig controls how conversations map to session keys.
type SessionsConfig struct {
	// NameKeyedChannels lists channels whose per-conversation IDs are
	// unstable; for these the chat display name is the session key.
	NameKeyedChannels []string `yaml:"name_keyed_channels"`
}

// DatabaseConfig configures persistence.
type DatabaseConfig struct {
	// Path to the SQLite file (default: ./data/recap.db).
	Path string `yaml:"path"`
}

// ChannelsConfig configures the messaging channels.
type ChannelsConfig struct {
	Telegram telegram.Config `yaml:"telegram"`
	Discord  discord.Config  `yaml:"discord"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		API: APIConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			TimeoutSecs:       60,
			IntentTimeoutSecs: 30,
		},
		Triggers: TriggersConfig{
			CommandPrefix:  "$",
			MentionTrigger: true,
			DirectPrefixes: []string{""},
		},
		Database: DatabaseConfig{
			Path: "./data/recap.db",
		},
		Channels: ChannelsConfig{
			Telegram: telegram.DefaultConfig(),
			Discord:  discord.DefaultConfig(),
		},
	}
}

// Package config – keyring.go resolves the LLM API key through the
// operating system's native keyring (Linux: Secret Service, macOS:
// Keychain, Windows: Credential Manager).
//
// Priority for resolving the key:
//  1. OS keyring (encrypted by the OS, requires user session)
//  2. Environment variable (RECAP_API_KEY, then OPENAI_API_KEY)
//  3. .env file (loaded by godotenv)
//  4. config.yaml value (least secure, plaintext on disk)
package config

import (
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "recap"

	// keyringAPIKey is the key name for the LLM API key.
	keyringAPIKey = "api_key"
)

// StoreKeyring saves the API key to the OS keyring.
func StoreKeyring(value string) error {
	return keyring.Set(keyringService, keyringAPIKey, value)
}

// GetKeyring retrieves the API key from the OS keyring.
// Returns empty string if not found.
func GetKeyring() string {
	val, err := keyring.Get(keyringService, keyringAPIKey)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes the API key from the OS keyring.
func DeleteKeyring() error {
	return keyring.Delete(keyringService, keyringAPIKey)
}

// resolveSecrets fills cfg.API.APIKey from the priority chain when the
// config value is empty.
func resolveSecrets(cfg *Config, logger *slog.Logger) {
	if cfg.API.APIKey != "" {
		return
	}
	if key := GetKeyring(); key != "" {
		cfg.API.APIKey = key
		logger.Debug("API key resolved from OS keyring")
		return
	}
	for _, name := range []string{"RECAP_API_KEY", "OPENAI_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			cfg.API.APIKey = key
			logger.Debug("API key resolved from environment", "var", name)
			return
		}
	}
	logger.Warn("no API key configured; summarization calls will fail")
}

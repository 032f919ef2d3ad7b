// Package config – loader.go handles loading configuration from YAML files
// with credential resolution via environment variables and .env files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} and ${VAR_NAME:-default} in config values.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LoadFromFile reads and parses a YAML configuration file. `.env` files are
// loaded first (never overriding already-set variables), then ${VAR}
// references in the YAML are expanded before parsing.
func LoadFromFile(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse([]byte(expandEnvVars(string(data))))
	if err != nil {
		return nil, err
	}

	resolveSecrets(cfg, logger)
	checkFilePermissions(path, logger)
	return cfg, nil
}

// Parse parses YAML bytes into a Config. Starts with defaults and overlays
// values present in the YAML.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// FindConfigFile looks for a config file in conventional locations and
// returns the first match, or "" if none exists.
func FindConfigFile() string {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"recap.yaml",
		"recap.yml",
		"configs/config.yaml",
		"configs/recap.yaml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadEnvFiles loads .env from the working directory and next to the
// binary. godotenv.Load does not overwrite existing env vars.
func loadEnvFiles() {
	_ = godotenv.Load(".env")
	if exe, err := os.Executable(); err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exe), ".env"))
	}
}

func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(groups[1]); ok {
			return val
		}
		return groups[2]
	})
}

// checkFilePermissions warns when the config file is readable by other
// users, since it may contain an API key.
func checkFilePermissions(path string, logger *slog.Logger) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm()&0o044 != 0 {
		logger.Warn("config file is world/group readable, consider chmod 600", "path", path)
	}
}

// Package commands implements the Recap CLI commands using cobra.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hollevoet/recap/pkg/recap/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recap",
		Short: "Recap - Chat Summarization Bot",
		Long: `Recap is a chat bot that records conversations and produces
summaries of recent messages on request, over Telegram and Discord.

Examples:
  recap serve
  recap summarize --session mygroup --count 50
  recap schedule add "0 18 * * *" --channel telegram --chat-id 12345`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newSummarizeCmd(),
		newScheduleCmd(),
		newConfigCmd(),
		newHealthCmd(),
	)

	// Global flags.
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}

// resolveConfig loads config from the --config flag or discovers it in
// conventional locations.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	logger := slog.Default()
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")

	// Try explicit path first.
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath, logger)
		if err != nil {
			return nil, "", fmt.Errorf("loading config: %w", err)
		}
		return cfg, configPath, nil
	}

	// Auto-discover config file.
	if found := config.FindConfigFile(); found != "" {
		cfg, err := config.LoadFromFile(found, logger)
		if err != nil {
			return nil, "", fmt.Errorf("loading config from %s: %w", found, err)
		}
		return cfg, found, nil
	}

	return nil, "", fmt.Errorf("no configuration file found (run `recap config init` to create one)")
}

// buildLogger constructs the slog logger from config and the --verbose flag.
func buildLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")

	logLevel := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	return slog.New(handler)
}

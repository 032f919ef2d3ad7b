package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/hollevoet/recap/pkg/recap/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// defaultConfigYAML is the template written by `recap config init`.
const defaultConfigYAML = `# Recap configuration

logging:
  level: info   # debug, info, warn, error
  format: text  # text or json

api:
  base_url: https://api.openai.com/v1
  api_key: ${OPENAI_API_KEY}
  model: gpt-4o-mini
  timeout_secs: 60
  intent_timeout_secs: 30

triggers:
  command_prefix: "$"
  group_prefixes: []
  group_keywords: []
  mention_trigger: true
  direct_prefixes: [""]

sessions:
  # Channels whose chat IDs are unstable; the chat display name is used
  # as the session key instead.
  name_keyed_channels: []

database:
  path: ./data/recap.db

channels:
  telegram:
    enabled: false
    token: ${TELEGRAM_BOT_TOKEN:-}
    respond_to_groups: true
    respond_to_dms: true
  discord:
    enabled: false
    token: ${DISCORD_BOT_TOKEN:-}
`

// newConfigCmd creates the `recap config` command for managing configuration.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bot configuration",
		Long: `Manage the Recap configuration file and stored credentials.

Examples:
  recap config init
  recap config show
  recap config set-key`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigSetKeyCmd(),
		newConfigDeleteKeyCmd(),
	)

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			const path = "config.yaml"
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o600); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Printf("Configuration created at ./%s\n", path)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			// Never print credentials.
			cfg.API.APIKey = maskSecret(cfg.API.APIKey)
			cfg.Channels.Telegram.Token = maskSecret(cfg.Channels.Telegram.Token)
			cfg.Channels.Discord.Token = maskSecret(cfg.Channels.Discord.Token)

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("rendering config: %w", err)
			}
			fmt.Printf("# %s\n%s", path, out)
			return nil
		},
	}
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the API key in the OS keyring",
		Long: `Store the LLM API key in the OS keyring (Keychain, Secret Service,
Credential Manager). With no argument, the key is read from stdin so it
does not end up in shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				fmt.Print("API key: ")
				if _, err := fmt.Scanln(&key); err != nil {
					return fmt.Errorf("reading key: %w", err)
				}
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("empty key")
			}
			if err := config.StoreKeyring(key); err != nil {
				return fmt.Errorf("storing key in keyring: %w", err)
			}
			fmt.Println("API key stored in the OS keyring.")
			return nil
		},
	}
}

func newConfigDeleteKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-key",
		Short: "Remove the API key from the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.DeleteKeyring(); err != nil {
				return fmt.Errorf("removing key from keyring: %w", err)
			}
			fmt.Println("API key removed from the OS keyring.")
			return nil
		},
	}
}

// maskSecret hides all but a short prefix of a credential.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + strings.Repeat("*", 4)
}

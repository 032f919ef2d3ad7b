package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hollevoet/recap/pkg/recap/bot"
	"github.com/hollevoet/recap/pkg/recap/channels"
	"github.com/hollevoet/recap/pkg/recap/channels/discord"
	"github.com/hollevoet/recap/pkg/recap/channels/telegram"
	"github.com/hollevoet/recap/pkg/recap/llm"
	"github.com/hollevoet/recap/pkg/recap/scheduler"
	"github.com/hollevoet/recap/pkg/recap/store"
	"github.com/hollevoet/recap/pkg/recap/summary"
	"github.com/spf13/cobra"
)

// newServeCmd creates the `recap serve` command that starts the daemon.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bot daemon with messaging channels",
		Long: `Start Recap as a daemon service, connecting to enabled channels
(Telegram, Discord), recording messages and answering summarize commands.

Examples:
  recap serve
  recap serve --channel telegram
  recap serve --config ./config.yaml`,
		RunE: runServe,
	}

	cmd.Flags().StringSlice("channel", nil, "channels to enable (telegram, discord)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	cfg, configPath, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// ── Configure logger ──
	logger := buildLogger(cmd, cfg)
	logger.Info("config loaded", "path", configPath)

	// ── Open the store ──
	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	// ── Create the LLM client ──
	client, err := llm.New(llm.Config{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.APIKey,
		Model:   cfg.API.Model,
		Proxy:   cfg.API.Proxy,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	// ── Assemble the summarization pipeline ──
	parser := summary.NewParser(
		cfg.Triggers.CommandPrefix,
		client,
		time.Duration(cfg.API.IntentTimeoutSecs)*time.Second,
		logger,
	)
	svc := summary.NewService(
		st,
		client,
		time.Duration(cfg.API.TimeoutSecs)*time.Second,
		logger,
	)

	// ── Register channels ──
	mgr := channels.NewManager(logger)
	channelFilter, _ := cmd.Flags().GetStringSlice("channel")

	if shouldEnable("telegram", channelFilter, cfg.Channels.Telegram.Enabled) && cfg.Channels.Telegram.Token != "" {
		tg := telegram.New(cfg.Channels.Telegram, logger)
		if err := mgr.Register(tg); err != nil {
			logger.Error("failed to register Telegram", "error", err)
		} else {
			logger.Info("Telegram channel registered")
		}
	}

	if shouldEnable("discord", channelFilter, cfg.Channels.Discord.Enabled) && cfg.Channels.Discord.Token != "" {
		dc := discord.New(cfg.Channels.Discord, logger)
		if err := mgr.Register(dc); err != nil {
			logger.Error("failed to register Discord", "error", err)
		} else {
			logger.Info("Discord channel registered")
		}
	}

	// ── Create context ──
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Start the bot ──
	b := bot.New(cfg, st, parser, svc, mgr, logger)
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bot: %w", err)
	}

	// ── Start the scheduler ──
	sched := scheduler.New(st, b.RunJob, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
	}

	// ── Periodic channel health report ──
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for name, h := range mgr.HealthAll() {
					logger.Info("channel health",
						"channel", name,
						"connected", h.Connected,
						"last_message_at", h.LastMessageAt,
						"errors", h.ErrorCount,
					)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("Recap running. Press Ctrl+C to stop.",
		"model", client.Model(),
		"prefix", cfg.Triggers.CommandPrefix,
	)

	// ── Wait for shutdown ──
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping...")

	// Graceful shutdown with timeout.
	done := make(chan struct{})
	go func() {
		sched.Stop()
		b.Stop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out after 10s, forcing exit")
	}

	return nil
}

// shouldEnable decides whether a channel should be enabled given the
// --channel filter and its configured default.
func shouldEnable(name string, filter []string, defaultEnabled bool) bool {
	if len(filter) == 0 {
		return defaultEnabled
	}
	for _, f := range filter {
		if f == name {
			return true
		}
	}
	return false
}

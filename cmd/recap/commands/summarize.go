package commands

import (
	"fmt"
	"time"

	"github.com/hollevoet/recap/pkg/recap/llm"
	"github.com/hollevoet/recap/pkg/recap/store"
	"github.com/hollevoet/recap/pkg/recap/summary"
	"github.com/spf13/cobra"
)

// newSummarizeCmd creates the `recap summarize` command: a one-shot
// summary of a recorded session, printed to stdout.
func newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a recorded session from the command line",
		Long: `Summarize recent messages of a recorded session without
running the daemon. Useful for checking what the bot would answer.

Examples:
  recap summarize --session mygroup
  recap summarize --session mygroup --count 50
  recap summarize --session mygroup --since 1h`,
		RunE: runSummarize,
	}

	cmd.Flags().String("session", "", "session ID to summarize (required)")
	cmd.Flags().Int("count", 99, "maximum number of messages to include")
	cmd.Flags().Duration("since", 0, "look-back window (e.g. 1h, 30m; 0 for unbounded)")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func runSummarize(cmd *cobra.Command, _ []string) error {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := buildLogger(cmd, cfg)

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	client, err := llm.New(llm.Config{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.APIKey,
		Model:   cfg.API.Model,
		Proxy:   cfg.API.Proxy,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	svc := summary.NewService(st, client, time.Duration(cfg.API.TimeoutSecs)*time.Second, logger)

	session, _ := cmd.Flags().GetString("session")
	count, _ := cmd.Flags().GetInt("count")
	since, _ := cmd.Flags().GetDuration("since")

	durationSecs := -1
	if since > 0 {
		durationSecs = int(since.Seconds())
	}

	reply, err := svc.Summarize(cmd.Context(), session, summary.Command{
		Limit:        count,
		DurationSecs: durationSecs,
	})
	if err != nil {
		return fmt.Errorf("summarizing: %w", err)
	}

	fmt.Println(reply.Text)
	return nil
}

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hollevoet/recap/pkg/recap/scheduler"
	"github.com/hollevoet/recap/pkg/recap/store"
	"github.com/spf13/cobra"
)

// newScheduleCmd creates the `recap schedule` command for managing
// recurring summary jobs.
func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage scheduled summary jobs",
		Long: `Manage recurring summary jobs. Jobs are persisted in the database
and executed by the daemon using standard cron expressions.

Examples:
  recap schedule list
  recap schedule add "0 18 * * *" --channel telegram --chat-id 12345
  recap schedule remove <id>`,
	}

	cmd.AddCommand(
		newScheduleListCmd(),
		newScheduleAddCmd(),
		newScheduleRemoveCmd(),
	)

	return cmd
}

func newScheduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all scheduled summary jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openScheduleStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			jobs, err := st.ListJobs(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing jobs: %w", err)
			}
			if len(jobs) == 0 {
				fmt.Println("No scheduled jobs.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCHEDULE\tCHANNEL\tCHAT\tCOUNT\tRUNS\tLAST ERROR")
			for _, j := range jobs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					j.ID, j.Schedule, j.Channel, j.ChatID, j.Count, j.RunCount, j.LastError)
			}
			return w.Flush()
		},
	}
}

func newScheduleAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <cron-expression>",
		Short: "Add a scheduled summary job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openScheduleStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			channel, _ := cmd.Flags().GetString("channel")
			chatID, _ := cmd.Flags().GetString("chat-id")
			session, _ := cmd.Flags().GetString("session")
			count, _ := cmd.Flags().GetInt("count")

			if chatID == "" {
				return fmt.Errorf("--chat-id is required")
			}

			// The scheduler validates the cron expression and persists the
			// job; the daemon picks it up on its next start.
			sched := scheduler.New(st, nil, nil)
			job, err := sched.Add(cmd.Context(), store.SummaryJob{
				Schedule:  args[0],
				Channel:   channel,
				ChatID:    chatID,
				SessionID: session,
				Count:     count,
			})
			if err != nil {
				return fmt.Errorf("adding job: %w", err)
			}

			fmt.Printf("Scheduled job %s: %q → %s/%s\n", job.ID, job.Schedule, job.Channel, job.ChatID)
			return nil
		},
	}

	cmd.Flags().String("channel", "telegram", "channel to deliver the summary on")
	cmd.Flags().String("chat-id", "", "chat ID to deliver the summary to")
	cmd.Flags().String("session", "", "session ID to summarize (defaults to the chat ID)")
	cmd.Flags().Int("count", 99, "maximum number of messages to include")
	return cmd
}

func newScheduleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a scheduled summary job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openScheduleStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteJob(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("removing job: %w", err)
			}
			fmt.Printf("Job %s removed.\n", args[0])
			return nil
		},
	}
}

// openScheduleStore loads config and opens the store for job management.
func openScheduleStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := buildLogger(cmd, cfg)

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hollevoet/recap/pkg/recap/store"
	"github.com/spf13/cobra"
)

// newHealthCmd creates the `recap health` command. Used by Docker
// HEALTHCHECK and monitoring; exits non-zero when a check fails.
func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		Long:  `Verify the configuration loads and the database opens, printing a JSON status report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}{
				Status: "ok",
				Checks: make(map[string]string, 2),
			}

			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				report.Status = "fail"
				report.Checks["config"] = err.Error()
			} else {
				report.Checks["config"] = "ok"

				st, err := store.Open(cfg.Database.Path, nil)
				if err != nil {
					report.Status = "fail"
					report.Checks["database"] = err.Error()
				} else {
					st.Close()
					report.Checks["database"] = "ok"
				}
			}

			out, err := json.Marshal(report)
			if err != nil {
				return fmt.Errorf("encoding health report: %w", err)
			}
			fmt.Println(string(out))

			if report.Status != "ok" {
				os.Exit(1)
			}
			return nil
		},
	}
}

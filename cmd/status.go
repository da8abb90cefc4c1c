package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bnema/streamguard/internal/adapters/render/activity"
	"github.com/bnema/streamguard/internal/application"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current per-user stream activity without enforcing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enforcer := app.newEnforcer(true)

			var report application.CycleReport
			poll := func(ctx context.Context) error {
				report = enforcer.RunCycle(ctx)
				return nil
			}

			if asJSON {
				if err := poll(cmd.Context()); err != nil {
					return err
				}
			} else {
				if err := runPollSpinner(cmd.Context(), cmd.ErrOrStderr(), "Polling media servers...", poll); err != nil {
					return err
				}
			}

			return writeReport(cmd, app, report, asJSON, activity.RenderOptions{ShowSessions: true})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/streamguard/internal/adapters/render/activity"
	"github.com/bnema/streamguard/internal/application"
)

func newCheckCmd(app *app) *cobra.Command {
	var dryRun bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one enforcement cycle and report the outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enforcer := app.newEnforcer(dryRun)

			var report application.CycleReport
			cycle := func(ctx context.Context) error {
				report = enforcer.RunCycle(ctx)
				return nil
			}

			if asJSON {
				if err := cycle(cmd.Context()); err != nil {
					return err
				}
			} else {
				if err := runPollSpinner(cmd.Context(), cmd.ErrOrStderr(), "Polling media servers...", cycle); err != nil {
					return err
				}
			}

			return writeReport(cmd, app, report, asJSON, activity.RenderOptions{})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate the policy without terminating sessions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeReport(cmd *cobra.Command, app *app, report application.CycleReport, asJSON bool, opts activity.RenderOptions) error {
	if asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode cycle report: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	rendered, err := app.renderer(report, opts)
	if err != nil {
		return fmt.Errorf("render cycle report: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

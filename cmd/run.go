package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/streamguard/internal/application"
)

func newRunCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the enforcement daemon",
		Long:  "Polls every configured media server at the configured interval and terminates the sessions of users streaming over the limit. Runs until interrupted; SIGINT or SIGTERM stops it cleanly after the current cycle.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app.logger.Info("streamguard starting",
				"servers", len(app.servers),
				"skipped", len(app.skipped),
				"max_streams", app.policy.MaxStreams,
				"interval", app.cfg.PollInterval,
			)

			scheduler := application.NewScheduler(app.newEnforcer(false), app.cfg.PollInterval, app.logger)
			return scheduler.Run(ctx)
		},
	}
}

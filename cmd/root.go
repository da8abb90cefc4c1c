package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sg",
		Short:         "StreamGuard (sg): enforce per-user stream limits across media servers",
		Long:          "sg (StreamGuard) polls your media-server backends for active playback sessions, counts streams per user across all of them, and terminates the sessions of users over the configured limit.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newCheckCmd(app),
		newStatusCmd(app),
		newServersCmd(app),
	)

	return rootCmd
}

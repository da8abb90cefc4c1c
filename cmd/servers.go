package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newServersCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List configured media servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if len(app.active) == 0 && len(app.skipped) == 0 {
				_, err := fmt.Fprintln(out, "No servers configured.")
				return err
			}

			for _, server := range app.active {
				if _, err := fmt.Fprintf(out, "%s\t%s\tactive\n", server.Name, server.URL); err != nil {
					return err
				}
			}
			for _, skipped := range app.skipped {
				if _, err := fmt.Fprintf(out, "%s\t%s\tskipped: %s\n", skipped.server.Name, skipped.server.URL, skipped.reason); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/ehrquery/internal/ui"
	"github.com/satishbabariya/ehrquery/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		check   string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if check != "" {
				if err := version.Check(info.Version, check); err != nil {
					return err
				}
				ui.PrintSuccess(cmd.OutOrStdout(), "%s satisfies %s", info.Version, check)
				return nil
			}
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), info.FullString())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&check, "check", "", `fail unless this build satisfies a version constraint, e.g. "0.2" or ">= 0.1, < 1.0"`)
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print build details")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCmdVersion returns a command that prints the application version.
func newCmdVersion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			full, _ := cmd.Flags().GetBool("full")
			if full {
				fmt.Fprintf(cmd.OutOrStdout(), "greenroom version %s commit %s built %s\n", version, commit, date)
				return
			}
			// Keep output minimal and script-friendly
			fmt.Fprintf(cmd.OutOrStdout(), "greenroom version %s\n", version)
		},
	}
	cmd.Flags().Bool("full", false, "Include commit hash and build date")
	return cmd
}

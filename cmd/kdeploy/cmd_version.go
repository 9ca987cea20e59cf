package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build details",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ver, rev, built := buildVersion()
			fmt.Fprintf(cmd.OutOrStdout(), "kdeploy %s\ncommit: %s\nbuilt:  %s\n", ver, rev, built)
		},
	}
}

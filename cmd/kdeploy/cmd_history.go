package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/koishi/kdeploy/internal/config"
	"github.com/koishi/kdeploy/usecase/deploy"
)

func newCmdHistory(conf *config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:                "history",
		Short:              "List recorded deploy runs, newest first",
		Args:               cobra.NoArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := buildHistoryUseCase(conf)
			if err != nil {
				return err
			}
			out, err := uc.History(cmd.Context(), &deploy.HistoryInput{Limit: limit})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out.Runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koishi/kdeploy/internal/config"
	"github.com/koishi/kdeploy/usecase/deploy"
)

func newCmdFile(conf *config.Config) *cobra.Command {
	var (
		vars     []string
		waitJobs bool
	)
	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Deploy a manifest template",
		Example: `  kdeploy file app.yaml --var registry=
  kdeploy file app.yaml --var.tag=v1.2.0 --rollout-parallel`,
		Args:               cobra.ExactArgs(1),
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOptions("", vars)
			if err != nil {
				return err
			}
			return runFile(cmd, conf, &deploy.FileInput{Path: args[0], Options: opts, WaitJobs: waitJobs})
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Placeholder binding name=value (repeatable)")
	cmd.Flags().BoolVar(&waitJobs, "wait-jobs", false, "Report Jobs that are not complete right after submission")
	return cmd
}

func runFile(cmd *cobra.Command, conf *config.Config, in *deploy.FileInput) (err error) {
	ctx, cleanup := withCmdRunLogger(cmd.Context(), "deploy.file", in.Path)
	defer func() { cleanup(err) }()

	uc, err := buildDeployUseCase(ctx, conf)
	if err != nil {
		return err
	}
	out, err := uc.File(ctx, in)
	if out != nil && out.ApplyResult != "" {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out.ApplyResult, "\n"))
	}
	if err != nil {
		return err
	}
	for _, j := range out.JobsIncomplete {
		fmt.Fprintf(cmd.OutOrStdout(), "job %s not complete yet\n", j)
	}
	printSuccess(cmd)
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koishi/kdeploy/internal/config"
	"github.com/koishi/kdeploy/usecase/deploy"
)

func newCmdMeta(conf *config.Config) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:                "meta <name>",
		Short:              "Provision a meta document (" + deploy.MetaPullSecretPrivate + ")",
		Example:            "  kdeploy meta " + deploy.MetaPullSecretPrivate + " -n shop",
		Args:               cobra.ExactArgs(1),
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOptions(namespace, nil)
			if err != nil {
				return err
			}
			return runMeta(cmd, conf, &deploy.MetaInput{Meta: args[0], Options: opts})
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Target namespace")
	return cmd
}

func runMeta(cmd *cobra.Command, conf *config.Config, in *deploy.MetaInput) (err error) {
	ctx, cleanup := withCmdRunLogger(cmd.Context(), "deploy.meta", in.Meta)
	defer func() { cleanup(err) }()

	if _, err := in.Validate(); err != nil {
		return err
	}
	uc, err := buildDeployUseCase(ctx, conf)
	if err != nil {
		return err
	}
	out, err := uc.Meta(ctx, in)
	if out != nil && out.ApplyResult != "" {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out.ApplyResult, "\n"))
	}
	if err != nil {
		return err
	}
	printSuccess(cmd)
	return nil
}

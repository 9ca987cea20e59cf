package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koishi/kdeploy/internal/config"
	"github.com/koishi/kdeploy/internal/logging"
	"github.com/koishi/kdeploy/usecase/deploy"
)

const flagConfig = "config"

func newRootCmd(conf *config.Config) (*cobra.Command, error) {
	var (
		file      string
		meta      string
		namespace string
		vars      []string
	)
	ver, _, _ := buildVersion()
	cmd := &cobra.Command{
		Use:   "kdeploy",
		Short: "Render, augment and roll out Kubernetes manifests",
		Long: `kdeploy resolves placeholders and secret references in a manifest template,
injects operational defaults into workloads, applies the result and waits for
Deployment rollouts.

Legacy form:
  kdeploy --file=app.yaml [--var.name=value ...]
  kdeploy --meta=` + deploy.MetaPullSecretPrivate + ` --namespace=shop`,
		Version:       ver,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOptions(namespace, vars)
			if err != nil {
				return err
			}
			switch {
			case file != "":
				return runFile(cmd, conf, &deploy.FileInput{Path: file, Options: opts})
			case meta != "":
				return runMeta(cmd, conf, &deploy.MetaInput{Meta: meta, Options: opts})
			default:
				return cmd.Help()
			}
		},
	}

	cmd.PersistentFlags().String(flagConfig, "", "Config file (default: kdeploy.yaml in ., ~/.config/kdeploy, /etc/kdeploy)")
	if err := conf.BindFlags(cmd.PersistentFlags(), config.Options); err != nil {
		return nil, err
	}

	cmd.Flags().StringVar(&file, "file", "", "Manifest template to deploy")
	cmd.Flags().StringVar(&meta, "meta", "", "Meta document to provision ("+deploy.MetaPullSecretPrivate+")")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Target namespace for --meta")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Placeholder binding name=value (repeatable, also --var.name=value)")
	cmd.MarkFlagsMutuallyExclusive("file", "meta")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(conf.LogLevel())
		if err != nil {
			return err
		}
		l, err := logging.New(conf.LogFormat(), level)
		if err != nil {
			return err
		}
		if f := conf.ConfigFile(); f != "" {
			l.Debug(c.Context(), "config loaded", "file", f)
		}
		c.SetContext(logging.WithLogger(c.Context(), l))
		return nil
	}

	cmd.AddCommand(
		newCmdFile(conf),
		newCmdMeta(conf),
		newCmdRender(conf),
		newCmdHistory(conf),
		newCmdVersion(),
	)
	return cmd, nil
}

func printSuccess(cmd *cobra.Command) {
	fmt.Fprintln(cmd.OutOrStdout(), "SUCCESS")
}

package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/koishi/kdeploy/internal/config"
	"github.com/koishi/kdeploy/internal/logging"
	"github.com/koishi/kdeploy/usecase/deploy"
)

func newCmdRender(conf *config.Config) *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:                "render <path>",
		Short:              "Print the manifest stream a deploy would submit, without applying it",
		Long:               "Print the manifest stream a deploy would submit, without applying it.\nSecret references are resolved, so the output may contain credentials.",
		Args:               cobra.ExactArgs(1),
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			opts, err := buildOptions("", vars)
			if err != nil {
				return err
			}
			ctx, cleanup := withCmdRunLogger(cmd.Context(), "deploy.render", args[0])
			defer func() { cleanup(err) }()

			uc, err := buildDeployUseCase(ctx, conf)
			if err != nil {
				return err
			}
			out, err := uc.Render(ctx, &deploy.RenderInput{Path: args[0], Options: opts})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if isTerminal(w) {
				logging.FromContext(ctx).Warn(ctx, "rendered manifest contains resolved secrets", "documents", len(out.Documents))
			}
			_, err = w.Write(out.Manifest)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Placeholder binding name=value (repeatable)")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

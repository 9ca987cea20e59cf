package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/koishi/kdeploy/internal/config"
	"github.com/koishi/kdeploy/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := normalizeArgs(os.Args[1:])
	conf, err := config.New(configFileFromArgs(args))
	if err != nil {
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		os.Exit(1)
	}
	root, err := newRootCmd(conf)
	if err != nil {
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		os.Exit(1)
	}
	root.SetArgs(args)
	executed, err := root.ExecuteContextC(ctx)
	if err != nil {
		if executed != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		stop()
		os.Exit(1)
	}
}

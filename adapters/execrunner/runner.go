// Package execrunner runs external commands for the kubectl driver and the Bitwarden CLI provider.
package execrunner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/internal/logging"
)

// Runner implements domain.CommandRunner on os/exec.
type Runner struct {
	// Stdout and Stderr receive streamed output of RunRaw and stderr of Run.
	// Nil means the process' own streams.
	Stdout io.Writer
	Stderr io.Writer
}

var _ domain.CommandRunner = (*Runner)(nil)

// New returns a Runner bound to the process' standard streams.
func New() *Runner { return &Runner{} }

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

// Run executes the command and captures stdout. A non-zero exit is reported through the
// exit code, not the error; the error is set only when the process could not be started.
func (r *Runner) Run(ctx context.Context, c domain.Command) (int, string, error) {
	logger := logging.FromContext(ctx).With("command", describe(c))
	logger.Debug(ctx, "Exec:Run/s")

	var out bytes.Buffer
	cmd := r.command(ctx, c)
	cmd.Stdout = &out
	cmd.Stderr = r.stderr()
	code, err := exitCode(cmd.Run())
	if err != nil {
		logger.Debug(ctx, "Exec:Run/efail", "err", err)
		return -1, "", err
	}
	logger.Debug(ctx, "Exec:Run/eok", "code", code)
	return code, out.String(), nil
}

// RunRaw streams the command output and reports whether it exited zero.
func (r *Runner) RunRaw(ctx context.Context, c domain.Command) bool {
	logger := logging.FromContext(ctx).With("command", describe(c))
	cmd := r.command(ctx, c)
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()
	code, err := exitCode(cmd.Run())
	if err != nil {
		logger.Warn(ctx, "Exec:RunRaw/efail", "err", err)
		return false
	}
	logger.Debug(ctx, "Exec:RunRaw/eok", "code", code)
	return code == 0
}

func (r *Runner) command(ctx context.Context, c domain.Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), nil
	}
	return -1, err
}

// describe renders the program and its leading arguments. Later arguments may carry
// secret material and are never logged.
func describe(c domain.Command) string {
	parts := append([]string{c.Name}, c.Args...)
	if len(parts) > 3 {
		parts = append(parts[:3], "...")
	}
	return strings.Join(parts, " ")
}

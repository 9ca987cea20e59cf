// Package kubectl implements the cluster API by invoking the kubectl binary.
package kubectl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/koishi/kdeploy/domain"
)

// DefaultCommand is the kubectl executable looked up in PATH.
const DefaultCommand = "kubectl"

// Client implements domain.ClusterAPI through a CommandRunner.
type Client struct {
	Runner domain.CommandRunner
	// Command is the kubectl executable; DefaultCommand when empty.
	Command string
	// Kubeconfig is passed as --kubeconfig when set.
	Kubeconfig string
}

var _ domain.ClusterAPI = (*Client)(nil)

// New returns a kubectl client.
func New(runner domain.CommandRunner, command, kubeconfig string) *Client {
	return &Client{Runner: runner, Command: command, Kubeconfig: kubeconfig}
}

func (c *Client) cmd(namespace string, args ...string) domain.Command {
	name := c.Command
	if name == "" {
		name = DefaultCommand
	}
	var full []string
	if c.Kubeconfig != "" {
		full = append(full, "--kubeconfig", c.Kubeconfig)
	}
	if namespace != "" {
		full = append(full, "-n", namespace)
	}
	return domain.Command{Name: name, Args: append(full, args...)}
}

// Apply runs `kubectl apply -f <path>` and returns its output.
func (c *Client) Apply(ctx context.Context, path string) (string, error) {
	code, out, err := c.Runner.Run(ctx, c.cmd("", "apply", "-f", path))
	if err != nil {
		return "", fmt.Errorf("run kubectl apply: %w", err)
	}
	if code != 0 {
		return out, fmt.Errorf("kubectl apply exited with code %d", code)
	}
	return strings.TrimRight(out, "\n"), nil
}

// RolloutStatus runs `kubectl rollout status` with the output streamed to the terminal.
func (c *Client) RolloutStatus(ctx context.Context, namespace, kind, name string, timeout time.Duration) (bool, error) {
	cmd := c.cmd(namespace, "rollout", "status", strings.ToLower(kind), name, "--timeout="+formatTimeout(timeout))
	return c.Runner.RunRaw(ctx, cmd), nil
}

// RolloutRestart runs `kubectl rollout restart`.
func (c *Client) RolloutRestart(ctx context.Context, namespace, kind, name string) error {
	code, out, err := c.Runner.Run(ctx, c.cmd(namespace, "rollout", "restart", strings.ToLower(kind), name))
	if err != nil {
		return fmt.Errorf("run kubectl rollout restart: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("kubectl rollout restart %s/%s exited with code %d: %s", namespace, name, code, strings.TrimSpace(out))
	}
	return nil
}

// JobCondition runs `kubectl wait --for=condition=<c> --timeout=0 job <name>`.
// A non-zero exit means the condition is not currently met.
func (c *Client) JobCondition(ctx context.Context, namespace, name, condition string) (bool, error) {
	code, _, err := c.Runner.Run(ctx, c.cmd(namespace, "wait", "--for=condition="+condition, "--timeout=0", "job", name))
	if err != nil {
		return false, fmt.Errorf("run kubectl wait: %w", err)
	}
	return code == 0, nil
}

// formatTimeout renders whole seconds as kubectl expects them, e.g. "300s".
func formatTimeout(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("%ds", secs)
}

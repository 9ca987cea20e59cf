package domain

import (
	"context"
	"time"

	"github.com/koishi/kdeploy/domain/model"
)

// SecretProvider resolves named secrets, renders secret references in text,
// and materializes secret attachments.
type SecretProvider interface {
	// Resolve returns the value stored under key.
	Resolve(ctx context.Context, key string) (string, error)
	// RenderText substitutes every secret reference in text. All unresolved
	// references are reported; a non-empty error slice means the rendered text is unusable.
	RenderText(ctx context.Context, text string) (string, []error)
	// DownloadAttachment writes the named attachment of secretName to destPath.
	DownloadAttachment(ctx context.Context, secretName, attachmentName, destPath string) error
}

// ClusterAPI accepts manifest sets and reports rollout status.
type ClusterAPI interface {
	// Apply submits the manifest stream at manifestPath and returns the per-document
	// result text, one "<resource>/<name> <action>" line per document.
	Apply(ctx context.Context, manifestPath string) (string, error)
	// RolloutStatus waits up to timeout for the workload rollout to complete.
	// A false result with nil error means the rollout did not settle.
	RolloutStatus(ctx context.Context, namespace, kind, name string, timeout time.Duration) (bool, error)
	// RolloutRestart triggers a rollout restart of the workload.
	RolloutRestart(ctx context.Context, namespace, kind, name string) error
	// JobCondition reports whether the Job currently has condition set to True.
	JobCondition(ctx context.Context, namespace, name, condition string) (bool, error)
}

// Command is one external process invocation.
type Command struct {
	Name string
	Args []string
	// Env entries are appended to the current process environment.
	Env []string
}

// CommandRunner executes external commands.
type CommandRunner interface {
	// Run captures stdout and returns the exit code. The error is non-nil only
	// when the process could not be started.
	Run(ctx context.Context, cmd Command) (int, string, error)
	// RunRaw streams output to the terminal and reports success.
	RunRaw(ctx context.Context, cmd Command) bool
}

// ImageArchResolver reports the CPU architectures an image is published for.
type ImageArchResolver interface {
	Architectures(ctx context.Context, image string) ([]string, error)
}

// RunJournal records finished runs.
type RunJournal interface {
	Record(ctx context.Context, run *model.Run) error
	List(ctx context.Context, limit int) ([]*model.Run, error)
}

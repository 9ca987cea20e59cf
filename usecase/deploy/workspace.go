package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the scoped temporary directory of one run. It holds the rendered
// manifest and downloaded attachments and is removed by Close.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh temporary directory.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "kdeploy-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path returns the path of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, filepath.Base(name))
}

// AttachmentPath returns the path of an attachment inside the workspace, creating
// its directory. Each secret gets its own directory, so attachments with the same
// name from different secrets never share a file.
func (w *Workspace) AttachmentPath(secretName, attachmentName string) (string, error) {
	dir := filepath.Join(w.Dir, "attachments", pathSafe(secretName))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create attachment directory: %w", err)
	}
	return filepath.Join(dir, pathSafe(attachmentName)), nil
}

func pathSafe(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		name = "_" + name
	}
	return name
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	return os.RemoveAll(w.Dir)
}

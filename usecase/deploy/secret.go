package deploy

import (
	"context"
	"fmt"
	"sync"

	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/domain/model"
	"github.com/koishi/kdeploy/internal/logging"
)

// SecretRenderer resolves secret references in manifest text and materializes
// attachments inside the run workspace.
type SecretRenderer struct {
	Provider  domain.SecretProvider
	Workspace *Workspace

	mu          sync.Mutex
	attachments map[string]string
}

// NewSecretRenderer binds a provider to a run workspace.
func NewSecretRenderer(p domain.SecretProvider, ws *Workspace) *SecretRenderer {
	return &SecretRenderer{Provider: p, Workspace: ws}
}

// Render substitutes all secret references. Any unresolved reference fails the whole text.
func (r *SecretRenderer) Render(ctx context.Context, text string) (string, error) {
	out, errs := r.Provider.RenderText(ctx, text)
	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return "", &model.SecretResolutionError{Errors: msgs}
	}
	return out, nil
}

// Attachment downloads an attachment once per run and returns its workspace path.
func (r *SecretRenderer) Attachment(ctx context.Context, secretName, attachmentName string) (string, error) {
	key := secretName + "/" + attachmentName
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.attachments[key]; ok {
		return p, nil
	}
	if r.Workspace == nil {
		return "", fmt.Errorf("no workspace for attachment %s", key)
	}
	path, err := r.Workspace.AttachmentPath(secretName, attachmentName)
	if err != nil {
		return "", err
	}
	if err := r.Provider.DownloadAttachment(ctx, secretName, attachmentName, path); err != nil {
		return "", fmt.Errorf("download attachment %s: %w", key, err)
	}
	logging.FromContext(ctx).Debug(ctx, "attachment downloaded", "secret", secretName, "attachment", attachmentName)
	if r.attachments == nil {
		r.attachments = map[string]string{}
	}
	r.attachments[key] = path
	return path, nil
}

package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/koishi/kdeploy/adapters/kube"
	"github.com/koishi/kdeploy/domain/model"
	"github.com/koishi/kdeploy/internal/naming"
)

type RenderInput struct {
	Path    string
	Options model.Options
}

type RenderOutput struct {
	RunID     string
	Manifest  []byte
	Documents []string
}

// Render runs the rewrite stage only and returns the manifest stream that File would submit.
// Secret references are resolved, so the output may contain credentials.
func (u *UseCase) Render(ctx context.Context, in *RenderInput) (*RenderOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("RenderInput is required")
	}
	if in.Path == "" {
		return nil, &model.MissingArgumentError{Name: model.OptionFile}
	}

	st, ctx := u.startRun(ctx, model.RunOpRender, in.Path)
	out := &RenderOutput{RunID: st.run.ID}
	err := func() error {
		raw, err := os.ReadFile(in.Path)
		if err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
		ws, err := NewWorkspace()
		if err != nil {
			return err
		}
		defer ws.Close()
		docs, err := u.rewrite(ctx, st, ws, raw, in.Options)
		if err != nil {
			return err
		}
		out.Manifest, err = kube.EncodeManifest(docs)
		if err != nil {
			return err
		}
		st.run.Digest = naming.ManifestDigest(out.Manifest)
		return nil
	}()
	u.finish(ctx, st, err)
	out.Documents = st.run.Documents
	return out, err
}

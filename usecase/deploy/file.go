package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/koishi/kdeploy/domain/model"
)

type FileInput struct {
	// Path is the manifest template to deploy.
	Path    string
	Options model.Options
	// WaitJobs probes Job completion right after submission and reports incomplete Jobs.
	WaitJobs bool
}

// File deploys the manifest template at in.Path: placeholders and secret references are
// resolved, workloads are augmented, the set is applied and Deployment rollouts are verified.
func (u *UseCase) File(ctx context.Context, in *FileInput) (*RunOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("FileInput is required")
	}
	if in.Path == "" {
		return nil, &model.MissingArgumentError{Name: model.OptionFile}
	}

	st, ctx := u.startRun(ctx, model.RunOpFile, in.Path)
	out := &RunOutput{RunID: st.run.ID}
	err := u.runFile(ctx, st, in, out)
	u.finish(ctx, st, err)
	out.State = st.run.State
	out.Documents = st.run.Documents
	return out, err
}

func (u *UseCase) runFile(ctx context.Context, st *runState, in *FileInput, out *RunOutput) error {
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
	return u.submit(ctx, st, ws, docs, in.WaitJobs, out)
}

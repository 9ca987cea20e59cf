package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/koishi/kdeploy/adapters/kube"
	"github.com/koishi/kdeploy/domain/model"
	"github.com/koishi/kdeploy/internal/logging"
	"github.com/koishi/kdeploy/internal/naming"
)

// manifestFileName is the name of the rendered manifest inside the run workspace.
const manifestFileName = "manifest.yaml"

// RunOutput describes the outcome of a deploy run.
type RunOutput struct {
	RunID string
	State model.RunState
	// Documents lists the identities of the submitted documents in order.
	Documents []string
	// ApplyResult is the per-document result text reported by the cluster.
	ApplyResult string
	// Verified lists the Deployments whose rollout completed.
	Verified []string
	// Restarted lists the Deployments restarted by the restart-on-unchanged policy.
	Restarted []string
	// JobsIncomplete lists Jobs that were not yet complete right after submission.
	JobsIncomplete []string
}

// rewrite runs the Start→Rewritten stage over raw manifest text.
func (u *UseCase) rewrite(ctx context.Context, st *runState, ws *Workspace, raw []byte, opts model.Options) ([]*model.Document, error) {
	cfg := u.config()
	set, err := resolveSettings(ctx, u.Secrets, cfg, false)
	if err != nil {
		return nil, err
	}
	renderer := NewSecretRenderer(u.Secrets, ws)

	text := ResolvePlaceholders(string(raw), opts.Vars())
	text, err = renderer.Render(ctx, text)
	if err != nil {
		return nil, err
	}
	docs, err := kube.DecodeManifest([]byte(text))
	if err != nil {
		return nil, err
	}

	aug := &Augmenter{
		Timezone: set.Timezone,
		Arch:     u.Arch,
		Registry: &RegistryResolver{
			Private:     set.Private,
			Public:      set.Public,
			PullSecrets: newPullSecretBuilder(u.Secrets, renderer, set.Private, cfg),
		},
	}
	var out []*model.Document
	for _, d := range docs {
		d.ApplyDefaultNamespace()
		augmented, err := aug.Augment(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, augmented...)
	}
	out = dedupePullSecrets(out)

	st.run.Documents = documentKeys(out)
	st.transition(ctx, model.RunRewritten, "documents", len(out))
	return out, nil
}

// dedupePullSecrets keeps the first pull secret document for each (namespace, name).
func dedupePullSecrets(docs []*model.Document) []*model.Document {
	seen := map[model.DocumentKey]bool{}
	out := docs[:0:0]
	for _, d := range docs {
		if d.Kind() == model.KindPullSecret {
			k := d.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, d)
	}
	return out
}

// submit runs Rewritten→Submitted and then verification of the submitted set.
func (u *UseCase) submit(ctx context.Context, st *runState, ws *Workspace, docs []*model.Document, waitJobs bool, out *RunOutput) error {
	logger := logging.FromContext(ctx)
	cfg := u.config()

	data, err := kube.EncodeManifest(docs)
	if err != nil {
		return err
	}
	path := ws.Path(manifestFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	st.run.Digest = naming.ManifestDigest(data)
	logger.Info(ctx, "generated manifest", "path", path, "digest", st.run.Digest)

	result, err := u.Cluster.Apply(ctx, path)
	out.ApplyResult = result
	if err != nil {
		return &model.ApplyError{Output: result, Err: err}
	}
	st.transition(ctx, model.RunSubmitted)

	deployments := selectKind(docs, model.KindDeployment)
	if cfg.RestartUnchanged {
		restarted, err := u.restartUnchanged(ctx, deployments, result)
		out.Restarted = restarted
		if err != nil {
			return err
		}
	}
	if waitJobs {
		out.JobsIncomplete = u.probeJobs(ctx, selectKind(docs, model.KindJob))
	}

	verified, err := u.verify(ctx, deployments)
	out.Verified = verified
	if err != nil {
		return err
	}
	st.transition(ctx, model.RunVerified, "deployments", len(verified))
	return nil
}

func selectKind(docs []*model.Document, kind model.Kind) []*model.Document {
	var out []*model.Document
	for _, d := range docs {
		if d.Kind() == kind {
			out = append(out, d)
		}
	}
	return out
}

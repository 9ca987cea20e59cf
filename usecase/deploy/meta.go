package deploy

import (
	"context"
	"fmt"

	"github.com/koishi/kdeploy/domain/model"
	"github.com/koishi/kdeploy/internal/naming"
)

type MetaInput struct {
	// Meta names the document to provision. Only MetaPullSecretPrivate is known.
	Meta    string
	Options model.Options
}

// Validate checks the meta name and the namespace option and returns the namespace.
func (in *MetaInput) Validate() (string, error) {
	if in == nil {
		return "", fmt.Errorf("MetaInput is required")
	}
	if in.Meta != MetaPullSecretPrivate {
		return "", &model.UnsupportedMetaError{Meta: in.Meta, Supported: MetaPullSecretPrivate}
	}
	namespace, _ := in.Options.Get(model.OptionNamespace)
	if namespace == "" {
		return "", &model.MissingArgumentError{Name: model.OptionNamespace}
	}
	if err := naming.ValidateNamespace(namespace); err != nil {
		return "", err
	}
	return namespace, nil
}

// Meta provisions the private registry pull secret in the namespace given by the
// namespace option. Arguments are validated before any provider or cluster call.
func (u *UseCase) Meta(ctx context.Context, in *MetaInput) (*RunOutput, error) {
	namespace, err := in.Validate()
	if err != nil {
		return nil, err
	}

	st, ctx := u.startRun(ctx, model.RunOpMeta, in.Meta)
	out := &RunOutput{RunID: st.run.ID}
	err = u.runMeta(ctx, st, namespace, out)
	u.finish(ctx, st, err)
	out.State = st.run.State
	out.Documents = st.run.Documents
	return out, err
}

func (u *UseCase) runMeta(ctx context.Context, st *runState, namespace string, out *RunOutput) error {
	ws, err := NewWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	cfg := u.config()
	set, err := resolveSettings(ctx, u.Secrets, cfg, true)
	if err != nil {
		return err
	}
	builder := newPullSecretBuilder(u.Secrets, NewSecretRenderer(u.Secrets, ws), set.Private, cfg)
	doc, err := builder.Build(ctx, namespace)
	if err != nil {
		return err
	}
	docs := []*model.Document{doc}
	st.run.Documents = documentKeys(docs)
	st.transition(ctx, model.RunRewritten, "documents", len(docs))
	return u.submit(ctx, st, ws, docs, false, out)
}

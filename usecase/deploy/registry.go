package deploy

import (
	"context"

	"github.com/koishi/kdeploy/domain/model"
)

// RegistryResolver rewrites registry-class image prefixes into qualified paths and
// decides which pull secret documents a pod spec needs.
type RegistryResolver struct {
	Private     model.Registry
	Public      model.Registry
	PullSecrets PullSecretSource
}

// Preview returns the qualified form of image without touching any document.
// Images outside both classes are returned unchanged.
func (r *RegistryResolver) Preview(image string) string {
	if rest, ok := r.Private.Match(image); ok {
		return r.Private.Qualify(rest)
	}
	if rest, ok := r.Public.Match(image); ok {
		return r.Public.Qualify(rest)
	}
	return image
}

// Resolve rewrites images of containers and init containers in place and returns the
// pull secret document for namespace when the spec references the private pull secret.
func (r *RegistryResolver) Resolve(ctx context.Context, namespace string, ps *model.PodSpec) ([]*model.Document, error) {
	for _, c := range ps.AllContainers() {
		image := c.Image()
		if rest, ok := r.Private.Match(image); ok {
			c.SetImage(r.Private.Qualify(rest))
			if r.Private.PullSecret != "" {
				ps.AddImagePullSecret(r.Private.PullSecret)
			}
		} else if rest, ok := r.Public.Match(image); ok {
			c.SetImage(r.Public.Qualify(rest))
		}
	}

	if r.Private.PullSecret == "" || !ps.HasImagePullSecret(r.Private.PullSecret) || r.PullSecrets == nil {
		return nil, nil
	}
	doc, err := r.PullSecrets.Build(ctx, namespace)
	if err != nil {
		return nil, err
	}
	return []*model.Document{doc}, nil
}

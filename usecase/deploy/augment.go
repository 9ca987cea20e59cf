package deploy

import (
	"context"
	"fmt"
	"slices"

	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/domain/model"
	"github.com/koishi/kdeploy/internal/logging"
)

// Operational defaults injected into workload pod specs.
const (
	DefaultTerminationGracePeriod int64 = 5
	EnvTimezone                         = "TZ"
	LabelArch                           = "kubernetes.io/arch"
	ArchAMD64                           = "amd64"
)

// Augmenter injects operational defaults into workload documents.
type Augmenter struct {
	Timezone string
	Arch     domain.ImageArchResolver
	Registry *RegistryResolver
}

// Augment mutates doc in place and returns it followed by the pull secret documents
// it requires. Documents that are not workloads are returned unchanged.
func (a *Augmenter) Augment(ctx context.Context, doc *model.Document) ([]*model.Document, error) {
	kind := doc.Kind()
	switch kind {
	case model.KindDeployment, model.KindCronJob, model.KindJob:
	default:
		return []*model.Document{doc}, nil
	}

	spec := doc.Spec()
	if spec == nil {
		return nil, fmt.Errorf("%s: spec is missing", doc.Key())
	}
	switch kind {
	case model.KindDeployment:
		if spec["strategy"] == nil {
			spec["strategy"] = map[string]any{
				"type": "RollingUpdate",
				"rollingUpdate": map[string]any{
					"maxSurge":       "100%",
					"maxUnavailable": int64(0),
				},
			}
		}
	case model.KindCronJob:
		if spec["timeZone"] == nil {
			spec["timeZone"] = a.Timezone
		}
	}

	ps := model.LocatePodSpec(doc)
	if ps == nil {
		return nil, fmt.Errorf("%s: pod template spec is missing", doc.Key())
	}
	a.applyPodDefaults(ctx, ps)

	out := []*model.Document{doc}
	if a.Registry != nil {
		satellites, err := a.Registry.Resolve(ctx, doc.Namespace(), ps)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Key(), err)
		}
		out = append(out, satellites...)
	}
	return out, nil
}

func (a *Augmenter) applyPodDefaults(ctx context.Context, ps *model.PodSpec) {
	if !ps.HasTerminationGracePeriod() {
		ps.SetTerminationGracePeriod(DefaultTerminationGracePeriod)
	}

	containers := ps.Containers()
	for _, c := range containers {
		c.EnsureEnv(EnvTimezone, a.Timezone)
	}

	selector := ps.EnsureNodeSelector()
	if len(selector) > 0 {
		return
	}
	var images []string
	for _, c := range containers {
		if img := c.Image(); img != "" {
			images = append(images, img)
		}
	}
	if !a.allSupport(ctx, images, ArchAMD64) {
		selector[LabelArch] = ArchAMD64
	}
}

// allSupport reports whether every image is published for arch. Images are looked up
// in their registry-qualified form; a failed lookup counts as unsupported.
func (a *Augmenter) allSupport(ctx context.Context, images []string, arch string) bool {
	if a.Arch == nil {
		return true
	}
	logger := logging.FromContext(ctx)
	for _, img := range images {
		if a.Registry != nil {
			img = a.Registry.Preview(img)
		}
		archs, err := a.Arch.Architectures(ctx, img)
		if err != nil {
			logger.Warn(ctx, "image architecture lookup failed", "image", img, "err", err)
			return false
		}
		logger.Info(ctx, "image architectures", "image", img, "archs", archs)
		if !slices.Contains(archs, arch) {
			return false
		}
	}
	return true
}

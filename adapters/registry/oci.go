package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/distribution/reference"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/internal/logging"
)

// Docker media types still served by many registries.
const (
	mediaTypeDockerManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"
	mediaTypeDockerManifest     = "application/vnd.docker.distribution.manifest.v2+json"
)

// dockerHubHost is where docker.io references are actually served.
const dockerHubHost = "registry-1.docker.io"

// OCI resolves architectures by reading image indexes and configs from the registry.
// Results are memoized per image reference.
type OCI struct {
	// PlainHTTP talks to registries over http.
	PlainHTTP bool
	// Client overrides the authenticated HTTP client built from the Docker credential store.
	Client remote.Client

	mu    sync.Mutex
	cache map[string][]string
}

var _ domain.ImageArchResolver = (*OCI)(nil)

// NewOCI returns a registry-backed resolver.
func NewOCI(plainHTTP bool) *OCI {
	return &OCI{PlainHTTP: plainHTTP}
}

// Architectures returns the sorted, de-duplicated architectures image is published for.
func (o *OCI) Architectures(ctx context.Context, image string) ([]string, error) {
	o.mu.Lock()
	if archs, ok := o.cache[image]; ok {
		o.mu.Unlock()
		return archs, nil
	}
	o.mu.Unlock()

	archs, err := o.lookup(ctx, image)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug(ctx, "Registry:Architectures/eok", "image", image, "archs", archs)

	o.mu.Lock()
	if o.cache == nil {
		o.cache = map[string][]string{}
	}
	o.cache[image] = archs
	o.mu.Unlock()
	return archs, nil
}

func (o *OCI) lookup(ctx context.Context, image string) ([]string, error) {
	repoName, ref, err := splitImage(image)
	if err != nil {
		return nil, err
	}
	repo, err := remote.NewRepository(repoName)
	if err != nil {
		return nil, fmt.Errorf("initialize repository %s: %w", repoName, err)
	}
	repo.PlainHTTP = o.PlainHTTP
	repo.Client = o.client()

	desc, rc, err := repo.FetchReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", image, err)
	}
	defer rc.Close()
	body, err := content.ReadAll(rc, desc)
	if err != nil {
		return nil, fmt.Errorf("read manifest of %s: %w", image, err)
	}

	switch desc.MediaType {
	case ocispec.MediaTypeImageIndex, mediaTypeDockerManifestList:
		var idx ocispec.Index
		if err := json.Unmarshal(body, &idx); err != nil {
			return nil, fmt.Errorf("decode index of %s: %w", image, err)
		}
		return indexArchitectures(idx), nil
	case ocispec.MediaTypeImageManifest, mediaTypeDockerManifest:
		var m ocispec.Manifest
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, fmt.Errorf("decode manifest of %s: %w", image, err)
		}
		crc, err := repo.Blobs().Fetch(ctx, m.Config)
		if err != nil {
			return nil, fmt.Errorf("fetch config of %s: %w", image, err)
		}
		defer crc.Close()
		cfg, err := content.ReadAll(crc, m.Config)
		if err != nil {
			return nil, fmt.Errorf("read config of %s: %w", image, err)
		}
		var img ocispec.Image
		if err := json.Unmarshal(cfg, &img); err != nil {
			return nil, fmt.Errorf("decode config of %s: %w", image, err)
		}
		if img.Architecture == "" {
			return nil, nil
		}
		return []string{img.Architecture}, nil
	default:
		return nil, fmt.Errorf("unsupported manifest media type %q for %s", desc.MediaType, image)
	}
}

func (o *OCI) client() remote.Client {
	if o.Client != nil {
		return o.Client
	}
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	c := &auth.Client{
		Client: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		c.Credential = credentials.Credential(credStore)
	}
	return c
}

// indexArchitectures collects platform architectures of an index, skipping
// attestation entries published as unknown/unknown.
func indexArchitectures(idx ocispec.Index) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range idx.Manifests {
		if m.Platform == nil || m.Platform.Architecture == "" || m.Platform.Architecture == "unknown" {
			continue
		}
		if !seen[m.Platform.Architecture] {
			seen[m.Platform.Architecture] = true
			out = append(out, m.Platform.Architecture)
		}
	}
	sort.Strings(out)
	return out
}

// splitImage normalizes an image reference into "<registry>/<path>" and a tag or digest.
// Missing tags default to latest.
func splitImage(image string) (string, string, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", "", fmt.Errorf("parse image reference %q: %w", image, err)
	}
	host := reference.Domain(named)
	if host == "docker.io" {
		host = dockerHubHost
	}
	repoName := host + "/" + reference.Path(named)

	switch r := named.(type) {
	case reference.Canonical:
		return repoName, r.Digest().String(), nil
	case reference.Tagged:
		return repoName, r.Tag(), nil
	default:
		return repoName, "latest", nil
	}
}

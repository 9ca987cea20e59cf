package deploy

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/koishi/kdeploy/adapters/kube"
	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/domain/model"
)

// PullSecretSource builds docker-registry secret documents for the private registry.
type PullSecretSource interface {
	Build(ctx context.Context, namespace string) (*model.Document, error)
}

// PullSecretBuilder shapes the private registry credential held by the secret provider
// into a pull secret document. The credential is fetched once per builder.
type PullSecretBuilder struct {
	Provider   domain.SecretProvider
	Renderer   *SecretRenderer
	Registry   model.Registry
	Item       string
	Attachment string
	Username   string
	EmailKey   string

	mu   sync.Mutex
	auth *kube.DockerRegistryAuth
}

func newPullSecretBuilder(p domain.SecretProvider, r *SecretRenderer, reg model.Registry, cfg *Config) *PullSecretBuilder {
	return &PullSecretBuilder{
		Provider:   p,
		Renderer:   r,
		Registry:   reg,
		Item:       cfg.PullSecretItem,
		Attachment: cfg.PullSecretAttachment,
		Username:   cfg.PullSecretUsername,
		EmailKey:   cfg.KeyPrefix + settingEmail,
	}
}

func (b *PullSecretBuilder) credentials(ctx context.Context) (kube.DockerRegistryAuth, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.auth != nil {
		return *b.auth, nil
	}
	path, err := b.Renderer.Attachment(ctx, b.Item, b.Attachment)
	if err != nil {
		return kube.DockerRegistryAuth{}, err
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return kube.DockerRegistryAuth{}, fmt.Errorf("read registry key: %w", err)
	}
	email, err := b.Provider.Resolve(ctx, b.EmailKey)
	if err != nil {
		return kube.DockerRegistryAuth{}, fmt.Errorf("resolve registry email: %w", err)
	}
	b.auth = &kube.DockerRegistryAuth{
		Server:   b.Registry.Host,
		Username: b.Username,
		Password: strings.TrimRight(string(key), "\r\n"),
		Email:    email,
	}
	return *b.auth, nil
}

// Build returns the pull secret document scoped to namespace.
func (b *PullSecretBuilder) Build(ctx context.Context, namespace string) (*model.Document, error) {
	auth, err := b.credentials(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := kube.PullSecretDocument(namespace, b.Registry.PullSecret, auth)
	if err != nil {
		return nil, fmt.Errorf("build pull secret %s/%s: %w", namespace, b.Registry.PullSecret, err)
	}
	return doc, nil
}

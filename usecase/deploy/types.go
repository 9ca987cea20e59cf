package deploy

import (
	"time"

	"github.com/koishi/kdeploy/domain"
)

// MetaPullSecretPrivate is the only meta document kdeploy can provision on its own.
const MetaPullSecretPrivate = "pullsecret-cloudprivate"

// DefaultRolloutTimeout bounds the rollout verification of one Deployment.
const DefaultRolloutTimeout = 300 * time.Second

// Config holds the run policies and naming used by deploy use cases.
type Config struct {
	// KeyPrefix is prepended to setting keys looked up in the secret provider.
	KeyPrefix string
	// PrivatePrefix and PublicPrefix are the image prefixes of the two registry classes.
	PrivatePrefix string
	PublicPrefix  string
	// PrivatePullSecret is the pull secret name required by private images.
	PrivatePullSecret string
	// PullSecretItem and PullSecretAttachment locate the registry key in the secret provider.
	PullSecretItem       string
	PullSecretAttachment string
	// PullSecretUsername is the registry username stored in the pull secret.
	PullSecretUsername string
	// RolloutTimeout bounds the rollout verification of each Deployment.
	RolloutTimeout time.Duration
	// ParallelRollout verifies Deployments concurrently.
	ParallelRollout bool
	// RestartUnchanged restarts Deployments that apply reported as unchanged.
	RestartUnchanged bool
}

// DefaultConfig returns the stock naming and policies.
func DefaultConfig() *Config {
	return &Config{
		KeyPrefix:            "koishi.deploy.",
		PrivatePrefix:        "cloudprivate/",
		PublicPrefix:         "cloudpublic/",
		PrivatePullSecret:    "dockersecret-cloudprivate",
		PullSecretItem:       "gcp.files",
		PullSecretAttachment: "pull-image.json",
		PullSecretUsername:   "_json_key",
		RolloutTimeout:       DefaultRolloutTimeout,
	}
}

func (c *Config) rolloutTimeout() time.Duration {
	if c.RolloutTimeout <= 0 {
		return DefaultRolloutTimeout
	}
	return c.RolloutTimeout
}

// UseCase wires the ports needed for deploy use cases.
type UseCase struct {
	Secrets domain.SecretProvider
	Cluster domain.ClusterAPI
	Arch    domain.ImageArchResolver
	// Journal is optional; runs are not recorded when nil.
	Journal domain.RunJournal
	Config  *Config
}

func (u *UseCase) config() *Config {
	if u.Config == nil {
		return DefaultConfig()
	}
	return u.Config
}

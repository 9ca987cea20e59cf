package main

import (
	"context"
	"fmt"

	"github.com/koishi/kdeploy/adapters/execrunner"
	"github.com/koishi/kdeploy/adapters/kube"
	"github.com/koishi/kdeploy/adapters/kubectl"
	"github.com/koishi/kdeploy/adapters/registry"
	"github.com/koishi/kdeploy/adapters/secrets"
	"github.com/koishi/kdeploy/adapters/store/rdb"
	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/internal/config"
	"github.com/koishi/kdeploy/usecase/deploy"
)

// buildDeployUseCase wires the deploy use case from configuration.
func buildDeployUseCase(ctx context.Context, conf *config.Config) (*deploy.UseCase, error) {
	sp, err := buildSecretProvider(conf)
	if err != nil {
		return nil, err
	}
	cluster, err := buildCluster(ctx, conf)
	if err != nil {
		return nil, err
	}
	journal, err := buildJournal(conf)
	if err != nil {
		return nil, err
	}
	return &deploy.UseCase{
		Secrets: sp,
		Cluster: cluster,
		Arch:    buildArchResolver(conf),
		Journal: journal,
		Config:  buildDeployConfig(conf),
	}, nil
}

// buildHistoryUseCase wires only the journal; history never touches secrets or the cluster.
func buildHistoryUseCase(conf *config.Config) (*deploy.UseCase, error) {
	journal, err := buildJournal(conf)
	if err != nil {
		return nil, err
	}
	if journal == nil {
		return nil, fmt.Errorf("%s is not set", config.KeyJournalURL)
	}
	return &deploy.UseCase{Journal: journal, Config: buildDeployConfig(conf)}, nil
}

func buildDeployConfig(conf *config.Config) *deploy.Config {
	cfg := deploy.DefaultConfig()
	cfg.KeyPrefix = conf.SecretsKeyPrefix()
	cfg.PrivatePrefix = conf.PrivatePrefix()
	cfg.PublicPrefix = conf.PublicPrefix()
	cfg.PrivatePullSecret = conf.PrivatePullSecret()
	cfg.PullSecretItem = conf.PullSecretItem()
	cfg.PullSecretAttachment = conf.PullSecretAttachment()
	cfg.PullSecretUsername = conf.PullSecretUsername()
	cfg.RolloutTimeout = conf.RolloutTimeout()
	cfg.ParallelRollout = conf.RolloutParallel()
	cfg.RestartUnchanged = conf.RolloutRestartUnchanged()
	return cfg
}

func buildSecretProvider(conf *config.Config) (domain.SecretProvider, error) {
	left, right := conf.SecretsDelims()
	delims := secrets.Delims{Left: left, Right: right}
	switch p := conf.SecretsProvider(); p {
	case config.SecretsBitwarden:
		bw := secrets.NewBitwarden(execrunner.New(), conf.SecretsBWCommand())
		bw.Delims = delims
		return bw, nil
	case config.SecretsFile:
		if conf.SecretsFile() == "" {
			return nil, fmt.Errorf("%s is required for the file secret provider", config.KeySecretsFile)
		}
		f, err := secrets.LoadFile(conf.SecretsFile())
		if err != nil {
			return nil, err
		}
		f.Delims = delims
		return f, nil
	default:
		return nil, fmt.Errorf("unknown secret provider %q", p)
	}
}

func buildCluster(ctx context.Context, conf *config.Config) (domain.ClusterAPI, error) {
	switch d := conf.ClusterDriver(); d {
	case config.DriverKubectl:
		return kubectl.New(execrunner.New(), conf.ClusterKubectl(), conf.ClusterKubeconfig()), nil
	case config.DriverNative:
		quietKlog()
		ver, _, _ := buildVersion()
		c, err := kube.NewClientFromKubeconfigPath(ctx, conf.ClusterKubeconfig(), &kube.Options{UserAgent: "kdeploy/" + ver})
		if err != nil {
			return nil, err
		}
		return kube.NewCluster(c, conf.ClusterFieldManager()), nil
	default:
		return nil, fmt.Errorf("unknown cluster driver %q", d)
	}
}

func buildArchResolver(conf *config.Config) domain.ImageArchResolver {
	if conf.ArchResolver() == config.ArchRegistry {
		return registry.NewOCI(conf.ArchPlainHTTP())
	}
	return registry.NewStatic()
}

// buildJournal returns nil when no journal URL is configured.
func buildJournal(conf *config.Config) (domain.RunJournal, error) {
	url := conf.JournalURL()
	if url == "" {
		return nil, nil
	}
	return rdb.OpenJournal(url)
}

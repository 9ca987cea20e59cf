package deploy

import (
	"context"
	"fmt"

	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/domain/model"
)

// Setting keys looked up in the secret provider, below Config.KeyPrefix.
const (
	settingTimezone            = "timezone"
	settingPrivateRegistryID   = "cloudprivate_registry_id"
	settingPrivateRegistryHost = "cloudprivate_registry_host"
	settingPublicRegistryID    = "cloudpublic_registry_id"
	settingPublicRegistryHost  = "cloudpublic_registry_host"
	settingEmail               = "email"
)

// Settings are the provider-held values a run needs, resolved once when the run starts.
type Settings struct {
	Timezone string
	Private  model.Registry
	Public   model.Registry
}

// resolveSettings looks up the deployment settings. Meta runs need only the private registry.
func resolveSettings(ctx context.Context, p domain.SecretProvider, cfg *Config, privateOnly bool) (*Settings, error) {
	get := func(name string) (string, error) {
		v, err := p.Resolve(ctx, cfg.KeyPrefix+name)
		if err != nil {
			return "", fmt.Errorf("resolve setting %s: %w", name, err)
		}
		return v, nil
	}

	s := &Settings{
		Private: model.Registry{Class: model.RegistryPrivate, Prefix: cfg.PrivatePrefix, PullSecret: cfg.PrivatePullSecret},
		Public:  model.Registry{Class: model.RegistryPublic, Prefix: cfg.PublicPrefix},
	}
	var err error
	if s.Private.Host, err = get(settingPrivateRegistryHost); err != nil {
		return nil, err
	}
	if s.Private.Account, err = get(settingPrivateRegistryID); err != nil {
		return nil, err
	}
	if privateOnly {
		return s, nil
	}
	if s.Timezone, err = get(settingTimezone); err != nil {
		return nil, err
	}
	if s.Public.Host, err = get(settingPublicRegistryHost); err != nil {
		return nil, err
	}
	if s.Public.Account, err = get(settingPublicRegistryID); err != nil {
		return nil, err
	}
	return s, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type ConfigOption struct {
	Key         string
	Flag        string
	Default     any
	Description string
}

const (
	KeyLogFormat = "log.format"
	KeyLogLevel  = "log.level"
)

const (
	KeySecretsProvider   = "secrets.provider"
	KeySecretsBWCommand  = "secrets.bw_command"
	KeySecretsFile       = "secrets.file"
	KeySecretsKeyPrefix  = "secrets.key_prefix"
	KeySecretsLeftDelim  = "secrets.left_delim"
	KeySecretsRightDelim = "secrets.right_delim"
)

const (
	KeyClusterDriver       = "cluster.driver"
	KeyClusterKubectl      = "cluster.kubectl"
	KeyClusterKubeconfig   = "cluster.kubeconfig"
	KeyClusterFieldManager = "cluster.field_manager"
)

const (
	KeyRolloutTimeout          = "rollout.timeout"
	KeyRolloutParallel         = "rollout.parallel"
	KeyRolloutRestartUnchanged = "rollout.restart_unchanged"
)

const (
	KeyArchResolver       = "arch.resolver"
	KeyArchPlainHTTP      = "arch.plain_http"
	KeyJournalURL         = "journal.url"
	KeyPrivatePrefix      = "registry.private.prefix"
	KeyPublicPrefix       = "registry.public.prefix"
	KeyPrivatePullSecret  = "registry.private.pull_secret"
	KeyPullSecretItem     = "pullsecret.item"
	KeyPullSecretFile     = "pullsecret.attachment"
	KeyPullSecretUsername = "pullsecret.username"
)

// Driver and provider names.
const (
	SecretsBitwarden = "bitwarden"
	SecretsFile      = "file"

	DriverKubectl = "kubectl"
	DriverNative  = "native"

	ArchStatic   = "static"
	ArchRegistry = "registry"
)

var Options = []ConfigOption{
	{Key: KeyLogFormat, Flag: flag(KeyLogFormat), Default: "human", Description: "Log format (human|text|json)"},
	{Key: KeyLogLevel, Flag: flag(KeyLogLevel), Default: "info", Description: "Log level (debug|info|warn|error)"},
	{Key: KeySecretsProvider, Flag: flag(KeySecretsProvider), Default: SecretsBitwarden, Description: "Secret provider (bitwarden|file)"},
	{Key: KeySecretsBWCommand, Flag: flag(KeySecretsBWCommand), Default: "bw", Description: "Bitwarden CLI executable"},
	{Key: KeySecretsFile, Flag: flag(KeySecretsFile), Default: "", Description: "Secret store file for the file provider"},
	{Key: KeySecretsKeyPrefix, Flag: flag(KeySecretsKeyPrefix), Default: "koishi.deploy.", Description: "Prefix of deployment setting keys in the secret provider"},
	{Key: KeySecretsLeftDelim, Flag: flag(KeySecretsLeftDelim), Default: "<%", Description: "Left delimiter of secret references in manifests"},
	{Key: KeySecretsRightDelim, Flag: flag(KeySecretsRightDelim), Default: "%>", Description: "Right delimiter of secret references in manifests"},
	{Key: KeyClusterDriver, Flag: flag(KeyClusterDriver), Default: DriverKubectl, Description: "Cluster driver (kubectl|native)"},
	{Key: KeyClusterKubectl, Flag: flag(KeyClusterKubectl), Default: "kubectl", Description: "kubectl executable"},
	{Key: KeyClusterKubeconfig, Flag: flag(KeyClusterKubeconfig), Default: "", Description: "Kubeconfig path (default loading rules when empty)"},
	{Key: KeyClusterFieldManager, Flag: flag(KeyClusterFieldManager), Default: "kdeploy", Description: "Server-side apply field manager (native driver)"},
	{Key: KeyRolloutTimeout, Flag: flag(KeyRolloutTimeout), Default: 300 * time.Second, Description: "Rollout verification timeout per Deployment"},
	{Key: KeyRolloutParallel, Flag: flag(KeyRolloutParallel), Default: false, Description: "Verify Deployments concurrently"},
	{Key: KeyRolloutRestartUnchanged, Flag: flag(KeyRolloutRestartUnchanged), Default: false, Description: "Restart Deployments reported unchanged by apply"},
	{Key: KeyArchResolver, Flag: flag(KeyArchResolver), Default: ArchStatic, Description: "Image architecture lookup (static|registry)"},
	{Key: KeyArchPlainHTTP, Flag: flag(KeyArchPlainHTTP), Default: false, Description: "Use plain http for registry architecture lookups"},
	{Key: KeyJournalURL, Flag: flag(KeyJournalURL), Default: "", Description: "Run journal database URL, e.g. sqlite:./kdeploy.db (disabled when empty)"},
	{Key: KeyPrivatePrefix, Flag: flag(KeyPrivatePrefix), Default: "cloudprivate/", Description: "Image prefix of the private registry class"},
	{Key: KeyPublicPrefix, Flag: flag(KeyPublicPrefix), Default: "cloudpublic/", Description: "Image prefix of the public registry class"},
	{Key: KeyPrivatePullSecret, Flag: flag(KeyPrivatePullSecret), Default: "dockersecret-cloudprivate", Description: "Pull secret name of the private registry class"},
	{Key: KeyPullSecretItem, Flag: flag(KeyPullSecretItem), Default: "gcp.files", Description: "Secret item holding the registry key attachment"},
	{Key: KeyPullSecretFile, Flag: flag(KeyPullSecretFile), Default: "pull-image.json", Description: "Attachment name of the registry key"},
	{Key: KeyPullSecretUsername, Flag: flag(KeyPullSecretUsername), Default: "_json_key", Description: "Registry username of the pull secret"},
}

type Config struct {
	v *viper.Viper
}

// New loads defaults, the config file and the environment. An explicit file must exist;
// otherwise kdeploy.yaml is searched in ., $HOME/.config/kdeploy and /etc/kdeploy.
func New(file string) (*Config, error) {
	v := viper.New()

	for _, o := range Options {
		v.SetDefault(o.Key, o.Default)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("kdeploy")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "kdeploy"))
		}
		v.AddConfigPath("/etc/kdeploy/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if file != "" || !(errors.As(err, &notFoundErr) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("KDEPLOY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return &Config{v: v}, nil
}

func (c *Config) BindFlags(fs *pflag.FlagSet, options []ConfigOption) error {
	for _, o := range options {
		if fs.Lookup(o.Flag) == nil {
			switch v := o.Default.(type) {
			case string:
				fs.String(o.Flag, v, o.Description)
			case int:
				fs.Int(o.Flag, v, o.Description)
			case bool:
				fs.Bool(o.Flag, v, o.Description)
			case time.Duration:
				fs.Duration(o.Flag, v, o.Description)
			default:
				return fmt.Errorf("unsupported flag type for key: %s", o.Key)
			}
		}

		if err := c.v.BindPFlag(o.Key, fs.Lookup(o.Flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
		}
	}

	return nil
}

// ConfigFile returns the file the configuration was read from, if any.
func (c *Config) ConfigFile() string { return c.v.ConfigFileUsed() }

func (c *Config) LogFormat() string {
	return c.v.GetString(KeyLogFormat) // KDEPLOY_LOG_FORMAT
}

func (c *Config) LogLevel() string {
	return c.v.GetString(KeyLogLevel) // KDEPLOY_LOG_LEVEL
}

func (c *Config) SecretsProvider() string {
	return c.v.GetString(KeySecretsProvider) // KDEPLOY_SECRETS_PROVIDER
}

func (c *Config) SecretsBWCommand() string {
	return c.v.GetString(KeySecretsBWCommand) // KDEPLOY_SECRETS_BW_COMMAND
}

func (c *Config) SecretsFile() string {
	return c.v.GetString(KeySecretsFile) // KDEPLOY_SECRETS_FILE
}

func (c *Config) SecretsKeyPrefix() string {
	return c.v.GetString(KeySecretsKeyPrefix) // KDEPLOY_SECRETS_KEY_PREFIX
}

func (c *Config) SecretsDelims() (left, right string) {
	return c.v.GetString(KeySecretsLeftDelim), c.v.GetString(KeySecretsRightDelim) // KDEPLOY_SECRETS_LEFT_DELIM / _RIGHT_DELIM
}

func (c *Config) ClusterDriver() string {
	return c.v.GetString(KeyClusterDriver) // KDEPLOY_CLUSTER_DRIVER
}

func (c *Config) ClusterKubectl() string {
	return c.v.GetString(KeyClusterKubectl) // KDEPLOY_CLUSTER_KUBECTL
}

func (c *Config) ClusterKubeconfig() string {
	return c.v.GetString(KeyClusterKubeconfig) // KDEPLOY_CLUSTER_KUBECONFIG
}

func (c *Config) ClusterFieldManager() string {
	return c.v.GetString(KeyClusterFieldManager) // KDEPLOY_CLUSTER_FIELD_MANAGER
}

func (c *Config) RolloutTimeout() time.Duration {
	return c.v.GetDuration(KeyRolloutTimeout) // KDEPLOY_ROLLOUT_TIMEOUT
}

func (c *Config) RolloutParallel() bool {
	return c.v.GetBool(KeyRolloutParallel) // KDEPLOY_ROLLOUT_PARALLEL
}

func (c *Config) RolloutRestartUnchanged() bool {
	return c.v.GetBool(KeyRolloutRestartUnchanged) // KDEPLOY_ROLLOUT_RESTART_UNCHANGED
}

func (c *Config) ArchResolver() string {
	return c.v.GetString(KeyArchResolver) // KDEPLOY_ARCH_RESOLVER
}

func (c *Config) ArchPlainHTTP() bool {
	return c.v.GetBool(KeyArchPlainHTTP) // KDEPLOY_ARCH_PLAIN_HTTP
}

func (c *Config) JournalURL() string {
	return c.v.GetString(KeyJournalURL) // KDEPLOY_JOURNAL_URL
}

func (c *Config) PrivatePrefix() string {
	return c.v.GetString(KeyPrivatePrefix) // KDEPLOY_REGISTRY_PRIVATE_PREFIX
}

func (c *Config) PublicPrefix() string {
	return c.v.GetString(KeyPublicPrefix) // KDEPLOY_REGISTRY_PUBLIC_PREFIX
}

func (c *Config) PrivatePullSecret() string {
	return c.v.GetString(KeyPrivatePullSecret) // KDEPLOY_REGISTRY_PRIVATE_PULL_SECRET
}

func (c *Config) PullSecretItem() string {
	return c.v.GetString(KeyPullSecretItem) // KDEPLOY_PULLSECRET_ITEM
}

func (c *Config) PullSecretAttachment() string {
	return c.v.GetString(KeyPullSecretFile) // KDEPLOY_PULLSECRET_ATTACHMENT
}

func (c *Config) PullSecretUsername() string {
	return c.v.GetString(KeyPullSecretUsername) // KDEPLOY_PULLSECRET_USERNAME
}

func flag(key string) string {
	flag := strings.ToLower(key)
	flag = strings.ReplaceAll(flag, ".", "-")
	flag = strings.ReplaceAll(flag, "_", "-")
	return flag
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestNew_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.RolloutTimeout() != 300*time.Second {
		t.Errorf("rollout timeout = %s", c.RolloutTimeout())
	}
	if c.SecretsKeyPrefix() != "koishi.deploy." || c.PrivatePrefix() != "cloudprivate/" || c.PublicPrefix() != "cloudpublic/" {
		t.Errorf("unexpected registry defaults")
	}
	if c.PrivatePullSecret() != "dockersecret-cloudprivate" || c.PullSecretItem() != "gcp.files" || c.PullSecretAttachment() != "pull-image.json" {
		t.Errorf("unexpected pull secret defaults")
	}
	if c.RolloutParallel() || c.RolloutRestartUnchanged() {
		t.Errorf("policies must default to off")
	}
	if c.ClusterDriver() != DriverKubectl || c.ArchResolver() != ArchStatic {
		t.Errorf("unexpected driver defaults")
	}
	if l, r := c.SecretsDelims(); l != "<%" || r != "%>" {
		t.Errorf("secret delimiters = %q %q", l, r)
	}
	t.Setenv("KDEPLOY_SECRETS_LEFT_DELIM", "[[")
	if l, _ := c.SecretsDelims(); l != "[[" {
		t.Errorf("left delimiter from env = %q", l)
	}
}

func TestNew_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yaml")
	body := "rollout:\n  timeout: 90s\nsecrets:\n  provider: file\n  file: ./s.yaml\nlog:\n  level: debug\n"
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KDEPLOY_LOG_LEVEL", "warn")
	t.Setenv("KDEPLOY_ROLLOUT_PARALLEL", "true")

	c, err := New(file)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := c.BindFlags(fs, Options); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := fs.Parse([]string{"--cluster-driver=native"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if c.RolloutTimeout() != 90*time.Second {
		t.Errorf("file value not applied: %s", c.RolloutTimeout())
	}
	if c.SecretsProvider() != SecretsFile || c.SecretsFile() != "./s.yaml" {
		t.Errorf("secrets settings not applied")
	}
	if c.LogLevel() != "warn" {
		t.Errorf("env should override file, got %s", c.LogLevel())
	}
	if !c.RolloutParallel() {
		t.Errorf("env bool not applied")
	}
	if c.ClusterDriver() != DriverNative {
		t.Errorf("flag not applied, got %s", c.ClusterDriver())
	}
	if c.ConfigFile() != file {
		t.Errorf("ConfigFile = %s", c.ConfigFile())
	}
}

func TestNew_MissingExplicitFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestFlagName(t *testing.T) {
	if got := flag(KeyRolloutRestartUnchanged); got != "rollout-restart-unchanged" {
		t.Errorf("got %s", got)
	}
}

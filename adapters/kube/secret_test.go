package kube

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/koishi/kdeploy/domain/model"
)

func TestPullSecretDocument_Shape(t *testing.T) {
	doc, err := PullSecretDocument("web", "dockersecret-cloudprivate", DockerRegistryAuth{
		Server:   "https://asia.gcr.io",
		Username: "_json_key",
		Password: `{"type":"service_account"}`,
		Email:    "ops@example.com",
	})
	if err != nil {
		t.Fatalf("PullSecretDocument: %v", err)
	}
	if doc.Kind() != model.KindPullSecret {
		t.Fatalf("kind = %s, want PullSecret", doc.Kind())
	}
	if doc.Namespace() != "web" || doc.Name() != "dockersecret-cloudprivate" {
		t.Fatalf("unexpected identity %s", doc.Key())
	}
	if v, _ := doc.Object["apiVersion"].(string); v != "v1" {
		t.Fatalf("apiVersion = %q", v)
	}
	if _, ok := doc.Object["status"]; ok {
		t.Fatalf("status should be pruned")
	}
	data, _ := doc.Object["data"].(map[string]any)
	enc, _ := data[DockerConfigJSONKey].(string)
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		t.Fatalf("decode data: %v", err)
	}
	var cfg dockerConfigJSON
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("unmarshal docker config: %v", err)
	}
	e, ok := cfg.Auths["https://asia.gcr.io"]
	if !ok {
		t.Fatalf("server entry missing: %s", raw)
	}
	if e.Username != "_json_key" || e.Email != "ops@example.com" {
		t.Fatalf("unexpected entry %+v", e)
	}
	wantAuth := base64.StdEncoding.EncodeToString([]byte(`_json_key:{"type":"service_account"}`))
	if e.Auth != wantAuth {
		t.Fatalf("auth = %q, want %q", e.Auth, wantAuth)
	}
}

func TestPullSecretDocument_DefaultNamespaceAndErrors(t *testing.T) {
	doc, err := PullSecretDocument("", "s", DockerRegistryAuth{Server: "r"})
	if err != nil {
		t.Fatalf("PullSecretDocument: %v", err)
	}
	if doc.Namespace() != model.DefaultNamespace {
		t.Fatalf("namespace = %q", doc.Namespace())
	}
	if _, err := PullSecretDocument("ns", "", DockerRegistryAuth{Server: "r"}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := PullSecretDocument("ns", "s", DockerRegistryAuth{}); err == nil {
		t.Fatalf("expected error for empty server")
	}
}

package kube

import (
	"strings"
	"testing"

	"github.com/koishi/kdeploy/domain/model"
)

const sampleStream = `# leading comment
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  replicas: 2
  template:
    spec:
      containers:
        - name: web
          image: nginx
---
---
apiVersion: batch/v1
kind: CronJob
metadata:
  name: nightly
  namespace: jobs
spec:
  schedule: "0 3 * * *"
`

func TestDecodeManifest_OrderAndEmptyDocs(t *testing.T) {
	docs, err := DecodeManifest([]byte(sampleStream))
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Kind() != model.KindDeployment || docs[1].Kind() != model.KindCronJob {
		t.Fatalf("unexpected kinds %s, %s", docs[0].Kind(), docs[1].Kind())
	}
	if docs[0].Namespace() != "default" || docs[1].Namespace() != "jobs" {
		t.Fatalf("unexpected namespaces %s, %s", docs[0].Namespace(), docs[1].Namespace())
	}
	if _, ok := docs[0].Spec()["replicas"].(int64); !ok {
		t.Fatalf("replicas should decode as int64, got %T", docs[0].Spec()["replicas"])
	}
}

func TestDecodeManifest_RejectsScalarDocument(t *testing.T) {
	if _, err := DecodeManifest([]byte("just a string\n")); err == nil {
		t.Fatalf("expected error for scalar document")
	}
}

func TestEncodeManifest_RoundTrip(t *testing.T) {
	docs, err := DecodeManifest([]byte(sampleStream))
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	out, err := EncodeManifest(docs)
	if err != nil {
		t.Fatalf("EncodeManifest: %v", err)
	}
	if got := strings.Count(string(out), "---\n"); got != 2 {
		t.Fatalf("expected 2 separators, got %d:\n%s", got, out)
	}
	again, err := DecodeManifest(out)
	if err != nil {
		t.Fatalf("DecodeManifest(encoded): %v", err)
	}
	if len(again) != 2 || again[0].Key() != docs[0].Key() || again[1].Key() != docs[1].Key() {
		t.Fatalf("round trip changed documents: %v", again)
	}
	if !strings.Contains(string(out), `schedule: 0 3 * * *`) && !strings.Contains(string(out), `schedule: "0 3 * * *"`) {
		t.Fatalf("schedule lost:\n%s", out)
	}
}

func TestPruneMap(t *testing.T) {
	m := map[string]any{
		"a": nil,
		"b": map[string]any{"c": nil},
		"d": []any{},
		"e": "x",
	}
	pruneMap(m)
	if _, ok := m["a"]; ok {
		t.Errorf("nil value kept")
	}
	if _, ok := m["b"]; ok {
		t.Errorf("empty map kept")
	}
	if _, ok := m["d"]; !ok {
		t.Errorf("empty slice dropped")
	}
	if m["e"] != "x" {
		t.Errorf("scalar changed")
	}
}

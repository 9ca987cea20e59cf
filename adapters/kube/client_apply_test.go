package kube

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/koishi/kdeploy/domain/model"
)

// applyServer answers get and server-side apply patches. The resource version
// is bumped only when the applied body differs from the previous one.
type applyServer struct {
	objects map[string]*unstructured.Unstructured
	bodies  map[string]string
	version int
	fail    map[string]error
	patched []string
}

func objectKey(a k8stesting.Action, name string) string {
	return a.GetResource().Resource + "/" + a.GetNamespace() + "/" + name
}

func newApplyClient(t *testing.T) (*Client, *applyServer) {
	t.Helper()
	s := &applyServer{objects: map[string]*unstructured.Unstructured{}, bodies: map[string]string{}, fail: map[string]error{}}
	dc := dynamicfake.NewSimpleDynamicClient(runtime.NewScheme())
	dc.PrependReactor("get", "*", func(a k8stesting.Action) (bool, runtime.Object, error) {
		name := a.(k8stesting.GetAction).GetName()
		if obj, ok := s.objects[objectKey(a, name)]; ok {
			return true, obj.DeepCopy(), nil
		}
		return true, nil, apierrors.NewNotFound(a.GetResource().GroupResource(), name)
	})
	dc.PrependReactor("patch", "*", func(a k8stesting.Action) (bool, runtime.Object, error) {
		p := a.(k8stesting.PatchAction)
		if p.GetPatchType() != types.ApplyPatchType {
			return true, nil, fmt.Errorf("unexpected patch type %s", p.GetPatchType())
		}
		if err, ok := s.fail[p.GetName()]; ok {
			return true, nil, err
		}
		obj := &unstructured.Unstructured{}
		if err := obj.UnmarshalJSON(p.GetPatch()); err != nil {
			return true, nil, err
		}
		k := objectKey(a, p.GetName())
		body := string(p.GetPatch())
		if prev, ok := s.objects[k]; ok && s.bodies[k] == body {
			obj.SetResourceVersion(prev.GetResourceVersion())
		} else {
			s.version++
			obj.SetResourceVersion(strconv.Itoa(s.version))
		}
		s.objects[k] = obj
		s.bodies[k] = body
		s.patched = append(s.patched, k)
		return true, obj.DeepCopy(), nil
	})

	mapper := meta.NewDefaultRESTMapper(nil)
	mapper.Add(schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}, meta.RESTScopeNamespace)
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "Secret"}, meta.RESTScopeNamespace)
	mapper.Add(schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}, meta.RESTScopeRoot)
	return &Client{Dynamic: dc, Mapper: mapper}, s
}

const applyManifest = `
apiVersion: v1
kind: Namespace
metadata:
  name: tools
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  replicas: 1
---
apiVersion: v1
kind: Secret
metadata:
  name: creds
  namespace: shop
stringData:
  a: b
`

func decodeApply(t *testing.T, text string) []*model.Document {
	t.Helper()
	docs, err := DecodeManifest([]byte(text))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return docs
}

func TestApplyDocuments_ActionsAndNamespaces(t *testing.T) {
	c, s := newApplyClient(t)
	ctx := context.Background()

	results, err := c.ApplyDocuments(ctx, decodeApply(t, applyManifest), nil)
	if err != nil {
		t.Fatalf("ApplyDocuments: %v", err)
	}
	want := "namespace/tools created\ndeployment.apps/web created\nsecret/creds created"
	if got := FormatApplyResults(results); got != want {
		t.Fatalf("first apply:\n%s\nwant:\n%s", got, want)
	}
	if results[0].Namespace != "" || results[1].Namespace != "default" || results[2].Namespace != "shop" {
		t.Errorf("namespaces = %q %q %q", results[0].Namespace, results[1].Namespace, results[2].Namespace)
	}
	wantKeys := []string{"namespaces//tools", "deployments/default/web", "secrets/shop/creds"}
	if strings.Join(s.patched, ",") != strings.Join(wantKeys, ",") {
		t.Errorf("patched = %v", s.patched)
	}

	results, err = c.ApplyDocuments(ctx, decodeApply(t, applyManifest), nil)
	if err != nil {
		t.Fatalf("second ApplyDocuments: %v", err)
	}
	for _, r := range results {
		if r.Action != ActionUnchanged {
			t.Errorf("second apply %s = %s", r, r.Action)
		}
	}

	changed := strings.Replace(applyManifest, "replicas: 1", "replicas: 3", 1)
	results, err = c.ApplyDocuments(ctx, decodeApply(t, changed), &ApplyOptions{DefaultNamespace: "default"})
	if err != nil {
		t.Fatalf("third ApplyDocuments: %v", err)
	}
	if results[1].Action != ActionConfigured || results[0].Action != ActionUnchanged {
		t.Errorf("third apply = %s", FormatApplyResults(results))
	}
}

func TestApplyDocuments_CustomDefaultNamespace(t *testing.T) {
	c, s := newApplyClient(t)
	docs := decodeApply(t, "apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: web\n")
	if _, err := c.ApplyDocuments(context.Background(), docs, &ApplyOptions{DefaultNamespace: "ops"}); err != nil {
		t.Fatalf("ApplyDocuments: %v", err)
	}
	if len(s.patched) != 1 || s.patched[0] != "deployments/ops/web" {
		t.Errorf("patched = %v", s.patched)
	}
	if docs[0].Namespace() != "ops" {
		t.Errorf("document namespace = %q", docs[0].Namespace())
	}
}

func TestApplyDocuments_StopsAtFirstFailure(t *testing.T) {
	c, s := newApplyClient(t)
	rejected := errors.New("admission webhook denied the request")
	s.fail["web"] = rejected

	results, err := c.ApplyDocuments(context.Background(), decodeApply(t, applyManifest), nil)
	if !errors.Is(err, rejected) {
		t.Fatalf("err = %v", err)
	}
	if len(results) != 1 || results[0].Name != "tools" {
		t.Fatalf("partial results = %v", results)
	}
	if len(s.patched) != 1 {
		t.Errorf("documents after the failure were applied: %v", s.patched)
	}
}

func TestApplyDocuments_InvalidDocuments(t *testing.T) {
	c, _ := newApplyClient(t)
	ctx := context.Background()
	tests := []struct {
		name string
		text string
	}{
		{name: "missing name", text: "apiVersion: v1\nkind: Secret\nmetadata:\n  namespace: shop\n"},
		{name: "missing kind", text: "apiVersion: v1\nmetadata:\n  name: x\n"},
		{name: "unmapped kind", text: "apiVersion: example.com/v1\nkind: Widget\nmetadata:\n  name: x\n"},
	}
	for _, tt := range tests {
		if _, err := c.ApplyDocuments(ctx, decodeApply(t, tt.text), nil); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}

	var empty *Client
	if _, err := empty.ApplyDocuments(ctx, nil, nil); err == nil {
		t.Errorf("expected error for uninitialized client")
	}
}

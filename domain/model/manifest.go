package model

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Kind classifies a manifest document for augmentation and verification.
type Kind string

const (
	KindDeployment Kind = "Deployment"
	KindCronJob    Kind = "CronJob"
	KindJob        Kind = "Job"
	KindPullSecret Kind = "PullSecret"
	KindOther      Kind = "Other"
)

// DefaultNamespace is used when metadata.namespace is absent or empty.
const DefaultNamespace = "default"

// SecretTypeDockerConfigJSON is the Secret type carried by pull secret documents.
const SecretTypeDockerConfigJSON = "kubernetes.io/dockerconfigjson"

// Document is one resource definition of a manifest set. The object tree is
// kept in its decoded form so that fields the pipeline does not know about
// survive the round trip unchanged.
type Document struct {
	Object map[string]any
}

// NewDocument wraps a decoded object tree.
func NewDocument(obj map[string]any) *Document {
	if obj == nil {
		obj = map[string]any{}
	}
	return &Document{Object: obj}
}

// RawKind returns the top-level kind field as written.
func (d *Document) RawKind() string {
	s, _, _ := unstructured.NestedString(d.Object, "kind")
	return s
}

// Kind returns the classified kind of the document.
func (d *Document) Kind() Kind {
	switch d.RawKind() {
	case "Deployment":
		return KindDeployment
	case "CronJob":
		return KindCronJob
	case "Job":
		return KindJob
	case "Secret":
		if t, _, _ := unstructured.NestedString(d.Object, "type"); t == SecretTypeDockerConfigJSON {
			return KindPullSecret
		}
	}
	return KindOther
}

// Name returns metadata.name.
func (d *Document) Name() string {
	s, _, _ := unstructured.NestedString(d.Object, "metadata", "name")
	return s
}

// Namespace returns metadata.namespace, or DefaultNamespace when unset.
func (d *Document) Namespace() string {
	s, _, _ := unstructured.NestedString(d.Object, "metadata", "namespace")
	if s == "" {
		return DefaultNamespace
	}
	return s
}

// clusterScopedKinds are built-in kinds that never carry a namespace.
var clusterScopedKinds = map[string]bool{
	"Namespace":                      true,
	"Node":                           true,
	"PersistentVolume":               true,
	"StorageClass":                   true,
	"CustomResourceDefinition":       true,
	"PriorityClass":                  true,
	"IngressClass":                   true,
	"RuntimeClass":                   true,
	"CSIDriver":                      true,
	"APIService":                     true,
	"MutatingWebhookConfiguration":   true,
	"ValidatingWebhookConfiguration": true,
}

// Namespaced reports whether the document is namespace-scoped. Kinds prefixed
// with "Cluster" (ClusterRole, ClusterIssuer, ...) are taken as cluster-scoped.
func (d *Document) Namespaced() bool {
	k := d.RawKind()
	return !clusterScopedKinds[k] && !strings.HasPrefix(k, "Cluster")
}

// ApplyDefaultNamespace writes DefaultNamespace into metadata.namespace of a
// namespaced document that has none, so every cluster driver places it where
// Namespace reports. It returns true when the document was changed.
func (d *Document) ApplyDefaultNamespace() bool {
	if !d.Namespaced() {
		return false
	}
	if s, _, _ := unstructured.NestedString(d.Object, "metadata", "namespace"); s != "" {
		return false
	}
	return unstructured.SetNestedField(d.Object, DefaultNamespace, "metadata", "namespace") == nil
}

// Spec returns the live spec map, or nil when the document has no spec.
func (d *Document) Spec() map[string]any {
	m, _ := d.Object["spec"].(map[string]any)
	return m
}

// Key identifies the document within a manifest set.
func (d *Document) Key() DocumentKey {
	return DocumentKey{Kind: d.RawKind(), Namespace: d.Namespace(), Name: d.Name()}
}

// podSpecPaths lists where each workload kind keeps its pod template spec.
var podSpecPaths = map[Kind][]string{
	KindDeployment: {"spec", "template", "spec"},
	KindCronJob:    {"spec", "jobTemplate", "spec", "template", "spec"},
	KindJob:        {"spec", "template", "spec"},
}

// LocatePodSpec returns a view over the document's pod spec, or nil when the
// kind has no pod template or the path is missing.
func LocatePodSpec(d *Document) *PodSpec {
	path, ok := podSpecPaths[d.Kind()]
	if !ok {
		return nil
	}
	v, found, err := unstructured.NestedFieldNoCopy(d.Object, path...)
	if err != nil || !found {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &PodSpec{m: m}
}

// DocumentKey is the (kind, namespace, name) identity of a document.
type DocumentKey struct {
	Kind      string
	Namespace string
	Name      string
}

func (k DocumentKey) String() string {
	return fmt.Sprintf("%s %s/%s", k.Kind, k.Namespace, k.Name)
}

package kube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	meta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"

	"github.com/koishi/kdeploy/domain/model"
	"github.com/koishi/kdeploy/internal/logging"
)

// ApplyOptions configures server-side apply operations.
type ApplyOptions struct {
	// DefaultNamespace is used when a namespaced resource omits metadata.namespace.
	DefaultNamespace string
	// FieldManager sets the field manager for SSA; defaults to FieldManager.
	FieldManager string
	// ForceConflicts forces apply on conflicts when true (careful in multi-manager scenarios).
	ForceConflicts bool
}

func (o *ApplyOptions) defaults() {
	if o.FieldManager == "" {
		o.FieldManager = FieldManager
	}
	if o.DefaultNamespace == "" {
		o.DefaultNamespace = model.DefaultNamespace
	}
}

// ApplyResult is the outcome of applying one document.
type ApplyResult struct {
	// Resource is the kubectl-style resource name, e.g. "deployment.apps" or "secret".
	Resource  string
	Namespace string
	Name      string
	Action    string
}

// String formats the result as kubectl apply prints it: "deployment.apps/web configured".
func (r ApplyResult) String() string {
	return fmt.Sprintf("%s/%s %s", r.Resource, r.Name, r.Action)
}

// FormatApplyResults joins results into kubectl apply output, one line per document.
func FormatApplyResults(results []ApplyResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}

// ApplyDocuments performs server-side apply for documents in order and stops at the first failure.
// Results of the documents applied before the failure are returned along with the error.
func (c *Client) ApplyDocuments(ctx context.Context, docs []*model.Document, opts *ApplyOptions) (results []ApplyResult, err error) {
	if c == nil || c.Dynamic == nil || c.Mapper == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}

	logger := logging.FromContext(ctx)
	msgSym := "KubeClient:ApplyDocuments"
	logger.Info(ctx, msgSym+"/s", "documents", len(docs))
	defer func() {
		if err == nil {
			logger.Info(ctx, msgSym+"/eok", "applied", len(results))
		} else {
			logger.Info(ctx, msgSym+"/efail", "applied", len(results), "err", err)
		}
	}()

	if opts == nil {
		opts = &ApplyOptions{}
	}
	opts.defaults()

	for _, d := range docs {
		if d == nil {
			continue
		}
		u := &unstructured.Unstructured{Object: d.Object}
		res, err := c.applyUnstructured(ctx, u, opts)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// applyUnstructured performs SSA for one unstructured object and classifies the outcome.
func (c *Client) applyUnstructured(ctx context.Context, u *unstructured.Unstructured, opts *ApplyOptions) (ApplyResult, error) {
	if u.GetKind() == "" || u.GetAPIVersion() == "" {
		return ApplyResult{}, fmt.Errorf("document missing apiVersion or kind")
	}
	gvk := schema.FromAPIVersionAndKind(u.GetAPIVersion(), u.GetKind())
	mapping, err := c.Mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("rest mapping %s: %w", gvk.String(), err)
	}

	if mapping.Scope.Name() == meta.RESTScopeNameNamespace && u.GetNamespace() == "" {
		u.SetNamespace(opts.DefaultNamespace)
	}
	if u.GetName() == "" {
		return ApplyResult{}, fmt.Errorf("object %s missing metadata.name", gvk.String())
	}

	body, err := json.Marshal(u.Object)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("marshal %s/%s: %w", u.GetKind(), u.GetName(), err)
	}
	ri := resourceInterfaceFor(c.Dynamic, mapping.Resource, u.GetNamespace())
	force := opts.ForceConflicts

	res := ApplyResult{Resource: ResourceName(gvk.GroupKind()), Namespace: u.GetNamespace(), Name: u.GetName()}
	logger := logging.FromContext(ctx).With("ns", u.GetNamespace(), "kind", u.GetKind(), "name", u.GetName())

	prevVersion := ""
	existing, err := ri.Get(ctx, u.GetName(), metav1.GetOptions{})
	switch {
	case err == nil:
		prevVersion = existing.GetResourceVersion()
	case apierrors.IsNotFound(err):
	default:
		logger.Error(ctx, "KubeClient:Apply/efail", "err", err)
		return res, fmt.Errorf("get %s %s: %w", u.GetKind(), u.GetName(), err)
	}

	applied, err := ri.Patch(ctx, u.GetName(), types.ApplyPatchType, body, metav1.PatchOptions{FieldManager: opts.FieldManager, Force: &force})
	if err != nil {
		logger.Error(ctx, "KubeClient:Apply/efail", "err", err)
		return res, fmt.Errorf("apply %s %s: %w", u.GetKind(), u.GetName(), err)
	}
	res.Action = classifyApply(prevVersion, applied.GetResourceVersion())
	logger.Info(ctx, "KubeClient:Apply/eok", "action", res.Action)
	return res, nil
}

// classifyApply derives the kubectl apply action from resource versions before and after the patch.
// An empty previous version means the object did not exist.
func classifyApply(prevVersion, newVersion string) string {
	switch {
	case prevVersion == "":
		return ActionCreated
	case prevVersion == newVersion:
		return ActionUnchanged
	default:
		return ActionConfigured
	}
}

// ResourceName returns the kubectl-style resource name for a group kind:
// the lowercased kind, qualified by the group when it is not the core group.
func ResourceName(gk schema.GroupKind) string {
	name := strings.ToLower(gk.Kind)
	if gk.Group != "" {
		name += "." + gk.Group
	}
	return name
}

// resourceInterfaceFor returns the dynamic resource interface for gvr/namespace.
func resourceInterfaceFor(dy dynamic.Interface, gvr schema.GroupVersionResource, namespace string) dynamic.ResourceInterface {
	if namespace == "" {
		return dy.Resource(gvr)
	}
	return dy.Resource(gvr).Namespace(namespace)
}

package kube

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/koishi/kdeploy/internal/logging"
)

// DeploymentRolloutStatus waits up to timeout until the Deployment rollout completes.
// It returns (false, nil) when the rollout did not settle in time or exceeded its progress deadline.
func (c *Client) DeploymentRolloutStatus(ctx context.Context, namespace, name string, timeout time.Duration) (done bool, err error) {
	if err := c.ready(); err != nil {
		return false, err
	}

	logger := logging.FromContext(ctx).With("ns", namespace, "deployment", name)
	msgSym := "KubeClient:RolloutStatus"
	logger.Info(ctx, msgSym+"/s", "timeout", timeout.String())
	defer func() {
		switch {
		case err != nil:
			logger.Info(ctx, msgSym+"/efail", "err", err)
		case !done:
			logger.Info(ctx, msgSym+"/efail", "reason", "not complete")
		default:
			logger.Info(ctx, msgSym+"/eok")
		}
	}()

	failed := false
	pollErr := wait.PollUntilContextTimeout(ctx, c.pollInterval(), timeout, true, func(ctx context.Context) (bool, error) {
		dep, err := c.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return false, nil
			}
			return false, err
		}
		complete, deadline := deploymentRolloutComplete(dep)
		if deadline {
			failed = true
			return true, nil
		}
		if !complete {
			logger.Debug(ctx, "waiting for deployment rollout",
				"updated", dep.Status.UpdatedReplicas,
				"available", dep.Status.AvailableReplicas,
				"replicas", dep.Status.Replicas)
		}
		return complete, nil
	})
	if pollErr != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if wait.Interrupted(pollErr) {
			return false, nil
		}
		return false, fmt.Errorf("rollout status deployment %s/%s: %w", namespace, name, pollErr)
	}
	return !failed, nil
}

// deploymentRolloutComplete applies the completeness rules of `kubectl rollout status`.
// The second result reports that the rollout exceeded its progress deadline.
func deploymentRolloutComplete(dep *appsv1.Deployment) (complete bool, deadlineExceeded bool) {
	if dep.Generation > dep.Status.ObservedGeneration {
		return false, false
	}
	for _, cond := range dep.Status.Conditions {
		if cond.Type == appsv1.DeploymentProgressing && cond.Reason == "ProgressDeadlineExceeded" {
			return false, true
		}
	}
	if dep.Spec.Replicas != nil && dep.Status.UpdatedReplicas < *dep.Spec.Replicas {
		return false, false
	}
	if dep.Status.Replicas > dep.Status.UpdatedReplicas {
		return false, false
	}
	if dep.Status.AvailableReplicas < dep.Status.UpdatedReplicas {
		return false, false
	}
	return true, false
}

// RestartDeployment triggers a rollout restart by bumping the restartedAt pod template annotation,
// equivalent to `kubectl rollout restart deployment`.
func (c *Client) RestartDeployment(ctx context.Context, namespace, name string) error {
	if err := c.ready(); err != nil {
		return err
	}
	patch := map[string]any{
		"spec": map[string]any{
			"template": map[string]any{
				"metadata": map[string]any{
					"annotations": map[string]any{
						AnnotationRestartedAt: time.Now().UTC().Format(time.RFC3339),
					},
				},
			},
		},
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal restart patch: %w", err)
	}
	if _, err := c.Clientset.AppsV1().Deployments(namespace).Patch(ctx, name, types.StrategicMergePatchType, body, metav1.PatchOptions{FieldManager: FieldManager}); err != nil {
		return fmt.Errorf("restart deployment %s/%s: %w", namespace, name, err)
	}
	logging.FromContext(ctx).Info(ctx, "KubeClient:RestartDeployment/eok", "ns", namespace, "deployment", name)
	return nil
}

package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// JobConditionTrue reports whether the Job currently carries condition with status True.
// It does not wait.
func (c *Client) JobConditionTrue(ctx context.Context, namespace, name, condition string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	job, err := c.Clientset.BatchV1().Jobs(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return false, fmt.Errorf("get job %s/%s: %w", namespace, name, err)
	}
	for _, cond := range job.Status.Conditions {
		if string(cond.Type) == condition && cond.Status == corev1.ConditionTrue {
			return true, nil
		}
	}
	return false, nil
}

package kube

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/domain/model"
)

// Cluster implements domain.ClusterAPI on client-go.
type Cluster struct {
	Client  *Client
	Options ApplyOptions
}

var _ domain.ClusterAPI = (*Cluster)(nil)

// NewCluster returns a Cluster that applies with the given field manager.
func NewCluster(c *Client, fieldManager string) *Cluster {
	return &Cluster{Client: c, Options: ApplyOptions{FieldManager: fieldManager}}
}

// Apply reads the manifest stream at path and applies every document in order.
// The returned text holds one kubectl-style line per applied document, also on failure.
func (k *Cluster) Apply(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read manifest: %w", err)
	}
	docs, err := DecodeManifest(data)
	if err != nil {
		return "", err
	}
	opts := k.Options
	results, err := k.Client.ApplyDocuments(ctx, docs, &opts)
	return FormatApplyResults(results), err
}

// RolloutStatus supports Deployments only.
func (k *Cluster) RolloutStatus(ctx context.Context, namespace, kind, name string, timeout time.Duration) (bool, error) {
	if kind != string(model.KindDeployment) {
		return false, fmt.Errorf("rollout status is not supported for kind %s", kind)
	}
	return k.Client.DeploymentRolloutStatus(ctx, namespace, name, timeout)
}

func (k *Cluster) RolloutRestart(ctx context.Context, namespace, kind, name string) error {
	if kind != string(model.KindDeployment) {
		return fmt.Errorf("rollout restart is not supported for kind %s", kind)
	}
	return k.Client.RestartDeployment(ctx, namespace, name)
}

func (k *Cluster) JobCondition(ctx context.Context, namespace, name, condition string) (bool, error) {
	return k.Client.JobConditionTrue(ctx, namespace, name, condition)
}

package deploy

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/koishi/kdeploy/domain/model"
	"github.com/koishi/kdeploy/internal/logging"
)

const (
	deploymentResource = "deployment.apps"
	jobConditionDone   = "Complete"
	actionUnchanged    = "unchanged"
)

// verify waits for every Deployment rollout. Sequential verification stops at the
// first failure; parallel verification cancels the remaining waits on the first failure.
func (u *UseCase) verify(ctx context.Context, deployments []*model.Document) ([]string, error) {
	if len(deployments) == 0 {
		return nil, nil
	}
	if !u.config().ParallelRollout {
		var verified []string
		for _, d := range deployments {
			if err := u.waitRollout(ctx, d); err != nil {
				return verified, err
			}
			verified = append(verified, d.Namespace()+"/"+d.Name())
		}
		return verified, nil
	}

	done := make([]bool, len(deployments))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, d := range deployments {
		eg.Go(func() error {
			if err := u.waitRollout(egCtx, d); err != nil {
				return err
			}
			done[i] = true
			return nil
		})
	}
	err := eg.Wait()
	var verified []string
	for i, d := range deployments {
		if done[i] {
			verified = append(verified, d.Namespace()+"/"+d.Name())
		}
	}
	return verified, err
}

func (u *UseCase) waitRollout(ctx context.Context, d *model.Document) error {
	logger := logging.FromContext(ctx)
	timeout := u.config().rolloutTimeout()
	ns, name := d.Namespace(), d.Name()
	logger.Info(ctx, "waiting for rollout", "namespace", ns, "deployment", name, "timeout", timeout)
	ok, err := u.Cluster.RolloutStatus(ctx, ns, string(model.KindDeployment), name, timeout)
	if err != nil {
		return fmt.Errorf("rollout status %s/%s: %w", ns, name, err)
	}
	if !ok {
		return &model.RolloutTimeoutError{Namespace: ns, Name: name, Timeout: timeout}
	}
	logger.Info(ctx, "rollout complete", "namespace", ns, "deployment", name)
	return nil
}

// restartUnchanged restarts the Deployments the apply result reports as unchanged.
func (u *UseCase) restartUnchanged(ctx context.Context, deployments []*model.Document, result string) ([]string, error) {
	unchanged := unchangedResources(result)
	var restarted []string
	for _, d := range deployments {
		if !unchanged[deploymentResource+"/"+d.Name()] {
			continue
		}
		if err := u.Cluster.RolloutRestart(ctx, d.Namespace(), string(model.KindDeployment), d.Name()); err != nil {
			return restarted, fmt.Errorf("rollout restart %s/%s: %w", d.Namespace(), d.Name(), err)
		}
		logging.FromContext(ctx).Info(ctx, "restarted unchanged deployment", "namespace", d.Namespace(), "deployment", d.Name())
		restarted = append(restarted, d.Namespace()+"/"+d.Name())
	}
	return restarted, nil
}

// unchangedResources parses "<resource>/<name> <action>" lines.
func unchangedResources(result string) map[string]bool {
	out := map[string]bool{}
	for _, line := range strings.Split(result, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[len(fields)-1] != actionUnchanged {
			continue
		}
		out[fields[0]] = true
	}
	return out
}

// probeJobs reports Jobs that are not complete yet. Probe failures are logged only.
func (u *UseCase) probeJobs(ctx context.Context, jobs []*model.Document) []string {
	logger := logging.FromContext(ctx)
	var incomplete []string
	for _, j := range jobs {
		ok, err := u.Cluster.JobCondition(ctx, j.Namespace(), j.Name(), jobConditionDone)
		if err != nil {
			logger.Warn(ctx, "job condition probe failed", "namespace", j.Namespace(), "job", j.Name(), "err", err)
			continue
		}
		if !ok {
			logger.Info(ctx, "job not complete yet", "namespace", j.Namespace(), "job", j.Name())
			incomplete = append(incomplete, j.Namespace()+"/"+j.Name())
		}
	}
	return incomplete
}

package deploy

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/koishi/kdeploy/adapters/kube"
	"github.com/koishi/kdeploy/domain/model"
)

// fakeSecrets renders <<key>> markers from values.
type fakeSecrets struct {
	values      map[string]string
	attachments map[string]string

	mu        sync.Mutex
	resolved  []string
	downloads int
}

var fakeMarker = regexp.MustCompile(`<<([^>]+)>>`)

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{
		values: map[string]string{
			"koishi.deploy.timezone":                   "Asia/Tokyo",
			"koishi.deploy.cloudprivate_registry_host": "reg.example.com",
			"koishi.deploy.cloudprivate_registry_id":   "acct1",
			"koishi.deploy.cloudpublic_registry_host":  "pub.example.com",
			"koishi.deploy.cloudpublic_registry_id":    "pub1",
			"koishi.deploy.email":                      "ops@example.com",
			"db.password":                              "s3cret",
		},
		attachments: map[string]string{
			"gcp.files/pull-image.json": "{\"type\":\"service_account\"}\n",
		},
	}
}

func (f *fakeSecrets) Resolve(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, key)
	v, ok := f.values[key]
	if !ok {
		return "", fmt.Errorf("secret %q not found", key)
	}
	return v, nil
}

func (f *fakeSecrets) RenderText(_ context.Context, text string) (string, []error) {
	var errs []error
	out := fakeMarker.ReplaceAllStringFunc(text, func(m string) string {
		key := fakeMarker.FindStringSubmatch(m)[1]
		v, ok := f.values[key]
		if !ok {
			errs = append(errs, fmt.Errorf("secret %q not found", key))
			return ""
		}
		return v
	})
	return out, errs
}

func (f *fakeSecrets) DownloadAttachment(_ context.Context, secretName, attachmentName, destPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.attachments[secretName+"/"+attachmentName]
	if !ok {
		return fmt.Errorf("attachment %s/%s not found", secretName, attachmentName)
	}
	f.downloads++
	return os.WriteFile(destPath, []byte(content), 0o600)
}

func (f *fakeSecrets) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resolved) + f.downloads
}

// fakeCluster decodes the applied manifest and answers rollout queries from tables.
type fakeCluster struct {
	applyErr error
	// actions overrides the apply action per "<resource>/<name>"; default is "configured".
	actions  map[string]string
	rollouts map[string]bool
	jobs     map[string]bool

	mu        sync.Mutex
	applied   []*model.Document
	applies   int
	rolled    []string
	restarted []string
	probed    []string
}

func (c *fakeCluster) Apply(_ context.Context, manifestPath string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applies++
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", err
	}
	docs, err := kube.DecodeManifest(data)
	if err != nil {
		return "", err
	}
	c.applied = docs
	if c.applyErr != nil {
		return "error: rejected by admission webhook", c.applyErr
	}
	var lines []string
	for _, d := range docs {
		res := strings.ToLower(d.RawKind())
		switch d.RawKind() {
		case "Deployment":
			res = "deployment.apps"
		case "Job", "CronJob":
			res += ".batch"
		}
		res += "/" + d.Name()
		action := "configured"
		if a, ok := c.actions[res]; ok {
			action = a
		}
		lines = append(lines, res+" "+action)
	}
	return strings.Join(lines, "\n"), nil
}

func (c *fakeCluster) RolloutStatus(_ context.Context, namespace, kind, name string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolled = append(c.rolled, namespace+"/"+name)
	ok, found := c.rollouts[name]
	return ok || !found, nil
}

func (c *fakeCluster) RolloutRestart(_ context.Context, namespace, kind, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restarted = append(c.restarted, namespace+"/"+name)
	return nil
}

func (c *fakeCluster) JobCondition(_ context.Context, namespace, name, condition string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probed = append(c.probed, namespace+"/"+name+":"+condition)
	return c.jobs[name], nil
}

// fakeArch reports amd64+arm64 for every image not listed in archs.
type fakeArch struct {
	archs map[string][]string

	mu     sync.Mutex
	images []string
}

func (a *fakeArch) Architectures(_ context.Context, image string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.images = append(a.images, image)
	if v, ok := a.archs[image]; ok {
		return v, nil
	}
	return []string{"amd64", "arm64"}, nil
}

type fakeJournal struct {
	runs []*model.Run
}

func (j *fakeJournal) Record(_ context.Context, run *model.Run) error {
	cp := *run
	j.runs = append(j.runs, &cp)
	return nil
}

func (j *fakeJournal) List(_ context.Context, limit int) ([]*model.Run, error) {
	var out []*model.Run
	for i := len(j.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, j.runs[i])
	}
	return out, nil
}

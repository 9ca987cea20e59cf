package deploy

import (
	"context"
	"testing"

	"github.com/koishi/kdeploy/adapters/kube"
	"github.com/koishi/kdeploy/domain/model"
)

func decodeOne(t *testing.T, text string) *model.Document {
	t.Helper()
	docs, err := kube.DecodeManifest([]byte(text))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents", len(docs))
	}
	return docs[0]
}

const deploymentYAML = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
  namespace: shop
spec:
  template:
    spec:
      containers:
      - name: app
        image: cloudprivate/app:v1
      - name: sidecar
        image: cloudprivate/proxy:v2
      initContainers:
      - name: migrate
        image: cloudpublic/tools:v3
`

type staticPullSecrets struct{ calls int }

func (s *staticPullSecrets) Build(_ context.Context, namespace string) (*model.Document, error) {
	s.calls++
	return kube.PullSecretDocument(namespace, "dockersecret-cloudprivate", kube.DockerRegistryAuth{Server: "reg.example.com", Username: "_json_key", Password: "k"})
}

func newTestAugmenter(arch *fakeArch) *Augmenter {
	return &Augmenter{
		Timezone: "Asia/Tokyo",
		Arch:     arch,
		Registry: &RegistryResolver{
			Private:     model.Registry{Class: model.RegistryPrivate, Prefix: "cloudprivate/", Host: "reg.example.com", Account: "acct1", PullSecret: "dockersecret-cloudprivate"},
			Public:      model.Registry{Class: model.RegistryPublic, Prefix: "cloudpublic/", Host: "pub.example.com", Account: "pub1"},
			PullSecrets: &staticPullSecrets{},
		},
	}
}

func countEnv(c *model.ContainerSpec, name string) int {
	n := 0
	for _, e := range c.Env() {
		if e.Name == name {
			n++
		}
	}
	return n
}

func TestAugmentDeployment(t *testing.T) {
	doc := decodeOne(t, deploymentYAML)
	out, err := newTestAugmenter(&fakeArch{}).Augment(context.Background(), doc)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}
	if len(out) != 2 || out[0] != doc || out[1].Kind() != model.KindPullSecret {
		t.Fatalf("unexpected result set: %v", documentKeys(out))
	}
	if out[1].Namespace() != "shop" {
		t.Errorf("pull secret namespace = %q", out[1].Namespace())
	}

	ps := model.LocatePodSpec(doc)
	if ps.Raw()["terminationGracePeriodSeconds"] != DefaultTerminationGracePeriod {
		t.Errorf("grace period = %v", ps.Raw()["terminationGracePeriodSeconds"])
	}
	want := map[string]string{
		"app":     "reg.example.com/acct1/docker/app:v1",
		"sidecar": "reg.example.com/acct1/docker/proxy:v2",
		"migrate": "pub.example.com/pub1/tools:v3",
	}
	for _, c := range ps.AllContainers() {
		if c.Image() != want[c.Name()] {
			t.Errorf("%s image = %q want %q", c.Name(), c.Image(), want[c.Name()])
		}
	}
	for _, c := range ps.Containers() {
		if countEnv(c, EnvTimezone) != 1 {
			t.Errorf("%s has %d TZ entries", c.Name(), countEnv(c, EnvTimezone))
		}
	}
	for _, c := range ps.InitContainers() {
		if c.HasEnv(EnvTimezone) {
			t.Errorf("init container %s got TZ", c.Name())
		}
	}
	if got := ps.ImagePullSecrets(); len(got) != 1 || got[0] != "dockersecret-cloudprivate" {
		t.Errorf("imagePullSecrets = %v", got)
	}
	strategy, _ := doc.Spec()["strategy"].(map[string]any)
	if strategy["type"] != "RollingUpdate" {
		t.Errorf("strategy = %v", strategy)
	}
	ru, _ := strategy["rollingUpdate"].(map[string]any)
	if ru["maxSurge"] != "100%" || ru["maxUnavailable"] != int64(0) {
		t.Errorf("rollingUpdate = %v", ru)
	}
	sel, _ := ps.NodeSelector()
	if len(sel) != 0 {
		t.Errorf("nodeSelector = %v, want empty", sel)
	}
}

func TestAugmentIdempotent(t *testing.T) {
	doc := decodeOne(t, deploymentYAML)
	aug := newTestAugmenter(&fakeArch{})
	for i := 0; i < 2; i++ {
		if _, err := aug.Augment(context.Background(), doc); err != nil {
			t.Fatalf("Augment #%d: %v", i, err)
		}
	}
	ps := model.LocatePodSpec(doc)
	for _, c := range ps.Containers() {
		if n := countEnv(c, EnvTimezone); n != 1 {
			t.Errorf("%s has %d TZ entries after two passes", c.Name(), n)
		}
	}
	if got := ps.ImagePullSecrets(); len(got) != 1 {
		t.Errorf("imagePullSecrets = %v", got)
	}
	if got := model.LocatePodSpec(doc).Containers()[0].Image(); got != "reg.example.com/acct1/docker/app:v1" {
		t.Errorf("image rewritten twice: %q", got)
	}
}

func TestAugmentKeepsExistingValues(t *testing.T) {
	doc := decodeOne(t, `
kind: Deployment
metadata: {name: web}
spec:
  strategy: {type: Recreate}
  template:
    spec:
      terminationGracePeriodSeconds: 30
      containers:
      - name: app
        image: nginx:1.27
        env:
        - {name: TZ, value: UTC}
`)
	if _, err := newTestAugmenter(&fakeArch{}).Augment(context.Background(), doc); err != nil {
		t.Fatalf("Augment: %v", err)
	}
	ps := model.LocatePodSpec(doc)
	if ps.Raw()["terminationGracePeriodSeconds"] != int64(30) {
		t.Errorf("grace period overwritten: %v", ps.Raw()["terminationGracePeriodSeconds"])
	}
	env := ps.Containers()[0].Env()
	if len(env) != 1 || env[0].Value != "UTC" {
		t.Errorf("env = %v", env)
	}
	if s, _ := doc.Spec()["strategy"].(map[string]any); s["type"] != "Recreate" {
		t.Errorf("strategy overwritten: %v", s)
	}
	if ps.Containers()[0].Image() != "nginx:1.27" {
		t.Errorf("unprefixed image changed: %q", ps.Containers()[0].Image())
	}
	if ps.HasImagePullSecret("dockersecret-cloudprivate") {
		t.Errorf("pull secret added for public image")
	}
}

func TestAugmentArchitecture(t *testing.T) {
	armOnly := map[string][]string{"reg.example.com/acct1/docker/app:v1": {"arm64"}}
	tests := []struct {
		name     string
		selector string
		archs    map[string][]string
		want     map[string]any
		lookups  bool
	}{
		{name: "all support amd64", want: map[string]any{}, lookups: true},
		{name: "one image lacks amd64", archs: armOnly, want: map[string]any{LabelArch: ArchAMD64}, lookups: true},
		{name: "explicit selector wins", selector: "      nodeSelector: {pool: gpu}\n", archs: armOnly, want: map[string]any{"pool": "gpu"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decodeOne(t, `
kind: Job
metadata: {name: batch}
spec:
  template:
    spec:
`+tt.selector+`      containers:
      - name: app
        image: cloudprivate/app:v1
`)
			arch := &fakeArch{archs: tt.archs}
			if _, err := newTestAugmenter(arch).Augment(context.Background(), doc); err != nil {
				t.Fatalf("Augment: %v", err)
			}
			sel, _ := model.LocatePodSpec(doc).NodeSelector()
			if len(sel) != len(tt.want) {
				t.Fatalf("nodeSelector = %v want %v", sel, tt.want)
			}
			for k, v := range tt.want {
				if sel[k] != v {
					t.Errorf("nodeSelector[%s] = %v want %v", k, sel[k], v)
				}
			}
			if tt.lookups != (len(arch.images) > 0) {
				t.Errorf("lookups = %v", arch.images)
			}
			if tt.lookups && arch.images[0] != "reg.example.com/acct1/docker/app:v1" {
				t.Errorf("lookup used unqualified image %q", arch.images[0])
			}
		})
	}
}

func TestAugmentCronJob(t *testing.T) {
	doc := decodeOne(t, `
kind: CronJob
metadata: {name: nightly, namespace: ops}
spec:
  schedule: "0 3 * * *"
  jobTemplate:
    spec:
      template:
        spec:
          containers:
          - name: task
            image: cloudpublic/task:v1
`)
	out, err := newTestAugmenter(&fakeArch{}).Augment(context.Background(), doc)
	if err != nil {
		t.Fatalf("Augment: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("unexpected satellites: %v", documentKeys(out))
	}
	if doc.Spec()["timeZone"] != "Asia/Tokyo" {
		t.Errorf("timeZone = %v", doc.Spec()["timeZone"])
	}
	if _, ok := doc.Spec()["strategy"]; ok {
		t.Errorf("strategy set on CronJob")
	}
	c := model.LocatePodSpec(doc).Containers()[0]
	if c.Image() != "pub.example.com/pub1/task:v1" || !c.HasEnv(EnvTimezone) {
		t.Errorf("container not augmented: image=%q env=%v", c.Image(), c.Env())
	}
}

func TestAugmentPassThroughAndErrors(t *testing.T) {
	aug := newTestAugmenter(&fakeArch{})
	cm := decodeOne(t, "kind: ConfigMap\nmetadata: {name: cfg}\ndata: {a: b}\n")
	out, err := aug.Augment(context.Background(), cm)
	if err != nil || len(out) != 1 || out[0] != cm {
		t.Fatalf("ConfigMap not passed through: %v %v", out, err)
	}
	if _, ok := cm.Object["spec"]; ok {
		t.Errorf("ConfigMap mutated")
	}

	if _, err := aug.Augment(context.Background(), decodeOne(t, "kind: Deployment\nmetadata: {name: a}\n")); err == nil {
		t.Errorf("expected error for Deployment without spec")
	}
	if _, err := aug.Augment(context.Background(), decodeOne(t, "kind: Job\nmetadata: {name: a}\nspec: {backoffLimit: 1}\n")); err == nil {
		t.Errorf("expected error for Job without pod template")
	}
}

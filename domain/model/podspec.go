package model

// PodSpec is a mutable view over the pod spec map of a workload document.
// Mutations write through to the owning document.
type PodSpec struct {
	m map[string]any
}

// NewPodSpec wraps a pod spec map. Mainly useful in tests.
func NewPodSpec(m map[string]any) *PodSpec {
	if m == nil {
		m = map[string]any{}
	}
	return &PodSpec{m: m}
}

// Raw returns the underlying map.
func (p *PodSpec) Raw() map[string]any { return p.m }

// Containers returns views over spec.containers.
func (p *PodSpec) Containers() []*ContainerSpec { return containerViews(p.m["containers"]) }

// InitContainers returns views over spec.initContainers.
func (p *PodSpec) InitContainers() []*ContainerSpec { return containerViews(p.m["initContainers"]) }

// AllContainers returns containers followed by init containers.
func (p *PodSpec) AllContainers() []*ContainerSpec {
	return append(p.Containers(), p.InitContainers()...)
}

func containerViews(v any) []*ContainerSpec {
	list, _ := v.([]any)
	out := make([]*ContainerSpec, 0, len(list))
	for _, it := range list {
		if m, ok := it.(map[string]any); ok {
			out = append(out, &ContainerSpec{m: m})
		}
	}
	return out
}

// HasTerminationGracePeriod reports whether terminationGracePeriodSeconds is set.
func (p *PodSpec) HasTerminationGracePeriod() bool {
	return p.m["terminationGracePeriodSeconds"] != nil
}

// SetTerminationGracePeriod sets terminationGracePeriodSeconds.
func (p *PodSpec) SetTerminationGracePeriod(seconds int64) {
	p.m["terminationGracePeriodSeconds"] = seconds
}

// NodeSelector returns the node selector map and whether the field is set.
func (p *PodSpec) NodeSelector() (map[string]any, bool) {
	v, ok := p.m["nodeSelector"]
	if !ok || v == nil {
		return nil, false
	}
	m, _ := v.(map[string]any)
	if m == nil {
		m = map[string]any{}
		p.m["nodeSelector"] = m
	}
	return m, true
}

// EnsureNodeSelector initializes nodeSelector to an empty map when unset and returns it.
func (p *PodSpec) EnsureNodeSelector() map[string]any {
	if m, ok := p.NodeSelector(); ok {
		return m
	}
	m := map[string]any{}
	p.m["nodeSelector"] = m
	return m
}

// ImagePullSecrets returns the names listed in imagePullSecrets, in order.
func (p *PodSpec) ImagePullSecrets() []string {
	list, _ := p.m["imagePullSecrets"].([]any)
	var names []string
	for _, it := range list {
		if m, ok := it.(map[string]any); ok {
			if s, ok := m["name"].(string); ok {
				names = append(names, s)
			}
		}
	}
	return names
}

// HasImagePullSecret reports whether imagePullSecrets references name.
func (p *PodSpec) HasImagePullSecret(name string) bool {
	for _, n := range p.ImagePullSecrets() {
		if n == name {
			return true
		}
	}
	return false
}

// AddImagePullSecret appends a reference to name unless already present.
// It returns true when the list was changed.
func (p *PodSpec) AddImagePullSecret(name string) bool {
	if p.HasImagePullSecret(name) {
		return false
	}
	list, _ := p.m["imagePullSecrets"].([]any)
	p.m["imagePullSecrets"] = append(list, map[string]any{"name": name})
	return true
}

// ContainerSpec is a mutable view over one container entry.
type ContainerSpec struct {
	m map[string]any
}

// EnvVar is a name/value environment entry. ValueFrom entries carry an empty Value.
type EnvVar struct {
	Name  string
	Value string
}

// Name returns the container name.
func (c *ContainerSpec) Name() string {
	s, _ := c.m["name"].(string)
	return s
}

// Image returns the image reference.
func (c *ContainerSpec) Image() string {
	s, _ := c.m["image"].(string)
	return s
}

// SetImage replaces the image reference.
func (c *ContainerSpec) SetImage(image string) { c.m["image"] = image }

// Env returns the env entries in order.
func (c *ContainerSpec) Env() []EnvVar {
	list, _ := c.m["env"].([]any)
	out := make([]EnvVar, 0, len(list))
	for _, it := range list {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		value, _ := m["value"].(string)
		out = append(out, EnvVar{Name: name, Value: value})
	}
	return out
}

// HasEnv reports whether an env entry named name exists.
func (c *ContainerSpec) HasEnv(name string) bool {
	for _, e := range c.Env() {
		if e.Name == name {
			return true
		}
	}
	return false
}

// EnsureEnv appends name=value unless an entry with that name exists.
// It returns true when an entry was appended.
func (c *ContainerSpec) EnsureEnv(name, value string) bool {
	if c.HasEnv(name) {
		return false
	}
	list, _ := c.m["env"].([]any)
	c.m["env"] = append(list, map[string]any{"name": name, "value": value})
	return true
}

package kube

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/koishi/kdeploy/domain/model"
)

// DockerRegistryAuth is one registry credential of a docker config.
type DockerRegistryAuth struct {
	Server   string
	Username string
	Password string
	Email    string
}

type dockerConfigEntry struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Email    string `json:"email,omitempty"`
	Auth     string `json:"auth,omitempty"`
}

type dockerConfigJSON struct {
	Auths map[string]dockerConfigEntry `json:"auths"`
}

// DockerConfigJSON renders the .dockerconfigjson payload for a single registry,
// in the shape `kubectl create secret docker-registry` produces.
func DockerConfigJSON(a DockerRegistryAuth) ([]byte, error) {
	if a.Server == "" {
		return nil, fmt.Errorf("docker registry server is empty")
	}
	cfg := dockerConfigJSON{Auths: map[string]dockerConfigEntry{
		a.Server: {
			Username: a.Username,
			Password: a.Password,
			Email:    a.Email,
			Auth:     base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password)),
		},
	}}
	return json.Marshal(cfg)
}

// NewDockerRegistrySecret builds a namespaced kubernetes.io/dockerconfigjson Secret.
func NewDockerRegistrySecret(namespace, name string, a DockerRegistryAuth) (*corev1.Secret, error) {
	if name == "" {
		return nil, fmt.Errorf("secret name is empty")
	}
	if namespace == "" {
		namespace = model.DefaultNamespace
	}
	payload, err := DockerConfigJSON(a)
	if err != nil {
		return nil, err
	}
	return &corev1.Secret{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Type:       corev1.SecretTypeDockerConfigJson,
		Data:       map[string][]byte{DockerConfigJSONKey: payload},
	}, nil
}

// PullSecretDocument builds the docker-registry Secret as a manifest document.
func PullSecretDocument(namespace, name string, a DockerRegistryAuth) (*model.Document, error) {
	s, err := NewDockerRegistrySecret(namespace, name, a)
	if err != nil {
		return nil, err
	}
	return ObjectToDocument(s)
}

package kube

// Centralized field manager and annotation keys used by the kube adapter.
// Keep these constants stable; changes are API-visible in clusters.
const (
	// FieldManager is the default server-side apply field manager.
	FieldManager = "kdeploy"

	// AnnotationRestartedAt is the pod template annotation bumped by a rollout restart.
	AnnotationRestartedAt = "kubectl.kubernetes.io/restartedAt"

	// DockerConfigJSONKey is the canonical data key for kubernetes.io/dockerconfigjson Secrets.
	DockerConfigJSONKey = ".dockerconfigjson"
)

// Apply actions reported per document, worded as kubectl does.
const (
	ActionCreated    = "created"
	ActionConfigured = "configured"
	ActionUnchanged  = "unchanged"
)

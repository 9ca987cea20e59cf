package model

import "strings"

// RegistryClass distinguishes the two known image sources.
type RegistryClass int

const (
	RegistryPrivate RegistryClass = iota
	RegistryPublic
)

func (c RegistryClass) String() string {
	switch c {
	case RegistryPrivate:
		return "private"
	case RegistryPublic:
		return "public"
	default:
		return "unknown"
	}
}

// Registry binds a registry class to its path prefix and resolved location.
type Registry struct {
	Class   RegistryClass
	Prefix  string
	Host    string
	Account string
	// PullSecret is the pull secret name required by images of this class.
	// Only the private class carries one.
	PullSecret string
}

// Match reports whether image starts with the class prefix and returns the remainder.
func (r Registry) Match(image string) (string, bool) {
	if r.Prefix == "" || !strings.HasPrefix(image, r.Prefix) {
		return "", false
	}
	return strings.TrimPrefix(image, r.Prefix), true
}

// Qualify builds the fully qualified image path for the remainder of a matched reference.
func (r Registry) Qualify(rest string) string {
	if r.Class == RegistryPrivate {
		return r.Host + "/" + r.Account + "/docker/" + rest
	}
	return r.Host + "/" + r.Account + "/" + rest
}

package model

import (
	"fmt"
	"strings"
	"time"
)

// SecretResolutionError reports secret references the provider could not resolve.
type SecretResolutionError struct {
	Errors []string
}

func (e *SecretResolutionError) Error() string {
	return fmt.Sprintf("unresolved secret references (%d): %s", len(e.Errors), strings.Join(e.Errors, "; "))
}

// MissingArgumentError reports a required option that was not given.
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return e.Name + " is required"
}

// UnsupportedMetaError reports a meta name other than the known pull secret identifier.
type UnsupportedMetaError struct {
	Meta      string
	Supported string
}

func (e *UnsupportedMetaError) Error() string {
	return fmt.Sprintf("unknown meta %q, only %s is supported", e.Meta, e.Supported)
}

// ApplyError reports that the cluster rejected the manifest set.
type ApplyError struct {
	Output string
	Err    error
}

func (e *ApplyError) Error() string {
	msg := "apply manifest failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ApplyError) Unwrap() error { return e.Err }

// RolloutTimeoutError reports a Deployment whose rollout did not settle in time.
type RolloutTimeoutError struct {
	Namespace string
	Name      string
	Timeout   time.Duration
}

func (e *RolloutTimeoutError) Error() string {
	return fmt.Sprintf("deployment %s/%s did not finish rolling out within %s", e.Namespace, e.Name, e.Timeout)
}

package model

import (
	"sort"
	"strings"
)

// Option keys understood as directives rather than placeholder bindings.
const (
	OptionNamespace = "namespace"
	OptionFile      = "file"
	OptionMeta      = "meta"
)

// VarPrefix marks an option key as a placeholder binding.
const VarPrefix = "var."

// Options is the flat key/value mapping parsed from one invocation.
type Options map[string]string

// Vars returns the placeholder bindings with the VarPrefix stripped.
func (o Options) Vars() map[string]string {
	out := map[string]string{}
	for k, v := range o {
		if strings.HasPrefix(k, VarPrefix) {
			out[strings.TrimPrefix(k, VarPrefix)] = v
		}
	}
	return out
}

// Get returns the value for key and whether it was present.
func (o Options) Get(key string) (string, bool) {
	v, ok := o[key]
	return v, ok
}

// Without returns a copy of o minus the given keys.
func (o Options) Without(keys ...string) Options {
	out := Options{}
	for k, v := range o {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Keys returns the option keys in sorted order.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

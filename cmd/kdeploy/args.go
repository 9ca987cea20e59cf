package main

import (
	"fmt"
	"strings"

	"github.com/koishi/kdeploy/domain/model"
)

const legacyVarPrefix = "--" + model.VarPrefix

// normalizeArgs rewrites the legacy "--var.<name>=<value>" form into "--var=<name>=<value>".
// A bare "--var.<name>" binds the empty string.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--" {
			return append(out, args[len(out):]...)
		}
		if rest, ok := strings.CutPrefix(a, legacyVarPrefix); ok && rest != "" {
			if !strings.Contains(rest, "=") {
				rest += "="
			}
			a = "--var=" + rest
		}
		out = append(out, a)
	}
	return out
}

// configFileFromArgs returns the value of --config, which must be known before flags are parsed.
func configFileFromArgs(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// parseVars turns repeated "name=value" bindings into var.* options.
func parseVars(opts model.Options, vars []string) error {
	for _, kv := range vars {
		name, value, _ := strings.Cut(kv, "=")
		if name == "" {
			return fmt.Errorf("invalid --var %q, want name=value", kv)
		}
		opts[model.VarPrefix+name] = value
	}
	return nil
}

// buildOptions assembles the invocation options from the deploy flags.
func buildOptions(namespace string, vars []string) (model.Options, error) {
	opts := model.Options{}
	if namespace != "" {
		opts[model.OptionNamespace] = namespace
	}
	if err := parseVars(opts, vars); err != nil {
		return nil, err
	}
	return opts, nil
}

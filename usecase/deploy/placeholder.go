package deploy

import (
	"sort"
	"strings"
)

// PlaceholderPattern renders the literal marker for a placeholder name.
func PlaceholderPattern(name string) string {
	return "__((" + name + "))__"
}

// ResolvePlaceholders replaces every __((name))__ marker bound in vars with its value.
// Unbound markers are left untouched. Substitution is a single pass, so values are
// never themselves scanned for markers.
func ResolvePlaceholders(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, PlaceholderPattern(name), vars[name])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

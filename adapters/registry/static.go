// Package registry implements image architecture lookups.
package registry

import (
	"context"

	"github.com/koishi/kdeploy/domain"
)

// DefaultArchitectures is the fixed list reported by Static.
var DefaultArchitectures = []string{"amd64", "arm64"}

// Static reports the same architecture list for every image without contacting a registry.
type Static struct {
	Archs []string
}

var _ domain.ImageArchResolver = Static{}

// NewStatic returns a resolver reporting archs, or DefaultArchitectures when none are given.
func NewStatic(archs ...string) Static {
	if len(archs) == 0 {
		archs = DefaultArchitectures
	}
	return Static{Archs: archs}
}

func (s Static) Architectures(context.Context, string) ([]string, error) {
	return append([]string(nil), s.Archs...), nil
}

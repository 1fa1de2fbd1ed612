package nix

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/devshell/internal/core/ports"
)

const (
	BuilderNodeID graft.ID = "adapter.nix.builder"
	IndexNodeID   graft.ID = "adapter.nix.index"
)

func init() {
	graft.Register(graft.Node[ports.EnvironmentBuilder]{
		ID:        BuilderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.EnvironmentBuilder, error) {
			return NewBuilder(), nil
		},
	})

	graft.Register(graft.Node[ports.PackageIndex]{
		ID:        IndexNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.PackageIndex, error) {
			return NewIndex(), nil
		},
	})
}

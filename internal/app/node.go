package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/devshell/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/manifest"  //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/nix"       //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/settings"  //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/devshell/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			manifest.NodeID,
			settings.NodeID,
			nix.BuilderNodeID,
			nix.IndexNodeID,
			cas.NodeID,
			shell.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	manifests, err := graft.Dep[ports.ManifestLoader](ctx)
	if err != nil {
		return nil, err
	}

	settingsLoader, err := graft.Dep[ports.SettingsLoader](ctx)
	if err != nil {
		return nil, err
	}

	builder, err := graft.Dep[ports.EnvironmentBuilder](ctx)
	if err != nil {
		return nil, err
	}

	index, err := graft.Dep[ports.PackageIndex](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.EnvironmentStore](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return New(manifests, settingsLoader, builder, store, index, executor, log, tracer), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log, tracer), nil
}

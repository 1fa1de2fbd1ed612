// Package app implements the application layer for devshell.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	manifests ports.ManifestLoader
	settings  ports.SettingsLoader
	builder   ports.EnvironmentBuilder
	store     ports.EnvironmentStore
	index     ports.PackageIndex
	executor  ports.Executor
	logger    ports.Logger
	tracer    ports.Tracer
	getwd     func() (string, error)

	mu           sync.Mutex
	settingsPath string
	loaded       *domain.Settings
}

// New creates a new App instance.
func New(
	manifests ports.ManifestLoader,
	settings ports.SettingsLoader,
	builder ports.EnvironmentBuilder,
	store ports.EnvironmentStore,
	index ports.PackageIndex,
	executor ports.Executor,
	log ports.Logger,
	tracer ports.Tracer,
) *App {
	return &App{
		manifests: manifests,
		settings:  settings,
		builder:   builder,
		store:     store,
		index:     index,
		executor:  executor,
		logger:    log,
		tracer:    tracer,
		getwd:     os.Getwd,
	}
}

// WithWorkingDir makes manifest discovery start at dir instead of the process working directory.
func (a *App) WithWorkingDir(dir string) *App {
	a.getwd = func() (string, error) { return dir, nil }
	return a
}

// UseSettings selects the settings file read by the next use case.
// An empty path selects the default location.
func (a *App) UseSettings(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.settingsPath = path
	a.loaded = nil
}

// Settings returns the effective settings, loading them on first use.
func (a *App) Settings() (*domain.Settings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loaded != nil {
		return a.loaded, nil
	}
	s, err := a.settings.Load(a.settingsPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load settings")
	}
	a.loaded = s
	return s, nil
}

// Check loads every manifest and reports the first one that fails validation.
func (a *App) Check(ctx context.Context, paths []string) error {
	return a.traced(ctx, "check", func(ctx context.Context, _ ports.Span) error {
		manifests, err := a.loadAll(ctx, paths)
		if err != nil {
			return err
		}
		for _, m := range manifests {
			a.logger.Info(fmt.Sprintf("%s: %d groups, %d packages", m.Source, len(m.Groups), m.Len()))
		}
		return nil
	})
}

// Flatten loads the manifests concurrently and returns the union of their requirements.
// Without paths the nearest manifest above the working directory is used.
func (a *App) Flatten(ctx context.Context, paths []string) (domain.RequirementSet, error) {
	var set domain.RequirementSet
	err := a.traced(ctx, "flatten", func(ctx context.Context, span ports.Span) error {
		manifests, err := a.loadAll(ctx, paths)
		if err != nil {
			return err
		}
		set = domain.NewRequirementSet()
		for _, m := range manifests {
			set = set.Union(domain.Flatten(m))
		}
		span.SetAttribute("requirements", set.Len())
		return nil
	})
	return set, err
}

// Expr returns the builder input for the manifest at path without building it.
func (a *App) Expr(ctx context.Context, path string) (string, error) {
	var expr string
	err := a.traced(ctx, "expr", func(ctx context.Context, _ ports.Span) error {
		req, _, err := a.buildRequest(ctx, path)
		if err != nil {
			return err
		}
		expr, err = a.builder.Expression(req)
		return err
	})
	return expr, err
}

// Env materializes the environment of the manifest at path.
// Environments are served from the store when an identical request was built before.
func (a *App) Env(ctx context.Context, path string) (*domain.Environment, error) {
	var env *domain.Environment
	err := a.traced(ctx, "env", func(ctx context.Context, span ports.Span) error {
		req, settings, err := a.buildRequest(ctx, path)
		if err != nil {
			return err
		}
		env, err = a.materialize(ctx, span, req, settings.CacheDir)
		return err
	})
	return env, err
}

func (a *App) materialize(
	ctx context.Context,
	span ports.Span,
	req domain.BuildRequest,
	cacheRoot string,
) (*domain.Environment, error) {
	id := req.ID()

	cached, err := a.store.Get(cacheRoot, id)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		span.SetAttribute("cached", true)
		return cached, nil
	}

	env, err := a.builder.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := a.store.Put(cacheRoot, env); err != nil {
		return nil, err
	}
	return env, nil
}

// Run materializes the environment of the manifest at path and executes cmd inside it.
func (a *App) Run(ctx context.Context, path string, cmd ports.Command) error {
	if len(cmd.Args) == 0 {
		return domain.ErrNoCommand
	}

	env, err := a.Env(ctx, path)
	if err != nil {
		return err
	}

	return a.traced(ctx, "run", func(ctx context.Context, _ ports.Span) error {
		return a.executor.Execute(ctx, cmd, env.Vars)
	})
}

// Verify looks every requirement of the manifest at path up in the package index.
// A package the index does not know is reported in the results, not as an error.
func (a *App) Verify(ctx context.Context, path string) ([]domain.VerifyResult, error) {
	var results []domain.VerifyResult
	err := a.traced(ctx, "verify", func(ctx context.Context, span ports.Span) error {
		req, settings, err := a.buildRequest(ctx, path)
		if err != nil {
			return err
		}

		sorted := req.Requirements.Sorted()
		results = make([]domain.VerifyResult, len(sorted))

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(max(settings.VerifyConcurrency, 1))

		for i, r := range sorted {
			g.Go(func() error {
				results[i] = a.verifyOne(ctx, r, req.Namespaces, settings)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		missing := 0
		for _, res := range results {
			if !res.Found {
				missing++
			}
		}
		span.SetAttribute("missing", missing)
		return nil
	})
	return results, err
}

func (a *App) verifyOne(
	ctx context.Context,
	r domain.Requirement,
	namespaces *domain.NamespaceRegistry,
	settings *domain.Settings,
) domain.VerifyResult {
	res := domain.VerifyResult{Requirement: r}

	spec, ok := namespaces.Lookup(r.Namespace.String())
	if !ok {
		res.Err = domain.Tagged(domain.ErrUnknownNamespace, "namespace", r.Namespace.String())
		return res
	}
	res.AttrPath = spec.PackageAttrPath(r.Name.String())

	info, err := a.index.Lookup(ctx, domain.LookupRequest{
		AttrPath: res.AttrPath,
		Endpoint: settings.NixHubURL,
		CacheDir: domain.NixHubCachePath(settings.CacheDir),
	})
	switch {
	case err == nil:
		res.Found = true
		res.Info = *info
	case errors.Is(err, domain.ErrNixPackageNotFound), errors.Is(err, domain.ErrUnsupportedArchitecture):
	default:
		res.Err = err
	}
	return res
}

// Clean removes the stored environments and the package index cache.
func (a *App) Clean(ctx context.Context) error {
	return a.traced(ctx, "clean", func(_ context.Context, _ ports.Span) error {
		settings, err := a.Settings()
		if err != nil {
			return err
		}

		var errs error
		a.logger.Info("removing environment cache...")
		if err := a.store.Clear(settings.CacheDir); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, "failed to remove environment cache"))
		}
		a.logger.Info("removing package index cache...")
		if err := a.index.Clear(domain.NixHubCachePath(settings.CacheDir)); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, "failed to remove package index cache"))
		}
		return errs
	})
}

// buildRequest loads the manifest at path and resolves everything a build needs.
func (a *App) buildRequest(ctx context.Context, path string) (domain.BuildRequest, *domain.Settings, error) {
	settings, err := a.Settings()
	if err != nil {
		return domain.BuildRequest{}, nil, err
	}
	registry, err := settings.Registry()
	if err != nil {
		return domain.BuildRequest{}, nil, zerr.Wrap(err, "failed to load settings")
	}

	m, err := a.load(ctx, path, registry)
	if err != nil {
		return domain.BuildRequest{}, nil, err
	}

	channel, source := domain.ResolveChannel(m.Channel, settings.Channel)
	if source == domain.ChannelFromDefault {
		a.logger.Info(fmt.Sprintf("no channel configured, using %s", channel))
	}

	return domain.BuildRequest{
		Channel:      channel,
		Requirements: domain.Flatten(m),
		Namespaces:   registry,
	}, settings, nil
}

// loadAll loads the manifests at paths concurrently; without paths it discovers one.
func (a *App) loadAll(ctx context.Context, paths []string) ([]*domain.Manifest, error) {
	settings, err := a.Settings()
	if err != nil {
		return nil, err
	}
	registry, err := settings.Registry()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load settings")
	}

	if len(paths) == 0 {
		paths = []string{""}
	}
	stdin := 0
	for _, p := range paths {
		if p == domain.StdinSource {
			stdin++
		}
	}
	if stdin > 1 {
		return nil, domain.Tagged(domain.ErrStdinRepeated, "count", stdin)
	}

	manifests := make([]*domain.Manifest, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			m, err := a.load(ctx, p, registry)
			if err != nil {
				return err
			}
			manifests[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return manifests, nil
}

// load reads one manifest. An empty path is resolved by discovery from the working directory.
func (a *App) load(ctx context.Context, path string, registry *domain.NamespaceRegistry) (*domain.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		cwd, err := a.getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		path, err = a.manifests.Discover(cwd)
		if err != nil {
			return nil, err
		}
	}
	return a.manifests.Load(path, registry)
}

// traced runs fn inside a span named after the use case.
func (a *App) traced(ctx context.Context, name string, fn func(context.Context, ports.Span) error) error {
	ctx, span := a.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx, span); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

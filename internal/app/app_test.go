package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/adapters/telemetry"
	"go.trai.ch/devshell/internal/app"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/devshell/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	manifests *mocks.MockManifestLoader
	settings  *mocks.MockSettingsLoader
	builder   *mocks.MockEnvironmentBuilder
	store     *mocks.MockEnvironmentStore
	index     *mocks.MockPackageIndex
	executor  *mocks.MockExecutor
	logger    *mocks.MockLogger
	app       *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		manifests: mocks.NewMockManifestLoader(ctrl),
		settings:  mocks.NewMockSettingsLoader(ctrl),
		builder:   mocks.NewMockEnvironmentBuilder(ctrl),
		store:     mocks.NewMockEnvironmentStore(ctrl),
		index:     mocks.NewMockPackageIndex(ctrl),
		executor:  mocks.NewMockExecutor(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
	}
	f.app = app.New(
		f.manifests, f.settings, f.builder, f.store, f.index, f.executor, f.logger,
		telemetry.NewNoOpTracer(),
	).WithWorkingDir("/work")
	return f
}

func testSettings() *domain.Settings {
	s := domain.DefaultSettings()
	s.CacheDir = "/cache"
	s.Channel = "nixos-24.05"
	return s
}

func exampleManifest(source string) *domain.Manifest {
	return &domain.Manifest{
		Source: source,
		Groups: []domain.RequirementGroup{
			{
				Namespace: domain.NewInternedString("system"),
				Packages:  domain.NewInternedStrings([]string{"git", "zlib"}),
			},
			{
				Namespace: domain.NewInternedString("language-ecosystem"),
				Packages:  domain.NewInternedStrings([]string{"aiohttp"}),
			},
		},
	}
}

func TestApp_Settings_LoadedOnce(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil).Times(1)

	s1, err := f.app.Settings()
	require.NoError(t, err)
	s2, err := f.app.Settings()
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestApp_UseSettings_Reloads(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	custom := testSettings()
	custom.Channel = "nixos-unstable-small"
	f.settings.EXPECT().Load("/etc/devshell.toml").Return(custom, nil)

	_, err := f.app.Settings()
	require.NoError(t, err)

	f.app.UseSettings("/etc/devshell.toml")
	s, err := f.app.Settings()
	require.NoError(t, err)
	assert.Equal(t, "nixos-unstable-small", s.Channel)
}

func TestApp_Settings_Error(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(nil, domain.ErrSettingsParseFailed)

	_, err := f.app.Flatten(context.Background(), []string{"a.json"})
	require.ErrorIs(t, err, domain.ErrSettingsParseFailed)
}

func TestApp_Flatten_Discovers(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Discover("/work").Return("/work/devshell.json", nil)
	f.manifests.EXPECT().Load("/work/devshell.json", gomock.Any()).Return(exampleManifest("/work/devshell.json"), nil)

	set, err := f.app.Flatten(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
}

func TestApp_Flatten_UnionOfManifests(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)
	f.manifests.EXPECT().Load("b.json", gomock.Any()).Return(&domain.Manifest{
		Source: "b.json",
		Groups: []domain.RequirementGroup{{
			Namespace: domain.NewInternedString("system"),
			Packages:  domain.NewInternedStrings([]string{"git", "openssl"}),
		}},
	}, nil)

	set, err := f.app.Flatten(context.Background(), []string{"a.json", "b.json"})
	require.NoError(t, err)

	assert.Equal(t, 4, set.Len())
	assert.True(t, set.Contains(domain.NewRequirement("system", "openssl")))
	assert.True(t, set.Contains(domain.NewRequirement("system", "git")))
}

func TestApp_Flatten_Malformed(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	malformed := errors.Join(domain.ErrMalformedManifest, domain.ErrUnknownNamespace)
	f.manifests.EXPECT().Load("bad.json", gomock.Any()).Return(nil, malformed)

	_, err := f.app.Flatten(context.Background(), []string{"bad.json"})
	require.ErrorIs(t, err, domain.ErrMalformedManifest)
	require.ErrorIs(t, err, domain.ErrUnknownNamespace)
}

func TestApp_Flatten_RegistryIncludesConfiguredNamespaces(t *testing.T) {
	f := newFixture(t)
	s := testSettings()
	s.Namespaces = []domain.NamespaceSpec{{Name: "node", Kind: domain.NamespaceKindAttrSet, Attr: "nodePackages"}}
	f.settings.EXPECT().Load("").Return(s, nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).DoAndReturn(
		func(_ string, registry *domain.NamespaceRegistry) (*domain.Manifest, error) {
			assert.Equal(t, []string{"language-ecosystem", "node", "system"}, registry.Names())
			return &domain.Manifest{}, nil
		})

	set, err := f.app.Flatten(context.Background(), []string{"a.json"})
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestApp_Check(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)
	f.logger.EXPECT().Info("a.json: 2 groups, 3 packages")

	require.NoError(t, f.app.Check(context.Background(), []string{"a.json"}))
}

func TestApp_Check_NotFound(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Discover("/work").Return("", domain.Tagged(domain.ErrManifestNotFound, "cwd", "/work"))

	err := f.app.Check(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrManifestNotFound)
}

func TestApp_Flatten_StdinReadOnce(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)

	_, err := f.app.Flatten(context.Background(), []string{"-", "a.json", "-"})
	require.ErrorIs(t, err, domain.ErrStdinRepeated)
}

func TestApp_Flatten_StdinWithFiles(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Load("-", gomock.Any()).Return(exampleManifest("-"), nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)

	set, err := f.app.Flatten(context.Background(), []string{"-", "a.json"})
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
}

func TestApp_Expr(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)
	f.builder.EXPECT().Expression(gomock.Any()).DoAndReturn(func(req domain.BuildRequest) (string, error) {
		assert.Equal(t, "nixos-24.05", req.Channel)
		assert.Equal(t, 3, req.Requirements.Len())
		return "expr", nil
	})

	expr, err := f.app.Expr(context.Background(), "a.json")
	require.NoError(t, err)
	assert.Equal(t, "expr", expr)
}

func TestApp_Expr_ChannelPrecedence(t *testing.T) {
	t.Run("manifest wins", func(t *testing.T) {
		f := newFixture(t)
		f.settings.EXPECT().Load("").Return(testSettings(), nil)
		m := exampleManifest("a.json")
		m.Channel = "nixos-23.11"
		f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(m, nil)
		f.builder.EXPECT().Expression(gomock.Any()).DoAndReturn(func(req domain.BuildRequest) (string, error) {
			assert.Equal(t, "nixos-23.11", req.Channel)
			return "", nil
		})

		_, err := f.app.Expr(context.Background(), "a.json")
		require.NoError(t, err)
	})

	t.Run("default is logged", func(t *testing.T) {
		f := newFixture(t)
		s := testSettings()
		s.Channel = ""
		f.settings.EXPECT().Load("").Return(s, nil)
		f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)
		f.logger.EXPECT().Info("no channel configured, using nixos-unstable")
		f.builder.EXPECT().Expression(gomock.Any()).DoAndReturn(func(req domain.BuildRequest) (string, error) {
			assert.Equal(t, domain.DefaultChannel, req.Channel)
			return "", nil
		})

		_, err := f.app.Expr(context.Background(), "a.json")
		require.NoError(t, err)
	})
}

func TestApp_Env_CacheMiss(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)

	built := &domain.Environment{ID: "id", Vars: []string{"PATH=/nix/store/bin"}}
	gomock.InOrder(
		f.store.EXPECT().Get("/cache", gomock.Any()).Return(nil, nil),
		f.builder.EXPECT().Build(gomock.Any(), gomock.Any()).Return(built, nil),
		f.store.EXPECT().Put("/cache", built).Return(nil),
	)

	env, err := f.app.Env(context.Background(), "a.json")
	require.NoError(t, err)
	assert.Same(t, built, env)
}

func TestApp_Env_CacheHit(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)

	cached := &domain.Environment{ID: "id"}
	f.store.EXPECT().Get("/cache", gomock.Any()).Return(cached, nil)

	env, err := f.app.Env(context.Background(), "a.json")
	require.NoError(t, err)
	assert.Same(t, cached, env)
}

func TestApp_Env_KeyedByRequestID(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	m := exampleManifest("a.json")
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(m, nil)

	want := domain.BuildRequest{
		Channel:      "nixos-24.05",
		Requirements: domain.Flatten(m),
		Namespaces:   domain.DefaultNamespaceRegistry(),
	}.ID()
	f.store.EXPECT().Get("/cache", want).Return(&domain.Environment{ID: want}, nil)

	_, err := f.app.Env(context.Background(), "a.json")
	require.NoError(t, err)
}

func TestApp_Env_BuildFailure(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)
	f.store.EXPECT().Get("/cache", gomock.Any()).Return(nil, nil)
	f.builder.EXPECT().Build(gomock.Any(), gomock.Any()).Return(nil, domain.ErrNixBuildFailed)

	_, err := f.app.Env(context.Background(), "a.json")
	require.ErrorIs(t, err, domain.ErrNixBuildFailed)
}

func TestApp_Env_RecordsErrorOnSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	settings := mocks.NewMockSettingsLoader(ctrl)

	a := app.New(nil, settings, nil, nil, nil, nil, nil, tracer)

	tracer.EXPECT().Start(gomock.Any(), "env").Return(context.Background(), span)
	settings.EXPECT().Load("").Return(nil, domain.ErrSettingsReadFailed)
	span.EXPECT().RecordError(gomock.Any())
	span.EXPECT().End()

	_, err := a.Env(context.Background(), "a.json")
	require.ErrorIs(t, err, domain.ErrSettingsReadFailed)
}

func TestApp_Run(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)

	env := &domain.Environment{ID: "id", Vars: []string{"PATH=/nix/store/bin"}}
	f.store.EXPECT().Get("/cache", gomock.Any()).Return(env, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), env.Vars).
		DoAndReturn(func(_ context.Context, cmd ports.Command, _ []string) error {
			assert.Equal(t, []string{"git", "--version"}, cmd.Args)
			return nil
		})

	err := f.app.Run(context.Background(), "a.json", ports.Command{Args: []string{"git", "--version"}})
	require.NoError(t, err)
}

func TestApp_Run_NoCommand(t *testing.T) {
	f := newFixture(t)

	err := f.app.Run(context.Background(), "a.json", ports.Command{})
	require.ErrorIs(t, err, domain.ErrNoCommand)
}

func TestApp_Verify(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(exampleManifest("a.json"), nil)

	f.index.EXPECT().Lookup(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.LookupRequest) (*domain.PackageInfo, error) {
			assert.Equal(t, domain.DefaultNixHubURL, req.Endpoint)
			assert.Equal(t, domain.NixHubCachePath("/cache"), req.CacheDir)
			switch req.AttrPath {
			case "git":
				return &domain.PackageInfo{AttrPath: "git", Version: "2.47.0"}, nil
			case "zlib":
				return nil, domain.ErrNixPackageNotFound
			case "python3Packages.aiohttp":
				return nil, domain.ErrNixAPIRequestFailed
			}
			t.Errorf("unexpected lookup %q", req.AttrPath)
			return nil, nil
		}).Times(3)

	results, err := f.app.Verify(context.Background(), "a.json")
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Sorted by namespace, then name.
	assert.Equal(t, "language-ecosystem:aiohttp", results[0].Requirement.String())
	assert.False(t, results[0].Found)
	require.ErrorIs(t, results[0].Err, domain.ErrNixAPIRequestFailed)

	assert.Equal(t, "system:git", results[1].Requirement.String())
	assert.True(t, results[1].Found)
	assert.Equal(t, "2.47.0", results[1].Info.Version)

	assert.Equal(t, "system:zlib", results[2].Requirement.String())
	assert.False(t, results[2].Found)
	assert.NoError(t, results[2].Err)
}

func TestApp_Verify_BoundedConcurrency(t *testing.T) {
	f := newFixture(t)
	s := testSettings()
	s.VerifyConcurrency = 2
	f.settings.EXPECT().Load("").Return(s, nil)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	f.manifests.EXPECT().Load("a.json", gomock.Any()).Return(&domain.Manifest{
		Groups: []domain.RequirementGroup{{
			Namespace: domain.NewInternedString("system"),
			Packages:  domain.NewInternedStrings(names),
		}},
	}, nil)

	var inFlight, peak atomic.Int32
	f.index.EXPECT().Lookup(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.LookupRequest) (*domain.PackageInfo, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			return &domain.PackageInfo{AttrPath: req.AttrPath}, nil
		}).Times(len(names))

	results, err := f.app.Verify(context.Background(), "a.json")
	require.NoError(t, err)
	assert.Len(t, results, len(names))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestApp_Clean(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.logger.EXPECT().Info(gomock.Any()).Times(2)
	f.store.EXPECT().Clear("/cache").Return(nil)
	f.index.EXPECT().Clear(domain.NixHubCachePath("/cache")).Return(nil)

	require.NoError(t, f.app.Clean(context.Background()))
}

func TestApp_Clean_JoinsErrors(t *testing.T) {
	f := newFixture(t)
	f.settings.EXPECT().Load("").Return(testSettings(), nil)
	f.logger.EXPECT().Info(gomock.Any()).Times(2)
	f.store.EXPECT().Clear("/cache").Return(domain.ErrStoreLockFailed)
	f.index.EXPECT().Clear(gomock.Any()).Return(errors.New("permission denied"))

	err := f.app.Clean(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreLockFailed)
	assert.Contains(t, err.Error(), "permission denied")
}

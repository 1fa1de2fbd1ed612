package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/core/domain"
)

func TestDefaultNamespaceRegistry(t *testing.T) {
	r := domain.DefaultNamespaceRegistry()

	assert.Equal(t, []string{"language-ecosystem", "system"}, r.Names())

	sys, ok := r.Lookup(domain.SystemNamespace)
	require.True(t, ok)
	assert.Equal(t, domain.NamespaceKindAttrSet, sys.Kind)
	assert.Equal(t, "pkgs", sys.Attr)

	lang, ok := r.Lookup(domain.LanguageEcosystemNamespace)
	require.True(t, ok)
	assert.Equal(t, domain.NamespaceKindInterpreter, lang.Kind)
	assert.Equal(t, "python3", lang.Attr)

	_, ok = r.Lookup("ruby")
	assert.False(t, ok)
}

func TestNamespaceSpec_ValidName(t *testing.T) {
	r := domain.DefaultNamespaceRegistry()
	sys, _ := r.Lookup(domain.SystemNamespace)
	lang, _ := r.Lookup(domain.LanguageEcosystemNamespace)

	tests := []struct {
		name  string
		spec  domain.NamespaceSpec
		input string
		want  bool
	}{
		{"system simple", sys, "git", true},
		{"system dotted", sys, "python3Packages.pip", true},
		{"system with dash and plus", sys, "gtk+3", true},
		{"system empty", sys, "", false},
		{"system whitespace", sys, "git lfs", false},
		{"system leading digit", sys, "3proxy", false},
		{"system trailing dot", sys, "git.", false},
		{"system injection", sys, `git"; builtins.abort "x`, false},
		{"language simple", lang, "aiohttp", true},
		{"language dashed", lang, "media-codec-bindings", true},
		{"language dotted", lang, "zope.interface", true},
		{"language leading digit", lang, "3to2", true},
		{"language trailing dash", lang, "aiohttp-", false},
		{"language slash", lang, "a/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.ValidName(tt.input))
		})
	}
}

func TestNewNamespaceRegistry_Custom(t *testing.T) {
	specs := append(domain.DefaultNamespaces(), domain.NamespaceSpec{
		Name:    "node",
		Kind:    domain.NamespaceKindAttrSet,
		Attr:    "nodePackages",
		Pattern: `^[a-z0-9@/._-]+$`,
	})

	r, err := domain.NewNamespaceRegistry(specs...)
	require.NoError(t, err)

	node, ok := r.Lookup("node")
	require.True(t, ok)
	assert.True(t, node.ValidName("@angular/cli"))
	assert.False(t, node.ValidName("Upper"))
	assert.Equal(t, []string{"language-ecosystem", "node", "system"}, r.Names())
}

func TestNewNamespaceRegistry_Errors(t *testing.T) {
	tests := []struct {
		name    string
		specs   []domain.NamespaceSpec
		wantErr error
	}{
		{
			name: "duplicate",
			specs: []domain.NamespaceSpec{
				{Name: "system", Kind: domain.NamespaceKindAttrSet, Attr: "pkgs"},
				{Name: "system", Kind: domain.NamespaceKindAttrSet, Attr: "pkgs"},
			},
			wantErr: domain.ErrDuplicateNamespace,
		},
		{
			name:    "empty name",
			specs:   []domain.NamespaceSpec{{Kind: domain.NamespaceKindAttrSet, Attr: "pkgs"}},
			wantErr: domain.ErrInvalidNamespaceSpec,
		},
		{
			name:    "unknown kind",
			specs:   []domain.NamespaceSpec{{Name: "x", Kind: "flake", Attr: "pkgs"}},
			wantErr: domain.ErrInvalidNamespaceSpec,
		},
		{
			name:    "missing attr",
			specs:   []domain.NamespaceSpec{{Name: "x", Kind: domain.NamespaceKindAttrSet}},
			wantErr: domain.ErrInvalidNamespaceSpec,
		},
		{
			name:    "bad pattern",
			specs:   []domain.NamespaceSpec{{Name: "x", Kind: domain.NamespaceKindAttrSet, Attr: "pkgs", Pattern: "("}},
			wantErr: domain.ErrInvalidNamespaceSpec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewNamespaceRegistry(tt.specs...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNamespaceSpec_NoPatternAcceptsAnyNonEmpty(t *testing.T) {
	r, err := domain.NewNamespaceRegistry(domain.NamespaceSpec{
		Name: "raw", Kind: domain.NamespaceKindAttrSet, Attr: "pkgs",
	})
	require.NoError(t, err)

	raw, _ := r.Lookup("raw")
	assert.True(t, raw.ValidName("anything goes"))
	assert.False(t, raw.ValidName(""))
}

func TestNamespaceSpec_PackageAttrPath(t *testing.T) {
	tests := []struct {
		spec domain.NamespaceSpec
		name string
		want string
	}{
		{domain.NamespaceSpec{Kind: domain.NamespaceKindAttrSet, Attr: "pkgs"}, "git", "git"},
		{domain.NamespaceSpec{Kind: domain.NamespaceKindAttrSet, Attr: "pkgs"}, "xorg.libX11", "xorg.libX11"},
		{domain.NamespaceSpec{Kind: domain.NamespaceKindAttrSet, Attr: "nodePackages"}, "pnpm", "nodePackages.pnpm"},
		{domain.NamespaceSpec{Kind: domain.NamespaceKindAttrSet, Attr: "pkgs.nodePackages"}, "pnpm", "nodePackages.pnpm"},
		{domain.NamespaceSpec{Kind: domain.NamespaceKindInterpreter, Attr: "python3"}, "aiohttp", "python3Packages.aiohttp"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.spec.PackageAttrPath(tt.name))
	}
}

package ports

import "go.trai.ch/devshell/internal/core/domain"

// ManifestLoader defines the interface for loading environment manifests.
//
//go:generate mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type ManifestLoader interface {
	// Load reads and validates the manifest at path ("-" reads standard input as JSON).
	// Package names are validated against the namespaces of the given registry;
	// a nil registry means the built-in namespaces.
	//
	// Every validation failure matches domain.ErrMalformedManifest.
	Load(path string, namespaces *domain.NamespaceRegistry) (*domain.Manifest, error)

	// Discover walks up from cwd and returns the path of the nearest manifest.
	Discover(cwd string) (string, error)
}

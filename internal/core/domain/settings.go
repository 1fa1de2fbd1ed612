package domain

// DefaultNixHubURL is the NixHub API endpoint used for package lookups.
const DefaultNixHubURL = "https://search.devbox.sh/v2/resolve"

// DefaultVerifyConcurrency bounds the number of parallel package index lookups.
const DefaultVerifyConcurrency = 8

// Settings is the user-level tool configuration.
type Settings struct {
	// Channel is used when a manifest does not pin one.
	Channel string
	// CacheDir is the cache root for materialized environments and index lookups.
	CacheDir string
	// NixHubURL is the package index endpoint.
	NixHubURL string
	// VerifyConcurrency bounds parallel index lookups.
	VerifyConcurrency int
	// Namespaces are added to the built-in namespaces.
	Namespaces []NamespaceSpec
	// Source is the file the settings were read from, empty when defaults are used.
	Source string
}

// DefaultSettings returns the settings used when no configuration file exists.
func DefaultSettings() *Settings {
	return &Settings{
		CacheDir:          DefaultCachePath(),
		NixHubURL:         DefaultNixHubURL,
		VerifyConcurrency: DefaultVerifyConcurrency,
	}
}

// Registry builds the namespace registry: built-in namespaces plus the configured ones.
func (s *Settings) Registry() (*NamespaceRegistry, error) {
	specs := append(DefaultNamespaces(), s.Namespaces...)
	return NewNamespaceRegistry(specs...)
}

// LookupRequest asks the package index for one attribute path.
type LookupRequest struct {
	AttrPath string
	// Endpoint overrides DefaultNixHubURL when set.
	Endpoint string
	// CacheDir is the directory lookups are cached in; empty disables caching.
	CacheDir string
}

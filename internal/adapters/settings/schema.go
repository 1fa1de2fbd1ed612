package settings

// settingsFile represents the structure of the config.toml file.
type settingsFile struct {
	Channel           string          `toml:"channel"`
	CacheDir          string          `toml:"cache_dir"`
	NixHubURL         string          `toml:"nixhub_url"`
	VerifyConcurrency int             `toml:"verify_concurrency"`
	Namespaces        []namespaceFile `toml:"namespaces"`
}

// namespaceFile declares an additional manifest namespace.
type namespaceFile struct {
	Name    string `toml:"name"`
	Kind    string `toml:"kind"`
	Attr    string `toml:"attr"`
	Pattern string `toml:"pattern"`
}

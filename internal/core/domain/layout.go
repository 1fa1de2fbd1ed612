package domain

import "path/filepath"

const (
	// DevshellDirName is the name of the per-project metadata directory.
	DevshellDirName = ".devshell"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// NixHubDirName is the name of the NixHub lookup cache directory.
	NixHubDirName = "nixhub"

	// EnvDirName is the name of the environment cache directory.
	EnvDirName = "environments"

	// LockFileName is the name of the lock file guarding the environment cache.
	LockFileName = ".lock"

	// ManifestBaseName is the base name of manifest files looked up during discovery.
	ManifestBaseName = "devshell"

	// SettingsFileName is the name of the settings file inside the user config directory.
	SettingsFileName = "config.toml"

	// SettingsEnvVar overrides the settings file location.
	SettingsEnvVar = "DEVSHELL_CONFIG"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// ManifestFileNames lists the manifest file names checked in every directory during discovery,
// in order of preference.
var ManifestFileNames = []string{
	ManifestBaseName + ".json",
	ManifestBaseName + ".jsonc",
	ManifestBaseName + ".yaml",
	ManifestBaseName + ".yml",
	ManifestBaseName + ".toml",
}

// DefaultCachePath returns the default cache root.
// It joins .devshell and cache.
func DefaultCachePath() string {
	return filepath.Join(DevshellDirName, CacheDirName)
}

// NixHubCachePath returns the NixHub lookup cache below the given cache root.
func NixHubCachePath(cacheRoot string) string {
	return filepath.Join(cacheRoot, NixHubDirName)
}

// EnvCachePath returns the environment cache below the given cache root.
func EnvCachePath(cacheRoot string) string {
	return filepath.Join(cacheRoot, EnvDirName)
}

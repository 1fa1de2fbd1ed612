package domain

import "go.trai.ch/zerr"

var (
	// ErrMalformedManifest is the single error kind returned when a manifest source
	// cannot be turned into requirement groups. Every load failure matches it with errors.Is.
	ErrMalformedManifest = zerr.New("malformed manifest")

	// ErrManifestSyntax is returned when the manifest source is not valid for its format.
	ErrManifestSyntax = zerr.New("manifest syntax error")

	// ErrMissingField is returned when a required manifest field is absent.
	ErrMissingField = zerr.New("missing required field")

	// ErrUnknownField is returned when the manifest contains a field outside the schema.
	ErrUnknownField = zerr.New("unknown field")

	// ErrInvalidFieldType is returned when a manifest field holds a value of the wrong type.
	ErrInvalidFieldType = zerr.New("invalid field type")

	// ErrUnknownNamespace is returned when a group references a namespace that is not defined.
	ErrUnknownNamespace = zerr.New("unknown namespace")

	// ErrInvalidPackageName is returned when a package name is not a valid identifier for its namespace.
	ErrInvalidPackageName = zerr.New("invalid package name")

	// ErrUnsupportedFormat is returned when the manifest format cannot be determined from its path.
	ErrUnsupportedFormat = zerr.New("unsupported manifest format, expected .json, .jsonc, .yaml, .yml or .toml")

	// ErrManifestReadFailed is returned when the manifest source cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read manifest")

	// ErrManifestNotFound is returned when no manifest is found walking up from the working directory.
	ErrManifestNotFound = zerr.New("could not find a devshell manifest")

	// ErrInvalidNamespaceSpec is returned when a namespace definition is incomplete or invalid.
	ErrInvalidNamespaceSpec = zerr.New("invalid namespace definition")

	// ErrDuplicateNamespace is returned when two namespace definitions share a name.
	ErrDuplicateNamespace = zerr.New("duplicate namespace definition")

	// ErrSettingsReadFailed is returned when the settings file cannot be read.
	ErrSettingsReadFailed = zerr.New("failed to read settings file")

	// ErrSettingsParseFailed is returned when the settings file cannot be parsed.
	ErrSettingsParseFailed = zerr.New("failed to parse settings file")

	// ErrInvalidSettings is returned when a settings value is out of range.
	ErrInvalidSettings = zerr.New("invalid settings")

	// ErrNoCommand is returned when run is invoked without a command.
	ErrNoCommand = zerr.New("no command specified")

	// ErrCommandFailed is returned when a command run inside an environment exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")

	// ErrStoreCreateFailed is returned when the environment store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create environment store directory")

	// ErrStoreLockFailed is returned when the environment store lock cannot be acquired.
	ErrStoreLockFailed = zerr.New("failed to lock environment store")

	// ErrStoreReadFailed is returned when a stored environment cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read stored environment")

	// ErrStoreUnmarshalFailed is returned when a stored environment cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal stored environment")

	// ErrStoreMarshalFailed is returned when an environment cannot be encoded for storage.
	ErrStoreMarshalFailed = zerr.New("failed to marshal environment")

	// ErrStoreWriteFailed is returned when an environment cannot be written to the store.
	ErrStoreWriteFailed = zerr.New("failed to write environment")

	// ErrNixBuildFailed is returned when the Nix CLI fails to materialize an environment.
	ErrNixBuildFailed = zerr.New("failed to build environment via Nix")

	// ErrNixOutputParseFailed is returned when the output of nix print-dev-env cannot be parsed.
	ErrNixOutputParseFailed = zerr.New("failed to parse nix print-dev-env output")

	// ErrNixCacheCreateFailed is returned when the NixHub cache directory cannot be created.
	ErrNixCacheCreateFailed = zerr.New("failed to create NixHub cache directory")

	// ErrNixCacheReadFailed is returned when reading from the NixHub cache fails.
	ErrNixCacheReadFailed = zerr.New("failed to read from NixHub cache")

	// ErrNixCacheWriteFailed is returned when writing to the NixHub cache fails.
	ErrNixCacheWriteFailed = zerr.New("failed to write to NixHub cache")

	// ErrNixAPIRequestFailed is returned when a NixHub API request fails.
	ErrNixAPIRequestFailed = zerr.New("failed to make NixHub API request")

	// ErrNixAPIParseFailed is returned when parsing a NixHub API response fails.
	ErrNixAPIParseFailed = zerr.New("failed to parse NixHub API response")

	// ErrNixPackageNotFound is returned when a package is not known to NixHub.
	ErrNixPackageNotFound = zerr.New("package not found in NixHub")

	// ErrUnsupportedArchitecture is returned when a package has no build for the current system.
	ErrUnsupportedArchitecture = zerr.New("package not available for this system")

	// ErrCacheMiss is returned when a requested item is not found in a cache.
	ErrCacheMiss = zerr.New("cache miss")
)

var (
	// ErrPackagesMissing is returned by verify when at least one requirement is unknown to the package index.
	ErrPackagesMissing = zerr.New("some packages are not available in the package index")

	// ErrTooManyManifests is returned when a command that works on a single manifest receives several.
	ErrTooManyManifests = zerr.New("expected at most one manifest")
)

// ErrStdinRepeated is returned when standard input is named as a manifest source more than once.
var ErrStdinRepeated = zerr.New("standard input can only be read once")

// Tagged attaches key/value metadata to a sentinel while keeping it reachable with errors.Is.
func Tagged(sentinel error, kv ...any) error {
	err := zerr.Wrap(sentinel, "")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}

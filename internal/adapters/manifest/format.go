package manifest

import (
	"path/filepath"
	"strings"

	"go.trai.ch/devshell/internal/core/domain"
)

// Format is a manifest source syntax.
type Format string

const (
	// FormatJSON is strict JSON.
	FormatJSON Format = "json"
	// FormatJSONC is JSON with comments and trailing commas.
	FormatJSONC Format = "jsonc"
	// FormatYAML is YAML 1.2.
	FormatYAML Format = "yaml"
	// FormatTOML is TOML 1.0.
	FormatTOML Format = "toml"
)

// StdinPath is the path that makes Load read the manifest from standard input.
const StdinPath = domain.StdinSource

// FormatFromPath selects the format from the file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".jsonc":
		return FormatJSONC, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// Package manifest loads environment manifests from JSON, JSONC, YAML and TOML sources.
package manifest

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader implements ports.ManifestLoader.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
	Stdin  io.Reader
}

// NewLoader creates a new Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{
		Logger: logger,
		FS:     NewOSFS(),
		Stdin:  os.Stdin,
	}
}

// Load reads the manifest at path and validates it against namespaces.
// The format is chosen by file extension; StdinPath reads JSON (comments allowed) from Stdin.
func (l *Loader) Load(path string, namespaces *domain.NamespaceRegistry) (*domain.Manifest, error) {
	if path == StdinPath {
		data, err := io.ReadAll(l.Stdin)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", path)
		}
		return l.LoadBytes(data, FormatJSONC, path, namespaces)
	}

	format, ok := FormatFromPath(path)
	if !ok {
		return nil, malformed(path, &decodeError{reason: domain.ErrUnsupportedFormat})
	}

	data, err := l.FS.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", path)
	}

	return l.LoadBytes(data, format, path, namespaces)
}

// LoadBytes parses an in-memory manifest source. source names it in errors and logs.
func (l *Loader) LoadBytes(
	data []byte,
	format Format,
	source string,
	namespaces *domain.NamespaceRegistry,
) (*domain.Manifest, error) {
	if namespaces == nil {
		namespaces = domain.DefaultNamespaceRegistry()
	}

	dto, err := decode(data, format)
	if err != nil {
		return nil, malformed(source, err)
	}

	m, err := buildManifest(dto, namespaces, source, func(msg string) {
		l.Logger.Warn(source + ": " + msg)
	})
	if err != nil {
		return nil, malformed(source, err)
	}

	return m, nil
}

func decode(data []byte, format Format) (*manifestDTO, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatJSONC:
		return decodeJSONC(data)
	case FormatYAML:
		return decodeYAML(data)
	case FormatTOML:
		return decodeTOML(data)
	default:
		return nil, &decodeError{reason: domain.ErrUnsupportedFormat}
	}
}

// Discover walks up from cwd to the filesystem root and returns the nearest manifest.
// Within a directory, names are tried in the order of domain.ManifestFileNames.
func (l *Loader) Discover(cwd string) (string, error) {
	currentDir := filepath.Clean(cwd)

	for {
		for _, name := range domain.ManifestFileNames {
			candidate := filepath.Join(currentDir, name)
			info, err := l.FS.Stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				l.Logger.Warn("skipping " + candidate + ": " + err.Error())
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", domain.Tagged(domain.ErrManifestNotFound, "cwd", cwd)
}

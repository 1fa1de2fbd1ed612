// Package settings loads the user-level devshell configuration from TOML.
package settings

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/zerr"
)

// Loader implements ports.SettingsLoader.
type Loader struct {
	// LookupEnv and UserConfigDir are seams for tests.
	LookupEnv     func(string) (string, bool)
	UserConfigDir func() (string, error)
	UserHomeDir   func() (string, error)
}

// NewLoader creates a Loader that consults the process environment.
func NewLoader() *Loader {
	return &Loader{
		LookupEnv:     os.LookupEnv,
		UserConfigDir: os.UserConfigDir,
		UserHomeDir:   os.UserHomeDir,
	}
}

// Load reads the settings file.
//
// An explicit path, or one named by domain.SettingsEnvVar, must exist. Without either the
// file is looked up in the user config directory and defaults are used when it is absent.
func (l *Loader) Load(path string) (*domain.Settings, error) {
	resolved, required := l.resolvePath(path)
	if resolved == "" {
		return domain.DefaultSettings(), nil
	}

	// #nosec G304 -- the settings path is chosen by the user
	data, err := os.ReadFile(resolved)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return domain.DefaultSettings(), nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSettingsReadFailed.Error()), "path", resolved)
	}

	return l.parse(data, resolved)
}

func (l *Loader) resolvePath(path string) (resolved string, required bool) {
	if path != "" {
		return path, true
	}
	if env, ok := l.LookupEnv(domain.SettingsEnvVar); ok && strings.TrimSpace(env) != "" {
		return env, true
	}
	dir, err := l.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, domain.ManifestBaseName, domain.SettingsFileName), false
}

func (l *Loader) parse(data []byte, source string) (*domain.Settings, error) {
	var file settingsFile
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, zerr.With(zerr.Wrap(describeTOMLError(err), domain.ErrSettingsParseFailed.Error()), "path", source)
	}

	s := domain.DefaultSettings()
	s.Source = source
	s.Channel = strings.TrimSpace(file.Channel)

	if file.CacheDir != "" {
		dir, err := l.expandPath(file.CacheDir)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidSettings.Error()), "cache_dir", file.CacheDir)
		}
		s.CacheDir = dir
	}

	if file.NixHubURL != "" {
		s.NixHubURL = file.NixHubURL
	}

	switch {
	case file.VerifyConcurrency < 0:
		return nil, domain.Tagged(domain.ErrInvalidSettings,
			"verify_concurrency", file.VerifyConcurrency, "path", source)
	case file.VerifyConcurrency > 0:
		s.VerifyConcurrency = file.VerifyConcurrency
	}

	for _, ns := range file.Namespaces {
		s.Namespaces = append(s.Namespaces, domain.NamespaceSpec{
			Name:    ns.Name,
			Kind:    domain.NamespaceKind(ns.Kind),
			Attr:    ns.Attr,
			Pattern: ns.Pattern,
		})
	}

	// Surface namespace errors at load time rather than on first use.
	if _, err := s.Registry(); err != nil {
		return nil, zerr.With(err, "path", source)
	}

	return s, nil
}

// expandPath resolves a leading "~" against the user's home directory.
func (l *Loader) expandPath(pathValue string) (string, error) {
	if !strings.HasPrefix(pathValue, "~") {
		return filepath.Clean(pathValue), nil
	}
	home, err := l.UserHomeDir()
	if err != nil {
		return "", err
	}
	if pathValue == "~" {
		return home, nil
	}
	if pathValue[1] == '/' || pathValue[1] == '\\' {
		return filepath.Join(home, pathValue[2:]), nil
	}
	return filepath.Clean(pathValue), nil
}

// describeTOMLError keeps the key and position of strict-mode failures, which the
// error string of toml.StrictMissingError omits.
func describeTOMLError(err error) error {
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) && len(strictErr.Errors) > 0 {
		first := strictErr.Errors[0]
		row, col := first.Position()
		return domain.Tagged(domain.ErrUnknownField,
			"key", strings.Join(first.Key(), "."), "line", row, "column", col)
	}
	return err
}

package ports

import "go.trai.ch/devshell/internal/core/domain"

// SettingsLoader defines the interface for loading the user-level tool configuration.
//
//go:generate mockgen -source=settings.go -destination=mocks/mock_settings.go -package=mocks
type SettingsLoader interface {
	// Load reads the settings at path. An empty path selects the default location,
	// in which case a missing file yields domain.DefaultSettings.
	Load(path string) (*domain.Settings, error)
}

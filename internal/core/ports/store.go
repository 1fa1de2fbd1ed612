package ports

import "go.trai.ch/devshell/internal/core/domain"

// EnvironmentStore defines the interface for caching materialized environments.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type EnvironmentStore interface {
	// Get retrieves the environment with the given ID below the cache root.
	// Returns nil, nil if not found.
	Get(root, id string) (*domain.Environment, error)

	// Put stores the environment below the cache root.
	Put(root string, env *domain.Environment) error

	// Clear removes every stored environment below the cache root.
	Clear(root string) error
}

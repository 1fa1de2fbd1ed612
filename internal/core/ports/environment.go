// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/devshell/internal/core/domain"
)

// EnvironmentBuilder materializes the environment described by a set of requirements.
//
// Implementations are responsible for:
//   - Translating each namespace into the package set or interpreter it resolves against
//   - Invoking the external builder for the requested channel
//   - Returning the resulting environment variables
//
//go:generate mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type EnvironmentBuilder interface {
	// Expression returns the builder input for the request without building it.
	Expression(req domain.BuildRequest) (string, error)

	// Build materializes the environment. Variables are returned as "KEY=VALUE" strings.
	Build(ctx context.Context, req domain.BuildRequest) (*domain.Environment, error)
}

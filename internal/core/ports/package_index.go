package ports

import (
	"context"

	"go.trai.ch/devshell/internal/core/domain"
)

// PackageIndex looks packages up in the upstream package index.
//
//go:generate mockgen -source=package_index.go -destination=mocks/mock_package_index.go -package=mocks
type PackageIndex interface {
	// Lookup returns the latest known version of the requested attribute path.
	// A package unknown to the index yields an error matching domain.ErrNixPackageNotFound.
	Lookup(ctx context.Context, req domain.LookupRequest) (*domain.PackageInfo, error)

	// Clear drops every cached lookup in cacheDir.
	Clear(cacheDir string) error
}

package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestTagged(t *testing.T) {
	err := domain.Tagged(domain.ErrManifestNotFound, "cwd", "/work", "depth", 3)

	assert.ErrorIs(t, err, domain.ErrManifestNotFound)
	assert.Equal(t, domain.ErrManifestNotFound.Error(), err.Error())

	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	meta := zErr.Metadata()
	assert.Equal(t, "/work", meta["cwd"])
	assert.Equal(t, 3, meta["depth"])
}

func TestTagged_SurvivesFurtherMetadata(t *testing.T) {
	err := zerr.With(domain.Tagged(domain.ErrUnknownNamespace, "namespace", "ruby"), "path", "a.json")
	assert.ErrorIs(t, err, domain.ErrUnknownNamespace)
}

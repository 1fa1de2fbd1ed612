package nix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/adapters/nix"
	"go.trai.ch/devshell/internal/core/domain"
)

func TestParseDevEnv(t *testing.T) {
	data := []byte(`{
		"variables": {
			"PATH": {"type": "exported", "value": "/nix/store/a/bin:/nix/store/b/bin"},
			"buildInputs": {"type": "array", "value": ["/nix/store/a", "/nix/store/b"]},
			"HOME": {"type": "exported", "value": "/homeless-shelter"},
			"TMPDIR": {"type": "exported", "value": "/build"},
			"NIX_BUILD_CORES": {"type": "exported", "value": "4"},
			"assoc": {"type": "associative", "value": {"a": "b"}},
			"shellHook": {"type": "var", "value": "echo hello"},
			"phases": {"type": "var", "value": "buildPhase installPhase"},
			"outputs": {"type": "exported", "value": "out"}
		}
	}`)

	env, err := nix.ParseDevEnv(data)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"PATH=/nix/store/a/bin:/nix/store/b/bin",
		"buildInputs=/nix/store/a:/nix/store/b",
		"outputs=out",
	}, env)
}

func TestParseDevEnv_InvalidJSON(t *testing.T) {
	_, err := nix.ParseDevEnv([]byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrNixOutputParseFailed.Error())
}

func TestShouldIncludeVar(t *testing.T) {
	for _, key := range []string{"TERM", "HOME", "PWD", "_", "TMPDIR", "NIX_LOG_FD"} {
		assert.False(t, nix.ShouldIncludeVar(key), key)
	}
	for _, key := range []string{"PATH", "PKG_CONFIG_PATH", "PYTHONPATH", "NIX_CFLAGS_COMPILE"} {
		assert.True(t, nix.ShouldIncludeVar(key), key)
	}
}

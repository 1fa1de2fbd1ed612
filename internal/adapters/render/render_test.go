package render_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/devshell/internal/adapters/render"
	"go.trai.ch/devshell/internal/core/domain"
)

func exampleSet() domain.RequirementSet {
	return domain.NewRequirementSet(
		domain.NewRequirement("system", "zlib"),
		domain.NewRequirement("system", "git"),
		domain.NewRequirement("language-ecosystem", "http-client"),
	)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]render.Format{
		"":      render.FormatAuto,
		"auto":  render.FormatAuto,
		"TABLE": render.FormatTable,
		"json":  render.FormatJSON,
		" plain ": render.FormatPlain,
	} {
		got, err := render.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := render.ParseFormat("xml")
	assert.ErrorIs(t, err, render.ErrUnknownFormat)
}

func TestRequirements_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Requirements(&buf, exampleSet(), render.FormatPlain))
	assert.Equal(t, "language-ecosystem:http-client\nsystem:git\nsystem:zlib\n", buf.String())
}

func TestRequirements_AutoOnNonTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Requirements(&buf, exampleSet(), render.FormatAuto))
	assert.Equal(t, "language-ecosystem:http-client\nsystem:git\nsystem:zlib\n", buf.String())
}

func TestRequirements_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Requirements(&buf, exampleSet(), render.FormatJSON))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]string{
		{"namespace": "language-ecosystem", "name": "http-client"},
		{"namespace": "system", "name": "git"},
		{"namespace": "system", "name": "zlib"},
	}, got)
}

func TestRequirements_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Requirements(&buf, domain.RequirementSet{}, render.FormatJSON))
	assert.JSONEq(t, "[]", buf.String())
}

func TestRequirements_Table(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	require.NoError(t, render.Requirements(&buf, exampleSet(), render.FormatTable))

	out := buf.String()
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "NAMESPACE")
	assert.Contains(t, out, "language-ecosystem")
	assert.Contains(t, out, "zlib")
	assert.Contains(t, out, "3 requirements")
}

func TestVerifyResults(t *testing.T) {
	results := []domain.VerifyResult{
		{
			Requirement: domain.NewRequirement("system", "git"),
			AttrPath:    "git",
			Found:       true,
			Info:        domain.PackageInfo{AttrPath: "git", Version: "2.47.0"},
		},
		{
			Requirement: domain.NewRequirement("system", "nope"),
			AttrPath:    "nope",
		},
		{
			Requirement: domain.NewRequirement("language-ecosystem", "aiohttp"),
			AttrPath:    "python3Packages.aiohttp",
			Err:         errors.New("timeout"),
		},
	}

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.VerifyResults(&buf, results, render.FormatPlain))
		assert.Equal(t,
			"ok\tsystem:git\tgit\t2.47.0\n"+
				"missing\tsystem:nope\tnope\t-\n"+
				"error\tlanguage-ecosystem:aiohttp\tpython3Packages.aiohttp\ttimeout\n",
			buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.VerifyResults(&buf, results, render.FormatJSON))

		var got []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 3)
		assert.Equal(t, true, got[0]["found"])
		assert.Equal(t, "2.47.0", got[0]["version"])
		assert.Equal(t, false, got[1]["found"])
		assert.Equal(t, "timeout", got[2]["error"])
	})

	t.Run("table", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")

		var buf bytes.Buffer
		require.NoError(t, render.VerifyResults(&buf, results, render.FormatTable))
		assert.Contains(t, buf.String(), "3 checked, 2 missing")
		assert.Contains(t, buf.String(), "not found")
	})
}

func TestEnvironment(t *testing.T) {
	env := &domain.Environment{
		ID:   "abc",
		Vars: []string{"PS_LIKE=it's", "PATH=/nix/store/git/bin"},
	}

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.Environment(&buf, env, render.FormatPlain))
		assert.Equal(t, "export PATH='/nix/store/git/bin'\nexport PS_LIKE='it'\\''s'\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.Environment(&buf, env, render.FormatJSON))
		assert.Contains(t, buf.String(), `"id": "abc"`)
	})
}

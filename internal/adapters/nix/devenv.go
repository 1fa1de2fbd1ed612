package nix

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/zerr"
)

// excludedVars are interactive shell and user-specific variables. The caller's values
// for these are kept when running inside an environment.
var excludedVars = []string{
	"TERM",
	"SHELL",
	"EDITOR",
	"VISUAL",
	"PAGER",
	"LESS",
	"HOME",
	"USER",
	"LOGNAME",
	"PS1",
	"PS2",
	"SHLVL",
	"PWD",
	"OLDPWD",
	"_",
	"TMPDIR",
	"TEMP",
	"TMP",
	"NIX_BUILD_TOP",
	"NIX_BUILD_CORES",
	"NIX_LOG_FD",
}

// ParseDevEnv parses the JSON output of nix print-dev-env and extracts environment variables
// as sorted "KEY=VALUE" strings. Only exported strings and arrays are kept; plain shell
// variables such as shellHook stay out of the environment.
func ParseDevEnv(jsonData []byte) ([]string, error) {
	var output nixDevEnvOutput
	if err := json.Unmarshal(jsonData, &output); err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixOutputParseFailed.Error())
	}

	env := make([]string, 0, len(output.Variables))
	for key, variable := range output.Variables {
		if !ShouldIncludeVar(key) {
			continue
		}

		var value string
		switch v := variable.Value.(type) {
		case string:
			if variable.Type != varTypeExported {
				continue
			}
			value = v
		case []any:
			if variable.Type != varTypeArray {
				continue
			}
			// Arrays are PATH-like.
			parts := make([]string, len(v))
			for i, part := range v {
				if s, ok := part.(string); ok {
					parts[i] = s
				}
			}
			value = strings.Join(parts, ":")
		default:
			continue
		}

		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	slices.Sort(env)
	return env, nil
}

// Variable types reported by nix print-dev-env.
const (
	varTypeExported = "exported"
	varTypeArray    = "array"
)

// ShouldIncludeVar reports whether a variable produced by Nix belongs in the environment.
func ShouldIncludeVar(key string) bool {
	return !slices.Contains(excludedVars, key)
}

package manifest

import (
	"bytes"
	"errors"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/devshell/internal/core/domain"
)

func decodeTOML(data []byte) (*manifestDTO, error) {
	var dto manifestDTO
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&dto); err != nil {
		return nil, tomlDecodeError(err)
	}

	// Struct decoding matches keys case-insensitively.
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, tomlDecodeError(err)
	}
	if err := checkDecodedKeys(raw, manifestShape, ""); err != nil {
		return nil, err
	}

	return &dto, nil
}

func tomlDecodeError(err error) error {
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) && len(strictErr.Errors) > 0 {
		first := strictErr.Errors[0]
		row, col := first.Position()
		return &decodeError{
			reason: domain.ErrUnknownField,
			field:  strings.Join(first.Key(), "."),
			pos:    position{Line: row, Column: col},
		}
	}

	var decErr *toml.DecodeError
	if errors.As(err, &decErr) {
		row, col := decErr.Position()
		return &decodeError{
			reason: domain.ErrManifestSyntax,
			pos:    position{Line: row, Column: col},
			cause:  err,
		}
	}

	// Type mismatches are reported as plain errors without a position.
	return &decodeError{reason: domain.ErrInvalidFieldType, cause: err}
}

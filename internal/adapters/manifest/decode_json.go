package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/tidwall/jsonc"
	"go.trai.ch/devshell/internal/core/domain"
)

var errEmptySource = errors.New("manifest source is empty")

// decodeJSONC strips comments and trailing commas, then decodes as JSON.
// Stripping preserves offsets, so reported positions refer to the original source.
func decodeJSONC(data []byte) (*manifestDTO, error) {
	return decodeJSON(jsonc.ToJSON(data))
}

func decodeJSON(data []byte) (*manifestDTO, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &decodeError{reason: domain.ErrManifestSyntax, cause: errEmptySource}
	}

	if err := checkJSONKeys(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var dto manifestDTO
	if err := dec.Decode(&dto); err != nil {
		return nil, jsonDecodeError(data, dec, err)
	}

	// Only a single document is allowed.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &decodeError{
			reason: domain.ErrManifestSyntax,
			pos:    offsetPosition(data, dec.InputOffset()),
			cause:  errors.New("unexpected data after the manifest object"),
		}
	}

	return &dto, nil
}

func jsonDecodeError(data []byte, dec *json.Decoder, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &decodeError{
			reason: domain.ErrManifestSyntax,
			pos:    offsetPosition(data, syntaxErr.Offset-1),
			cause:  err,
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &decodeError{
			reason: domain.ErrInvalidFieldType,
			field:  typeErr.Field,
			pos:    offsetPosition(data, typeErr.Offset),
			cause:  err,
		}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &decodeError{
			reason: domain.ErrManifestSyntax,
			pos:    offsetPosition(data, int64(len(data))),
			cause:  err,
		}
	}

	// encoding/json reports unknown fields as a plain error.
	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return &decodeError{
			reason: domain.ErrUnknownField,
			field:  strings.Trim(name, `"`),
			pos:    offsetPosition(data, dec.InputOffset()),
		}
	}

	return &decodeError{reason: domain.ErrManifestSyntax, cause: err}
}

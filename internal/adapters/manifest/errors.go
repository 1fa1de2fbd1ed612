package manifest

import (
	"bytes"
	"errors"
	"fmt"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/zerr"
)

// decodeError is a manifest defect found while decoding or validating a source.
// The loader turns it into a domain.ErrMalformedManifest error.
type decodeError struct {
	// reason is one of the domain manifest sentinels.
	reason error
	// field is the path of the offending field, e.g. "groups[1].packages[0]".
	field string
	pos   position
	// cause is the underlying decoder error, if any.
	cause error
	// meta holds extra key/value pairs attached to the final error.
	meta []any
}

func (e *decodeError) Error() string {
	msg := e.reason.Error()
	if e.field != "" {
		msg += " at " + e.field
	}
	if e.pos.known() {
		msg += fmt.Sprintf(" (line %d, column %d)", e.pos.Line, e.pos.Column)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *decodeError) Unwrap() error {
	return e.cause
}

func (e *decodeError) with(key string, value any) *decodeError {
	e.meta = append(e.meta, key, value)
	return e
}

// malformed converts err into the error returned by Load.
//
// The result matches domain.ErrMalformedManifest and the reason sentinel with errors.Is,
// and carries the source path, field path and position as zerr metadata.
func malformed(source string, err error) error {
	var de *decodeError
	if !errors.As(err, &de) {
		de = &decodeError{reason: domain.ErrManifestSyntax, cause: err}
	}

	kinds := []error{domain.ErrMalformedManifest, de.reason}
	if de.cause != nil {
		kinds = append(kinds, de.cause)
	}
	out := zerr.With(errors.Join(kinds...), "path", source)
	if de.field != "" {
		out = zerr.With(out, "field", de.field)
	}
	if de.pos.Line > 0 {
		out = zerr.With(out, "line", de.pos.Line)
	}
	if de.pos.Column > 0 {
		out = zerr.With(out, "column", de.pos.Column)
	}
	for i := 0; i+1 < len(de.meta); i += 2 {
		key, ok := de.meta[i].(string)
		if !ok {
			continue
		}
		out = zerr.With(out, key, de.meta[i+1])
	}
	return out
}

func groupField(i int) string {
	return fmt.Sprintf("groups[%d]", i)
}

func packageField(group, pkg int) string {
	return fmt.Sprintf("groups[%d].packages[%d]", group, pkg)
}

// offsetPosition converts a byte offset into a 1-based line and column.
func offsetPosition(data []byte, offset int64) position {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	head := data[:offset]
	line := bytes.Count(head, []byte{'\n'}) + 1
	col := len(head) - bytes.LastIndexByte(head, '\n')
	return position{Line: line, Column: col}
}

package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.trai.ch/devshell/internal/core/domain"
)

// keyShape lists the exact keys allowed in an object and the shape of list elements.
// A nil shape leaves a value unchecked; type mismatches are left to the decoders.
type keyShape struct {
	fields map[string]*keyShape
	elem   *keyShape
}

var (
	groupShape = &keyShape{fields: map[string]*keyShape{
		"namespace": nil,
		"packages":  nil,
	}}
	manifestShape = &keyShape{fields: map[string]*keyShape{
		"channel": nil,
		"groups":  {elem: groupShape},
	}}
)

func (s *keyShape) objectFields() map[string]*keyShape {
	if s == nil {
		return nil
	}
	return s.fields
}

func (s *keyShape) element() *keyShape {
	if s == nil {
		return nil
	}
	return s.elem
}

// checkJSONKeys rejects keys that encoding/json accepts loosely: keys matching a
// field only when case is ignored, and keys repeated within one object.
// Syntax errors are ignored here and reported by the decoder.
func checkJSONKeys(data []byte) error {
	w := &jsonKeyWalker{dec: json.NewDecoder(bytes.NewReader(data)), data: data}
	err := w.value(manifestShape, "")

	var de *decodeError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

type jsonKeyWalker struct {
	dec  *json.Decoder
	data []byte
}

func (w *jsonKeyWalker) value(shape *keyShape, field string) error {
	tok, err := w.dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case json.Delim('{'):
		return w.object(shape.objectFields(), field)
	case json.Delim('['):
		return w.array(shape.element(), field)
	default:
		return nil
	}
}

func (w *jsonKeyWalker) object(fields map[string]*keyShape, field string) error {
	seen := make(map[string]bool)
	for w.dec.More() {
		tok, err := w.dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return nil
		}
		keyField := joinField(field, key)
		pos := offsetPosition(w.data, w.dec.InputOffset())

		if seen[key] {
			return &decodeError{
				reason: domain.ErrManifestSyntax,
				field:  keyField,
				pos:    pos,
				cause:  fmt.Errorf("duplicate key %q", key),
			}
		}
		seen[key] = true

		var child *keyShape
		if fields != nil {
			shape, known := fields[key]
			if !known {
				return &decodeError{reason: domain.ErrUnknownField, field: keyField, pos: pos}
			}
			child = shape
		}

		if err := w.value(child, keyField); err != nil {
			return err
		}
	}
	_, err := w.dec.Token()
	return err
}

func (w *jsonKeyWalker) array(elem *keyShape, field string) error {
	for i := 0; w.dec.More(); i++ {
		if err := w.value(elem, fmt.Sprintf("%s[%d]", field, i)); err != nil {
			return err
		}
	}
	_, err := w.dec.Token()
	return err
}

// checkDecodedKeys walks a generically decoded document and rejects keys that are
// not exact schema keys. Keys are visited in sorted order so the reported field is stable.
func checkDecodedKeys(v any, shape *keyShape, field string) error {
	switch val := v.(type) {
	case map[string]any:
		fields := shape.objectFields()
		if fields == nil {
			return nil
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			child, known := fields[k]
			if !known {
				return &decodeError{reason: domain.ErrUnknownField, field: joinField(field, k)}
			}
			if err := checkDecodedKeys(val[k], child, joinField(field, k)); err != nil {
				return err
			}
		}
	case []any:
		for i, item := range val {
			if err := checkDecodedKeys(item, shape.element(), fmt.Sprintf("%s[%d]", field, i)); err != nil {
				return err
			}
		}
	case []map[string]any:
		for i, item := range val {
			if err := checkDecodedKeys(item, shape.element(), fmt.Sprintf("%s[%d]", field, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

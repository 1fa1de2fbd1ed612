package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// messager matches errors that report their own message without the chain (zerr.Error).
type messager interface {
	Message() string
}

// metadataer matches errors that carry key/value metadata (zerr.Error).
type metadataer interface {
	Metadata() map[string]any
}

// ErrorEntry is one level of an error chain as shown to the user.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the error chain and returns one entry per message.
//
// Metadata of wrappers without a message is attached to the next entry. Joined errors
// contribute the entries of each of their members in order.
func collectErrorEntries(err error) []ErrorEntry {
	if err == nil {
		return nil
	}

	var (
		entries []ErrorEntry
		pending map[string]any
	)

	take := func(meta map[string]any) map[string]any {
		if len(pending) == 0 {
			return meta
		}
		merged := make(map[string]any, len(meta)+len(pending))
		maps.Copy(merged, pending)
		maps.Copy(merged, meta)
		pending = nil
		return merged
	}

	var walk func(error)
	walk = func(current error) {
		for current != nil {
			if joined, ok := current.(interface{ Unwrap() []error }); ok {
				for _, member := range joined.Unwrap() {
					walk(member)
				}
				return
			}

			m, ok := current.(messager)
			if !ok {
				entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: take(nil)})
				return
			}

			var meta map[string]any
			if md, ok := current.(metadataer); ok {
				meta = md.Metadata()
			}

			if m.Message() == "" {
				if len(meta) > 0 {
					if pending == nil {
						pending = make(map[string]any, len(meta))
					}
					maps.Copy(pending, meta)
				}
			} else {
				entries = append(entries, ErrorEntry{Message: m.Message(), Metadata: take(meta)})
			}

			current = errors.Unwrap(current)
		}
	}
	walk(err)

	if len(pending) > 0 && len(entries) > 0 {
		merged := make(map[string]any, len(entries[0].Metadata)+len(pending))
		maps.Copy(merged, entries[0].Metadata)
		maps.Copy(merged, pending)
		entries[0].Metadata = merged
	}

	return entries
}

// formatErrorEntries renders entries as the main error followed by its causes.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")

		if i == 0 {
			lines = append(lines, "Error: "+msgLines[0])
			for _, line := range msgLines[1:] {
				lines = append(lines, "       "+line)
			}
			lines = appendMetadata(lines, "       ", entry.Metadata)
			continue
		}

		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, "      "+line)
		}
		lines = appendMetadata(lines, "      ", entry.Metadata)
	}

	return strings.Join(lines, "\n")
}

func appendMetadata(lines []string, indent string, meta map[string]any) []string {
	for _, key := range slices.Sorted(maps.Keys(meta)) {
		lines = append(lines, fmt.Sprintf("%s%s: %s", indent, key, formatValue(meta[key])))
	}
	return lines
}

func formatValue(v any) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ", ")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

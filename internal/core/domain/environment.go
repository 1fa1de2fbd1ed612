package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// BuildRequest is everything the environment builder needs to materialize a shell.
type BuildRequest struct {
	Channel      string
	Requirements RequirementSet
	Namespaces   *NamespaceRegistry
}

// ID returns the identity of the environment the request produces.
// It covers the channel, the requirements and the resolution of every namespace in use,
// so equal requests yield equal IDs.
func (r BuildRequest) ID() string {
	hasher := xxhash.New()
	write := func(s string) {
		_, _ = hasher.WriteString(s)
		_, _ = hasher.Write([]byte{0})
	}

	write(FlakeRef(r.Channel))

	groups := r.Requirements.ByNamespace()
	namespaces := make([]string, 0, len(groups))
	for ns := range groups {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)

	for _, ns := range namespaces {
		write(ns)
		if r.Namespaces != nil {
			if spec, ok := r.Namespaces.Lookup(ns); ok {
				write(string(spec.Kind))
				write(spec.Attr)
			}
		}
		for _, name := range groups[ns] {
			write(name)
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64())
}

// Environment is a materialized environment as produced by the builder.
type Environment struct {
	// ID identifies the environment in the store. See BuildRequest.ID.
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Vars      []string  `json:"vars"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Lookup returns the value of the variable key, if set.
func (e *Environment) Lookup(key string) (string, bool) {
	prefix := key + "="
	for _, kv := range e.Vars {
		if v, ok := strings.CutPrefix(kv, prefix); ok {
			return v, true
		}
	}
	return "", false
}

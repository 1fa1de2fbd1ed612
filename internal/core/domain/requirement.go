package domain

import (
	"cmp"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Requirement is a single (namespace, name) pair handed to the environment builder.
type Requirement struct {
	Namespace InternedString `json:"namespace"`
	Name      InternedString `json:"name"`
}

// NewRequirement creates a Requirement from plain strings.
func NewRequirement(namespace, name string) Requirement {
	return Requirement{
		Namespace: NewInternedString(namespace),
		Name:      NewInternedString(name),
	}
}

// String returns the requirement as "namespace:name".
func (r Requirement) String() string {
	return r.Namespace.String() + ":" + r.Name.String()
}

func compareRequirements(a, b Requirement) int {
	if c := cmp.Compare(a.Namespace.String(), b.Namespace.String()); c != 0 {
		return c
	}
	return cmp.Compare(a.Name.String(), b.Name.String())
}

// RequirementSet is a de-duplicated set of requirements.
// The zero value is an empty set ready to use.
type RequirementSet struct {
	items map[Requirement]struct{}
}

// NewRequirementSet creates a set holding the given requirements.
func NewRequirementSet(reqs ...Requirement) RequirementSet {
	s := RequirementSet{items: make(map[Requirement]struct{}, len(reqs))}
	for _, r := range reqs {
		s.items[r] = struct{}{}
	}
	return s
}

// Add inserts r and reports whether it was not already present.
func (s *RequirementSet) Add(r Requirement) bool {
	if s.items == nil {
		s.items = make(map[Requirement]struct{})
	}
	if _, exists := s.items[r]; exists {
		return false
	}
	s.items[r] = struct{}{}
	return true
}

// Contains reports whether r is in the set.
func (s RequirementSet) Contains(r Requirement) bool {
	_, ok := s.items[r]
	return ok
}

// Len returns the number of requirements in the set.
func (s RequirementSet) Len() int {
	return len(s.items)
}

// All iterates over the set in no particular order.
func (s RequirementSet) All() iter.Seq[Requirement] {
	return maps.Keys(s.items)
}

// Sorted returns the requirements ordered by namespace, then name.
func (s RequirementSet) Sorted() []Requirement {
	return slices.SortedFunc(maps.Keys(s.items), compareRequirements)
}

// Equal reports whether both sets hold exactly the same requirements.
func (s RequirementSet) Equal(other RequirementSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for r := range s.items {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

// Union returns a new set holding the requirements of both sets.
func (s RequirementSet) Union(other RequirementSet) RequirementSet {
	out := RequirementSet{items: make(map[Requirement]struct{}, s.Len()+other.Len())}
	for r := range s.items {
		out.items[r] = struct{}{}
	}
	for r := range other.items {
		out.items[r] = struct{}{}
	}
	return out
}

// ByNamespace groups the package names of the set by namespace.
// Names within a namespace are sorted.
func (s RequirementSet) ByNamespace() map[string][]string {
	out := make(map[string][]string)
	for _, r := range s.Sorted() {
		ns := r.Namespace.String()
		out[ns] = append(out[ns], r.Name.String())
	}
	return out
}

// Fingerprint returns a stable hex digest identifying the set.
// Two sets have the same fingerprint iff they hold the same requirements.
func (s RequirementSet) Fingerprint() string {
	hasher := xxhash.New()
	for _, r := range s.Sorted() {
		_, _ = hasher.WriteString(r.Namespace.String())
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(r.Name.String())
		_, _ = hasher.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", hasher.Sum64())
}

// MarshalJSON encodes the set as a sorted array of requirements.
func (s RequirementSet) MarshalJSON() ([]byte, error) {
	sorted := s.Sorted()
	if sorted == nil {
		sorted = []Requirement{}
	}
	return json.Marshal(sorted)
}

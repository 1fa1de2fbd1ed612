// Package domain contains the core domain models for environment manifests.
package domain

// StdinSource names standard input as a manifest source.
const StdinSource = "-"

// Manifest is the declarative description of the packages a development environment requires.
// It is immutable once loaded.
type Manifest struct {
	// Channel optionally pins the upstream package index the groups resolve against.
	// Empty means the channel is taken from settings or DefaultChannel.
	Channel string
	// Groups is the ordered collection of requirement groups.
	Groups []RequirementGroup
	// Source is the path the manifest was loaded from ("-" for stdin).
	Source string
}

// RequirementGroup pairs a namespace with the set of package names drawn from it.
type RequirementGroup struct {
	Namespace InternedString
	// Packages is sorted and free of duplicates.
	Packages []InternedString
}

// Len returns the total number of package entries across all groups.
func (m *Manifest) Len() int {
	n := 0
	for _, g := range m.Groups {
		n += len(g.Packages)
	}
	return n
}

// Flatten returns the de-duplicated union of all requirements across the manifest's groups.
// The same name in two namespaces yields two distinct requirements, and empty groups contribute nothing.
func Flatten(m *Manifest) RequirementSet {
	set := NewRequirementSet()
	if m == nil {
		return set
	}
	for _, g := range m.Groups {
		for _, name := range g.Packages {
			set.Add(Requirement{Namespace: g.Namespace, Name: name})
		}
	}
	return set
}

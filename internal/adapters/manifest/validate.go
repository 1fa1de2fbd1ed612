package manifest

import (
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/devshell/internal/core/domain"
)

// buildManifest validates the decoded document against the namespace registry
// and turns it into a domain.Manifest. Duplicate package names within a group
// are dropped and reported through warn.
func buildManifest(
	dto *manifestDTO,
	namespaces *domain.NamespaceRegistry,
	source string,
	warn func(string),
) (*domain.Manifest, error) {
	if dto.Groups == nil {
		return nil, &decodeError{reason: domain.ErrMissingField, field: "groups"}
	}

	m := &domain.Manifest{
		Groups: make([]domain.RequirementGroup, 0, len(*dto.Groups)),
		Source: source,
	}
	if dto.Channel != nil {
		m.Channel = strings.TrimSpace(*dto.Channel)
	}

	for i := range *dto.Groups {
		g, err := buildGroup(i, &(*dto.Groups)[i], namespaces, warn)
		if err != nil {
			return nil, err
		}
		m.Groups = append(m.Groups, g)
	}

	return m, nil
}

func buildGroup(
	i int,
	dto *groupDTO,
	namespaces *domain.NamespaceRegistry,
	warn func(string),
) (domain.RequirementGroup, error) {
	field := groupField(i)

	if dto.Namespace == nil {
		return domain.RequirementGroup{}, &decodeError{
			reason: domain.ErrMissingField,
			field:  field + ".namespace",
			pos:    dto.pos,
		}
	}
	if dto.Packages == nil {
		return domain.RequirementGroup{}, &decodeError{
			reason: domain.ErrMissingField,
			field:  field + ".packages",
			pos:    dto.pos,
		}
	}

	ns := *dto.Namespace
	spec, ok := namespaces.Lookup(ns)
	if !ok {
		err := &decodeError{
			reason: domain.ErrUnknownNamespace,
			field:  field + ".namespace",
			pos:    dto.namespacePos,
		}
		return domain.RequirementGroup{}, err.
			with("namespace", ns).
			with("known_namespaces", strings.Join(namespaces.Names(), ", "))
	}

	pkgs := *dto.Packages
	for j, name := range pkgs {
		if !spec.ValidName(name) {
			err := &decodeError{
				reason: domain.ErrInvalidPackageName,
				field:  packageField(i, j),
				pos:    dto.packagePosition(j),
			}
			return domain.RequirementGroup{}, err.
				with("namespace", ns).
				with("package", name)
		}
	}

	canonical := canonicalizeStrings(pkgs)
	if len(canonical) != len(pkgs) {
		for _, dup := range duplicates(pkgs) {
			warn(fmt.Sprintf("duplicate package %q in %s (%s) ignored", dup, field, ns))
		}
	}

	return domain.RequirementGroup{
		Namespace: domain.NewInternedString(ns),
		Packages:  canonical,
	}, nil
}

// canonicalizeStrings sorts, de-duplicates and interns the given strings.
func canonicalizeStrings(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return []domain.InternedString{}
	}

	sorted := slices.Clone(strs)
	slices.Sort(sorted)

	unique := slices.Compact(sorted)
	return domain.NewInternedStrings(unique)
}

// duplicates returns every string that occurs more than once, in first-seen order.
func duplicates(strs []string) []string {
	seen := make(map[string]int, len(strs))
	var dups []string
	for _, s := range strs {
		seen[s]++
		if seen[s] == 2 {
			dups = append(dups, s)
		}
	}
	return dups
}

package domain

import (
	"regexp"
	"slices"
	"strings"
)

// NamespaceKind describes how the package names of a namespace are resolved by the builder.
type NamespaceKind string

const (
	// NamespaceKindAttrSet resolves each name as an attribute of a package set (e.g. pkgs.git).
	NamespaceKindAttrSet NamespaceKind = "attrset"
	// NamespaceKindInterpreter resolves names as packages bundled into an interpreter
	// (e.g. python3.withPackages).
	NamespaceKindInterpreter NamespaceKind = "interpreter"
)

const (
	// SystemNamespace is the built-in namespace for system packages.
	SystemNamespace = "system"
	// LanguageEcosystemNamespace is the built-in namespace for language-ecosystem packages.
	LanguageEcosystemNamespace = "language-ecosystem"
)

// NamespaceSpec defines a namespace the loader accepts and how the builder resolves it.
type NamespaceSpec struct {
	// Name is the namespace identifier used in manifests (e.g. "system").
	Name string
	// Kind selects the resolution semantics.
	Kind NamespaceKind
	// Attr is the Nix attribute path of the package set or interpreter (e.g. "pkgs", "python3").
	Attr string
	// Pattern is the regular expression every package name of the namespace must match.
	Pattern string

	re *regexp.Regexp
}

// ValidName reports whether name is a valid package identifier in this namespace.
func (s *NamespaceSpec) ValidName(name string) bool {
	if name == "" {
		return false
	}
	if s.re == nil {
		return true
	}
	return s.re.MatchString(name)
}

func (s *NamespaceSpec) compile() error {
	if s.Name == "" {
		return Tagged(ErrInvalidNamespaceSpec, "reason", "name is empty")
	}
	switch s.Kind {
	case NamespaceKindAttrSet, NamespaceKindInterpreter:
	default:
		return Tagged(ErrInvalidNamespaceSpec, "namespace", s.Name, "kind", string(s.Kind))
	}
	if s.Attr == "" {
		return Tagged(ErrInvalidNamespaceSpec, "namespace", s.Name, "reason", "attr is empty")
	}
	if s.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return Tagged(ErrInvalidNamespaceSpec, "namespace", s.Name, "pattern", err.Error())
	}
	s.re = re
	return nil
}

// DefaultNamespaces returns the built-in namespace definitions.
func DefaultNamespaces() []NamespaceSpec {
	return []NamespaceSpec{
		{
			Name:    SystemNamespace,
			Kind:    NamespaceKindAttrSet,
			Attr:    "pkgs",
			Pattern: `^[A-Za-z_][A-Za-z0-9_'+-]*(\.[A-Za-z_][A-Za-z0-9_'+-]*)*$`,
		},
		{
			Name:    LanguageEcosystemNamespace,
			Kind:    NamespaceKindInterpreter,
			Attr:    "python3",
			Pattern: `^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`,
		},
	}
}

// NamespaceRegistry holds the namespaces known to the loader and the builder.
type NamespaceRegistry struct {
	specs map[string]NamespaceSpec
}

// NewNamespaceRegistry compiles the given namespace definitions into a registry.
// Later definitions may not reuse a name.
func NewNamespaceRegistry(specs ...NamespaceSpec) (*NamespaceRegistry, error) {
	r := &NamespaceRegistry{specs: make(map[string]NamespaceSpec, len(specs))}
	for _, spec := range specs {
		if _, exists := r.specs[spec.Name]; exists {
			return nil, Tagged(ErrDuplicateNamespace, "namespace", spec.Name)
		}
		if err := spec.compile(); err != nil {
			return nil, err
		}
		r.specs[spec.Name] = spec
	}
	return r, nil
}

// DefaultNamespaceRegistry returns a registry holding only the built-in namespaces.
func DefaultNamespaceRegistry() *NamespaceRegistry {
	r, err := NewNamespaceRegistry(DefaultNamespaces()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the namespace definition registered under name.
func (r *NamespaceRegistry) Lookup(name string) (NamespaceSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Names returns the registered namespace names in sorted order.
func (r *NamespaceRegistry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PackageAttrPath returns the nixpkgs attribute path a package name of this namespace refers to,
// as used by package index lookups (e.g. "git", "python3Packages.aiohttp").
func (s *NamespaceSpec) PackageAttrPath(name string) string {
	if s.Kind == NamespaceKindInterpreter {
		return s.Attr + "Packages." + name
	}
	if s.Attr == "pkgs" {
		return name
	}
	return strings.TrimPrefix(s.Attr, "pkgs.") + "." + name
}

package nix

import (
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/devshell/internal/core/domain"
)

// RenderExpression renders the Nix expression of a development shell providing every
// requirement of req. The output is deterministic: namespaces and names are sorted and
// every attribute is quoted.
//
// attrset namespaces contribute <attr>."<name>" entries, interpreter namespaces a single
// (<attr>.withPackages (ps: [ ... ])) entry. Namespaces without requirements are omitted.
func RenderExpression(req domain.BuildRequest, system string) (string, error) {
	registry := req.Namespaces
	if registry == nil {
		registry = domain.DefaultNamespaceRegistry()
	}

	byNamespace := req.Requirements.ByNamespace()
	namespaces := make([]string, 0, len(byNamespace))
	for ns := range byNamespace {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)

	var entries []string
	for _, ns := range namespaces {
		spec, ok := registry.Lookup(ns)
		if !ok {
			return "", domain.Tagged(domain.ErrUnknownNamespace, "namespace", ns)
		}
		names := byNamespace[ns]

		switch spec.Kind {
		case domain.NamespaceKindInterpreter:
			members := make([]string, 0, len(names))
			for _, name := range names {
				members = append(members, "      ps."+nixAttr(name))
			}
			entries = append(entries, fmt.Sprintf("    (%s.withPackages (ps: [\n%s\n    ]))",
				attrBase(spec.Attr), strings.Join(members, "\n")))
		default:
			base := attrBase(spec.Attr)
			for _, name := range names {
				entries = append(entries, "    "+base+"."+nixAttrPath(name))
			}
		}
	}

	var b strings.Builder
	b.WriteString("let\n")
	fmt.Fprintf(&b, "  system = %s;\n", nixString(system))
	fmt.Fprintf(&b, "  nixpkgs = builtins.getFlake %s;\n", nixString(domain.FlakeRef(req.Channel)))
	b.WriteString("  pkgs = nixpkgs.legacyPackages.${system};\n")
	b.WriteString("in\n")
	b.WriteString("pkgs.mkShell {\n")
	if len(entries) == 0 {
		b.WriteString("  packages = [ ];\n")
	} else {
		b.WriteString("  packages = [\n")
		for _, e := range entries {
			b.WriteString(e)
			b.WriteString("\n")
		}
		b.WriteString("  ];\n")
	}
	b.WriteString("}\n")

	return b.String(), nil
}

// attrBase maps a namespace attr to an expression rooted at pkgs.
func attrBase(attr string) string {
	if attr == "pkgs" {
		return "pkgs"
	}
	return "pkgs." + nixAttrPath(strings.TrimPrefix(attr, "pkgs."))
}

// nixAttrPath quotes every segment of a dotted attribute path.
func nixAttrPath(path string) string {
	segments := strings.Split(path, ".")
	for i, s := range segments {
		segments[i] = nixAttr(s)
	}
	return strings.Join(segments, ".")
}

func nixAttr(name string) string {
	return nixString(name)
}

// nixString renders s as a double-quoted Nix string literal.
func nixString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteString(`\$`)
			} else {
				b.WriteByte(c)
			}
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

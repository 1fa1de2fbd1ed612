package manifest

// manifestDTO is the decoded manifest document, shared by every format.
// Pointer fields distinguish an absent field from an empty value.
type manifestDTO struct {
	Channel *string     `json:"channel" toml:"channel"`
	Groups  *[]groupDTO `json:"groups"  toml:"groups"`
}

// groupDTO is a single requirement group as written in the source.
type groupDTO struct {
	Namespace *string   `json:"namespace" toml:"namespace"`
	Packages  *[]string `json:"packages"  toml:"packages"`

	// Source positions, filled in by decoders that track them.
	pos          position
	namespacePos position
	packagePos   []position
}

// position is a 1-based line and column in the manifest source. Zero means unknown.
type position struct {
	Line   int
	Column int
}

func (p position) known() bool {
	return p.Line > 0
}

func (g *groupDTO) packagePosition(i int) position {
	if i < len(g.packagePos) {
		return g.packagePos[i]
	}
	return position{}
}

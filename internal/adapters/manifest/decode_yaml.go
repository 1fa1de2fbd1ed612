package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"go.trai.ch/devshell/internal/core/domain"
	"gopkg.in/yaml.v3"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// decodeYAML decodes the source into a node tree and walks it by hand,
// which keeps line and column information for every field.
func decodeYAML(data []byte) (*manifestDTO, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &decodeError{reason: domain.ErrManifestSyntax, cause: errEmptySource}
		}
		return nil, &decodeError{
			reason: domain.ErrManifestSyntax,
			pos:    yamlErrorPosition(err),
			cause:  err,
		}
	}

	// An empty document decodes to a zero node.
	if root.Kind == 0 {
		return nil, &decodeError{reason: domain.ErrManifestSyntax, cause: errEmptySource}
	}

	// Only a single document is allowed.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		pos := nodePosition(&extra)
		if err != nil {
			pos = yamlErrorPosition(err)
		}
		return nil, &decodeError{
			reason: domain.ErrManifestSyntax,
			pos:    pos,
			cause:  errors.New("unexpected document after the manifest"),
		}
	}

	doc := resolveAlias(&root)
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = resolveAlias(doc.Content[0])
	}

	dto := &manifestDTO{}
	if isNull(doc) {
		return dto, nil
	}
	if doc.Kind != yaml.MappingNode {
		return nil, yamlTypeError("", doc, "a mapping")
	}

	err := walkMapping(doc, "", func(key string, keyNode, val *yaml.Node) error {
		switch key {
		case "channel":
			if isNull(val) {
				return nil
			}
			s, err := yamlString(val, "channel")
			if err != nil {
				return err
			}
			dto.Channel = &s
		case "groups":
			if isNull(val) {
				return nil
			}
			groups, err := decodeYAMLGroups(val)
			if err != nil {
				return err
			}
			dto.Groups = &groups
		default:
			return yamlUnknownField(key, keyNode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dto, nil
}

func decodeYAMLGroups(node *yaml.Node) ([]groupDTO, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, yamlTypeError("groups", node, "a list")
	}

	groups := make([]groupDTO, 0, len(node.Content))
	for i, item := range node.Content {
		item = resolveAlias(item)
		field := groupField(i)
		if item.Kind != yaml.MappingNode {
			return nil, yamlTypeError(field, item, "a mapping")
		}

		g := groupDTO{pos: nodePosition(item)}
		err := walkMapping(item, field, func(key string, keyNode, val *yaml.Node) error {
			switch key {
			case "namespace":
				if isNull(val) {
					return nil
				}
				s, err := yamlString(val, field+".namespace")
				if err != nil {
					return err
				}
				g.Namespace = &s
				g.namespacePos = nodePosition(val)
			case "packages":
				if isNull(val) {
					return nil
				}
				pkgs, positions, err := decodeYAMLPackages(val, field+".packages")
				if err != nil {
					return err
				}
				g.Packages = &pkgs
				g.packagePos = positions
			default:
				return yamlUnknownField(field+"."+key, keyNode)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	return groups, nil
}

func decodeYAMLPackages(node *yaml.Node, field string) ([]string, []position, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, nil, yamlTypeError(field, node, "a list")
	}

	pkgs := make([]string, 0, len(node.Content))
	positions := make([]position, 0, len(node.Content))
	for i, item := range node.Content {
		item = resolveAlias(item)
		s, err := yamlString(item, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, nil, err
		}
		pkgs = append(pkgs, s)
		positions = append(positions, nodePosition(item))
	}
	return pkgs, positions, nil
}

// walkMapping calls fn for every key of a mapping node and rejects duplicate keys.
func walkMapping(node *yaml.Node, field string, fn func(key string, keyNode, val *yaml.Node) error) error {
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		val := resolveAlias(node.Content[i+1])
		if keyNode.Kind != yaml.ScalarNode {
			return yamlTypeError(field, keyNode, "a string key")
		}
		key := keyNode.Value
		if seen[key] {
			return &decodeError{
				reason: domain.ErrManifestSyntax,
				field:  joinField(field, key),
				pos:    nodePosition(keyNode),
				cause:  fmt.Errorf("duplicate key %q", key),
			}
		}
		seen[key] = true
		if err := fn(key, keyNode, val); err != nil {
			return err
		}
	}
	return nil
}

func yamlString(node *yaml.Node, field string) (string, error) {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return "", yamlTypeError(field, node, "a string")
	}
	return node.Value, nil
}

func yamlTypeError(field string, node *yaml.Node, want string) error {
	return &decodeError{
		reason: domain.ErrInvalidFieldType,
		field:  field,
		pos:    nodePosition(node),
		cause:  fmt.Errorf("expected %s, found %s", want, describeNode(node)),
	}
}

func yamlUnknownField(field string, keyNode *yaml.Node) error {
	return &decodeError{
		reason: domain.ErrUnknownField,
		field:  field,
		pos:    nodePosition(keyNode),
	}
}

func describeNode(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "null"
		}
		return "scalar " + strconv.Quote(node.Value)
	default:
		return "an unsupported node"
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func nodePosition(node *yaml.Node) position {
	return position{Line: node.Line, Column: node.Column}
}

// yamlErrorPosition extracts the line from a yaml.v3 error message ("yaml: line 3: ...").
func yamlErrorPosition(err error) position {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		err = errors.New(typeErr.Errors[0])
	}
	m := yamlLineRegex.FindStringSubmatch(err.Error())
	if m == nil {
		return position{}
	}
	line, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return position{}
	}
	return position{Line: line}
}

func joinField(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

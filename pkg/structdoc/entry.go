package structdoc

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/twinfer/structdoc/pkg/layout"
)

// Source is one set of type definitions: either a schema file reference or
// definitions written inline.
type Source struct {
	Path   string
	Inline layout.Overlay
}

// UnmarshalYAML reads a scalar as a file path and a mapping as inline
// definitions.
func (s *Source) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&s.Path)
	case yaml.MappingNode:
		overlay, err := layout.DecodeOverlayNode(node)
		if err != nil {
			return err
		}
		s.Inline = overlay
		return nil
	default:
		return fmt.Errorf("line %d: typeDefs must be a file path or a mapping of definitions", node.Line)
	}
}

// Sources lists type definition sources. Later sources shadow earlier ones.
type Sources []Source

// UnmarshalYAML accepts a single source or a sequence of them.
func (s *Sources) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		var src Source
		if err := node.Decode(&src); err != nil {
			return err
		}
		*s = Sources{src}
		return nil
	}
	out := make(Sources, 0, len(node.Content))
	for _, item := range node.Content {
		var src Source
		if err := item.Decode(&src); err != nil {
			return err
		}
		out = append(out, src)
	}
	*s = out
	return nil
}

// Entry requests the documentation of one type.
type Entry struct {
	TypeDefs    Sources `yaml:"typeDefs"`
	EntryType   string  `yaml:"entryType"`
	ShowOffsets bool    `yaml:"showOffsets"`
	ID          string  `yaml:"id"`
	Lang        string  `yaml:"lang"`

	// BaseDir is where relative schema paths are looked up first.
	BaseDir string `yaml:"-"`
}

// DecodeEntry parses an entry written in YAML or JSON.
func DecodeEntry(data []byte) (*Entry, error) {
	var entry Entry
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	if entry.EntryType == "" {
		return nil, fmt.Errorf("decoding entry: entryType is required")
	}
	return &entry, nil
}

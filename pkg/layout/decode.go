package layout

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/twinfer/structdoc/internal/sizeexpr"
	"gopkg.in/yaml.v3"
)

// quantityKeys are the numeric properties that also accept a constant
// expression string.
var quantityKeys = map[string]bool{
	"size":       true,
	"count":      true,
	"assertSize": true,
	"value":      true,
}

// DecodeOverlay parses YAML type definitions. JSON input is accepted too,
// being a subset of YAML.
func DecodeOverlay(data []byte) (Overlay, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing type definitions: %w", err)
	}
	return DecodeOverlayNode(&root)
}

// DecodeOverlayNode decodes type definitions from an already parsed node.
// The node is rewritten in place when it holds constant expressions.
func DecodeOverlayNode(node *yaml.Node) (Overlay, error) {
	if node.Kind == 0 || (node.Kind == yaml.DocumentNode && len(node.Content) == 0) {
		return Overlay{}, nil
	}
	if err := ResolveExpressions(node); err != nil {
		return nil, err
	}
	overlay := Overlay{}
	if err := node.Decode(&overlay); err != nil {
		return nil, fmt.Errorf("decoding type definitions: %w", err)
	}
	if err := overlay.check(); err != nil {
		return nil, err
	}
	return overlay, nil
}

// DecodeTOMLOverlay parses TOML type definitions. TOML tables carry no key
// order, so typeArgs bindings come out sorted by placeholder name.
func DecodeTOMLOverlay(data []byte) (Overlay, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parsing TOML type definitions: %w", err)
	}
	out, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting TOML type definitions: %w", err)
	}
	return DecodeOverlay(out)
}

// ResolveExpressions evaluates string values of the numeric properties
// (size, count, assertSize, value) as constant expressions and replaces them
// with integer scalars.
func ResolveExpressions(node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			if err := ResolveExpressions(child); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if quantityKeys[key.Value] && val.Kind == yaml.ScalarNode && val.ShortTag() == "!!str" {
				n, err := sizeexpr.Eval(val.Value)
				if err != nil {
					return fmt.Errorf("line %d: %s: %w", val.Line, key.Value, err)
				}
				val.Tag = "!!int"
				val.Value = strconv.FormatInt(n, 10)
				val.Style = 0
				continue
			}
			if err := ResolveExpressions(val); err != nil {
				return err
			}
		}
	}
	return nil
}

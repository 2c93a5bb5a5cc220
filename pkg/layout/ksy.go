package layout

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// KaitaiSchema is the subset of a Kaitai Struct (.ksy) schema that maps onto
// static layouts.
type KaitaiSchema struct {
	Meta  KaitaiMeta                           `yaml:"meta"`
	Seq   []KaitaiField                        `yaml:"seq"`
	Types map[string]KaitaiType                `yaml:"types"`
	Enums map[string]map[int64]KaitaiEnumValue `yaml:"enums"`
	Doc   string                               `yaml:"doc"`
}

// KaitaiMeta contains the schema metadata used by the import.
type KaitaiMeta struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Endian string `yaml:"endian"`
}

// KaitaiType defines a user type.
type KaitaiType struct {
	Seq   []KaitaiField         `yaml:"seq"`
	Types map[string]KaitaiType `yaml:"types"`
	Doc   string                `yaml:"doc"`
}

// KaitaiField is one seq entry.
type KaitaiField struct {
	ID         string `yaml:"id"`
	Type       any    `yaml:"type"` // string, or a switch-on mapping
	Enum       string `yaml:"enum,omitempty"`
	Repeat     string `yaml:"repeat,omitempty"`
	RepeatExpr any    `yaml:"repeat-expr,omitempty"`
	Size       any    `yaml:"size,omitempty"`
	Contents   any    `yaml:"contents,omitempty"`
	Encoding   string `yaml:"encoding,omitempty"`
	Doc        string `yaml:"doc,omitempty"`
}

// KaitaiEnumValue is an enum entry, written either as a bare identifier or
// as a mapping with id and doc.
type KaitaiEnumValue struct {
	ID  string `yaml:"id"`
	Doc string `yaml:"doc"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *KaitaiEnumValue) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		v.ID = value.Value
		return nil
	}
	type enumValueAlias KaitaiEnumValue
	var alias enumValueAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*v = KaitaiEnumValue(alias)
	return nil
}

var kaitaiNumeric = regexp.MustCompile(`^([usf])([1248])(le|be)?$`)

var kaitaiBits = regexp.MustCompile(`^b\d+`)

var kaitaiIntrinsics = map[string]string{
	"u1": "uint8", "s1": "int8",
}

// ImportKaitai converts a .ksy schema into type definitions. The top level
// seq becomes a struct named after meta.id. Sizes and repeat counts must be
// integer literals for the layout to be sized statically; size expressions
// are dropped and surface later as UnresolvableSizeError.
func ImportKaitai(data []byte) (Overlay, error) {
	var schema KaitaiSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing kaitai schema: %w", err)
	}
	imp := &kaitaiImporter{
		schema:    &schema,
		overlay:   Overlay{},
		defaultLE: strings.EqualFold(schema.Meta.Endian, "le"),
		defaultBE: strings.EqualFold(schema.Meta.Endian, "be"),
	}

	if schema.Meta.ID != "" && len(schema.Seq) > 0 {
		if err := imp.addStruct(schema.Meta.ID, schema.Seq, schema.Doc); err != nil {
			return nil, err
		}
	}
	if err := imp.addTypes(schema.Types); err != nil {
		return nil, err
	}
	if err := imp.overlay.check(); err != nil {
		return nil, err
	}
	return imp.overlay, nil
}

type kaitaiImporter struct {
	schema    *KaitaiSchema
	overlay   Overlay
	defaultLE bool
	defaultBE bool
}

func docComments(doc string) Comments {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil
	}
	return Comments{"en": doc}
}

func (imp *kaitaiImporter) addTypes(types map[string]KaitaiType) error {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := types[name]
		if err := imp.addStruct(name, t.Seq, t.Doc); err != nil {
			return err
		}
		if err := imp.addTypes(t.Types); err != nil {
			return err
		}
	}
	return nil
}

func (imp *kaitaiImporter) addStruct(name string, seq []KaitaiField, doc string) error {
	if _, exists := imp.overlay[name]; exists {
		return fmt.Errorf("kaitai type %q defined twice", name)
	}
	def := &TypeDef{Class: ClassStruct, Comments: docComments(doc)}
	for _, item := range seq {
		field, err := imp.field(item)
		if err != nil {
			return fmt.Errorf("kaitai type %q field %q: %w", name, item.ID, err)
		}
		def.Fields = append(def.Fields, field)
	}
	imp.overlay[name] = def
	return nil
}

func (imp *kaitaiImporter) field(item KaitaiField) (Field, error) {
	field := Field{Name: item.ID, Comments: docComments(item.Doc)}

	count, err := kaitaiCount(item)
	if err != nil {
		return field, err
	}
	field.Count = count

	if item.Contents != nil {
		n, err := contentsLength(item.Contents)
		if err != nil {
			return field, err
		}
		field.Type = "byte"
		field.Count = &n
		return field, nil
	}

	typeName, isString := item.Type.(string)
	if item.Type != nil && !isString {
		return field, fmt.Errorf("switch-on types cannot be sized statically")
	}
	size := literalInt(item.Size)

	switch {
	case typeName == "" || typeName == "bytes":
		field.Type = "byte"
		if size != nil {
			if count != nil {
				n := *size * *count
				size = &n
			}
			field.Count = size
		}
	case typeName == "str" || typeName == "strz":
		field.Type = "UTF-8"
		if strings.EqualFold(item.Encoding, "UTF-16LE") || strings.EqualFold(item.Encoding, "UTF-16BE") {
			field.Type = "UTF-16"
		}
		field.Size = size
	default:
		resolved, err := imp.primitive(typeName)
		if err != nil {
			return field, err
		}
		field.Type = resolved
		field.Size = size
	}

	if item.Enum != "" {
		if err := imp.enum(item.Enum, field.Type); err != nil {
			return field, err
		}
		field.Type = item.Enum
	}
	return field, nil
}

// primitive maps a kaitai builtin to a registered type, emitting an
// endian-specific primitive when the byte order is known.
func (imp *kaitaiImporter) primitive(typeName string) (string, error) {
	if intrinsic, ok := kaitaiIntrinsics[typeName]; ok {
		return intrinsic, nil
	}
	m := kaitaiNumeric.FindStringSubmatch(typeName)
	if m == nil {
		if strings.Contains(typeName, "(") {
			return "", fmt.Errorf("parametrized type %q is not supported", typeName)
		}
		if kaitaiBits.MatchString(typeName) {
			return "", fmt.Errorf("bit-sized type %q is not supported", typeName)
		}
		// A user type, resolved against the registry later.
		return typeName, nil
	}
	size, _ := strconv.Atoi(m[2])
	suffix := m[3]
	if suffix == "" {
		switch {
		case imp.defaultLE:
			suffix = "le"
		case imp.defaultBE:
			suffix = "be"
		}
	}
	name := m[1] + m[2] + suffix
	if _, exists := imp.overlay[name]; exists {
		return name, nil
	}
	def := &TypeDef{Size: sized(size), Endianness: EndianEither}
	switch suffix {
	case "le":
		def.Endianness = EndianLittle
	case "be":
		def.Endianness = EndianBig
	}
	imp.overlay[name] = def
	return name, nil
}

// enum registers the named kaitai enum, sized by its first use.
func (imp *kaitaiImporter) enum(enumName, baseType string) error {
	base, ok := imp.overlay[baseType]
	if !ok {
		base, ok = Intrinsics()[baseType]
	}
	if !ok || base.Size == nil {
		return fmt.Errorf("enum %q must be backed by an integer type, got %q", enumName, baseType)
	}
	if existing, exists := imp.overlay[enumName]; exists {
		if existing.Class != ClassEnum || *existing.Size != *base.Size {
			return fmt.Errorf("enum %q is used with conflicting sizes", enumName)
		}
		return nil
	}
	values, ok := imp.schema.Enums[enumName]
	if !ok {
		return fmt.Errorf("unknown enum %q", enumName)
	}
	keys := make([]int64, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	def := &TypeDef{Class: ClassEnum, Size: sized(*base.Size)}
	for _, k := range keys {
		v := k
		def.Options = append(def.Options, Option{
			Name:     values[k].ID,
			Value:    &v,
			Comments: docComments(values[k].Doc),
		})
	}
	imp.overlay[enumName] = def
	return nil
}

func kaitaiCount(item KaitaiField) (*int, error) {
	switch item.Repeat {
	case "":
		return nil, nil
	case "expr":
		n := literalInt(item.RepeatExpr)
		if n == nil {
			return nil, fmt.Errorf("repeat-expr %v is not an integer literal", item.RepeatExpr)
		}
		return n, nil
	}
	return nil, fmt.Errorf("repeat %q cannot be sized statically", item.Repeat)
}

func literalInt(v any) *int {
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 0, 64); err == nil {
			j := int(i)
			return &j
		}
	}
	return nil
}

func contentsLength(v any) (int, error) {
	switch c := v.(type) {
	case string:
		return len(c), nil
	case []any:
		n := 0
		for _, part := range c {
			if s, ok := part.(string); ok {
				n += len(s)
			} else {
				n++
			}
		}
		return n, nil
	}
	return 0, fmt.Errorf("unsupported contents %v", v)
}

package layout

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class tags the kind of a type definition. The zero value is a primitive.
type Class string

const (
	ClassPrimitive Class = ""
	ClassAlias     Class = "alias"
	ClassStruct    Class = "struct"
	ClassBitfield  Class = "bitfield"
	ClassEnum      Class = "enum"
)

// Known reports whether c is one of the supported classes.
func (c Class) Known() bool {
	switch c {
	case ClassPrimitive, ClassAlias, ClassStruct, ClassBitfield, ClassEnum:
		return true
	}
	return false
}

// Endianness of a primitive. The zero value means the type declares none.
type Endianness string

const (
	EndianUnspecified Endianness = ""
	EndianLittle      Endianness = "little"
	EndianBig         Endianness = "big"
	EndianEither      Endianness = "either"
)

// Badge returns the short label shown next to a type, or "" when undeclared.
func (e Endianness) Badge() string {
	switch e {
	case EndianLittle:
		return "LE"
	case EndianBig:
		return "BE"
	case EndianEither:
		return "LE/BE"
	}
	return ""
}

// UnmarshalText accepts the long and short spellings used in schemas.
func (e *Endianness) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "little", "le":
		*e = EndianLittle
	case "big", "be":
		*e = EndianBig
	case "either", "any", "le/be":
		*e = EndianEither
	case "":
		*e = EndianUnspecified
	default:
		return fmt.Errorf("unknown endianness %q", string(text))
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Endianness) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: endianness must be a scalar", value.Line)
	}
	return e.UnmarshalText([]byte(value.Value))
}

// TypeArg binds one generic placeholder to a type name.
type TypeArg struct {
	Name string
	Type string
}

// TypeArgs is an ordered set of placeholder bindings. Order is significant:
// it drives cross-reference signatures and the pointee of pointer types.
type TypeArgs []TypeArg

// Get returns the type bound to name.
func (a TypeArgs) Get(name string) (string, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Type, true
		}
	}
	return "", false
}

// Values returns the bound type names in declaration order.
func (a TypeArgs) Values() []string {
	values := make([]string, len(a))
	for i, arg := range a {
		values[i] = arg.Type
	}
	return values
}

// First returns the first bound type name.
func (a TypeArgs) First() (string, bool) {
	if len(a) == 0 {
		return "", false
	}
	return a[0].Type, true
}

// UnmarshalYAML decodes a mapping while keeping document order.
func (a *TypeArgs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: typeArgs must be a mapping", value.Line)
	}
	args := make(TypeArgs, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: typeArgs value for %q must be a type name", val.Line, key.Value)
		}
		args = append(args, TypeArg{Name: key.Value, Type: val.Value})
	}
	*a = args
	return nil
}

// MarshalYAML encodes the bindings as an ordered mapping.
func (a TypeArgs) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, arg := range a {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: arg.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: arg.Type},
		)
	}
	return node, nil
}

// Comments maps a language code to comment text.
type Comments map[string]string

// Languages returns the languages with comment text, sorted.
func (c Comments) Languages() []string {
	langs := make([]string, 0, len(c))
	for lang := range c {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Params identifies a type use: the type name plus optional generic
// bindings, explicit size override and repeat count.
type Params struct {
	Type     string   `yaml:"type"`
	TypeArgs TypeArgs `yaml:"typeArgs,omitempty"`
	Size     *int     `yaml:"size,omitempty"`
	Count    *int     `yaml:"count,omitempty"`
}

// Field is one member of a struct.
type Field struct {
	Params   `yaml:",inline"`
	Name     string   `yaml:"name"`
	Labels   []string `yaml:"labels,omitempty"`
	Comments Comments `yaml:"comments,omitempty"`
}

// Bit is one flag of a bitfield; its index is its position.
type Bit struct {
	Name     string   `yaml:"name"`
	Labels   []string `yaml:"labels,omitempty"`
	Comments Comments `yaml:"comments,omitempty"`
}

// Option is one member of an enum. Value defaults to the option's position.
type Option struct {
	Name     string   `yaml:"name"`
	Value    *int64   `yaml:"value,omitempty"`
	Labels   []string `yaml:"labels,omitempty"`
	Comments Comments `yaml:"comments,omitempty"`
}

// TypeDef is a tagged type definition. Which properties apply depends on
// Class: primitives use Size, Args and Endianness; aliases use the Params
// properties (Type, TypeArgs, Size, Count); structs use Fields, Extends and
// AssertSize; bitfields use Size and Bits; enums use Size and Options.
type TypeDef struct {
	Class      Class      `yaml:"class,omitempty"`
	Size       *int       `yaml:"size,omitempty"`
	Args       []string   `yaml:"args,omitempty"`
	Endianness Endianness `yaml:"endianness,omitempty"`

	Type     string   `yaml:"type,omitempty"`
	TypeArgs TypeArgs `yaml:"typeArgs,omitempty"`
	Count    *int     `yaml:"count,omitempty"`

	Extends    *Params `yaml:"extends,omitempty"`
	AssertSize *int    `yaml:"assertSize,omitempty"`
	Fields     []Field `yaml:"fields,omitempty"`

	Bits    []Bit    `yaml:"bits,omitempty"`
	Options []Option `yaml:"options,omitempty"`

	Labels   []string `yaml:"labels,omitempty"`
	Comments Comments `yaml:"comments,omitempty"`
}

// expand merges an alias definition over the requesting params. Properties
// the alias declares win; the rest are kept from p.
func (d *TypeDef) expand(p Params) Params {
	out := p
	out.Type = d.Type
	if d.TypeArgs != nil {
		out.TypeArgs = d.TypeArgs
	}
	if d.Size != nil {
		out.Size = d.Size
	}
	if d.Count != nil {
		out.Count = d.Count
	}
	return out
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

func (p Params) clone() Params {
	out := p
	out.TypeArgs = append(TypeArgs(nil), p.TypeArgs...)
	out.Size = cloneInt(p.Size)
	out.Count = cloneInt(p.Count)
	return out
}

// clone copies d deeply enough that merging into the copy leaves d intact.
// mergo writes through pointers it finds on both sides, so pointers are
// copied as well as slices and maps.
func (d *TypeDef) clone() TypeDef {
	out := *d
	out.Size = cloneInt(d.Size)
	out.Count = cloneInt(d.Count)
	out.AssertSize = cloneInt(d.AssertSize)
	if d.Extends != nil {
		extends := d.Extends.clone()
		out.Extends = &extends
	}
	out.TypeArgs = append(TypeArgs(nil), d.TypeArgs...)
	out.Args = append([]string(nil), d.Args...)
	out.Fields = append([]Field(nil), d.Fields...)
	out.Bits = append([]Bit(nil), d.Bits...)
	out.Options = append([]Option(nil), d.Options...)
	out.Labels = append([]string(nil), d.Labels...)
	if d.Comments != nil {
		out.Comments = make(Comments, len(d.Comments))
		for k, v := range d.Comments {
			out.Comments[k] = v
		}
	}
	return out
}

// Overlay is a set of user type definitions keyed by name.
type Overlay map[string]*TypeDef

// check validates an overlay at the decoding boundary.
func (o Overlay) check() error {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := o[name]
		if def == nil {
			return fmt.Errorf("type %q has no definition", name)
		}
		if !def.Class.Known() {
			return &UnhandledTypeClassError{TypeName: name, Class: def.Class}
		}
		if def.Class == ClassAlias && def.Type == "" {
			return fmt.Errorf("alias %q does not name a type", name)
		}
		if def.Extends != nil && def.Class != ClassStruct {
			return fmt.Errorf("type %q: only structs can extend another type", name)
		}
		if def.Class == ClassBitfield {
			if err := checkBitCount(name, def); err != nil {
				return err
			}
		}
		for i, field := range def.Fields {
			if field.Name == "" {
				return fmt.Errorf("type %q: field %d has no name", name, i)
			}
			if field.Type == "" {
				return fmt.Errorf("type %q: field %q has no type", name, field.Name)
			}
		}
	}
	return nil
}

// maxBits is the widest bitfield whose masks fit a uint64.
const maxBits = 64

func checkBitCount(name string, def *TypeDef) error {
	if len(def.Bits) > maxBits {
		return fmt.Errorf("bitfield %q declares %d bits, more than %d", name, len(def.Bits), maxBits)
	}
	if def.Size != nil && len(def.Bits) > *def.Size*8 {
		return fmt.Errorf("bitfield %q declares %d bits but is only %d bytes wide", name, len(def.Bits), *def.Size)
	}
	return nil
}

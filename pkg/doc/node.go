package doc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twinfer/structdoc/pkg/layout"
)

// PathID locates a row from the document root. A nil PathID means there is
// no identifying context.
type PathID []string

// RootPath returns the path of a document root seeded with id.
func RootPath(id string) PathID {
	if id == "" {
		return nil
	}
	return PathID{id}
}

// Child returns the path of name beneath p; nil when p is nil.
func (p PathID) Child(name string) PathID {
	if p == nil {
		return nil
	}
	child := make(PathID, len(p)+1)
	copy(child, p)
	child[len(p)] = name
	return child
}

// Anchor returns the stable anchor text of p.
func (p PathID) Anchor() string {
	return strings.Join(p, "-")
}

// RowRole is the semantic role of a row.
type RowRole string

const (
	RoleField  RowRole = "field"
	RoleBit    RowRole = "bit"
	RoleOption RowRole = "option"
)

// EmbeddedClassTag returns the tag marking a row that opened a nested node.
func EmbeddedClassTag(class layout.Class) string {
	return "has-embedded-class-" + string(class)
}

// Node is one documentation table.
type Node struct {
	Class    layout.Class `json:"class"`
	TypeName string       `json:"typeName"`
	PathID   PathID       `json:"pathId"`
	Size     int          `json:"size"`
	Columns  []Column     `json:"columns"`
	Rows     []Row        `json:"rows"`
	Comments Comments     `json:"comments"`
}

// Column is a table header: a label key and its localized text.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Row is one field, flag or option.
type Row struct {
	Role     RowRole         `json:"role"`
	Tags     []string        `json:"tags,omitempty"`
	PathID   PathID          `json:"pathId"`
	Name     string          `json:"name"`
	Offset   *int            `json:"offset,omitempty"`
	Type     *TypeDescriptor `json:"type,omitempty"`
	Size     int             `json:"size,omitempty"`
	Mask     uint64          `json:"mask,omitempty"`
	Value    *int64          `json:"value,omitempty"`
	Comments Comments        `json:"comments"`
	Embedded *Node           `json:"embedded,omitempty"`
	Ref      *Reference      `json:"ref,omitempty"`
}

// Reference links a repeated embedded type to its first expansion.
type Reference struct {
	TypeName string `json:"typeName"`
	PathID   PathID `json:"pathId"`
	Anchor   string `json:"anchor"`
}

// Comments are the rendered annotations of a node or row.
type Comments struct {
	Labels []Badge `json:"labels,omitempty"`
	Lang   string  `json:"lang,omitempty"`
	Prose  string  `json:"prose,omitempty"`
}

// Empty reports whether there is nothing to show.
func (c Comments) Empty() bool {
	return len(c.Labels) == 0 && c.Prose == ""
}

// Badge is a localized label.
type Badge struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// TypeDescriptor describes the type of a struct field.
type TypeDescriptor struct {
	Name         string            `json:"name"`
	Class        layout.Class      `json:"class,omitempty"`
	BitWidth     int               `json:"bitWidth,omitempty"`
	Args         []string          `json:"args,omitempty"`
	VariableSize *int              `json:"variableSize,omitempty"`
	Count        *int              `json:"count,omitempty"`
	Endianness   layout.Endianness `json:"endianness,omitempty"`
}

// String renders the descriptor as shown in a type cell, for example
// "Flags: bitfield32", "ptr32<Header>", "char(32)[4]" or "uint16 LE/BE".
func (d TypeDescriptor) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if d.Class == layout.ClassBitfield || d.Class == layout.ClassEnum {
		fmt.Fprintf(&b, ": %s%d", d.Class, d.BitWidth)
	}
	if len(d.Args) > 0 {
		fmt.Fprintf(&b, "<%s>", strings.Join(d.Args, ", "))
	}
	if d.VariableSize != nil {
		fmt.Fprintf(&b, "(%d)", *d.VariableSize)
	}
	if d.Count != nil {
		fmt.Fprintf(&b, "[%d]", *d.Count)
	}
	if badge := d.Endianness.Badge(); badge != "" {
		b.WriteString(" ")
		b.WriteString(badge)
	}
	return b.String()
}

// MarshalJSON adds the rendered text next to the structured parts.
func (d TypeDescriptor) MarshalJSON() ([]byte, error) {
	type descriptor TypeDescriptor
	return json.Marshal(struct {
		descriptor
		Text string `json:"text"`
	}{descriptor(d), d.String()})
}

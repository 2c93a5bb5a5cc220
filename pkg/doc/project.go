package doc

import (
	"log/slog"

	"github.com/twinfer/structdoc/pkg/i18n"
	"github.com/twinfer/structdoc/pkg/layout"
)

// Projector turns instantiated types into documentation nodes.
type Projector struct {
	inst        *layout.Instantiator
	prose       ProseRenderer
	localizer   Localizer
	lang        string
	showOffsets bool
	logger      *slog.Logger
}

// Option configures a Projector.
type Option func(*Projector)

// WithProse sets the comment prose renderer.
func WithProse(prose ProseRenderer) Option {
	return func(p *Projector) {
		if prose != nil {
			p.prose = prose
		}
	}
}

// WithLocalizer sets the label localizer.
func WithLocalizer(localizer Localizer) Option {
	return func(p *Projector) {
		if localizer != nil {
			p.localizer = localizer
		}
	}
}

// WithLanguage sets the preferred comment and label language.
func WithLanguage(lang string) Option {
	return func(p *Projector) {
		if lang != "" {
			p.lang = lang
		}
	}
}

// WithShowOffsets adds an offset column to struct tables.
func WithShowOffsets(show bool) Option {
	return func(p *Projector) {
		p.showOffsets = show
	}
}

// WithLogger sets the logger for the projector.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Projector) {
		p.logger = logger
	}
}

// NewProjector creates a projector resolving nested types through inst.
func NewProjector(inst *layout.Instantiator, opts ...Option) *Projector {
	p := &Projector{
		inst:      inst,
		prose:     PlainProse,
		localizer: i18n.DefaultCatalog(),
		lang:      "en",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project renders root as a document tree. id seeds every path in the
// tree; an empty id leaves all paths nil. Each call uses its own Tracker.
func (p *Projector) Project(root *layout.Instance, id string) (*Node, error) {
	tracker := NewTracker()
	path := RootPath(id)
	tracker.RecordOrGet(layout.Signature(root.TypeName, root.TypeArgs), path)
	return p.project(root, path, nil, tracker)
}

func (p *Projector) project(inst *layout.Instance, path PathID, trail []string, tracker *Tracker) (*Node, error) {
	def := inst.Def
	p.logger.Debug("Projecting type", "type", inst.TypeName, "class", def.Class, "path", path.Anchor())

	node := &Node{
		Class:    def.Class,
		TypeName: inst.TypeName,
		PathID:   path,
		Size:     inst.SingleSize,
		Comments: p.comments(def.Labels, def.Comments),
	}

	var err error
	switch def.Class {
	case layout.ClassStruct:
		node.Columns = p.columns("field", p.offsetKey(), "type", "comments")
		node.Rows, err = p.structRows(inst, path, trail, tracker)
	case layout.ClassBitfield:
		node.Columns = p.columns("bit", "mask", "comments")
		node.Rows = p.bitRows(def, path)
	case layout.ClassEnum:
		node.Columns = p.columns("option", "value", "comments")
		node.Rows = p.optionRows(def, path)
	default:
		return nil, &layout.UnhandledTypeClassError{TypeName: inst.TypeName, Class: def.Class, Path: trail}
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Projector) offsetKey() string {
	if p.showOffsets {
		return "offset"
	}
	return ""
}

func (p *Projector) columns(keys ...string) []Column {
	columns := make([]Column, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		columns = append(columns, Column{Key: key, Label: p.localizer.Localize(p.lang, key)})
	}
	return columns
}

func (p *Projector) structRows(inst *layout.Instance, path PathID, trail []string, tracker *Tracker) ([]Row, error) {
	rows := make([]Row, 0, len(inst.Def.Fields))
	offset := 0
	for _, field := range inst.Def.Fields {
		params := layout.Substitute(field.Params, inst.TypeArgs)
		fieldPath := path.Child(field.Name)
		fieldTrail := append(append([]string(nil), trail...), field.Name)

		fi, err := p.inst.InstantiateAt(params, fieldTrail)
		if err != nil {
			return nil, err
		}

		row := Row{
			Role:     RoleField,
			Tags:     append([]string{field.Type}, field.Labels...),
			PathID:   fieldPath,
			Name:     field.Name,
			Type:     describe(params, fi),
			Size:     fi.TotalSize,
			Comments: p.comments(field.Labels, field.Comments),
		}
		if p.showOffsets {
			at := offset
			row.Offset = &at
		}

		embedded, err := p.embedded(fi, fieldTrail)
		if err != nil {
			return nil, err
		}
		if embedded != nil {
			sig := layout.Signature(embedded.TypeName, embedded.TypeArgs)
			if first, seen := tracker.RecordOrGet(sig, fieldPath); seen {
				p.logger.Debug("Linking repeated type", "type", embedded.TypeName, "first", first.Anchor())
				row.Ref = &Reference{TypeName: embedded.TypeName, PathID: first, Anchor: first.Anchor()}
			} else {
				sub, err := p.project(embedded, fieldPath, fieldTrail, tracker)
				if err != nil {
					return nil, err
				}
				row.Embedded = sub
				row.Tags = append(row.Tags, EmbeddedClassTag(embedded.Def.Class))
			}
		}

		rows = append(rows, row)
		offset += fi.TotalSize
	}
	return rows, nil
}

// embedded returns the instance documented beneath a field: the field's own
// type when it has a class, or the pointee of a pointer with a non-primitive
// target. Primitive fields and pointers to primitives embed nothing.
func (p *Projector) embedded(fi *layout.Instance, trail []string) (*layout.Instance, error) {
	if layout.IsPointer(fi.TypeName) {
		pointee, ok := fi.TypeArgs.First()
		if !ok {
			return nil, nil
		}
		if def, found := p.inst.Registry().Lookup(pointee); found && def.Class == layout.ClassPrimitive {
			return nil, nil
		}
		target, err := p.inst.InstantiateAt(layout.Params{Type: pointee}, trail)
		if err != nil {
			return nil, err
		}
		if target.Def.Class == layout.ClassPrimitive {
			return nil, nil
		}
		return target, nil
	}
	if fi.Def.Class == layout.ClassPrimitive {
		return nil, nil
	}
	return fi, nil
}

func describe(params layout.Params, fi *layout.Instance) *TypeDescriptor {
	desc := &TypeDescriptor{
		Name:         params.Type,
		Class:        fi.Def.Class,
		BitWidth:     fi.SingleSize * 8,
		VariableSize: fi.VariableSize,
		Count:        fi.Count,
		Endianness:   fi.Def.Endianness,
	}
	if len(params.TypeArgs) > 0 {
		desc.Args = params.TypeArgs.Values()
	}
	return desc
}

func (p *Projector) bitRows(def *layout.TypeDef, path PathID) []Row {
	rows := make([]Row, 0, len(def.Bits))
	for i, bit := range def.Bits {
		rows = append(rows, Row{
			Role:     RoleBit,
			Tags:     bit.Labels,
			PathID:   path.Child(bit.Name),
			Name:     bit.Name,
			Mask:     uint64(1) << uint(i),
			Comments: p.comments(bit.Labels, bit.Comments),
		})
	}
	return rows
}

func (p *Projector) optionRows(def *layout.TypeDef, path PathID) []Row {
	rows := make([]Row, 0, len(def.Options))
	for i, opt := range def.Options {
		value := int64(i)
		if opt.Value != nil {
			value = *opt.Value
		}
		rows = append(rows, Row{
			Role:     RoleOption,
			Tags:     opt.Labels,
			PathID:   path.Child(opt.Name),
			Name:     opt.Name,
			Value:    &value,
			Comments: p.comments(opt.Labels, opt.Comments),
		})
	}
	return rows
}

func (p *Projector) comments(labels []string, comments layout.Comments) Comments {
	var out Comments
	for _, key := range labels {
		out.Labels = append(out.Labels, Badge{Key: key, Text: p.localizer.Localize(p.lang, key)})
	}
	if lang, text, ok := i18n.SelectComment(comments, p.lang); ok {
		out.Lang = lang
		out.Prose = p.prose.RenderProse(lang, text)
	}
	return out
}

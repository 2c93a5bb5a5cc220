package layout

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/imdario/mergo"
)

// Instance is the resolved product of one instantiation.
// TotalSize is always SingleSize * (Count or 1).
type Instance struct {
	Def          *TypeDef
	TypeName     string
	TypeArgs     TypeArgs
	SingleSize   int
	TotalSize    int
	VariableSize *int
	Count        *int
}

// Signature identifies a concrete instantiation: the type name followed by
// its bound type names in order.
func Signature(typeName string, args TypeArgs) string {
	return typeName + strings.Join(args.Values(), ",")
}

// Instantiator resolves type uses against a Registry. It keeps the stack of
// instantiations in progress, so one Instantiator serves one render pass and
// is not safe for concurrent use.
type Instantiator struct {
	registry *Registry
	logger   *slog.Logger
	stack    []string
}

// InstantiatorOption configures an Instantiator.
type InstantiatorOption func(*Instantiator)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *slog.Logger) InstantiatorOption {
	return func(in *Instantiator) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// NewInstantiator creates an instantiator over reg.
func NewInstantiator(reg *Registry, opts ...InstantiatorOption) *Instantiator {
	in := &Instantiator{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Registry returns the registry types are resolved against.
func (in *Instantiator) Registry() *Registry {
	return in.registry
}

// Instantiate resolves p into an Instance.
func (in *Instantiator) Instantiate(p Params) (*Instance, error) {
	return in.InstantiateAt(p, nil)
}

// InstantiateAt resolves p as the use found at path. The path only feeds
// error messages.
func (in *Instantiator) InstantiateAt(p Params, path []string) (*Instance, error) {
	return in.instantiate(p, slices.Clone(path))
}

func (in *Instantiator) instantiate(p Params, path []string) (*Instance, error) {
	def, ok := in.registry.Lookup(p.Type)
	if !ok {
		return nil, &UnresolvedTypeError{TypeName: p.Type, Path: path}
	}

	// Only the steps that recurse into other types are guarded: alias hops,
	// extends and the field sum. A use with an explicit size never walks
	// its fields, so it cannot cycle.
	sig := Signature(p.Type, p.TypeArgs)
	entered := false
	enter := func() error {
		if entered {
			return nil
		}
		if slices.Contains(in.stack, sig) {
			in.logger.Error("Circular type dependency detected", "type_name", p.Type, "stack", strings.Join(in.stack, " -> "))
			return &CyclicTypeError{TypeName: p.Type, Path: path, Chain: append(slices.Clone(in.stack), sig)}
		}
		in.stack = append(in.stack, sig)
		entered = true
		return nil
	}
	defer func() {
		if entered {
			in.stack = in.stack[:len(in.stack)-1]
		}
	}()
	in.logger.Debug("Instantiating type", "type_name", p.Type, "current_stack", strings.Join(in.stack, " -> "))

	switch def.Class {
	case ClassAlias:
		// Aliases are transparent: the target's instance is the result.
		if err := enter(); err != nil {
			return nil, err
		}
		return in.instantiate(Substitute(def.expand(p), p.TypeArgs), path)
	case ClassStruct:
		if def.Extends != nil {
			if err := enter(); err != nil {
				return nil, err
			}
			parent, err := in.instantiate(Substitute(*def.Extends, p.TypeArgs), path)
			if err != nil {
				return nil, err
			}
			merged, err := mergeExtends(parent.Def, def)
			if err != nil {
				return nil, fmt.Errorf("merging %q into %q: %w", def.Extends.Type, p.Type, err)
			}
			def = merged
		}
		if p.Size == nil && def.Size == nil {
			if err := enter(); err != nil {
				return nil, err
			}
		}
	case ClassPrimitive, ClassBitfield, ClassEnum:
	default:
		return nil, &UnhandledTypeClassError{TypeName: p.Type, Class: def.Class, Path: path}
	}

	single, err := in.singleSize(p, def, path)
	if err != nil {
		return nil, err
	}
	total := single
	if p.Count != nil {
		total = single * *p.Count
	}
	if def.AssertSize != nil && total != *def.AssertSize {
		return nil, &SizeAssertionError{TypeName: p.Type, Path: path, Expected: *def.AssertSize, Actual: total}
	}

	return &Instance{
		Def:          def,
		TypeName:     p.Type,
		TypeArgs:     p.TypeArgs,
		SingleSize:   single,
		TotalSize:    total,
		VariableSize: p.Size,
		Count:        p.Count,
	}, nil
}

// singleSize picks the explicit size, then the declared size, then for
// structs the sum of the fields' total sizes.
func (in *Instantiator) singleSize(p Params, def *TypeDef, path []string) (int, error) {
	if p.Size != nil {
		return *p.Size, nil
	}
	if def.Size != nil {
		return *def.Size, nil
	}
	if def.Class != ClassStruct {
		return 0, &UnresolvableSizeError{TypeName: p.Type, Path: path}
	}

	sum := 0
	for _, field := range def.Fields {
		fi, err := in.instantiate(Substitute(field.Params, p.TypeArgs), append(slices.Clone(path), field.Name))
		if err != nil {
			return 0, err
		}
		sum += fi.TotalSize
	}
	return sum, nil
}

// mergeExtends returns {...parent, ...child} with the parent's fields ahead
// of the child's. Properties the child sets replace the parent's outright.
func mergeExtends(parent, child *TypeDef) (*TypeDef, error) {
	merged := parent.clone()
	if err := mergo.Merge(&merged, *child, mergo.WithOverride); err != nil {
		return nil, err
	}
	merged.Fields = append(slices.Clone(parent.Fields), child.Fields...)
	if child.Comments != nil {
		merged.Comments = child.Comments
	}
	return &merged, nil
}

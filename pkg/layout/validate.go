package layout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
)

// Validate instantiates every user definition that can stand on its own and
// returns all failures together. Primitives and generic definitions are
// skipped; a definition is generic when it declares Args or when some
// definition in the registry uses it with typeArgs. Generics are checked
// through the definitions that use them. An alias may point at a
// variable-size type and is only sized where it is used, so
// UnresolvableSizeError is ignored for aliases.
func (r *Registry) Validate(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	generic := r.usedWithTypeArgs()
	var result *multierror.Error
	for _, name := range r.UserNames() {
		def := r.defs[name]
		if len(def.Args) > 0 || generic[name] || def.Class == ClassPrimitive {
			logger.Debug("Skipping type in validation", "type_name", name, "class", def.Class)
			continue
		}
		// A fresh instantiator per definition keeps one failure from
		// leaving state behind for the next.
		_, err := NewInstantiator(r, WithLogger(logger)).Instantiate(Params{Type: name})
		if err == nil {
			continue
		}
		var sizeErr *UnresolvableSizeError
		if def.Class == ClassAlias && errors.As(err, &sizeErr) {
			continue
		}
		logger.Debug("Type failed validation", "type_name", name, "error", err)
		result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
	}
	return result.ErrorOrNil()
}

// usedWithTypeArgs returns the names that appear with typeArgs in a field,
// an extends clause or an alias target of any user definition.
func (r *Registry) usedWithTypeArgs() map[string]bool {
	used := make(map[string]bool)
	mark := func(p Params) {
		if len(p.TypeArgs) > 0 {
			used[p.Type] = true
		}
	}
	for name := range r.user {
		def := r.defs[name]
		for _, field := range def.Fields {
			mark(field.Params)
		}
		if def.Extends != nil {
			mark(*def.Extends)
		}
		if def.Class == ClassAlias {
			mark(Params{Type: def.Type, TypeArgs: def.TypeArgs})
		}
	}
	return used
}

package layout

import "sort"

// Registry resolves type names to definitions. It is built once per render
// pass and must not be mutated while a pass is running.
type Registry struct {
	defs map[string]*TypeDef
	user map[string]bool
}

// NewRegistry layers the user overlay over the intrinsics. User definitions
// shadow intrinsics of the same name.
func NewRegistry(overlay Overlay) *Registry {
	intrinsics := Intrinsics()
	r := &Registry{
		defs: make(map[string]*TypeDef, len(intrinsics)+len(overlay)),
		user: make(map[string]bool, len(overlay)),
	}
	for name, def := range intrinsics {
		r.defs[name] = def
	}
	for name, def := range overlay {
		r.defs[name] = def
		r.user[name] = true
	}
	return r
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*TypeDef, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UserNames returns the names supplied by the overlay, sorted.
func (r *Registry) UserNames() []string {
	names := make([]string, 0, len(r.user))
	for name := range r.user {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

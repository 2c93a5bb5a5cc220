package layout

// Substitute replaces generic placeholders in p using bindings. The type
// name and every TypeArgs value are replaced when bound and kept otherwise;
// keys never change. Only one layer is applied, so chains of aliases resolve
// by calling Substitute once per hop. p is not modified.
func Substitute(p Params, bindings TypeArgs) Params {
	if len(bindings) == 0 {
		return p
	}
	out := p
	if bound, ok := bindings.Get(p.Type); ok {
		out.Type = bound
	}
	if p.TypeArgs != nil {
		out.TypeArgs = make(TypeArgs, len(p.TypeArgs))
		for i, arg := range p.TypeArgs {
			if bound, ok := bindings.Get(arg.Type); ok {
				arg.Type = bound
			}
			out.TypeArgs[i] = arg
		}
	}
	return out
}

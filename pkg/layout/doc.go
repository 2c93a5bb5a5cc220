// Package layout resolves declarative binary layout descriptions into sized
// type instances.
//
// A Registry holds the built-in primitives (byte, bool, char, the sized
// integers, float, double, pad, UTF-8, UTF-16, ptr32, ptr64) overlaid with
// user definitions decoded from YAML, JSON, TOML or Kaitai Struct files.
// An Instantiator resolves a use of a type (name, generic bindings, explicit
// size and count) into an Instance: aliases are followed, struct inheritance
// is merged with the parent's fields first, generic placeholders are
// substituted at every hop, and sizes are computed and checked against
// assertSize.
//
//	overlay, err := layout.DecodeOverlay(data)
//	if err != nil {
//	    return err
//	}
//	inst, err := layout.NewInstantiator(layout.NewRegistry(overlay)).
//	    Instantiate(layout.Params{Type: "Header"})
//
// Numeric schema properties (size, count, assertSize and enum values) accept
// constant expressions such as "0x40 * 2" or "bitShiftLeft(1, 4)".
package layout

// Package doc projects instantiated layouts into documentation trees.
//
// A Projector walks a layout.Instance and produces a Node: a table with one
// row per struct field, bitfield flag or enum option. Struct offsets
// accumulate field by field with no alignment rules. A field whose type is a
// struct, bitfield or enum, or a pointer to one, opens a nested Node the
// first time its instantiation is seen; later occurrences link back to that
// first path instead.
//
// Comment prose and label text come from collaborators supplied by the
// caller (ProseRenderer and Localizer). The projector holds no global state.
package doc

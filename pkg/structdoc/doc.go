// Package structdoc renders binary layout documentation from entries.
//
// # Overview
//
// An Entry names the type to document and where its definitions come from:
// schema files, inline definitions, or both. The Renderer loads the
// definitions, instantiates the entry type and projects it into a doc.Node
// tree of nested tables.
//
// # Quick Start
//
//	node, err := structdoc.RenderFile("docs/header.entry.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// An entry file looks like this:
//
//	typeDefs: formats/header.yaml
//	entryType: Header
//	showOffsets: true
//	id: header
//	lang: en
//
// typeDefs may also hold definitions inline, or a list mixing both. Later
// sources shadow earlier ones.
//
// # Schema Files
//
// The file extension selects the format:
//
//   - .yaml, .yml, .json: type definitions
//   - .toml: the same definitions in TOML
//   - .ksy: a Kaitai Struct format imported as definitions
//
// Numeric properties accept constant expressions such as "0x10 * 4".
//
// # Configuration Options
//
//   - WithLogger(*slog.Logger): Custom logging
//   - WithCaching(time.Duration): Schema caching with expiry
//   - WithImportPaths(...string): Additional schema search paths
//   - WithProse(doc.ProseRenderer): Comment text rendering
//   - WithLocalizer(doc.Localizer): Label and header text
//   - WithLanguage(string): Default language for entries naming none
//
// # Thread Safety
//
// A Renderer may be shared between goroutines. Each render call builds its
// own registry, instantiator and cross-reference tracker.
package structdoc

package structdoc

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/structdoc/pkg/doc"
	"github.com/twinfer/structdoc/pkg/layout"
	"github.com/twinfer/structdoc/testutil"
)

const headerYAML = `
Header:
  class: struct
  assertSize: 8
  fields:
    - {name: magic, type: uint32}
    - {name: flags, type: Flags}
Flags:
  class: bitfield
  size: 4
  bits:
    - {name: ready}
    - {name: error}
`

func rowNames(node *doc.Node) []string {
	var names []string
	for _, row := range node.Rows {
		names = append(names, row.Name)
	}
	return names
}

func TestRenderFile(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"schemas/header.yaml": headerYAML,
		"header.entry.yaml": `
typeDefs: schemas/header.yaml
entryType: Header
showOffsets: true
id: header
`,
	})

	node, err := NewRenderer().RenderFile(context.Background(), filepath.Join(dir, "header.entry.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Header", node.TypeName)
	assert.Equal(t, []string{"magic", "flags"}, rowNames(node))
	assert.Equal(t, 4, *node.Rows[1].Offset)
	require.NotNil(t, node.Rows[1].Embedded)
	assert.Equal(t, []string{"ready", "error"}, rowNames(node.Rows[1].Embedded))
	assert.Equal(t, doc.PathID{"header", "flags", "error"}, node.Rows[1].Embedded.Rows[1].PathID)
}

func TestRender_InlineDefinitions(t *testing.T) {
	entry, err := DecodeEntry([]byte(`
entryType: Table
typeDefs:
  Table:
    class: struct
    assertSize: "0x10 * 2"
    fields:
      - {name: slots, type: uint32, count: "bitShiftLeft(1, 3)"}
`))
	require.NoError(t, err)

	node, err := NewRenderer().Render(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, 32, node.Size)
	assert.Equal(t, "uint32[8] LE/BE", node.Rows[0].Type.String())
	assert.Nil(t, node.PathID)
}

func TestRender_LaterSourcesShadowEarlier(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"base.yaml": headerYAML,
	})
	entry, err := DecodeEntry([]byte(`
entryType: Header
typeDefs:
  - base.yaml
  - Flags:
      class: enum
      size: 4
      options: [{name: off}, {name: on}]
`))
	require.NoError(t, err)
	entry.BaseDir = dir

	node, err := NewRenderer().Render(context.Background(), entry)
	require.NoError(t, err)
	require.NotNil(t, node.Rows[1].Embedded)
	assert.Equal(t, layout.ClassEnum, node.Rows[1].Embedded.Class)
	assert.Equal(t, "Flags: enum32", node.Rows[1].Type.String())
}

func TestRender_ImportPaths(t *testing.T) {
	shared := testutil.WriteTree(t, map[string]string{"header.yaml": headerYAML})
	entry := &Entry{TypeDefs: Sources{{Path: "header.yaml"}}, EntryType: "Flags", BaseDir: t.TempDir()}

	_, err := NewRenderer().Render(context.Background(), entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schema "header.yaml" not found`)

	node, err := NewRenderer(WithImportPaths(shared)).Render(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, layout.ClassBitfield, node.Class)
}

func TestRender_PerCallImportPathsDoNotLeak(t *testing.T) {
	first := testutil.WriteTree(t, map[string]string{"a.yaml": "A:\n  class: struct\n  fields:\n    - {name: x, type: uint8}\n"})
	second := testutil.WriteTree(t, map[string]string{"b.yaml": "B:\n  class: struct\n  fields:\n    - {name: y, type: uint16}\n"})
	spare := t.TempDir()

	// Several construction options leave spare capacity in the slice.
	r := NewRenderer(WithImportPaths(spare), WithImportPaths(t.TempDir()), WithImportPaths(t.TempDir()))
	base := slices.Clone(r.options.importPaths)

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dir, file, typ := first, "a.yaml", "A"
			if i%2 == 1 {
				dir, file, typ = second, "b.yaml", "B"
			}
			entry := &Entry{TypeDefs: Sources{{Path: file}}, EntryType: typ, BaseDir: spare}
			_, errs[i] = r.Render(context.Background(), entry, WithImportPaths(dir))
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		assert.NoError(t, err, "render %d", i)
	}
	assert.Equal(t, base, r.options.importPaths)

	_, err := r.Render(context.Background(), &Entry{TypeDefs: Sources{{Path: "a.yaml"}}, EntryType: "A", BaseDir: spare})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schema "a.yaml" not found`)
}

func TestRender_Language(t *testing.T) {
	entry, err := DecodeEntry([]byte(`
entryType: Point
lang: es
typeDefs:
  Point:
    class: struct
    comments: {en: A point., es: Un punto.}
    fields:
      - {name: x, type: int16}
`))
	require.NoError(t, err)

	node, err := NewRenderer().Render(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, "Un punto.", node.Comments.Prose)

	entry.Lang = ""
	node, err = NewRenderer(WithLanguage("en-GB")).Render(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, "A point.", node.Comments.Prose)
}

func TestRender_Errors(t *testing.T) {
	renderer := NewRenderer()
	ctx := context.Background()

	_, err := renderer.Render(ctx, &Entry{})
	assert.EqualError(t, err, "entry has no entryType")

	_, err = renderer.Render(ctx, &Entry{EntryType: "Missing"})
	var unresolved *layout.UnresolvedTypeError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "Missing", unresolved.TypeName)

	entry, err := DecodeEntry([]byte(`
entryType: Header
typeDefs:
  Header:
    class: struct
    assertSize: 4
    fields: [{name: a, type: uint16}]
`))
	require.NoError(t, err)
	_, err = renderer.Render(ctx, entry)
	var assertion *layout.SizeAssertionError
	require.True(t, errors.As(err, &assertion))
	assert.Equal(t, 2, assertion.Actual)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = renderer.Render(cancelled, entry)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderJSON(t *testing.T) {
	entry, err := DecodeEntry([]byte(`
entryType: Header
id: hdr
showOffsets: true
typeDefs:
` + indent(headerYAML)))
	require.NoError(t, err)

	data, err := NewRenderer().RenderJSON(context.Background(), entry)
	require.NoError(t, err)
	diff := testutil.JSONSubsetDiff(t, `{
  "class": "struct",
  "typeName": "Header",
  "size": 8,
  "rows": [
    {"name": "magic", "offset": 0, "type": {"text": "uint32 LE/BE"}},
    {"name": "flags", "offset": 4, "embedded": {"rows": [{"mask": 1}, {"mask": 2}]}}
  ]
}`, data)
	assert.Empty(t, diff)
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n  ") + "\n"
}

func TestLoadSchema_Formats(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"header.json": `{
  "Header": {"class": "struct", "fields": [{"name": "magic", "type": "uint32"}, {"name": "len", "type": "uint16"}]}
}`,
		"header.toml": `
[Header]
class = "struct"
assertSize = "2 + 4"

[[Header.fields]]
name = "magic"
type = "uint32"

[[Header.fields]]
name = "len"
type = "uint16"
`,
		"packet.ksy": `
meta:
  id: packet
  endian: be
seq:
  - id: magic
    contents: [0x50, 0x4B]
  - id: length
    type: u2
`,
	})
	renderer := NewRenderer()

	for _, name := range []string{"header.json", "header.toml"} {
		t.Run(name, func(t *testing.T) {
			overlay, err := renderer.LoadSchema(filepath.Join(dir, name))
			require.NoError(t, err)
			inst, err := layout.NewInstantiator(layout.NewRegistry(overlay)).Instantiate(layout.Params{Type: "Header"})
			require.NoError(t, err)
			assert.Equal(t, 6, inst.TotalSize)
		})
	}

	t.Run("packet.ksy", func(t *testing.T) {
		entry := &Entry{TypeDefs: Sources{{Path: "packet.ksy"}}, EntryType: "packet", BaseDir: dir}
		node, err := renderer.Render(context.Background(), entry)
		require.NoError(t, err)
		assert.Equal(t, 4, node.Size)
		assert.Equal(t, []string{"magic", "length"}, rowNames(node))
		assert.Equal(t, layout.EndianBig, node.Rows[1].Type.Endianness)
	})

	_, err := renderer.LoadSchema(testutil.WriteFile(t, dir, "header.xml", "<x/>"))
	assert.ErrorContains(t, err, `unsupported schema file extension ".xml"`)

	_, err = renderer.LoadSchema(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading schema file")
}

func TestLoadSchema_Caching(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "a.yaml", "A: {class: struct, fields: [{name: x, type: uint8}]}")

	renderer := NewRenderer(WithCaching(0))
	first, err := renderer.LoadSchema(path)
	require.NoError(t, err)

	testutil.WriteFile(t, dir, "a.yaml", "B: {class: struct, fields: [{name: x, type: uint8}]}")
	cached, err := renderer.LoadSchema(path)
	require.NoError(t, err)
	assert.Contains(t, cached, "A")
	assert.Len(t, cached, len(first))

	renderer.ClearCache()
	reloaded, err := renderer.LoadSchema(path)
	require.NoError(t, err)
	assert.Contains(t, reloaded, "B")

	expiring := NewRenderer(WithCaching(time.Nanosecond))
	_, err = expiring.LoadSchema(path)
	require.NoError(t, err)
	testutil.WriteFile(t, dir, "a.yaml", "C: {class: struct, fields: [{name: x, type: uint8}]}")
	time.Sleep(time.Millisecond)
	fresh, err := expiring.LoadSchema(path)
	require.NoError(t, err)
	assert.Contains(t, fresh, "C")

	uncached := NewRenderer(WithoutCaching())
	_, err = uncached.LoadSchema(path)
	require.NoError(t, err)
	assert.Empty(t, uncached.schemaCache)
}

func TestValidateSchema(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "good.yaml", headerYAML+`
Box:
  class: struct
  args: [T]
  fields: [{name: value, type: T}]
`)
	require.NoError(t, NewRenderer().ValidateSchema(good))

	bad := testutil.WriteFile(t, dir, "bad.yaml", `
Broken:
  class: struct
  fields: [{name: a, type: Nope}]
TooBig:
  class: struct
  assertSize: 1
  fields: [{name: a, type: uint16}]
Fine:
  class: struct
  fields: [{name: a, type: uint8}]
`)
	err := ValidateSchema(bad)
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)

	var unresolved *layout.UnresolvedTypeError
	assert.True(t, errors.As(merr.Errors[0], &unresolved))
	var assertion *layout.SizeAssertionError
	assert.True(t, errors.As(merr.Errors[1], &assertion))
}

func TestDecodeEntry(t *testing.T) {
	entry, err := DecodeEntry([]byte(`{"entryType": "A", "typeDefs": "a.yaml", "showOffsets": true, "id": "x", "lang": "fr"}`))
	require.NoError(t, err)
	assert.Equal(t, &Entry{
		TypeDefs:    Sources{{Path: "a.yaml"}},
		EntryType:   "A",
		ShowOffsets: true,
		ID:          "x",
		Lang:        "fr",
	}, entry)

	entry, err = DecodeEntry([]byte("entryType: A\ntypeDefs: [a.yaml, {A: {class: struct}}]\n"))
	require.NoError(t, err)
	require.Len(t, entry.TypeDefs, 2)
	assert.Equal(t, "a.yaml", entry.TypeDefs[0].Path)
	assert.Equal(t, layout.ClassStruct, entry.TypeDefs[1].Inline["A"].Class)

	_, err = DecodeEntry([]byte("typeDefs: a.yaml\n"))
	assert.ErrorContains(t, err, "entryType is required")

	_, err = DecodeEntry([]byte("entryType: A\ntypeDefs: [[a.yaml]]\n"))
	assert.ErrorContains(t, err, "typeDefs must be a file path or a mapping")

	_, err = DecodeEntry([]byte("entryType: A\ntypeDefs: {A: {class: union}}\n"))
	assert.Error(t, err)
}

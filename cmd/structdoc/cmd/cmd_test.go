package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/structdoc/testutil"
)

const headerSchema = `
Header:
  class: struct
  assertSize: 8
  comments: {en: File header., es: Cabecera del archivo.}
  fields:
    - {name: magic, type: uint32, labels: [required]}
    - {name: flags, type: Flags}
Flags:
  class: bitfield
  size: 4
  bits: [{name: ready}, {name: error}]
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFixtures(t *testing.T) string {
	t.Helper()
	return testutil.WriteTree(t, map[string]string{
		"schemas/header.yaml": headerSchema,
		"header.entry.yaml":   "typeDefs: schemas/header.yaml\nentryType: Header\nid: header\nshowOffsets: true\n",
		"flags.entry.yaml":    "typeDefs: schemas/header.yaml\nentryType: Flags\n",
	})
}

func TestRender_Text(t *testing.T) {
	dir := writeFixtures(t)
	out, err := run(t, "render", filepath.Join(dir, "header.entry.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "Header #header (struct, 8B)")
	assert.Contains(t, out, "File header.")
	assert.Contains(t, out, "uint32 LE/BE (4B)")
	assert.Contains(t, out, "Flags: bitfield32 (4B)")
	assert.Contains(t, out, "[required]")
	assert.Contains(t, out, "Flags #header-flags (bitfield, 4B)")
	assert.Contains(t, out, "0x1")
	assert.Contains(t, out, "0x2")
}

func TestRender_JSON(t *testing.T) {
	dir := writeFixtures(t)
	out, err := run(t, "render", "-o", "json", filepath.Join(dir, "header.entry.yaml"), filepath.Join(dir, "flags.entry.yaml"))
	require.NoError(t, err)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "Header", nodes[0]["typeName"])
	assert.Equal(t, "Flags", nodes[1]["typeName"])
	assert.Equal(t, "bitfield", nodes[1]["class"])
}

func TestRender_SchemaAndType(t *testing.T) {
	dir := writeFixtures(t)
	out, err := run(t, "render", "-o", "json", "--schema", filepath.Join(dir, "schemas", "header.yaml"), "--type", "Header", "--id", "h", "--offsets")
	require.NoError(t, err)
	assert.Empty(t, testutil.JSONSubsetDiff(t, `{
  "pathId": ["h"],
  "rows": [{"name": "magic", "offset": 0}, {"name": "flags", "offset": 4}]
}`, []byte(out)))
}

func TestRender_LanguageFromEnvAndConfig(t *testing.T) {
	dir := writeFixtures(t)
	entry := filepath.Join(dir, "flags.entry.yaml")
	header := filepath.Join(dir, "header.entry.yaml")

	t.Setenv("STRUCTDOC_LANG", "es")
	out, err := run(t, "render", header)
	require.NoError(t, err)
	assert.Contains(t, out, "Cabecera del archivo.")

	out, err = run(t, "render", "--lang", "en", header)
	require.NoError(t, err)
	assert.Contains(t, out, "File header.")

	t.Setenv("STRUCTDOC_LANG", "")
	config := testutil.WriteFile(t, dir, "structdoc.yaml", "lang: es\nimport_paths: ["+filepath.Join(dir, "schemas")+"]\n")
	testutil.WriteFile(t, dir, "other/bare.entry.yaml", "typeDefs: header.yaml\nentryType: Header\n")
	out, err = run(t, "--config", config, "render", filepath.Join(dir, "other", "bare.entry.yaml"), entry)
	require.NoError(t, err)
	assert.Contains(t, out, "Cabecera del archivo.")
}

func TestRender_Errors(t *testing.T) {
	dir := writeFixtures(t)

	_, err := run(t, "render")
	assert.EqualError(t, err, "no entry files given")

	_, err = run(t, "render", "--schema", "x.yaml")
	assert.EqualError(t, err, "--schema needs --type")

	_, err = run(t, "render", "-o", "xml", filepath.Join(dir, "flags.entry.yaml"))
	assert.EqualError(t, err, `unknown output format "xml", want text or json`)

	_, err = run(t, "render", "--schema", filepath.Join(dir, "schemas", "header.yaml"), "--type", "Nope")
	assert.ErrorContains(t, err, `unresolved type "Nope"`)

	_, err = run(t, "render", filepath.Join(dir, "missing.entry.yaml"))
	assert.ErrorContains(t, err, "reading entry file")
}

func TestCheck(t *testing.T) {
	dir := writeFixtures(t)
	good := filepath.Join(dir, "schemas", "header.yaml")
	bad := testutil.WriteFile(t, dir, "bad.yaml", `
Broken:
  class: struct
  fields: [{name: a, type: Nope}]
`)

	out, err := run(t, "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok   "+good)

	out, err = run(t, "check", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "ok   "+good)
	assert.Contains(t, out, "FAIL "+bad)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 1)
	assert.ErrorContains(t, merr.Errors[0], `unresolved type "Nope"`)

	_, err = run(t, "check")
	assert.Error(t, err)
}

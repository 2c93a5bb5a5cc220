package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrinsicSizes(t *testing.T) {
	reg := NewRegistry(nil)
	in := NewInstantiator(reg)

	tests := []struct {
		name string
		size int
	}{
		{"byte", 1}, {"bool", 1}, {"char", 1}, {"int8", 1}, {"uint8", 1},
		{"int16", 2}, {"uint16", 2},
		{"int32", 4}, {"uint32", 4}, {"float", 4},
		{"int64", 8}, {"uint64", 8}, {"double", 8},
		{"ptr32", 4}, {"ptr64", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := in.Instantiate(Params{Type: tt.name})
			require.NoError(t, err)
			assert.Equal(t, tt.size, inst.TotalSize)
		})
	}

	for _, name := range []string{"pad", "UTF-8", "UTF-16"} {
		t.Run(name, func(t *testing.T) {
			_, err := in.Instantiate(Params{Type: name})
			var sizeErr *UnresolvableSizeError
			require.ErrorAs(t, err, &sizeErr)
			assert.Equal(t, name, sizeErr.TypeName)
		})
	}
}

func TestRegistry_UserShadowsIntrinsic(t *testing.T) {
	reg := NewRegistry(Overlay{"float": {Size: sized(8)}, "Header": {Class: ClassStruct}})

	def, ok := reg.Lookup("float")
	require.True(t, ok)
	assert.Equal(t, 8, *def.Size)
	assert.Equal(t, []string{"Header", "float"}, reg.UserNames())
	assert.Equal(t, len(Intrinsics())+1, reg.Len())

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestIntrinsics_FreshCopies(t *testing.T) {
	first := Intrinsics()
	*first["uint32"].Size = 99
	assert.Equal(t, 4, *Intrinsics()["uint32"].Size)
}

func TestEndianness_Badge(t *testing.T) {
	assert.Equal(t, "LE", EndianLittle.Badge())
	assert.Equal(t, "BE", EndianBig.Badge())
	assert.Equal(t, "LE/BE", EndianEither.Badge())
	assert.Equal(t, "", EndianUnspecified.Badge())
}

func TestRegistry_Validate(t *testing.T) {
	overlay, err := DecodeOverlay([]byte(`
Good:
  class: struct
  fields:
    - {name: a, type: uint32}
Broken:
  class: struct
  fields:
    - {name: a, type: Missing}
Asserted:
  class: struct
  assertSize: 3
  fields:
    - {name: a, type: uint32}
Name:
  class: alias
  type: UTF-8
Box:
  class: struct
  args: [T]
  fields:
    - {name: value, type: T}
`))
	require.NoError(t, err)

	err = NewRegistry(overlay).Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")
	assert.Contains(t, err.Error(), "Asserted")
	assert.NotContains(t, err.Error(), "Good")
	assert.NotContains(t, err.Error(), "Name:")
	assert.NotContains(t, err.Error(), "Box")

	var unresolved *UnresolvedTypeError
	assert.ErrorAs(t, err, &unresolved)
}

func TestRegistry_ValidateGenericWithoutArgs(t *testing.T) {
	overlay, err := DecodeOverlay([]byte(`
Box:
  class: struct
  fields:
    - {name: len, type: uint32}
    - {name: item, type: T}
Header:
  class: struct
  fields:
    - {name: b, type: Box, typeArgs: {T: uint16}}
`))
	require.NoError(t, err)
	require.NoError(t, NewRegistry(overlay).Validate(nil))

	// The generic is still checked through its users.
	overlay["Box"].Fields = append(overlay["Box"].Fields, Field{Name: "extra", Params: Params{Type: "Nope"}})
	err = NewRegistry(overlay).Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Header")
	assert.NotContains(t, err.Error(), "Box:")

	var unresolved *UnresolvedTypeError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "Nope", unresolved.TypeName)
}

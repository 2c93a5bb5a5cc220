package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	bindings := TypeArgs{{Name: "T", Type: "Header"}, {Name: "U", Type: "uint16"}}

	t.Run("replaces type and args", func(t *testing.T) {
		p := Params{Type: "T", TypeArgs: TypeArgs{{Name: "A", Type: "U"}, {Name: "B", Type: "V"}}}
		got := Substitute(p, bindings)
		assert.Equal(t, "Header", got.Type)
		assert.Equal(t, TypeArgs{{Name: "A", Type: "uint16"}, {Name: "B", Type: "V"}}, got.TypeArgs)
	})

	t.Run("unbound placeholders pass through", func(t *testing.T) {
		p := Params{Type: "V", TypeArgs: TypeArgs{{Name: "T", Type: "W"}}}
		got := Substitute(p, bindings)
		assert.Equal(t, p, got)
	})

	t.Run("nil bindings return params unchanged", func(t *testing.T) {
		size := 3
		p := Params{Type: "T", Size: &size}
		assert.Equal(t, p, Substitute(p, nil))
	})

	t.Run("does not modify input", func(t *testing.T) {
		args := TypeArgs{{Name: "A", Type: "T"}}
		Substitute(Params{Type: "ptr32", TypeArgs: args}, bindings)
		assert.Equal(t, "T", args[0].Type)
	})

	t.Run("applies one layer only", func(t *testing.T) {
		chain := TypeArgs{{Name: "T", Type: "U"}, {Name: "U", Type: "uint8"}}
		got := Substitute(Params{Type: "T"}, chain)
		assert.Equal(t, "U", got.Type)
	})
}

func TestSignature(t *testing.T) {
	assert.Equal(t, "Header", Signature("Header", nil))
	assert.Equal(t, "PairA,B", Signature("Pair", TypeArgs{{Name: "K", Type: "A"}, {Name: "V", Type: "B"}}))
}

package layout

import (
	"fmt"
	"strings"
)

// Every error below aborts the render call that produced it. Path holds the
// chain of field names leading to the failing use, when one is known.

func atPath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return " at " + strings.Join(path, ".")
}

// UnresolvedTypeError reports a type name with no registry entry.
type UnresolvedTypeError struct {
	TypeName string
	Path     []string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("unresolved type %q%s", e.TypeName, atPath(e.Path))
}

// UnresolvableSizeError reports a type whose byte size has no source: no
// explicit size, no declared size, and not a struct.
type UnresolvableSizeError struct {
	TypeName string
	Path     []string
}

func (e *UnresolvableSizeError) Error() string {
	return fmt.Sprintf("cannot determine size of type %q%s: it has no fixed size and none was given", e.TypeName, atPath(e.Path))
}

// SizeAssertionError reports a computed size that differs from assertSize.
type SizeAssertionError struct {
	TypeName string
	Path     []string
	Expected int
	Actual   int
}

func (e *SizeAssertionError) Error() string {
	return fmt.Sprintf("size assertion failed for type %q%s: expected %d bytes, computed %d", e.TypeName, atPath(e.Path), e.Expected, e.Actual)
}

// UnhandledTypeClassError reports a class tag that is not one of the known kinds.
type UnhandledTypeClassError struct {
	TypeName string
	Class    Class
	Path     []string
}

func (e *UnhandledTypeClassError) Error() string {
	return fmt.Sprintf("type %q%s has unhandled class %q", e.TypeName, atPath(e.Path), string(e.Class))
}

// CyclicTypeError reports a type that contains itself.
type CyclicTypeError struct {
	TypeName string
	Path     []string
	Chain    []string
}

func (e *CyclicTypeError) Error() string {
	return fmt.Sprintf("type %q%s contains itself: %s", e.TypeName, atPath(e.Path), strings.Join(e.Chain, " -> "))
}

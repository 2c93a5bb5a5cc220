package layout

// Pointer intrinsic names. Their first type argument names the pointee.
const (
	Ptr32 = "ptr32"
	Ptr64 = "ptr64"
)

// IsPointer reports whether name is one of the pointer intrinsics.
func IsPointer(name string) bool {
	return name == Ptr32 || name == Ptr64
}

func sized(n int) *int {
	return &n
}

// Intrinsics returns a fresh copy of the built-in primitive definitions.
func Intrinsics() Overlay {
	return Overlay{
		"byte":   {Size: sized(1)},
		"bool":   {Size: sized(1)},
		"char":   {Size: sized(1)},
		"int8":   {Size: sized(1)},
		"uint8":  {Size: sized(1)},
		"int16":  {Size: sized(2), Endianness: EndianEither},
		"uint16": {Size: sized(2), Endianness: EndianEither},
		"int32":  {Size: sized(4), Endianness: EndianEither},
		"uint32": {Size: sized(4), Endianness: EndianEither},
		"int64":  {Size: sized(8), Endianness: EndianEither},
		"uint64": {Size: sized(8), Endianness: EndianEither},
		"float":  {Size: sized(4), Endianness: EndianEither},
		"double": {Size: sized(8), Endianness: EndianEither},
		"pad":    {},
		"UTF-8":  {},
		"UTF-16": {},
		Ptr32:    {Size: sized(4), Args: []string{"T"}, Endianness: EndianEither},
		Ptr64:    {Size: sized(8), Args: []string{"T"}, Endianness: EndianEither},
	}
}

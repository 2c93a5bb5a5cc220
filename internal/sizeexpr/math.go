package sizeexpr

import "github.com/google/cel-go/cel"

// mathFunctions returns CEL function declarations for the integer helpers
// layouts need: min, max and alignUp.
func mathFunctions() cel.EnvOption {
	return cel.Lib(&mathLib{})
}

type mathLib struct{}

func (*mathLib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		intBinary("min", "min_int_int", func(a, b int64) int64 {
			if a < b {
				return a
			}
			return b
		}),
		intBinary("max", "max_int_int", func(a, b int64) int64 {
			if a > b {
				return a
			}
			return b
		}),
		// alignUp(n, a) rounds n up to a multiple of a; a <= 0 leaves n as is.
		intBinary("alignUp", "alignup_int_int", func(n, a int64) int64 {
			if a <= 0 {
				return n
			}
			return (n + a - 1) / a * a
		}),
	}
}

func (*mathLib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

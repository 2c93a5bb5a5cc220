package sizeexpr

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// NewEnvironment creates a CEL environment for constant integer expressions.
// Schema authors use it to spell sizes and enum values as arithmetic, e.g.
// "0x40 * 2" or "bitShiftLeft(1, 7)".
func NewEnvironment() (*cel.Env, error) {
	env, err := cel.NewEnv(
		bitwiseFunctions(),
		mathFunctions(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// bitwiseFunctions returns CEL function declarations for bitwise operations,
// which CEL does not provide as operators.
func bitwiseFunctions() cel.EnvOption {
	return cel.Lib(&bitwiseLib{})
}

type bitwiseLib struct{}

func intBinary(name, overload string, op func(a, b int64) int64) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(overload, []*cel.Type{cel.IntType, cel.IntType}, cel.IntType,
			cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				l, lOk := lhs.(types.Int)
				r, rOk := rhs.(types.Int)
				if !lOk || !rOk {
					return types.NewErr("%s arguments must be int, got %T and %T", name, lhs.Value(), rhs.Value())
				}
				return types.Int(op(int64(l), int64(r)))
			}),
		),
	)
}

func (*bitwiseLib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		intBinary("bitAnd", "bitand_int_int", func(a, b int64) int64 { return a & b }),
		intBinary("bitOr", "bitor_int_int", func(a, b int64) int64 { return a | b }),
		intBinary("bitXor", "bitxor_int_int", func(a, b int64) int64 { return a ^ b }),
		intBinary("bitShiftLeft", "bitshiftleft_int_int", func(a, b int64) int64 { return a << uint64(b) }),
		intBinary("bitShiftRight", "bitshiftright_int_int", func(a, b int64) int64 { return a >> uint64(b) }),
	}
}

func (*bitwiseLib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

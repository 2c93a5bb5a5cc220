package sizeexpr

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Pool caches compiled constant expressions.
type Pool struct {
	mu       sync.RWMutex
	programs map[string]cel.Program
	env      *cel.Env
}

var (
	defaultPool     *Pool
	defaultPoolErr  error
	defaultPoolOnce sync.Once
)

// NewPool creates a pool backed by NewEnvironment.
func NewPool() (*Pool, error) {
	env, err := NewEnvironment()
	if err != nil {
		return nil, err
	}
	return &Pool{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Eval evaluates expr with the shared pool.
func Eval(expr string) (int64, error) {
	defaultPoolOnce.Do(func() {
		defaultPool, defaultPoolErr = NewPool()
	})
	if defaultPoolErr != nil {
		return 0, defaultPoolErr
	}
	return defaultPool.Eval(expr)
}

// Program retrieves or compiles an expression.
func (p *Pool) Program(expr string) (cel.Program, error) {
	p.mu.RLock()
	if program, ok := p.programs[expr]; ok {
		p.mu.RUnlock()
		return program, nil
	}
	p.mu.RUnlock()

	ast, issues := p.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", expr, issues.Err())
	}
	program, err := p.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for %q: %w", expr, err)
	}

	p.mu.Lock()
	p.programs[expr] = program
	p.mu.Unlock()
	return program, nil
}

// Eval evaluates a constant expression to an integer.
func (p *Pool) Eval(expr string) (int64, error) {
	program, err := p.Program(expr)
	if err != nil {
		return 0, err
	}
	val, _, err := program.Eval(map[string]any{})
	if err != nil {
		return 0, fmt.Errorf("expression evaluation error in %q: %w", expr, err)
	}
	switch v := val.(type) {
	case types.Int:
		return int64(v), nil
	case types.Uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("expression %q overflows int64", expr)
		}
		return int64(v), nil
	}
	return 0, fmt.Errorf("expression %q must evaluate to an integer, got %s", expr, val.Type().TypeName())
}

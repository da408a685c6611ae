package eval

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of compiled conditions kept in memory.
const DefaultCacheSize = 512

// Evaluator evaluates boolean conditions over substitution bindings, e.g.
//
//	T == "i32"
//	T startsWith "Vec<" && Self != "Never"
//
// Parameters missing from the substitution evaluate to nil. Compiled
// programs are kept in an LRU cache keyed by the condition text.
type Evaluator struct {
	programs *lru.Cache[string, *vm.Program]
}

// NewEvaluator creates an evaluator caching up to size compiled programs.
func NewEvaluator(size int) (*Evaluator, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *vm.Program](size)
	if err != nil {
		return nil, fmt.Errorf("condition cache: %w", err)
	}
	return &Evaluator{programs: c}, nil
}

// MustNewEvaluator is NewEvaluator for package-level defaults.
func MustNewEvaluator(size int) *Evaluator {
	e, err := NewEvaluator(size)
	if err != nil {
		panic(err)
	}
	return e
}

// Compile checks that cond is a well-formed boolean condition.
func (e *Evaluator) Compile(cond string) error {
	_, err := e.program(cond)
	return err
}

// Condition evaluates cond against bindings. An empty condition is true.
func (e *Evaluator) Condition(cond string, bindings map[string]string) (bool, error) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return true, nil // no condition = always true
	}
	program, err := e.program(cond)
	if err != nil {
		return false, err
	}

	env := make(map[string]any, len(bindings))
	for k, v := range bindings {
		env[k] = v
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", cond, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool (got %T: %v)", cond, output, output)
	}
	return result, nil
}

// Cached returns the number of compiled programs currently held.
func (e *Evaluator) Cached() int {
	return e.programs.Len()
}

func (e *Evaluator) program(cond string) (*vm.Program, error) {
	if p, ok := e.programs.Get(cond); ok {
		return p, nil
	}
	p, err := expr.Compile(cond,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", cond, err)
	}
	e.programs.Add(cond, p)
	return p, nil
}

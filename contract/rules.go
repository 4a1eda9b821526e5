package contract

import (
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const (
	defaultRuleCacheSize = 128
	approxTolerance      = 1e-9
)

// ruleEnv is the data a rule expression is evaluated against
type ruleEnv struct {
	Query  map[string]any
	Body   map[string]any
	Status int
}

// compileEnv declares the names and helper signatures rules may use
var compileEnv = map[string]any{
	"query":  map[string]any{},
	"body":   map[string]any{},
	"status": 0,
	"approx": approx,
	"has":    func(field string) bool { return false },
	"finite": finite,
}

func (e ruleEnv) toMap() map[string]any {
	return map[string]any{
		"query":  e.Query,
		"body":   e.Body,
		"status": e.Status,
		"approx": approx,
		"has": func(field string) bool {
			_, ok := e.Body[field]
			return ok
		},
		"finite": finite,
	}
}

// ruleEngine compiles expr rules once and caches the programs
type ruleEngine struct {
	cache *lruCache[*vm.Program]
}

func newRuleEngine(size int) *ruleEngine {
	if size <= 0 {
		size = defaultRuleCacheSize
	}
	return &ruleEngine{cache: newLRUCache[*vm.Program](size)}
}

func (r *ruleEngine) compile(expression string) (*vm.Program, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, &CompilationError{Expression: expression, Err: fmt.Errorf("empty rule expression")}
	}
	if program, ok := r.cache.Get(expression); ok {
		return program, nil
	}

	program, err := expr.Compile(expression,
		expr.Env(compileEnv),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, &CompilationError{Expression: expression, Err: err}
	}

	r.cache.Put(expression, program)
	return program, nil
}

// eval runs an expression and returns its raw value
func (r *ruleEngine) eval(expression string, env ruleEnv) (any, error) {
	program, err := r.compile(expression)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env.toMap())
}

// check runs an expression that must yield a boolean
func (r *ruleEngine) check(expression string, env ruleEnv) (bool, error) {
	out, err := r.eval(expression, env)
	if err != nil {
		return false, err
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("rule did not evaluate to a boolean (got %T)", out)
	}
	return ok, nil
}

// approx compares two numbers with a relative tolerance
func approx(a, b any) bool {
	x, okA := toFloat(a)
	y, okB := toFloat(b)
	if !okA || !okB {
		return false
	}
	if x == y {
		return true
	}
	if !finite(x) || !finite(y) {
		return false
	}
	diff := math.Abs(x - y)
	scale := math.Max(math.Abs(x), math.Abs(y))
	return diff <= approxTolerance*math.Max(scale, 1)
}

func finite(v any) bool {
	f, ok := toFloat(v)
	return ok && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

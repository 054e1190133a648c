package formula

import (
	"fmt"
	"strings"
)

// Vars maps variable names to values.
type Vars map[string]float64

// Evaluate walks the AST and returns its value.
func Evaluate(expr Expr, vars Vars) (float64, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil
	case *Field:
		v, ok := vars[e.Name]
		if !ok {
			return 0, fmt.Errorf("field %q not found", e.Name)
		}
		return v, nil
	case *NegExpr:
		v, err := Evaluate(e.Expr, vars)
		return -v, err
	case *NotExpr:
		v, err := Evaluate(e.Expr, vars)
		if err != nil {
			return 0, err
		}
		return boolValue(!truthy(v)), nil
	case *BinaryExpr:
		return evalBinary(e, vars)
	case *Call:
		args := make([]float64, len(e.Args))
		for i, a := range e.Args {
			v, err := Evaluate(a, vars)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return functions[e.Fn](args), nil
	default:
		return 0, fmt.Errorf("unknown expr type %T", expr)
	}
}

func evalBinary(e *BinaryExpr, vars Vars) (float64, error) {
	left, err := Evaluate(e.Left, vars)
	if err != nil {
		return 0, err
	}
	switch e.Op {
	case OpAnd:
		if !truthy(left) {
			return 0, nil // short-circuit
		}
		right, err := Evaluate(e.Right, vars)
		return boolValue(truthy(right)), err
	case OpOr:
		if truthy(left) {
			return 1, nil // short-circuit
		}
		right, err := Evaluate(e.Right, vars)
		return boolValue(truthy(right)), err
	}
	right, err := Evaluate(e.Right, vars)
	if err != nil {
		return 0, err
	}
	return apply(e.Op, left, right)
}

// Formula is a parsed expression bound to a fixed set of variable names.
type Formula struct {
	src  string
	expr Expr
}

// Compile parses src and checks that it only references the allowed
// variables, so unknown names fail at load time rather than mid-run.
func Compile(src string, allowed ...string) (*Formula, error) {
	expr, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("formula %q: %w", src, err)
	}
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	var unknown []string
	for _, f := range Fields(expr) {
		if !ok[f] {
			unknown = append(unknown, f)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("formula %q: unknown variables %s (allowed: %s)",
			src, strings.Join(unknown, ", "), strings.Join(allowed, ", "))
	}
	return &Formula{src: src, expr: expr}, nil
}

// Eval evaluates the formula.
func (f *Formula) Eval(vars Vars) (float64, error) { return Evaluate(f.expr, vars) }

func (f *Formula) String() string { return f.src }

package formula

import (
	"errors"
	"fmt"
	"math"
)

// ErrDivisionByZero is returned when a divisor evaluates to 0.
var ErrDivisionByZero = errors.New("division by zero")

// Operator is a binary operator.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpEq  Operator = "=="
	OpNeq Operator = "!="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

// epsilon is the tolerance of == and !=.
const epsilon = 1e-9

func (op Operator) comparison() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// apply evaluates a non-short-circuit binary operator.
func apply(op Operator, l, r float64) (float64, error) {
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	case OpEq:
		return boolValue(math.Abs(l-r) < epsilon), nil
	case OpNeq:
		return boolValue(math.Abs(l-r) >= epsilon), nil
	case OpGt:
		return boolValue(l > r), nil
	case OpGte:
		return boolValue(l >= r), nil
	case OpLt:
		return boolValue(l < r), nil
	case OpLte:
		return boolValue(l <= r), nil
	}
	return 0, fmt.Errorf("unknown operator: %s", op)
}

var functions = map[string]func(args []float64) float64{
	"min": func(args []float64) float64 {
		m := args[0]
		for _, a := range args[1:] {
			m = math.Min(m, a)
		}
		return m
	},
	"max": func(args []float64) float64 {
		m := args[0]
		for _, a := range args[1:] {
			m = math.Max(m, a)
		}
		return m
	},
	"abs": func(args []float64) float64 { return math.Abs(args[0]) },
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func truthy(v float64) bool { return v != 0 }

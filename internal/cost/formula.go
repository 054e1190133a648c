package cost

import (
	"errors"
	"math"
	"sort"

	"github.com/gyaneshwarpardhi/dssim/internal/formula"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
)

var errEmptyFormula = errors.New("formula model needs an expr")

// Variables a compute formula may reference, besides its params.
var computeVars = []string{"edge.cost", "edge.events", "source.size", "target.size", "pid"}

// Variables a network formula may reference, besides its params.
var networkVars = []string{"size", "source", "target"}

// FormulaCompute evaluates an expression per edge. An expression that fails
// to evaluate or comes out negative yields NaN, which the engine rejects as
// an invalid delay and turns into an interrupt.
type FormulaCompute struct {
	f      *formula.Formula
	params Params
}

// NewFormulaCompute compiles expr. Every param is visible as a variable.
func NewFormulaCompute(expr string, p Params) (*FormulaCompute, error) {
	if expr == "" {
		return nil, errEmptyFormula
	}
	f, err := formula.Compile(expr, withParams(computeVars, p)...)
	if err != nil {
		return nil, err
	}
	return &FormulaCompute{f: f, params: p}, nil
}

func (c *FormulaCompute) Compute(pid int, e *graph.Edge) float64 {
	v := c.vars()
	v["edge.cost"] = e.Cost
	v["edge.events"] = float64(e.Events)
	v["source.size"] = e.Source.Size
	v["target.size"] = e.Target.Size
	v["pid"] = float64(pid)
	return result(c.f.Eval(v))
}

func (c *FormulaCompute) vars() formula.Vars {
	v := make(formula.Vars, len(c.params)+len(computeVars))
	for k, x := range c.params {
		v[k] = x
	}
	return v
}

func (c *FormulaCompute) String() string { return c.f.String() }

// FormulaNetwork evaluates an expression per message, with the same NaN
// convention as FormulaCompute.
type FormulaNetwork struct {
	f      *formula.Formula
	params Params
}

// NewFormulaNetwork compiles expr. Every param is visible as a variable.
func NewFormulaNetwork(expr string, p Params) (*FormulaNetwork, error) {
	if expr == "" {
		return nil, errEmptyFormula
	}
	f, err := formula.Compile(expr, withParams(networkVars, p)...)
	if err != nil {
		return nil, err
	}
	return &FormulaNetwork{f: f, params: p}, nil
}

func (n *FormulaNetwork) Delay(m Message) float64 {
	v := make(formula.Vars, len(n.params)+len(networkVars))
	for k, x := range n.params {
		v[k] = x
	}
	v["size"] = float64(m.Size)
	v["source"] = float64(m.Source)
	v["target"] = float64(m.Target)
	return result(n.f.Eval(v))
}

func (n *FormulaNetwork) String() string { return n.f.String() }

func withParams(base []string, p Params) []string {
	out := append([]string(nil), base...)
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func result(v float64, err error) float64 {
	if err != nil || v < 0 {
		return math.NaN()
	}
	return v
}

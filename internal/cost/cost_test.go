package cost_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/dssim/internal/cost"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
)

func testEdge() *graph.Edge {
	return &graph.Edge{
		Source: graph.NewNode("s", 1),
		Target: graph.NewNode("t", 4),
		Cost:   1.5,
		Events: 2,
	}
}

func TestComputeModels(t *testing.T) {
	e := testEdge()
	cases := []struct {
		name  string
		model cost.ComputeModel
		want  float64
	}{
		{"edge", cost.EdgeCost{Factor: 1}, 1.5},
		{"edge scaled", cost.EdgeCost{Factor: 2}, 3},
		{"node size", cost.NodeSize{Factor: 0.5}, 2},
		{"constant", cost.ConstantCompute{Value: 0.25}, 0.25},
		{"sum", cost.SumCompute(cost.EdgeCost{Factor: 1}, cost.ConstantCompute{Value: 1}), 2.5},
		{"func", cost.ComputeFunc(func(pid int, e *graph.Edge) float64 { return float64(pid) }), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.model.Compute(3, e), 1e-9)
		})
	}
}

func TestNetworkModels(t *testing.T) {
	m := cost.Message{Source: 0, Target: 1, Size: 10}
	cases := []struct {
		name  string
		model cost.NetworkModel
		want  float64
	}{
		{"zero", cost.ZeroNetwork{}, 0},
		{"constant", cost.ConstantNetwork{Latency: 0.3}, 0.3},
		{"linear", cost.LinearNetwork{PerUnit: 0.1}, 1.0},
		{"linear with latency", cost.LinearNetwork{Latency: 0.5, PerUnit: 0.1}, 1.5},
		{"sum", cost.SumNetwork(cost.ConstantNetwork{Latency: 1}, cost.LinearNetwork{PerUnit: 0.1}), 2},
		{"scaled", cost.ScaleNetwork(cost.ConstantNetwork{Latency: 2}, 0.5), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.model.Delay(m), 1e-9)
		})
	}
}

func TestRegistry_BuiltIns(t *testing.T) {
	r := cost.NewRegistry()
	assert.Equal(t, []string{"constant", "edge", "formula", "node_size", "zero"}, r.ComputeNames())
	assert.Equal(t, []string{"constant", "formula", "linear", "zero"}, r.NetworkNames())

	c, err := r.Compute("edge", cost.Config{Params: cost.Params{"factor": 3}})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, c.Compute(0, testEdge()), 1e-9)

	// Missing params fall back to defaults.
	n, err := r.Network("linear", cost.Config{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, n.Delay(cost.Message{Size: 10}), 1e-9)
}

func TestRegistry_Errors(t *testing.T) {
	r := cost.NewRegistry()

	_, err := r.Compute("quantum", cost.Config{})
	assert.True(t, errors.Is(err, cost.ErrUnknownModel), err)
	_, err = r.Network("carrier-pigeon", cost.Config{})
	assert.True(t, errors.Is(err, cost.ErrUnknownModel), err)

	_, err = r.Compute("constant", cost.Config{Params: cost.Params{"value": -1}})
	assert.Error(t, err)
	_, err = r.Network("linear", cost.Config{Params: cost.Params{"per_unit": -0.1}})
	assert.Error(t, err)
	_, err = r.Compute("formula", cost.Config{})
	assert.Error(t, err)

	assert.Panics(t, func() {
		r.RegisterCompute("edge", func(cost.Config) (cost.ComputeModel, error) { return nil, nil })
	})
}

func TestFormulaCompute(t *testing.T) {
	r := cost.NewRegistry()
	c, err := r.Compute("formula", cost.Config{
		Expr:   "edge.cost * factor + (target.size > 3) * edge.events + pid",
		Params: cost.Params{"factor": 2},
	})
	require.NoError(t, err)
	// 1.5*2 + 1*2 + 1
	assert.InDelta(t, 6.0, c.Compute(1, testEdge()), 1e-9)
}

func TestFormulaCompute_UnknownVariable(t *testing.T) {
	_, err := cost.NewFormulaCompute("edge.cost * factor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "factor")
}

func TestFormulaCompute_InvalidValueIsNaN(t *testing.T) {
	neg, err := cost.NewFormulaCompute("0 - edge.cost", nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(neg.Compute(0, testEdge())))

	div, err := cost.NewFormulaCompute("edge.cost / pid", nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(div.Compute(0, testEdge())))
	assert.InDelta(t, 0.75, div.Compute(2, testEdge()), 1e-9)
}

func TestFormulaNetwork(t *testing.T) {
	n, err := cost.NewFormulaNetwork("max(latency, size * 0.1) + (source == target)", cost.Params{"latency": 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, n.Delay(cost.Message{Source: 0, Target: 1, Size: 10}), 1e-9)
	assert.InDelta(t, 1.5, n.Delay(cost.Message{Source: 2, Target: 2, Size: 1}), 1e-9)
	assert.Equal(t, "max(latency, size * 0.1) + (source == target)", n.String())

	_, err = cost.NewFormulaNetwork("edge.cost", nil)
	assert.Error(t, err)
}

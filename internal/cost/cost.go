// Package cost provides the pure functions that turn simulated work into
// virtual time: edge computation cost and network delay.
package cost

import (
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
)

// ComputeModel maps (process, edge) to computation time.
type ComputeModel interface {
	Compute(pid int, e *graph.Edge) float64
}

// Message is the part of a message a network model may look at.
type Message struct {
	Source int
	Target int
	Size   int
}

// NetworkModel maps a message to its one-way delivery delay.
type NetworkModel interface {
	Delay(m Message) float64
}

// ComputeFunc adapts a function to ComputeModel.
type ComputeFunc func(pid int, e *graph.Edge) float64

func (f ComputeFunc) Compute(pid int, e *graph.Edge) float64 { return f(pid, e) }

// NetworkFunc adapts a function to NetworkModel.
type NetworkFunc func(m Message) float64

func (f NetworkFunc) Delay(m Message) float64 { return f(m) }

// EdgeCost charges the edge's own cost, scaled by Factor.
type EdgeCost struct {
	Factor float64
}

func (c EdgeCost) Compute(_ int, e *graph.Edge) float64 { return e.Cost * c.Factor }

// NodeSize charges the target node's size, scaled by Factor.
type NodeSize struct {
	Factor float64
}

func (c NodeSize) Compute(_ int, e *graph.Edge) float64 { return e.Target.Size * c.Factor }

// ConstantCompute charges the same time for every edge.
type ConstantCompute struct {
	Value float64
}

func (c ConstantCompute) Compute(int, *graph.Edge) float64 { return c.Value }

// ZeroNetwork delivers instantly.
type ZeroNetwork struct{}

func (ZeroNetwork) Delay(Message) float64 { return 0 }

// ConstantNetwork delays every message by Latency.
type ConstantNetwork struct {
	Latency float64
}

func (n ConstantNetwork) Delay(Message) float64 { return n.Latency }

// LinearNetwork models a fixed latency plus a per-unit transfer time.
type LinearNetwork struct {
	Latency float64
	PerUnit float64
}

func (n LinearNetwork) Delay(m Message) float64 {
	return n.Latency + float64(m.Size)*n.PerUnit
}

// SumCompute adds the costs of several compute models.
func SumCompute(models ...ComputeModel) ComputeModel {
	return ComputeFunc(func(pid int, e *graph.Edge) float64 {
		var total float64
		for _, m := range models {
			total += m.Compute(pid, e)
		}
		return total
	})
}

// SumNetwork adds the delays of several network models.
func SumNetwork(models ...NetworkModel) NetworkModel {
	return NetworkFunc(func(msg Message) float64 {
		var total float64
		for _, m := range models {
			total += m.Delay(msg)
		}
		return total
	})
}

// ScaleNetwork multiplies the delay of m by factor.
func ScaleNetwork(m NetworkModel, factor float64) NetworkModel {
	return NetworkFunc(func(msg Message) float64 { return m.Delay(msg) * factor })
}

package graph

import "fmt"

// Node is one state of the explored state space.
// It is immutable once the graph is built.
type Node struct {
	ID    string
	Size  float64 // scalar cost metric, used by size-based cost models
	Edges []*Edge // outgoing, in insertion order
}

// NewNode allocates a node without edges.
func NewNode(id string, size float64) *Node {
	return &Node{ID: id, Size: size}
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(%s)", n.ID)
}

// Key identifies an edge for discovery tracking. Different Edge values that
// describe the same transition share a Key.
type Key struct {
	Source string
	Target string
	Label  string
}

func (k Key) String() string {
	if k.Label == "" {
		return k.Source + "->" + k.Target
	}
	return k.Source + "-[" + k.Label + "]->" + k.Target
}

// Edge is a transition between two states.
type Edge struct {
	Source *Node
	Target *Node
	Cost   float64 // base traversal cost
	Events int
	Label  string
	Pids   []int // opaque metadata carried over from the loader
}

// Key returns the discovery identity of the edge.
func (e *Edge) Key() Key {
	return Key{Source: e.Source.ID, Target: e.Target.ID, Label: e.Label}
}

func (e *Edge) String() string {
	return fmt.Sprintf("Edge(%s)", e.Key())
}

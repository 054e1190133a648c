package graph

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownNode is returned when an edge or the root references an id
	// that was never added.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateNode is returned by AddNode for an id that is already present.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrRootUnset is returned by Root before SetRoot succeeded.
	ErrRootUnset = errors.New("graph root is not set")
)

// Graph holds nodes and their outgoing edges.
// It is read-only once built; per-run bookkeeping lives in stats.GraphStats.
type Graph struct {
	nodes map[string]*Node
	root  *Node
	edges int
}

// New allocates an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddNode registers a node by its ID.
func (g *Graph) AddNode(n *Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("add node %q: %w", n.ID, ErrDuplicateNode)
	}
	g.nodes[n.ID] = n
	return nil
}

// AddEdge appends e to its source's outgoing edges. Both endpoints must be
// the graph's own nodes.
func (g *Graph) AddEdge(e *Edge) error {
	if e.Source == nil || g.nodes[e.Source.ID] != e.Source {
		return fmt.Errorf("add edge %s: source: %w", edgeName(e), ErrUnknownNode)
	}
	if e.Target == nil || g.nodes[e.Target.ID] != e.Target {
		return fmt.Errorf("add edge %s: target: %w", edgeName(e), ErrUnknownNode)
	}
	e.Source.Edges = append(e.Source.Edges, e)
	g.edges++
	return nil
}

// Connect adds an edge between two registered ids.
func (g *Graph) Connect(source, target string, cost float64, label string) (*Edge, error) {
	src, ok := g.nodes[source]
	if !ok {
		return nil, fmt.Errorf("connect %s->%s: source %q: %w", source, target, source, ErrUnknownNode)
	}
	dst, ok := g.nodes[target]
	if !ok {
		return nil, fmt.Errorf("connect %s->%s: target %q: %w", source, target, target, ErrUnknownNode)
	}
	e := &Edge{Source: src, Target: dst, Cost: cost, Label: label, Events: 1}
	if err := g.AddEdge(e); err != nil {
		return nil, err
	}
	return e, nil
}

// SetRoot designates the initial state.
func (g *Graph) SetRoot(id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("set root %q: %w", id, ErrUnknownNode)
	}
	g.root = n
	return nil
}

// Root returns the initial state.
func (g *Graph) Root() (*Node, error) {
	if g.root == nil {
		return nil, ErrRootUnset
	}
	return g.root, nil
}

// Node returns a node by ID (nil if not found).
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// NodesCount returns the total number of registered nodes.
func (g *Graph) NodesCount() int {
	return len(g.nodes)
}

// EdgesCount returns the total number of edges.
func (g *Graph) EdgesCount() int {
	return g.edges
}

// Nodes returns all nodes ordered by id.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns every edge, grouped by source in id order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, g.edges)
	for _, n := range g.Nodes() {
		out = append(out, n.Edges...)
	}
	return out
}

func edgeName(e *Edge) string {
	src, dst := "?", "?"
	if e.Source != nil {
		src = e.Source.ID
	}
	if e.Target != nil {
		dst = e.Target.ID
	}
	return src + "->" + dst
}

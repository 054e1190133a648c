// Package stats tracks which simulated processes discovered and completed
// each node and edge during one run.
//
// Every record is an append-only list of process ids. A node discovered by
// two processes in a race keeps both ids, so "discovered by many" stays
// distinguishable from "discovered by one".
package stats

import (
	"sort"

	"github.com/gyaneshwarpardhi/dssim/internal/graph"
)

// GraphStats is the per-run traversal bookkeeping. It is not safe for
// concurrent use; the engine guarantees a single thread of control.
type GraphStats struct {
	nodesCount int
	edgesCount int

	discoveredNodes map[string][]int
	discoveredEdges map[graph.Key][]int
	calculatedEdges map[graph.Key][]int

	discoveredEdgesCount int
	calculatedEdgesCount int

	colors map[int]string
}

// New creates bookkeeping for g. Structural counts are taken from g and
// survive Reset.
func New(g *graph.Graph) *GraphStats {
	s := &GraphStats{
		nodesCount: g.NodesCount(),
		edgesCount: g.EdgesCount(),
	}
	s.Reset()
	return s
}

// Reset clears every discovery and completion record.
func (s *GraphStats) Reset() {
	s.discoveredNodes = make(map[string][]int)
	s.discoveredEdges = make(map[graph.Key][]int)
	s.calculatedEdges = make(map[graph.Key][]int)
	s.discoveredEdgesCount = 0
	s.calculatedEdgesCount = 0
	s.colors = make(map[int]string)
}

// NodesCount is the number of nodes in the graph.
func (s *GraphStats) NodesCount() int { return s.nodesCount }

// EdgesCount is the number of edges in the graph.
func (s *GraphStats) EdgesCount() int { return s.edgesCount }

// DiscoverNode records pid as a discoverer of the node. Callers check
// IsNodeDiscovered first when they want first-discovery semantics.
func (s *GraphStats) DiscoverNode(id string, pid int) {
	s.discoveredNodes[id] = append(s.discoveredNodes[id], pid)
}

// IsNodeDiscovered reports whether any process discovered the node.
func (s *GraphStats) IsNodeDiscovered(id string) bool {
	return len(s.discoveredNodes[id]) > 0
}

// NodeDiscoverers returns the discovering process ids in discovery order,
// or nil for an untouched node.
func (s *GraphStats) NodeDiscoverers(id string) []int {
	return clone(s.discoveredNodes[id])
}

// DiscoveredNodesCount is the number of distinct discovered nodes.
func (s *GraphStats) DiscoveredNodesCount() int { return len(s.discoveredNodes) }

// MultiplyDiscoveredNodes returns the ids of nodes with more than one
// discoverer, sorted.
func (s *GraphStats) MultiplyDiscoveredNodes() []string {
	var out []string
	for id, pids := range s.discoveredNodes {
		if len(pids) > 1 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// DiscoverEdge records pid as a discoverer of e.
func (s *GraphStats) DiscoverEdge(e *graph.Edge, pid int) {
	k := e.Key()
	s.discoveredEdges[k] = append(s.discoveredEdges[k], pid)
	s.discoveredEdgesCount++
}

// CalculateEdge records pid as having finished computing e.
func (s *GraphStats) CalculateEdge(e *graph.Edge, pid int) {
	k := e.Key()
	s.calculatedEdges[k] = append(s.calculatedEdges[k], pid)
	s.calculatedEdgesCount++
}

// IsEdgeDiscovered reports whether any process discovered e.
func (s *GraphStats) IsEdgeDiscovered(e *graph.Edge) bool {
	return len(s.discoveredEdges[e.Key()]) > 0
}

// IsEdgeCalculated reports whether any process finished computing e.
func (s *GraphStats) IsEdgeCalculated(e *graph.Edge) bool {
	return len(s.calculatedEdges[e.Key()]) > 0
}

// IsEdgeDiscoveredBy reports whether pid discovered e.
func (s *GraphStats) IsEdgeDiscoveredBy(e *graph.Edge, pid int) bool {
	return contains(s.discoveredEdges[e.Key()], pid)
}

// IsEdgeCalculatedBy reports whether pid finished computing e.
func (s *GraphStats) IsEdgeCalculatedBy(e *graph.Edge, pid int) bool {
	return contains(s.calculatedEdges[e.Key()], pid)
}

// EdgeDiscoverers returns the ids that discovered the edge with key k, or nil.
func (s *GraphStats) EdgeDiscoverers(k graph.Key) []int {
	return clone(s.discoveredEdges[k])
}

// EdgeCalculators returns the ids that computed the edge with key k, or nil.
func (s *GraphStats) EdgeCalculators(k graph.Key) []int {
	return clone(s.calculatedEdges[k])
}

// DiscoveredEdgesCount counts discovery records, including repeats.
func (s *GraphStats) DiscoveredEdgesCount() int { return s.discoveredEdgesCount }

// CalculatedEdgesCount counts completion records, including repeats.
func (s *GraphStats) CalculatedEdgesCount() int { return s.calculatedEdgesCount }

// Snapshot is a deep copy of the bookkeeping, suitable for comparison and
// JSON encoding.
type Snapshot struct {
	NodesCount      int              `json:"nodes_count"`
	EdgesCount      int              `json:"edges_count"`
	DiscoveredNodes map[string][]int `json:"discovered_nodes"`
	DiscoveredEdges map[string][]int `json:"discovered_edges"`
	CalculatedEdges map[string][]int `json:"calculated_edges"`
}

// Snapshot copies the current records. Edge keys are rendered with Key.String.
func (s *GraphStats) Snapshot() Snapshot {
	snap := Snapshot{
		NodesCount:      s.nodesCount,
		EdgesCount:      s.edgesCount,
		DiscoveredNodes: make(map[string][]int, len(s.discoveredNodes)),
		DiscoveredEdges: make(map[string][]int, len(s.discoveredEdges)),
		CalculatedEdges: make(map[string][]int, len(s.calculatedEdges)),
	}
	for id, pids := range s.discoveredNodes {
		snap.DiscoveredNodes[id] = clone(pids)
	}
	for k, pids := range s.discoveredEdges {
		snap.DiscoveredEdges[k.String()] = clone(pids)
	}
	for k, pids := range s.calculatedEdges {
		snap.CalculatedEdges[k.String()] = clone(pids)
	}
	return snap
}

func clone(pids []int) []int {
	if pids == nil {
		return nil
	}
	out := make([]int, len(pids))
	copy(out, pids)
	return out
}

func contains(pids []int, pid int) bool {
	for _, p := range pids {
		if p == pid {
			return true
		}
	}
	return false
}

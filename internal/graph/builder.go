package graph

import (
	"fmt"

	"github.com/gyaneshwarpardhi/dssim/internal/config"
)

// Build constructs a Graph from a scenario's graph section.
// Every reference is resolved here; a run never sees a dangling edge.
func Build(cfg config.GraphConf) (*Graph, error) {
	g := New()
	for _, nc := range cfg.Nodes {
		if err := g.AddNode(NewNode(nc.ID, nc.Size)); err != nil {
			return nil, err
		}
	}
	for i, ec := range cfg.Edges {
		src, dst := g.Node(ec.Source), g.Node(ec.Target)
		if src == nil {
			return nil, fmt.Errorf("edges[%d]: source %q: %w", i, ec.Source, ErrUnknownNode)
		}
		if dst == nil {
			return nil, fmt.Errorf("edges[%d]: target %q: %w", i, ec.Target, ErrUnknownNode)
		}
		events := ec.Events
		if events == 0 {
			events = 1
		}
		e := &Edge{
			Source: src,
			Target: dst,
			Cost:   ec.Cost,
			Events: events,
			Label:  ec.Label,
			Pids:   ec.Pids,
		}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	if cfg.Root == "" {
		return nil, ErrRootUnset
	}
	if err := g.SetRoot(cfg.Root); err != nil {
		return nil, err
	}
	return g, nil
}

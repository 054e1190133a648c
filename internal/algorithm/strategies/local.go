package strategies

import (
	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/process"
)

// Local is the sequential baseline: process 0 explores the whole graph
// breadth-first or depth-first and every other process stays idle.
type Local struct{}

func localDescriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		Name:        "local",
		Description: "single-process BFS/DFS baseline",
		Params: map[string]algorithm.Param{
			"order": {
				Type:    algorithm.StringParam,
				Default: "bfs",
				Help:    "bfs explores with a queue, dfs with a stack",
				Choices: []string{"bfs", "dfs"},
			},
		},
		New: func(int, *process.Context) process.Strategy { return Local{} },
	}
}

func (Local) Init(p *process.Process) error {
	if p.Context().Args.String("order") == "dfs" {
		if err := p.UseStorage(process.StackStorage); err != nil {
			return err
		}
	}
	return seedRoot(p)
}

func (Local) Run(p *process.Process) error {
	if p.ID() != 0 {
		return nil
	}
	for {
		n, ok := p.Storage().Get()
		if !ok {
			return nil
		}
		err := expand(p, n, func(t *graph.Node) error {
			if p.Claim(t) {
				p.Storage().Put(t)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
}

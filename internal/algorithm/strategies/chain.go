package strategies

import (
	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/process"
)

// Chain forwards every node it discovers to the next process in id order.
// A single process keeps its own discoveries.
type Chain struct{}

func chainDescriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		Name:        "chain",
		Description: "forward-chain newly discovered nodes to the next process",
		Params: map[string]algorithm.Param{
			"storage": storageParam,
		},
		New: func(int, *process.Context) process.Strategy { return Chain{} },
	}
}

func (Chain) Init(p *process.Process) error {
	if err := useStorage(p); err != nil {
		return err
	}
	return seedRoot(p)
}

func (Chain) Run(p *process.Process) error {
	next := (p.ID() + 1) % p.Context().Size()
	for {
		if err := drain(p, nil); err != nil {
			return err
		}
		n, ok := p.Storage().Get()
		if !ok {
			if err := p.WaitForWork(); err != nil {
				return err
			}
			continue
		}
		err := expand(p, n, func(t *graph.Node) error {
			if !p.Claim(t) {
				return nil
			}
			if next == p.ID() {
				p.Storage().Put(t)
				return nil
			}
			return p.AsyncSend(t, next, tagWork, 1)
		})
		if err != nil {
			return err
		}
	}
}

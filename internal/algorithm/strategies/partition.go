package strategies

import (
	"math/rand/v2"

	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/process"
)

// Partition assigns every newly reached node to a randomly chosen process.
// The owner claims the node when it arrives, so a node reached from two
// places is still discovered once.
type Partition struct {
	rng *rand.Rand
}

func partitionDescriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		Name:        "partition",
		Description: "partition nodes by random peer selection",
		Params: map[string]algorithm.Param{
			"seed":    {Type: algorithm.IntParam, Default: 0, Help: "random seed; each process derives its own stream"},
			"storage": storageParam,
		},
		New: func(int, *process.Context) process.Strategy { return &Partition{} },
	}
}

func (s *Partition) Init(p *process.Process) error {
	seed := uint64(p.Context().Args.Int("seed"))
	s.rng = rand.New(rand.NewPCG(seed, uint64(p.ID())))
	if err := useStorage(p); err != nil {
		return err
	}
	return seedRoot(p)
}

func (s *Partition) Run(p *process.Process) error {
	for {
		if err := drain(p, p.Claim); err != nil {
			return err
		}
		n, ok := p.Storage().Get()
		if !ok {
			if err := p.WaitForWork(); err != nil {
				return err
			}
			continue
		}
		if err := expand(p, n, func(t *graph.Node) error { return s.route(p, t) }); err != nil {
			return err
		}
	}
}

func (s *Partition) route(p *process.Process, t *graph.Node) error {
	if p.Context().Stats.IsNodeDiscovered(t.ID) {
		return nil
	}
	owner := s.rng.IntN(p.Context().Size())
	if owner == p.ID() {
		if p.Claim(t) {
			p.Storage().Put(t)
		}
		return nil
	}
	return p.AsyncSend(t, owner, tagWork, 1)
}

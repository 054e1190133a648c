package strategies

import (
	"fmt"

	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/comm"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/process"
)

// Master runs process 0 as a dispatcher that owns the frontier and hands
// one node at a time to idle workers over rendezvous sends. Workers solve
// the node's edges and send the reached targets back. With a single
// process the master expands nodes itself.
type Master struct {
	id int
}

func masterDescriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		Name:        "master",
		Description: "master/worker with blocking send/receive",
		Params: map[string]algorithm.Param{
			"storage": storageParam,
		},
		New: func(id int, _ *process.Context) process.Strategy { return &Master{id: id} },
	}
}

func (s *Master) Init(p *process.Process) error {
	if err := useStorage(p); err != nil {
		return err
	}
	return seedRoot(p)
}

func (s *Master) Run(p *process.Process) error {
	if s.id == 0 {
		return s.dispatch(p)
	}
	return s.work(p)
}

func (s *Master) dispatch(p *process.Process) error {
	workers := p.Context().Peers(0)
	if len(workers) == 0 {
		for {
			n, ok := p.Storage().Get()
			if !ok {
				return nil
			}
			if err := expand(p, n, func(t *graph.Node) error {
				if p.Claim(t) {
					p.Storage().Put(t)
				}
				return nil
			}); err != nil {
				return err
			}
		}
	}

	idle := append([]int(nil), workers...)
	busy := 0
	for {
		for len(idle) > 0 && p.Storage().Size() > 0 {
			n, _ := p.Storage().Get()
			w := idle[0]
			idle = idle[1:]
			if err := p.Send(n, w, tagWork, 1); err != nil {
				return err
			}
			busy++
		}
		if busy == 0 {
			break
		}
		msg, err := p.Receive(comm.WithTag(tagResult))
		if err != nil {
			return err
		}
		busy--
		idle = append(idle, msg.Source)
		targets, ok := msg.Data.([]*graph.Node)
		if !ok {
			return fmt.Errorf("result from %d: expected nodes, got %T", msg.Source, msg.Data)
		}
		for _, t := range targets {
			if p.Claim(t) {
				p.Storage().Put(t)
			}
		}
	}

	for _, w := range workers {
		if err := p.Send(nil, w, tagStop, 0); err != nil {
			return err
		}
	}
	return nil
}

func (s *Master) work(p *process.Process) error {
	for {
		msg, err := p.Receive(comm.FromSource(0))
		if err != nil {
			return err
		}
		if msg.Tag == tagStop {
			return nil
		}
		n, err := nodeOf(msg)
		if err != nil {
			return err
		}
		var reached []*graph.Node
		if err := expand(p, n, func(t *graph.Node) error {
			if !p.Context().Stats.IsNodeDiscovered(t.ID) {
				reached = append(reached, t)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := p.Send(reached, 0, tagResult, len(reached)); err != nil {
			return err
		}
	}
}

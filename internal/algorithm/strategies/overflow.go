package strategies

import (
	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/process"
)

// Overflow keeps new nodes locally until the storage holds limit nodes,
// then hands the surplus to an idle peer.
type Overflow struct {
	limit int
}

func overflowDescriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		Name:        "overflow",
		Description: "send overflow work to an idle peer",
		Params: map[string]algorithm.Param{
			"limit":   {Type: algorithm.IntParam, Default: 2, Help: "local storage size above which work is offloaded"},
			"storage": storageParam,
		},
		New: func(int, *process.Context) process.Strategy { return &Overflow{} },
	}
}

func (s *Overflow) Init(p *process.Process) error {
	s.limit = p.Context().Args.Int("limit")
	if err := useStorage(p); err != nil {
		return err
	}
	return seedRoot(p)
}

func (s *Overflow) Run(p *process.Process) error {
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
		if err := expand(p, n, func(t *graph.Node) error { return s.visit(p, t) }); err != nil {
			return err
		}
	}
}

func (s *Overflow) visit(p *process.Process, t *graph.Node) error {
	if !p.Claim(t) {
		return nil
	}
	if p.Storage().Size() >= s.limit {
		if peer, ok := idlePeer(p); ok {
			return p.AsyncSend(t, peer, tagWork, 1)
		}
	}
	p.Storage().Put(t)
	return nil
}

// idlePeer returns the lowest-id peer that is blocked with nothing queued.
func idlePeer(p *process.Process) (int, bool) {
	ctx := p.Context()
	for _, id := range ctx.Peers(p.ID()) {
		q := ctx.Processes[id]
		if q.Suspended() && q.Storage().Size() == 0 && q.MessageCount() == 0 {
			return id, true
		}
	}
	return 0, false
}

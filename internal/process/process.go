// Package process defines the simulated worker: a traversal strategy
// running as an engine coroutine, with a private work container, a private
// clock and a communicator.
package process

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/dssim/internal/comm"
	"github.com/gyaneshwarpardhi/dssim/internal/engine"
	"github.com/gyaneshwarpardhi/dssim/internal/event"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
)

// ErrNotStarted is returned when a process suspends before Start bound it
// to a coroutine, e.g. from Strategy.Init.
var ErrNotStarted = errors.New("process has not started")

// Strategy is a traversal algorithm. Init runs once, before any process
// starts; Run is the long-lived body and may only suspend through the
// Process methods (Wait, WaitForWork, SolveEdge, Send, AsyncSend, Receive).
//
// Run must call WaitForWork (or another suspension) whenever its storage is
// empty, or the run never advances.
type Strategy interface {
	Init(p *Process) error
	Run(p *Process) error
}

// State is the lifecycle of one process.
type State int

const (
	Created State = iota
	Initialized
	Computing // running, or inside a bounded wait
	Blocked   // inside an unbounded wait or a receive
	Finished
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initialized:
		return "initialized"
	case Computing:
		return "computing"
	case Blocked:
		return "blocked"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Clock is the process-local account of simulated time.
type Clock struct {
	Busy  float64 `json:"busy"`  // total time spent in bounded waits
	Idle  float64 `json:"idle"`  // total time spent blocked
	Steps int     `json:"steps"` // number of bounded waits
}

// Process is one simulated logical worker.
type Process struct {
	id       int
	ctx      *Context
	strategy Strategy
	storage  Storage
	clock    Clock
	comm     *comm.Communicator
	co       *engine.Coroutine
	state    State
	log      *slog.Logger
}

// New creates process id running s. The process starts with a queue storage.
func New(id int, ctx *Context, s Strategy) *Process {
	p := &Process{
		id:       id,
		ctx:      ctx,
		strategy: s,
		state:    Created,
	}
	log := ctx.Log
	if log == nil {
		log = slog.Default()
	}
	p.log = log.With("pid", id)
	p.comm = comm.New(id, ctx.Env, ctx, ctx.Network, ctx.Bus)
	p.storage, _ = newStorage(QueueStorage, p.storageHook)
	return p
}

func (p *Process) ID() int                  { return p.id }
func (p *Process) Context() *Context        { return p.ctx }
func (p *Process) Strategy() Strategy       { return p.strategy }
func (p *Process) Storage() Storage         { return p.storage }
func (p *Process) Clock() Clock             { return p.clock }
func (p *Process) Comm() *comm.Communicator { return p.comm }
func (p *Process) State() State             { return p.state }
func (p *Process) Logger() *slog.Logger     { return p.log }

// Suspended reports whether the process is blocked waiting to be woken.
func (p *Process) Suspended() bool { return p.state == Blocked }

// UseStorage replaces the (empty) storage with one of the given kind.
func (p *Process) UseStorage(kind StorageKind) error {
	if p.storage != nil && p.storage.Size() > 0 {
		return fmt.Errorf("process %d: storage is not empty", p.id)
	}
	s, err := newStorage(kind, p.storageHook)
	if err != nil {
		return err
	}
	p.storage = s
	return nil
}

// Init runs the strategy's initialisation.
func (p *Process) Init() error {
	if err := p.strategy.Init(p); err != nil {
		return fmt.Errorf("init process %d: %w", p.id, err)
	}
	p.state = Initialized
	return nil
}

// Start registers the strategy's Run body with the engine.
func (p *Process) Start() error {
	co, err := p.ctx.Env.Spawn(fmt.Sprintf("process %d", p.id), func(*engine.Coroutine) error {
		p.state = Computing
		return p.strategy.Run(p)
	})
	if err != nil {
		return fmt.Errorf("start process %d: %w", p.id, err)
	}
	p.co = co
	p.comm.Bind(co)
	return nil
}

// Finish marks the process as done. The driver calls it once the run is over.
func (p *Process) Finish() { p.state = Finished }

// Wait suspends the process for d units of time (computing) and charges
// them to its clock.
func (p *Process) Wait(d float64) error {
	if p.co == nil {
		return fmt.Errorf("process %d: wait: %w", p.id, ErrNotStarted)
	}
	p.state = Computing
	p.ctx.publish(event.Event{Kind: event.Sleep, Process: p.id, Value: d})
	if err := p.co.Sleep(d); err != nil {
		return err
	}
	p.clock.Busy += d
	p.clock.Steps++
	return nil
}

// WaitForWork suspends the process until another process calls Notify.
func (p *Process) WaitForWork() error {
	if p.co == nil {
		return fmt.Errorf("process %d: wait for work: %w", p.id, ErrNotStarted)
	}
	p.state = Blocked
	p.ctx.publish(event.Event{Kind: event.Wait, Process: p.id, Value: float64(p.storage.Size())})
	since := p.ctx.Env.Now()
	err := p.co.Park()
	p.clock.Idle += p.ctx.Env.Now() - since
	if err != nil {
		return err
	}
	p.state = Computing
	return nil
}

// Notify wakes the process at the current time if it is blocked. Waking
// consumes no simulated time.
func (p *Process) Notify() {
	if p.co == nil || p.state != Blocked {
		return
	}
	if p.co.Unpark() {
		p.ctx.publish(event.Event{Kind: event.Notify, Process: p.id})
	}
}

// SolveEdge computes e: it records the discovery (once per process),
// suspends for the edge's compute cost and records the completion (once per
// process).
func (p *Process) SolveEdge(e *graph.Edge) error {
	st := p.ctx.Stats
	key := e.Key().String()
	if !st.IsEdgeDiscoveredBy(e, p.id) {
		st.DiscoverEdge(e, p.id)
		p.ctx.publish(event.Event{Kind: event.EdgeDiscovered, Process: p.id, Edge: key, Node: e.Target.ID})
	}
	d := p.ctx.Compute.Compute(p.id, e)
	if err := p.Wait(d); err != nil {
		return fmt.Errorf("solve %s: %w", key, err)
	}
	if !st.IsEdgeCalculatedBy(e, p.id) {
		st.CalculateEdge(e, p.id)
		p.ctx.publish(event.Event{Kind: event.EdgeCalculated, Process: p.id, Edge: key, Node: e.Target.ID, Value: d})
	}
	return nil
}

// DiscoverNode records the process as a discoverer of n.
func (p *Process) DiscoverNode(n *graph.Node) {
	p.ctx.Stats.DiscoverNode(n.ID, p.id)
	p.ctx.publish(event.Event{Kind: event.NodeDiscovered, Process: p.id, Node: n.ID})
}

// Claim discovers n unless some process already did. It reports whether n
// is new.
func (p *Process) Claim(n *graph.Node) bool {
	if p.ctx.Stats.IsNodeDiscovered(n.ID) {
		return false
	}
	p.DiscoverNode(n)
	return true
}

// Send is a rendezvous send; see comm.Communicator.Send.
func (p *Process) Send(data any, target int, tag string, size int) error {
	p.state = Computing
	return p.comm.Send(data, target, tag, size)
}

// AsyncSend is a fire-and-forget send; see comm.Communicator.AsyncSend.
func (p *Process) AsyncSend(data any, target int, tag string, size int) error {
	p.state = Computing
	return p.comm.AsyncSend(data, target, tag, size)
}

// Receive blocks until a matching message arrives.
func (p *Process) Receive(opts ...comm.MatchOption) (*comm.Message, error) {
	p.state = Blocked
	since := p.ctx.Env.Now()
	msg, err := p.comm.Receive(opts...)
	p.clock.Idle += p.ctx.Env.Now() - since
	if err != nil {
		return nil, err
	}
	p.state = Computing
	return msg, nil
}

// ReceiveNow polls the mailbox without suspending.
func (p *Process) ReceiveNow(opts ...comm.MatchOption) (*comm.Message, bool, error) {
	return p.comm.ReceiveNow(opts...)
}

// MessageCount is the number of queued messages, optionally filtered by source.
func (p *Process) MessageCount(sources ...int) int {
	return p.comm.MessageCount(sources...)
}

func (p *Process) storageHook(pushed bool, n *graph.Node, size int) {
	kind := event.StoragePop
	if pushed {
		kind = event.StoragePush
	}
	p.ctx.publish(event.Event{Kind: kind, Process: p.id, Node: n.ID, Value: float64(size)})
	p.ctx.publish(event.Event{Kind: event.StorageChanged, Process: p.id, Value: float64(size)})
}

// Package simulation drives runs: it builds the processes of a setup,
// registers them with a fresh engine, steps or runs the engine and reports
// lifecycle signals.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/engine"
	"github.com/gyaneshwarpardhi/dssim/internal/event"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/monitor"
	"github.com/gyaneshwarpardhi/dssim/internal/process"
	"github.com/gyaneshwarpardhi/dssim/internal/stats"
)

var (
	ErrNotLoaded  = errors.New("no graph loaded")
	ErrRunning    = errors.New("a run is active")
	ErrNotRunning = errors.New("no run is active")
)

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver's logger. The engine and processes log
// through it too.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithRunID overrides run id generation. Tests use it for stable ids.
func WithRunID(fn func() string) Option {
	return func(d *Driver) { d.newID = fn }
}

// Driver owns one simulation at a time. It is not safe for concurrent use.
type Driver struct {
	reg   *algorithm.Registry
	log   *slog.Logger
	newID func() string

	bus     *event.Bus
	monitor *monitor.Monitor
	env     *engine.Env

	graph     *graph.Graph
	stats     *stats.GraphStats
	setup     Setup
	reachable int

	runID    string
	running  bool
	ctx      *process.Context
	procs    []*process.Process
	result   *Result
	handlers map[Signal][]SignalHandler
}

// New creates an idle driver that takes algorithms from reg.
func New(reg *algorithm.Registry, opts ...Option) *Driver {
	d := &Driver{
		reg:      reg,
		log:      slog.Default(),
		newID:    func() string { return uuid.New().String() },
		bus:      event.NewBus(),
		monitor:  monitor.New(),
		handlers: make(map[Signal][]SignalHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.monitor.Attach(d.bus)
	d.env = engine.New(engine.WithLogger(d.log))
	return d
}

// On registers h for sig.
func (d *Driver) On(sig Signal, h SignalHandler) {
	d.handlers[sig] = append(d.handlers[sig], h)
}

// Bus is the monitoring tap hub. Subscriptions survive across runs.
func (d *Driver) Bus() *event.Bus { return d.bus }

// Monitor is the built-in recorder, reset at every Start.
func (d *Driver) Monitor() *monitor.Monitor { return d.monitor }

// Graph is the loaded graph, or nil.
func (d *Driver) Graph() *graph.Graph { return d.graph }

// Stats is the bookkeeping of the current or last run.
func (d *Driver) Stats() *stats.GraphStats { return d.stats }

// Setup is the loaded setup with defaults applied.
func (d *Driver) Setup() Setup { return d.setup }

// Processes of the current or last completed run; empty after Stop.
func (d *Driver) Processes() []*process.Process { return d.procs }

// Result of the last finished run, or nil.
func (d *Driver) Result() *Result { return d.result }

// RunID of the current or last run.
func (d *Driver) RunID() string { return d.runID }

// IsRunning reports whether a run is active.
func (d *Driver) IsRunning() bool { return d.running }

// Now is the virtual time of the current run.
func (d *Driver) Now() float64 { return d.env.Now() }

// EngineState exposes the engine lifecycle.
func (d *Driver) EngineState() engine.State { return d.env.State() }

// Load sets the graph and setup for the next Start. The algorithm must be
// registered and its arguments valid.
func (d *Driver) Load(g *graph.Graph, s Setup) error {
	if d.running {
		return ErrRunning
	}
	if g == nil {
		return ErrNotLoaded
	}
	if _, err := g.Root(); err != nil {
		return err
	}
	s = s.withDefaults()
	if s.Processes < 1 {
		return fmt.Errorf("processes must be >= 1, got %d", s.Processes)
	}
	if _, err := d.reg.Resolve(s.Algorithm, s.Args); err != nil {
		return err
	}
	reach, err := g.Reachable()
	if err != nil {
		return err
	}
	if n := g.NodesCount() - len(reach); n > 0 {
		unreachable, _ := g.Unreachable()
		d.log.Warn("nodes unreachable from root", "count", n, "nodes", unreachable)
	}
	d.reachable = len(reach)
	d.graph = g
	d.setup = s
	d.stats = stats.New(g)
	return nil
}

// Start prepares a fresh run: reset bookkeeping, a new engine at time 0,
// one process per id with Init called in id order, and every Run body
// scheduled at time 0.
func (d *Driver) Start() error {
	if d.running {
		return ErrRunning
	}
	if d.graph == nil {
		return ErrNotLoaded
	}
	args, err := d.reg.Resolve(d.setup.Algorithm, d.setup.Args)
	if err != nil {
		return err
	}
	desc, err := d.reg.Get(d.setup.Algorithm)
	if err != nil {
		return err
	}

	d.runID = d.newID()
	log := d.log.With("run_id", d.runID)
	d.stats.Reset()
	d.monitor.Reset()
	d.result = nil
	d.env = engine.New(engine.WithLogger(log), engine.WithMaxEvents(d.setup.MaxEvents))
	d.env.OnStep(d.tick)

	d.ctx = &process.Context{
		Env:     d.env,
		Graph:   d.graph,
		Stats:   d.stats,
		Compute: d.setup.Compute,
		Network: d.setup.Network,
		Args:    args,
		Bus:     d.bus,
		Log:     log,
	}
	d.procs = make([]*process.Process, d.setup.Processes)
	for id := range d.procs {
		d.procs[id] = process.New(id, d.ctx, desc.New(id, d.ctx))
	}
	d.ctx.Processes = d.procs

	for _, p := range d.procs {
		if err := p.Init(); err != nil {
			d.discard()
			return err
		}
	}
	for _, p := range d.procs {
		if err := p.Start(); err != nil {
			d.discard()
			return err
		}
	}
	if err := d.env.Start(); err != nil {
		d.discard()
		return err
	}
	d.running = true
	log.Info("run started", "algorithm", d.setup.Algorithm, "processes", len(d.procs))
	d.fire(Notice{Signal: SignalStart})
	return nil
}

// DoStep processes one engine event. more is false once the run ended;
// err is the interrupt when it ended in a fault.
func (d *Driver) DoStep() (more bool, err error) {
	if !d.running {
		return false, ErrNotRunning
	}
	err = d.env.Step()
	if err == nil {
		d.fire(Notice{Signal: SignalStep})
		return true, nil
	}
	return false, d.conclude(err)
}

// DoVisibleStep steps until the number of discovered nodes changes or the
// run ends.
func (d *Driver) DoVisibleStep() (more bool, err error) {
	if !d.running {
		return false, ErrNotRunning
	}
	before := d.stats.DiscoveredNodesCount()
	for {
		more, err = d.DoStep()
		if !more || d.stats.DiscoveredNodesCount() != before {
			break
		}
	}
	if more {
		d.fire(Notice{Signal: SignalVisibleStep})
	}
	return more, err
}

// Run starts a run if none is active and steps it to the end. Cancelling
// ctx stops the run; the stop result is returned with engine.ErrStopSimulation.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if !d.running {
		if err := d.Start(); err != nil {
			return nil, err
		}
	}
	for {
		if ctx.Err() != nil {
			d.Stop()
			return d.result, engine.ErrStopSimulation
		}
		more, err := d.DoStep()
		if err != nil {
			return d.result, err
		}
		if !more {
			return d.result, nil
		}
	}
}

// Stop cancels the active run: every pending event fails with
// engine.ErrStopSimulation, the processes are dropped and the clock goes
// back to 0. Without an active run it only returns an ended engine to
// Idle at time 0; no signal fires and the last Result is kept.
func (d *Driver) Stop() {
	if !d.running {
		if d.env.State() != engine.Idle {
			d.discard()
		}
		return
	}
	d.env.CancelAll("stopped by driver")
	res := d.finish(Stopped, "")
	d.discard()
	d.fire(Notice{Signal: SignalStop, Result: res})
}

// conclude maps the error of a final Step to the run outcome.
func (d *Driver) conclude(err error) error {
	switch {
	case errors.Is(err, engine.ErrEmptySchedule):
		res := d.finish(Completed, "")
		d.fire(Notice{Signal: SignalEnd, Result: res})
		return nil
	case errors.Is(err, engine.ErrStopSimulation):
		res := d.finish(Stopped, "")
		d.discard()
		d.fire(Notice{Signal: SignalStop, Result: res})
		return nil
	default:
		res := d.finish(Interrupted, err.Error())
		d.fire(Notice{Signal: SignalInterrupt, Message: err.Error(), Result: res})
		return err
	}
}

func (d *Driver) finish(outcome Outcome, msg string) *Result {
	d.running = false
	for _, p := range d.procs {
		p.Finish()
	}
	d.result = d.summarise(outcome, msg)
	log := d.log.With("run_id", d.runID, "outcome", outcome, "time", d.result.EndTime, "events", d.result.Events)
	if outcome == Interrupted {
		log.Error("run interrupted", "err", msg)
	} else {
		log.Info("run finished")
	}
	return d.result
}

// discard drops the processes and returns the engine to time 0.
func (d *Driver) discard() {
	d.running = false
	d.env.Reset()
	d.procs = nil
	d.ctx = nil
}

func (d *Driver) summarise(outcome Outcome, msg string) *Result {
	taps := d.monitor.Summary()
	byPid := make(map[int]monitor.Counters, len(taps.Processes))
	for _, c := range taps.Processes {
		byPid[c.Process] = c
	}
	r := &Result{
		RunID:              d.runID,
		Algorithm:          d.setup.Algorithm,
		Outcome:            outcome,
		Error:              msg,
		EndTime:            d.env.Now(),
		Events:             d.env.Processed(),
		Nodes:              d.stats.NodesCount(),
		Edges:              d.stats.EdgesCount(),
		Reachable:          d.reachable,
		DiscoveredNodes:    d.stats.DiscoveredNodesCount(),
		DiscoveredEdges:    d.stats.DiscoveredEdgesCount(),
		CalculatedEdges:    d.stats.CalculatedEdgesCount(),
		MultiplyDiscovered: d.stats.MultiplyDiscoveredNodes(),
	}
	for _, p := range d.procs {
		c := byPid[p.ID()]
		c.Process = p.ID()
		r.Processes = append(r.Processes, ProcessSummary{
			ID:       p.ID(),
			State:    p.State().String(),
			Clock:    p.Clock(),
			Sent:     p.Comm().Sent(),
			Received: p.Comm().Received(),
			Queued:   p.MessageCount(),
			Taps:     c,
		})
	}
	return r
}

func (d *Driver) tick(now float64) {
	if d.bus.Active(event.Tick) {
		d.bus.Publish(event.Event{Kind: event.Tick, Time: now, Process: monitor.Global})
	}
}

func (d *Driver) fire(n Notice) {
	n.RunID = d.runID
	if n.Result != nil {
		n.Time = n.Result.EndTime
	} else {
		n.Time = d.env.Now()
	}
	for _, h := range d.handlers[n.Signal] {
		h(n)
	}
}

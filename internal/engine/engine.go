// Package engine is the discrete-event core: a virtual clock, a stable
// priority queue of continuations and cooperatively scheduled coroutines.
//
// Exactly one thread of control runs at any time. Step pops the earliest
// event, moves the clock to its timestamp and runs its continuation; when
// the continuation resumes a coroutine, Step blocks until that coroutine
// suspends again or returns. Coroutines are goroutines, but the hand-off
// protocol makes their interleaving fully deterministic.
package engine

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

var (
	// ErrInvalidDelay is returned by Timeout for negative or non-finite delays.
	ErrInvalidDelay = errors.New("invalid delay")
	// ErrEmptySchedule marks the natural end of a run: nothing is left to do.
	ErrEmptySchedule = errors.New("empty schedule")
	// ErrStopSimulation is delivered to every pending continuation and
	// suspended coroutine when a run is cancelled or has ended.
	ErrStopSimulation = errors.New("simulation stopped")
	// ErrInterrupted matches every *Interrupt via errors.Is.
	ErrInterrupted = errors.New("simulation interrupted")
	// ErrNotRunning is returned by Step before Start.
	ErrNotRunning = errors.New("engine is not running")
	// ErrNotIdle is returned by Start on an engine that already ran.
	ErrNotIdle = errors.New("engine is not idle")
	// ErrEventBudget interrupts a run that exceeded its event budget.
	ErrEventBudget = errors.New("event budget exhausted")
)

// Interrupt is the terminal error of a run that ended because of a fault.
type Interrupt struct {
	Source string // coroutine name, or "engine"
	Err    error
}

func (i *Interrupt) Error() string {
	return fmt.Sprintf("interrupted by %s: %v", i.Source, i.Err)
}

func (i *Interrupt) Unwrap() []error { return []error{ErrInterrupted, i.Err} }

// State is the lifecycle of one run.
type State int

const (
	Idle State = iota
	Running
	Completed
	Stopped
	Interrupted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	case Interrupted:
		return "interrupted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further event can run in this state.
func (s State) Terminal() bool {
	return s == Completed || s == Stopped || s == Interrupted
}

// Option configures an Env.
type Option func(*Env)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(e *Env) { e.log = l }
}

// WithMaxEvents interrupts the run with ErrEventBudget once n events were
// processed. Zero means unlimited.
func WithMaxEvents(n int) Option {
	return func(e *Env) { e.maxEvents = n }
}

// Env is one simulation's clock, event queue and coroutine set.
// It is not safe for concurrent use by multiple goroutines other than
// through the coroutine hand-off.
type Env struct {
	now       float64
	seq       uint64
	queue     eventQueue
	state     State
	processed int
	maxEvents int

	coroutines []*Coroutine // live, in spawn order
	active     *Coroutine   // the coroutine currently holding control
	fault      *Interrupt
	tearing    bool

	onStep []func(now float64)
	log    *slog.Logger
}

// New returns an idle engine with its clock at 0.
func New(opts ...Option) *Env {
	e := &Env{log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now is the current virtual time.
func (e *Env) Now() float64 { return e.now }

// State is the current lifecycle state.
func (e *Env) State() State { return e.state }

// Pending is the number of scheduled events.
func (e *Env) Pending() int { return e.queue.Len() }

// Processed is the number of events run since the last Reset.
func (e *Env) Processed() int { return e.processed }

// Fault returns the interrupt that ended the run, if any.
func (e *Env) Fault() *Interrupt { return e.fault }

// OnStep registers an observer called after every processed event.
// Observers must not schedule events.
func (e *Env) OnStep(fn func(now float64)) {
	e.onStep = append(e.onStep, fn)
}

// Timeout schedules fn to run after delay. fn receives nil when the event
// fires normally and ErrStopSimulation when the run is cancelled first.
func (e *Env) Timeout(delay float64, fn func(error)) (*Event, error) {
	if delay < 0 || math.IsNaN(delay) || math.IsInf(delay, 0) {
		return nil, fmt.Errorf("timeout %v: %w", delay, ErrInvalidDelay)
	}
	if e.state.Terminal() {
		return nil, ErrStopSimulation
	}
	return e.schedule(e.now+delay, fn), nil
}

// Immediate schedules fn at the current time, after everything already
// scheduled for this instant.
func (e *Env) Immediate(fn func(error)) (*Event, error) {
	return e.Timeout(0, fn)
}

func (e *Env) schedule(at float64, fn func(error)) *Event {
	ev := &Event{env: e, at: at, seq: e.seq, fn: fn}
	e.seq++
	heap.Push(&e.queue, ev)
	return ev
}

// Start moves an idle engine to Running.
func (e *Env) Start() error {
	if e.state != Idle {
		return fmt.Errorf("start in state %s: %w", e.state, ErrNotIdle)
	}
	e.state = Running
	e.log.Debug("engine started", "pending", e.queue.Len())
	return nil
}

// Step runs the earliest scheduled event. It returns ErrEmptySchedule once
// nothing is left (and the engine becomes Completed), ErrStopSimulation
// after CancelAll, and an *Interrupt when a continuation failed.
func (e *Env) Step() error {
	switch e.state {
	case Idle:
		return ErrNotRunning
	case Completed:
		return ErrEmptySchedule
	case Stopped:
		return ErrStopSimulation
	case Interrupted:
		return e.fault
	}

	if e.queue.Len() == 0 {
		e.log.Debug("engine completed", "now", e.now, "processed", e.processed)
		e.teardown(Completed)
		return ErrEmptySchedule
	}
	if e.maxEvents > 0 && e.processed >= e.maxEvents {
		e.raise("engine", fmt.Errorf("%d events: %w", e.processed, ErrEventBudget))
		return e.interrupt()
	}

	ev := heap.Pop(&e.queue).(*Event)
	e.now = ev.at
	e.processed++
	e.invoke(ev, nil)

	for _, fn := range e.onStep {
		fn(e.now)
	}

	switch {
	case e.fault != nil:
		return e.interrupt()
	case e.state == Stopped:
		return ErrStopSimulation
	}
	return nil
}

// Run steps until the schedule is empty (returns nil), the run is cancelled
// through CancelAll or ctx (ErrStopSimulation), or a fault interrupts it.
func (e *Env) Run(ctx context.Context) error {
	if e.state == Idle {
		if err := e.Start(); err != nil {
			return err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			e.CancelAll(err.Error())
			return ErrStopSimulation
		}
		err := e.Step()
		switch {
		case err == nil:
			continue
		case errors.Is(err, ErrEmptySchedule):
			return nil
		default:
			return err
		}
	}
}

// CancelAll fails every scheduled continuation with ErrStopSimulation, in
// queue order, then unwinds every suspended coroutine. The engine ends
// Stopped. It is a no-op on a terminal engine.
func (e *Env) CancelAll(reason string) {
	if e.state.Terminal() {
		return
	}
	e.log.Debug("engine cancelled", "reason", reason, "now", e.now, "pending", e.queue.Len())
	e.teardown(Stopped)
}

// Reset cancels whatever is in flight and returns the engine to Idle with
// the clock at 0. Step observers are kept.
func (e *Env) Reset() {
	if !e.state.Terminal() {
		e.teardown(Stopped)
	}
	e.now = 0
	e.seq = 0
	e.queue = nil
	e.processed = 0
	e.coroutines = nil
	e.active = nil
	e.fault = nil
	e.state = Idle
}

func (e *Env) interrupt() error {
	f := e.fault
	e.log.Debug("engine interrupted", "now", e.now, "source", f.Source, "err", f.Err)
	e.teardown(Interrupted)
	return f
}

// raise records the first fault of the run. Faults raised while tearing
// down are dropped; the run already has its outcome.
func (e *Env) raise(source string, err error) {
	if e.tearing || e.fault != nil {
		return
	}
	e.fault = &Interrupt{Source: source, Err: err}
}

func (e *Env) invoke(ev *Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.raise("engine", fmt.Errorf("panic in continuation: %v", r))
		}
	}()
	ev.fn(err)
}

// teardown moves the engine to a terminal state and unwinds everything
// still in flight with ErrStopSimulation.
func (e *Env) teardown(final State) {
	e.state = final
	e.tearing = true
	defer func() { e.tearing = false }()

	for e.queue.Len() > 0 {
		ev := heap.Pop(&e.queue).(*Event)
		e.invoke(ev, ErrStopSimulation)
	}
	live := make([]*Coroutine, len(e.coroutines))
	copy(live, e.coroutines)
	for _, co := range live {
		if co == e.active {
			continue // it will observe the terminal state on its next suspension
		}
		co.kill()
	}
}

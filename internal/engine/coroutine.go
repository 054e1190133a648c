package engine

import (
	"errors"
	"fmt"
)

// Coroutine is a cooperatively scheduled body of code. It runs on its own
// goroutine, but only while the engine has handed control to it; every
// suspension hands control back.
//
// Sleep and Park may only be called from the coroutine's own body.
type Coroutine struct {
	env  *Env
	name string
	fn   func(*Coroutine) error

	resume chan error
	yield  chan struct{}

	started bool
	done    bool
	parked  bool
	wake    *Event // pending wake-up of a parked coroutine
	err     error
}

// Spawn creates a coroutine that starts running fn at the current virtual
// time, after everything already scheduled for this instant.
func (e *Env) Spawn(name string, fn func(*Coroutine) error) (*Coroutine, error) {
	if e.state.Terminal() {
		return nil, ErrStopSimulation
	}
	c := &Coroutine{
		env:    e,
		name:   name,
		fn:     fn,
		resume: make(chan error),
		yield:  make(chan struct{}),
	}
	e.coroutines = append(e.coroutines, c)
	e.schedule(e.now, c.start)
	return c, nil
}

// Name identifies the coroutine in interrupts and logs.
func (c *Coroutine) Name() string { return c.name }

// Env returns the engine driving the coroutine.
func (c *Coroutine) Env() *Env { return c.env }

// Done reports whether the body returned.
func (c *Coroutine) Done() bool { return c.done }

// Err is the body's return value once Done.
func (c *Coroutine) Err() error { return c.err }

// Parked reports whether the coroutine is suspended without a deadline.
func (c *Coroutine) Parked() bool { return c.parked }

// Sleep suspends the coroutine for d units of virtual time.
func (c *Coroutine) Sleep(d float64) error {
	if _, err := c.env.Timeout(d, c.transfer); err != nil {
		return err
	}
	return c.suspend()
}

// Park suspends the coroutine until Unpark is called or the run ends.
func (c *Coroutine) Park() error {
	if c.env.state.Terminal() {
		return ErrStopSimulation
	}
	c.parked = true
	err := c.suspend()
	c.parked = false
	return err
}

// Unpark schedules a parked coroutine to resume at the current time. It
// returns false, and does nothing, when the coroutine is not parked or a
// wake-up is already pending.
func (c *Coroutine) Unpark() bool {
	if !c.parked || c.wake != nil || c.env.state.Terminal() {
		return false
	}
	c.wake = c.env.schedule(c.env.now, func(err error) {
		c.wake = nil
		c.transfer(err)
	})
	return true
}

func (c *Coroutine) start(err error) {
	if c.started {
		return
	}
	c.started = true
	if err != nil {
		c.done, c.err = true, err
		c.env.forget(c)
		return
	}
	go c.main()
	c.transfer(nil)
}

// main is the coroutine goroutine. It waits for its first resume, runs the
// body and reports completion through the yield channel.
func (c *Coroutine) main() {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		c.err = err
		c.done = true
		c.yield <- struct{}{}
	}()
	if err = <-c.resume; err != nil {
		return
	}
	err = c.fn(c)
}

// transfer hands control to the coroutine and blocks until it yields.
// Only the engine side calls it.
func (c *Coroutine) transfer(err error) {
	if c.done {
		return
	}
	prev := c.env.active
	c.env.active = c
	c.resume <- err
	<-c.yield
	c.env.active = prev
	if c.done {
		c.env.finished(c)
	}
}

// suspend hands control back to the engine and blocks until resumed.
func (c *Coroutine) suspend() error {
	c.yield <- struct{}{}
	return <-c.resume
}

// kill unwinds a coroutine at the end of a run.
func (c *Coroutine) kill() {
	switch {
	case c.done:
	case !c.started:
		c.started = true
		c.done, c.err = true, ErrStopSimulation
		c.env.forget(c)
	default:
		if c.wake != nil {
			c.wake.Cancel()
			c.wake = nil
		}
		c.transfer(ErrStopSimulation)
	}
}

func (e *Env) finished(c *Coroutine) {
	e.forget(c)
	if c.err != nil && !errors.Is(c.err, ErrStopSimulation) {
		e.raise(c.name, c.err)
	}
}

func (e *Env) forget(c *Coroutine) {
	for i, co := range e.coroutines {
		if co == c {
			e.coroutines = append(e.coroutines[:i], e.coroutines[i+1:]...)
			return
		}
	}
}

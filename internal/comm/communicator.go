// Package comm implements message passing between simulated processes:
// rendezvous send/receive through a FIFO mailbox and fire-and-forget async
// sends that wake the target.
package comm

import (
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/dssim/internal/cost"
	"github.com/gyaneshwarpardhi/dssim/internal/engine"
	"github.com/gyaneshwarpardhi/dssim/internal/event"
)

var (
	// ErrInvalidProcessID is returned when a target or source id is out of range.
	ErrInvalidProcessID = errors.New("invalid process id")
	// ErrReceivePending is returned for a second receive while one is outstanding.
	ErrReceivePending = errors.New("receive already pending")
	// ErrUnbound is returned when a communicator is used before its process started.
	ErrUnbound = errors.New("communicator is not bound to a coroutine")
)

// Endpoint is the receiving side of a process.
type Endpoint interface {
	Comm() *Communicator
	// Notify wakes the process if it is blocked waiting for work.
	Notify()
}

// Directory resolves process ids for a run.
type Directory interface {
	Endpoint(id int) (Endpoint, bool)
	Size() int
}

// Communicator is one process's message-passing state.
type Communicator struct {
	id  int
	env *engine.Env
	dir Directory
	net cost.NetworkModel
	bus *event.Bus

	co      *engine.Coroutine
	mailbox Mailbox
	pending *Match

	seq      uint64
	sent     int
	received int
}

// New creates the communicator of process id.
func New(id int, env *engine.Env, dir Directory, net cost.NetworkModel, bus *event.Bus) *Communicator {
	if net == nil {
		net = cost.ZeroNetwork{}
	}
	return &Communicator{id: id, env: env, dir: dir, net: net, bus: bus}
}

// Bind attaches the coroutine that sends and receives on behalf of the process.
func (c *Communicator) Bind(co *engine.Coroutine) { c.co = co }

// ID is the owning process id.
func (c *Communicator) ID() int { return c.id }

// Mailbox exposes the queued, unconsumed messages.
func (c *Communicator) Mailbox() *Mailbox { return &c.mailbox }

// Sent counts messages this process handed to the network.
func (c *Communicator) Sent() int { return c.sent }

// Received counts messages this process consumed.
func (c *Communicator) Received() int { return c.received }

// Receiving reports whether a blocking receive is outstanding.
func (c *Communicator) Receiving() bool { return c.pending != nil }

// AsyncSend hands data to the network. The sender is suspended for the
// network delay; when it expires the message lands in the target's mailbox
// and the target is notified. There is no acknowledgement.
func (c *Communicator) AsyncSend(data any, target int, tag string, size int) error {
	return c.transmit(data, target, tag, size, true)
}

// Send is the rendezvous variant: the sender is suspended for the network
// delay and released once the message is deposited in the target's
// mailbox, which resolves a matching pending Receive there.
func (c *Communicator) Send(data any, target int, tag string, size int) error {
	return c.transmit(data, target, tag, size, false)
}

func (c *Communicator) transmit(data any, target int, tag string, size int, async bool) error {
	if c.co == nil {
		return ErrUnbound
	}
	dst, err := c.lookup(target)
	if err != nil {
		return err
	}
	c.seq++
	msg := &Message{
		Seq:    c.seq,
		Source: c.id,
		Target: target,
		Tag:    tag,
		Size:   size,
		Data:   data,
		SentAt: c.env.Now(),
		Async:  async,
	}
	delay := c.net.Delay(cost.Message{Source: c.id, Target: target, Size: size})

	kind := event.Send
	if async {
		kind = event.AsyncSend
	}
	c.publish(kind, c.id, target, float64(size))
	c.sent++

	if err := c.co.Sleep(delay); err != nil {
		return fmt.Errorf("send to %d: %w", target, err)
	}

	msg.DeliveredAt = c.env.Now()
	dst.Comm().deliver(msg)
	if async {
		dst.Notify()
	}
	return nil
}

func (c *Communicator) deliver(msg *Message) {
	c.mailbox.Put(msg)
	kind := event.Receive
	if msg.Async {
		kind = event.AsyncReceive
	}
	c.publish(kind, c.id, msg.Source, float64(msg.Size))
	if c.pending != nil && c.pending.Matches(msg) && c.co != nil {
		c.co.Unpark()
	}
}

// Receive suspends until a message satisfying the options is in the
// mailbox and returns the oldest one.
func (c *Communicator) Receive(opts ...MatchOption) (*Message, error) {
	if c.co == nil {
		return nil, ErrUnbound
	}
	m, err := c.match(opts)
	if err != nil {
		return nil, err
	}
	if c.pending != nil {
		return nil, ErrReceivePending
	}
	for {
		if msg, ok := c.mailbox.Take(m); ok {
			c.received++
			return msg, nil
		}
		c.pending = &m
		err := c.co.Park()
		c.pending = nil
		if err != nil {
			return nil, err
		}
	}
}

// ReceiveNow returns the oldest matching message without suspending. ok is
// false when none is queued.
func (c *Communicator) ReceiveNow(opts ...MatchOption) (msg *Message, ok bool, err error) {
	m, err := c.match(opts)
	if err != nil {
		return nil, false, err
	}
	msg, ok = c.mailbox.Take(m)
	if ok {
		c.received++
	}
	return msg, ok, nil
}

// MessageCount is the number of queued messages, optionally only those
// from the given sources.
func (c *Communicator) MessageCount(sources ...int) int {
	return c.mailbox.Count(sources...)
}

func (c *Communicator) match(opts []MatchOption) (Match, error) {
	m := NewMatch(opts...)
	if m.hasSource {
		if _, err := c.lookup(m.source); err != nil {
			return m, err
		}
	}
	return m, nil
}

func (c *Communicator) lookup(id int) (Endpoint, error) {
	if id < 0 || id >= c.dir.Size() {
		return nil, fmt.Errorf("process %d of %d: %w", id, c.dir.Size(), ErrInvalidProcessID)
	}
	ep, ok := c.dir.Endpoint(id)
	if !ok {
		return nil, fmt.Errorf("process %d: %w", id, ErrInvalidProcessID)
	}
	return ep, nil
}

func (c *Communicator) publish(kind event.Kind, pid, peer int, size float64) {
	if !c.bus.Active(kind) {
		return
	}
	c.bus.Publish(event.Event{Kind: kind, Time: c.env.Now(), Process: pid, Peer: peer, Value: size})
}

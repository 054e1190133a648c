package comm_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/dssim/internal/comm"
	"github.com/gyaneshwarpardhi/dssim/internal/cost"
	"github.com/gyaneshwarpardhi/dssim/internal/engine"
	"github.com/gyaneshwarpardhi/dssim/internal/event"
)

type peer struct {
	c        *comm.Communicator
	notified int
}

func (p *peer) Comm() *comm.Communicator { return p.c }
func (p *peer) Notify()                  { p.notified++ }

type directory []*peer

func (d directory) Endpoint(id int) (comm.Endpoint, bool) {
	if id < 0 || id >= len(d) {
		return nil, false
	}
	return d[id], true
}

func (d directory) Size() int { return len(d) }

type cluster struct {
	env   *engine.Env
	bus   *event.Bus
	peers directory
}

func newCluster(n int, net cost.NetworkModel) *cluster {
	cl := &cluster{env: engine.New(), bus: event.NewBus(), peers: make(directory, n)}
	for i := range cl.peers {
		cl.peers[i] = &peer{}
	}
	for i, p := range cl.peers {
		p.c = comm.New(i, cl.env, cl.peers, net, cl.bus)
	}
	return cl
}

func (cl *cluster) spawn(t *testing.T, id int, body func(c *comm.Communicator) error) {
	t.Helper()
	c := cl.peers[id].c
	co, err := cl.env.Spawn("p", func(*engine.Coroutine) error { return body(c) })
	require.NoError(t, err)
	c.Bind(co)
}

func TestMailbox_FIFOAndMatch(t *testing.T) {
	var b comm.Mailbox
	b.Put(&comm.Message{Seq: 1, Source: 0, Tag: "work"})
	b.Put(&comm.Message{Seq: 2, Source: 1, Tag: "stop"})
	b.Put(&comm.Message{Seq: 3, Source: 0, Tag: "stop"})

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 2, b.Count(0))
	assert.Equal(t, 3, b.Count(0, 1))
	assert.Equal(t, 3, b.Count())

	msg, ok := b.Peek(comm.NewMatch(comm.WithTag("stop")))
	require.True(t, ok)
	assert.Equal(t, uint64(2), msg.Seq)
	assert.Equal(t, 3, b.Len())

	msg, ok = b.Take(comm.NewMatch(comm.FromSource(0), comm.WithTag("stop")))
	require.True(t, ok)
	assert.Equal(t, uint64(3), msg.Seq)

	_, ok = b.Take(comm.NewMatch(comm.FromSource(2)))
	assert.False(t, ok)

	msg, _ = b.Take(comm.NewMatch())
	assert.Equal(t, uint64(1), msg.Seq)
	msg, _ = b.Take(comm.NewMatch())
	assert.Equal(t, uint64(2), msg.Seq)
	assert.Zero(t, b.Len())
}

func TestMatch_Source(t *testing.T) {
	assert.Equal(t, comm.AnySource, comm.NewMatch().Source())
	assert.Equal(t, 3, comm.NewMatch(comm.FromSource(3)).Source())
}

func TestSend_Rendezvous(t *testing.T) {
	cl := newCluster(2, cost.ConstantNetwork{Latency: 2})
	var released []float64
	var got []*comm.Message
	var receivedAt []float64

	cl.spawn(t, 0, func(c *comm.Communicator) error {
		for _, word := range []string{"hello", "world"} {
			if err := c.Send(word, 1, "greeting", 1); err != nil {
				return err
			}
			released = append(released, cl.env.Now())
		}
		return nil
	})
	cl.spawn(t, 1, func(c *comm.Communicator) error {
		for i := 0; i < 2; i++ {
			msg, err := c.Receive(comm.WithTag("greeting"))
			if err != nil {
				return err
			}
			got = append(got, msg)
			receivedAt = append(receivedAt, cl.env.Now())
		}
		return nil
	})

	require.NoError(t, cl.env.Run(context.Background()))

	assert.Equal(t, []float64{2, 4}, released)
	assert.Equal(t, []float64{2, 4}, receivedAt)
	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[0].Data)
	assert.Equal(t, "world", got[1].Data)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, uint64(2), got[1].Seq)
	assert.Equal(t, 0.0, got[0].SentAt)
	assert.Equal(t, 2.0, got[0].DeliveredAt)
	assert.False(t, got[0].Async)

	assert.Equal(t, 2, cl.peers[0].c.Sent())
	assert.Equal(t, 2, cl.peers[1].c.Received())
	assert.Zero(t, cl.peers[1].notified, "rendezvous sends do not notify")
}

func TestAsyncSend_DeliversAfterNetworkDelay(t *testing.T) {
	cl := newCluster(2, cost.LinearNetwork{PerUnit: 0.1})
	var taps []event.Event
	cl.bus.Subscribe(func(ev event.Event) { taps = append(taps, ev) }, event.AsyncSend, event.AsyncReceive)

	cl.spawn(t, 0, func(c *comm.Communicator) error {
		return c.AsyncSend("node", 1, "work", 10)
	})
	require.NoError(t, cl.env.Run(context.Background()))

	assert.InDelta(t, 1.0, cl.env.Now(), 1e-9)
	assert.Equal(t, 1, cl.peers[1].notified)
	assert.Equal(t, 1, cl.peers[1].c.MessageCount())

	msg, ok, err := cl.peers[1].c.ReceiveNow(comm.WithTag("work"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, msg.Async)
	assert.InDelta(t, 1.0, msg.DeliveredAt, 1e-9)

	want := []event.Event{
		{Kind: event.AsyncSend, Time: 0, Process: 0, Peer: 1, Value: 10},
		{Kind: event.AsyncReceive, Time: msg.DeliveredAt, Process: 1, Peer: 0, Value: 10},
	}
	if diff := cmp.Diff(want, taps); diff != "" {
		t.Errorf("taps mismatch (-want +got):\n%s", diff)
	}
}

func TestReceive_FromSourceLeavesOthersQueued(t *testing.T) {
	cl := newCluster(3, nil)
	var got *comm.Message

	cl.spawn(t, 0, func(c *comm.Communicator) error {
		return c.AsyncSend("early", 1, "", 1)
	})
	cl.spawn(t, 1, func(c *comm.Communicator) error {
		msg, err := c.Receive(comm.FromSource(2))
		got = msg
		return err
	})
	c2 := cl.peers[2].c
	co, err := cl.env.Spawn("p2", func(co *engine.Coroutine) error {
		if err := co.Sleep(1); err != nil {
			return err
		}
		return c2.Send("late", 1, "", 1)
	})
	require.NoError(t, err)
	c2.Bind(co)
	require.NoError(t, cl.env.Run(context.Background()))

	require.NotNil(t, got)
	assert.Equal(t, "late", got.Data)
	c1 := cl.peers[1].c
	assert.Equal(t, 1, c1.MessageCount())
	assert.Equal(t, 1, c1.MessageCount(0))
	assert.Zero(t, c1.MessageCount(2))

	_, ok, err := c1.ReceiveNow(comm.WithTag("none"))
	require.NoError(t, err)
	assert.False(t, ok)
	msg, ok, err := c1.ReceiveNow()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "early", msg.Data)
}

func TestErrors(t *testing.T) {
	cl := newCluster(2, nil)
	unbound := cl.peers[1].c
	assert.ErrorIs(t, unbound.Send(1, 0, "", 1), comm.ErrUnbound)
	_, err := unbound.Receive()
	assert.ErrorIs(t, err, comm.ErrUnbound)

	var sendErr, recvErr error
	cl.spawn(t, 0, func(c *comm.Communicator) error {
		sendErr = c.AsyncSend(nil, 5, "", 1)
		_, recvErr = c.Receive(comm.FromSource(-3))
		return nil
	})
	require.NoError(t, cl.env.Run(context.Background()))
	assert.ErrorIs(t, sendErr, comm.ErrInvalidProcessID)
	assert.ErrorIs(t, recvErr, comm.ErrInvalidProcessID)
	assert.Zero(t, cl.peers[0].c.Sent())
}

func TestReceive_CancelledRun(t *testing.T) {
	cl := newCluster(1, nil)
	var recvErr error
	cl.spawn(t, 0, func(c *comm.Communicator) error {
		_, recvErr = c.Receive()
		return recvErr
	})
	require.NoError(t, cl.env.Start())
	require.NoError(t, cl.env.Step())
	assert.True(t, cl.peers[0].c.Receiving())

	cl.env.CancelAll("test")
	assert.ErrorIs(t, recvErr, engine.ErrStopSimulation)
	assert.False(t, cl.peers[0].c.Receiving())
}

package engine

import "container/heap"

// Event is a scheduled continuation. The handle returned by Timeout can
// cancel it before it fires.
type Event struct {
	env   *Env
	at    float64
	seq   uint64
	index int // position in the heap; -1 once popped or cancelled
	fn    func(error)
}

// Time is the virtual time the event is scheduled for.
func (ev *Event) Time() float64 { return ev.at }

// Pending reports whether the event is still waiting in the queue.
func (ev *Event) Pending() bool { return ev.index >= 0 }

// Cancel removes the event from the queue without running it.
// It returns false when the event already fired or was cancelled.
func (ev *Event) Cancel() bool {
	if ev.index < 0 {
		return false
	}
	heap.Remove(&ev.env.queue, ev.index)
	return true
}

// eventQueue is a min-heap ordered by (time, insertion sequence), so events
// scheduled for the same instant fire in the order they were scheduled.
type eventQueue []*Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	ev := x.(*Event)
	ev.index = len(*q)
	*q = append(*q, ev)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old) - 1
	ev := old[n]
	old[n] = nil
	ev.index = -1
	*q = old[:n]
	return ev
}

package process

import (
	"fmt"

	"github.com/gyaneshwarpardhi/dssim/internal/graph"
)

// StorageKind selects the order in which pending nodes are taken.
type StorageKind string

const (
	QueueStorage StorageKind = "queue" // FIFO, breadth-first
	StackStorage StorageKind = "stack" // LIFO, depth-first
)

// Storage is a process's container of pending nodes.
type Storage interface {
	Kind() StorageKind
	Size() int
	Put(n *graph.Node)
	// Get removes the next node; ok is false when empty.
	Get() (n *graph.Node, ok bool)
	Peek() (n *graph.Node, ok bool)
}

// storageHook observes every mutation: push/pop plus the resulting size.
type storageHook func(pushed bool, n *graph.Node, size int)

// NewStorage returns an empty container of the given kind.
func NewStorage(kind StorageKind) (Storage, error) {
	return newStorage(kind, nil)
}

func newStorage(kind StorageKind, hook storageHook) (Storage, error) {
	switch kind {
	case QueueStorage:
		return &queue{hook: hook}, nil
	case StackStorage:
		return &stack{hook: hook}, nil
	}
	return nil, fmt.Errorf("unknown storage kind %q", kind)
}

type queue struct {
	items []*graph.Node
	head  int
	hook  storageHook
}

func (q *queue) Kind() StorageKind { return QueueStorage }
func (q *queue) Size() int         { return len(q.items) - q.head }

func (q *queue) Put(n *graph.Node) {
	q.items = append(q.items, n)
	if q.hook != nil {
		q.hook(true, n, q.Size())
	}
}

func (q *queue) Get() (*graph.Node, bool) {
	if q.Size() == 0 {
		return nil, false
	}
	n := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	// compact once the consumed prefix dominates
	if q.head > 32 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	if q.hook != nil {
		q.hook(false, n, q.Size())
	}
	return n, true
}

func (q *queue) Peek() (*graph.Node, bool) {
	if q.Size() == 0 {
		return nil, false
	}
	return q.items[q.head], true
}

type stack struct {
	items []*graph.Node
	hook  storageHook
}

func (s *stack) Kind() StorageKind { return StackStorage }
func (s *stack) Size() int         { return len(s.items) }

func (s *stack) Put(n *graph.Node) {
	s.items = append(s.items, n)
	if s.hook != nil {
		s.hook(true, n, len(s.items))
	}
}

func (s *stack) Get() (*graph.Node, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	last := len(s.items) - 1
	n := s.items[last]
	s.items[last] = nil
	s.items = s.items[:last]
	if s.hook != nil {
		s.hook(false, n, len(s.items))
	}
	return n, true
}

func (s *stack) Peek() (*graph.Node, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	return s.items[len(s.items)-1], true
}

// Package strategies holds the built-in traversal algorithms.
package strategies

import (
	"fmt"

	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/comm"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/process"
)

// Message tags used by the built-ins.
const (
	tagWork   = "work"
	tagResult = "result"
	tagStop   = "stop"
)

// Register adds every built-in algorithm to reg.
func Register(reg *algorithm.Registry) {
	reg.Register(overflowDescriptor())
	reg.Register(partitionDescriptor())
	reg.Register(chainDescriptor())
	reg.Register(masterDescriptor())
	reg.Register(localDescriptor())
}

// NewRegistry returns a registry holding the built-ins.
func NewRegistry() *algorithm.Registry {
	reg := algorithm.NewRegistry()
	Register(reg)
	return reg
}

var storageParam = algorithm.Param{
	Type:    algorithm.StringParam,
	Default: string(process.QueueStorage),
	Help:    "pending work order",
	Choices: []string{string(process.QueueStorage), string(process.StackStorage)},
}

// seedRoot is the conventional init: process 0 owns the root.
func seedRoot(p *process.Process) error {
	if p.ID() != 0 {
		return nil
	}
	root, err := p.Context().Graph.Root()
	if err != nil {
		return err
	}
	p.DiscoverNode(root)
	p.Storage().Put(root)
	return nil
}

// useStorage applies the "storage" argument.
func useStorage(p *process.Process) error {
	kind := process.StorageKind(p.Context().Args.String("storage"))
	if kind == "" {
		return nil
	}
	return p.UseStorage(kind)
}

// drain moves every queued work message into storage, passing each node
// through accept first. Nodes accept rejects are dropped.
func drain(p *process.Process, accept func(*graph.Node) bool) error {
	for {
		msg, ok, err := p.ReceiveNow(comm.WithTag(tagWork))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		n, err := nodeOf(msg)
		if err != nil {
			return err
		}
		if accept == nil || accept(n) {
			p.Storage().Put(n)
		}
	}
}

func nodeOf(msg *comm.Message) (*graph.Node, error) {
	n, ok := msg.Data.(*graph.Node)
	if !ok {
		return nil, fmt.Errorf("message %d from %d: expected node, got %T", msg.Seq, msg.Source, msg.Data)
	}
	return n, nil
}

// expand solves every outgoing edge of n and hands each target to visit.
func expand(p *process.Process, n *graph.Node, visit func(*graph.Node) error) error {
	for _, e := range n.Edges {
		if err := p.SolveEdge(e); err != nil {
			return err
		}
		if err := visit(e.Target); err != nil {
			return err
		}
	}
	return nil
}

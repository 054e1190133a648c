package process

import (
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/dssim/internal/comm"
	"github.com/gyaneshwarpardhi/dssim/internal/cost"
	"github.com/gyaneshwarpardhi/dssim/internal/engine"
	"github.com/gyaneshwarpardhi/dssim/internal/event"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/stats"
)

// Context is the state shared by every process of one run. It belongs to
// exactly one driver for the duration of the run.
type Context struct {
	Env       *engine.Env
	Graph     *graph.Graph
	Stats     *stats.GraphStats
	Processes []*Process
	Compute   cost.ComputeModel
	Network   cost.NetworkModel
	Args      Args
	Bus       *event.Bus
	Log       *slog.Logger
}

// Endpoint implements comm.Directory.
func (c *Context) Endpoint(id int) (comm.Endpoint, bool) {
	if id < 0 || id >= len(c.Processes) || c.Processes[id] == nil {
		return nil, false
	}
	return c.Processes[id], true
}

// Size implements comm.Directory.
func (c *Context) Size() int { return len(c.Processes) }

// Process returns the process with the given id.
func (c *Context) Process(id int) (*Process, error) {
	if id < 0 || id >= len(c.Processes) {
		return nil, fmt.Errorf("process %d of %d: %w", id, len(c.Processes), comm.ErrInvalidProcessID)
	}
	return c.Processes[id], nil
}

// Peers returns every process id except self, in id order.
func (c *Context) Peers(self int) []int {
	out := make([]int, 0, len(c.Processes))
	for id := range c.Processes {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

func (c *Context) publish(ev event.Event) {
	if !c.Bus.Active(ev.Kind) {
		return
	}
	ev.Time = c.Env.Now()
	c.Bus.Publish(ev)
}

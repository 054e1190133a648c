package simulation

import (
	"github.com/gyaneshwarpardhi/dssim/internal/monitor"
	"github.com/gyaneshwarpardhi/dssim/internal/process"
)

// Outcome is how a run ended.
type Outcome string

const (
	Completed   Outcome = "completed"
	Stopped     Outcome = "stopped"
	Interrupted Outcome = "interrupted"
)

// Result summarises one finished run.
type Result struct {
	RunID     string  `json:"run_id"`
	Algorithm string  `json:"algorithm"`
	Outcome   Outcome `json:"outcome"`
	Error     string  `json:"error,omitempty"`

	EndTime float64 `json:"end_time"`
	Events  int     `json:"events"`

	Nodes              int      `json:"nodes"`
	Edges              int      `json:"edges"`
	Reachable          int      `json:"reachable"` // nodes reachable from the root
	DiscoveredNodes    int      `json:"discovered_nodes"`
	DiscoveredEdges    int      `json:"discovered_edges"`
	CalculatedEdges    int      `json:"calculated_edges"`
	MultiplyDiscovered []string `json:"multiply_discovered,omitempty"`

	Processes []ProcessSummary `json:"processes"`
}

// ProcessSummary is one process's share of a run.
type ProcessSummary struct {
	ID       int              `json:"id"`
	State    string           `json:"state"`
	Clock    process.Clock    `json:"clock"`
	Sent     int              `json:"sent"`
	Received int              `json:"received"`
	Queued   int              `json:"queued"` // unconsumed messages at the end
	Taps     monitor.Counters `json:"taps"`
}

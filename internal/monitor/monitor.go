// Package monitor records monitoring taps into time series and per-process
// counters. It only observes; attaching a monitor never changes a run.
package monitor

import (
	"sort"

	"github.com/gyaneshwarpardhi/dssim/internal/event"
)

// Series names.
const (
	StorageSize     = "storage_size"     // per process, after every push/pop
	Busy            = "busy"             // per process, 1 while computing, 0 while blocked
	DiscoveredNodes = "discovered_nodes" // global, cumulative
	CalculatedEdges = "calculated_edges" // global, cumulative
	MessagesSent    = "messages_sent"    // per process, cumulative
	Mailbox         = "mailbox"          // per process, cumulative deliveries
)

// Global is the process id of run-wide series.
const Global = -1

// Point is one observation.
type Point struct {
	Time  float64 `json:"t"`
	Value float64 `json:"v"`
}

// Series is a named time series, optionally bound to one process.
type Series struct {
	Name    string  `json:"name"`
	Process int     `json:"process"`
	Points  []Point `json:"points"`
}

// Last is the most recent value, or 0 for an empty series.
func (s Series) Last() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Value
}

// Counters aggregates one process's taps.
type Counters struct {
	Process         int     `json:"process"`
	NodesDiscovered int     `json:"nodes_discovered"`
	EdgesDiscovered int     `json:"edges_discovered"`
	EdgesCalculated int     `json:"edges_calculated"`
	Sends           int     `json:"sends"`
	AsyncSends      int     `json:"async_sends"`
	Receives        int     `json:"receives"`
	AsyncReceives   int     `json:"async_receives"`
	Waits           int     `json:"waits"`
	Notifies        int     `json:"notifies"`
	Sleeps          int     `json:"sleeps"`
	Pushes          int     `json:"pushes"`
	Pops            int     `json:"pops"`
	SleepTime       float64 `json:"sleep_time"`
	MaxStorage      int     `json:"max_storage"`
}

// Summary is the aggregated view of a run.
type Summary struct {
	Processes []Counters `json:"processes"`
	Ticks     int        `json:"ticks"`
	LastTime  float64    `json:"last_time"`
}

type seriesKey struct {
	name string
	pid  int
}

// Monitor records taps from one bus at a time.
type Monitor struct {
	series   map[seriesKey]*Series
	counters map[int]*Counters
	ticks    int
	last     float64
	detach   func()
}

// New returns an empty, detached monitor.
func New() *Monitor {
	m := &Monitor{}
	m.Reset()
	return m
}

// Attach subscribes the monitor to every tap on bus, replacing any previous
// attachment. The returned func detaches it.
func (m *Monitor) Attach(bus *event.Bus) (detach func()) {
	m.Detach()
	m.detach = bus.Subscribe(m.Record)
	return m.Detach
}

// Detach stops recording.
func (m *Monitor) Detach() {
	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
}

// Reset drops everything recorded so far.
func (m *Monitor) Reset() {
	m.series = make(map[seriesKey]*Series)
	m.counters = make(map[int]*Counters)
	m.ticks = 0
	m.last = 0
}

// Record consumes one tap.
func (m *Monitor) Record(ev event.Event) {
	m.last = ev.Time
	if ev.Kind == event.Tick {
		m.ticks++
		return
	}
	c := m.counter(ev.Process)
	switch ev.Kind {
	case event.NodeDiscovered:
		c.NodesDiscovered++
		m.increment(DiscoveredNodes, Global, ev.Time)
	case event.EdgeDiscovered:
		c.EdgesDiscovered++
	case event.EdgeCalculated:
		c.EdgesCalculated++
		m.increment(CalculatedEdges, Global, ev.Time)
	case event.Send:
		c.Sends++
		m.increment(MessagesSent, ev.Process, ev.Time)
	case event.AsyncSend:
		c.AsyncSends++
		m.increment(MessagesSent, ev.Process, ev.Time)
	case event.Receive:
		c.Receives++
		m.increment(Mailbox, ev.Process, ev.Time)
	case event.AsyncReceive:
		c.AsyncReceives++
		m.increment(Mailbox, ev.Process, ev.Time)
	case event.Wait:
		c.Waits++
		m.add(Busy, ev.Process, ev.Time, 0)
	case event.Notify:
		c.Notifies++
		m.add(Busy, ev.Process, ev.Time, 1)
	case event.Sleep:
		c.Sleeps++
		c.SleepTime += ev.Value
		m.add(Busy, ev.Process, ev.Time, 1)
	case event.StoragePush:
		c.Pushes++
	case event.StoragePop:
		c.Pops++
	case event.StorageChanged:
		if n := int(ev.Value); n > c.MaxStorage {
			c.MaxStorage = n
		}
		m.add(StorageSize, ev.Process, ev.Time, ev.Value)
	}
}

// Series returns a copy of the named series.
func (m *Monitor) Series(name string, pid int) (Series, bool) {
	s, ok := m.series[seriesKey{name, pid}]
	if !ok {
		return Series{}, false
	}
	return copySeries(s), true
}

// AllSeries returns a copy of every series, ordered by name then process.
func (m *Monitor) AllSeries() []Series {
	out := make([]Series, 0, len(m.series))
	for _, s := range m.series {
		out = append(out, copySeries(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Process < out[j].Process
	})
	return out
}

// Summary aggregates the per-process counters in process order.
func (m *Monitor) Summary() Summary {
	s := Summary{Ticks: m.ticks, LastTime: m.last}
	for _, c := range m.counters {
		if c.Process == Global {
			continue
		}
		s.Processes = append(s.Processes, *c)
	}
	sort.Slice(s.Processes, func(i, j int) bool { return s.Processes[i].Process < s.Processes[j].Process })
	return s
}

func (m *Monitor) counter(pid int) *Counters {
	c, ok := m.counters[pid]
	if !ok {
		c = &Counters{Process: pid}
		m.counters[pid] = c
	}
	return c
}

func (m *Monitor) add(name string, pid int, t, v float64) {
	k := seriesKey{name, pid}
	s, ok := m.series[k]
	if !ok {
		s = &Series{Name: name, Process: pid}
		m.series[k] = s
	}
	// several taps at one instant collapse into the latest value
	if n := len(s.Points); n > 0 && s.Points[n-1].Time == t {
		s.Points[n-1].Value = v
		return
	}
	s.Points = append(s.Points, Point{Time: t, Value: v})
}

func (m *Monitor) increment(name string, pid int, t float64) {
	var v float64
	if s, ok := m.series[seriesKey{name, pid}]; ok {
		v = s.Last()
	}
	m.add(name, pid, t, v+1)
}

func copySeries(s *Series) Series {
	out := *s
	out.Points = append([]Point(nil), s.Points...)
	return out
}

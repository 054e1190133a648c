package metrics_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/dssim/internal/algorithm/strategies"
	"github.com/gyaneshwarpardhi/dssim/internal/config"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/metrics"
	"github.com/gyaneshwarpardhi/dssim/internal/simulation"
)

func newDriver(t *testing.T) *simulation.Driver {
	t.Helper()
	g, err := graph.Build(config.GraphConf{
		Root:  "init",
		Nodes: []config.NodeConf{{ID: "init"}, {ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []config.EdgeConf{
			{Source: "init", Target: "a", Cost: 1},
			{Source: "init", Target: "b", Cost: 2},
			{Source: "a", Target: "c", Cost: 0.5},
			{Source: "b", Target: "c", Cost: 0.5},
		},
	})
	require.NoError(t, err)
	d := simulation.New(strategies.NewRegistry(),
		simulation.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, d.Load(g, simulation.Setup{Algorithm: "overflow", Processes: 2}))
	return d
}

func TestInstrument_CompletedRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	d := newDriver(t)
	m.Instrument(d)

	res, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("overflow", "completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveRuns))
	assert.Equal(t, float64(res.DiscoveredNodes), testutil.ToFloat64(m.DiscoveredNodes))
	assert.Equal(t, float64(res.CalculatedEdges), testutil.ToFloat64(m.CalculatedEdges))
	assert.Equal(t, res.EndTime, testutil.ToFloat64(m.VirtualTime))
	assert.Equal(t, float64(res.Events), testutil.ToFloat64(m.Taps.WithLabelValues("tick")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunEvents))

	n, err := testutil.GatherAndCount(reg, "dssim_runs_total", "dssim_virtual_time")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInstrument_StoppedRunAndDetach(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	d := newDriver(t)
	detach := m.Instrument(d)

	require.NoError(t, d.Start())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveRuns))
	_, err := d.DoStep()
	require.NoError(t, err)
	d.Stop()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("overflow", "stopped")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveRuns))

	detach()
	ticks := testutil.ToFloat64(m.Taps.WithLabelValues("tick"))
	_, err = d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ticks, testutil.ToFloat64(m.Taps.WithLabelValues("tick")), "taps stop after detach")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("overflow", "completed")), "signals still count")
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	assert.Panics(t, func() { metrics.New(reg) })
}

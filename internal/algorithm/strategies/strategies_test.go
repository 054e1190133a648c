package strategies_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/dssim/internal/algorithm/strategies"
	"github.com/gyaneshwarpardhi/dssim/internal/cost"
	"github.com/gyaneshwarpardhi/dssim/internal/event"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/simulation"
)

type edgeSpec struct {
	src, dst string
	cost     float64
}

func newGraph(t *testing.T, root string, edges ...edgeSpec) *graph.Graph {
	t.Helper()
	g := graph.New()
	add := func(id string) {
		if g.Node(id) == nil {
			require.NoError(t, g.AddNode(graph.NewNode(id, 1)))
		}
	}
	add(root)
	for _, e := range edges {
		add(e.src)
		add(e.dst)
		_, err := g.Connect(e.src, e.dst, e.cost, "")
		require.NoError(t, err)
	}
	require.NoError(t, g.SetRoot(root))
	return g
}

// lattice has a diamond, a shared target and a cycle back to the root.
func lattice(t *testing.T) *graph.Graph {
	return newGraph(t, "init",
		edgeSpec{"init", "a", 1},
		edgeSpec{"init", "b", 0.5},
		edgeSpec{"a", "c", 2},
		edgeSpec{"b", "c", 1.5},
		edgeSpec{"c", "d", 0.25},
		edgeSpec{"c", "e", 0.75},
		edgeSpec{"b", "e", 1},
		edgeSpec{"e", "f", 0.5},
		edgeSpec{"f", "init", 1},
		edgeSpec{"d", "f", 0.1},
	)
}

func star(t *testing.T, leaves int, c float64) *graph.Graph {
	var edges []edgeSpec
	for i := 0; i < leaves; i++ {
		edges = append(edges, edgeSpec{"root", fmt.Sprintf("leaf%d", i), c})
	}
	return newGraph(t, "root", edges...)
}

func run(t *testing.T, g *graph.Graph, s simulation.Setup) (*simulation.Driver, *simulation.Result) {
	t.Helper()
	d := simulation.New(strategies.NewRegistry(), simulation.WithRunID(func() string { return "test" }))
	require.NoError(t, d.Load(g, s))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := d.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, simulation.Completed, res.Outcome)
	return d, res
}

func TestOverflow_SingleEdge(t *testing.T) {
	g := newGraph(t, "init", edgeSpec{"init", "a", 1.0})
	d, res := run(t, g, simulation.Setup{Algorithm: "overflow", Processes: 1})

	assert.Equal(t, 2, res.DiscoveredNodes)
	assert.Equal(t, 1, res.CalculatedEdges)
	assert.Equal(t, 1.0, res.EndTime)
	assert.True(t, d.Stats().IsNodeDiscovered("a"))
}

func TestPartition_StarDiscoversEachNodeOnce(t *testing.T) {
	g := star(t, 4, 0)
	d, res := run(t, g, simulation.Setup{Algorithm: "partition", Processes: 2})

	assert.Equal(t, 5, res.DiscoveredNodes)
	assert.Empty(t, res.MultiplyDiscovered)
	for _, n := range g.Nodes() {
		pids := d.Stats().NodeDiscoverers(n.ID)
		require.Len(t, pids, 1, n.ID)
		assert.Contains(t, []int{0, 1}, pids[0], n.ID)
	}
}

func TestAllAlgorithms_ExploreEverything(t *testing.T) {
	networks := map[string]cost.NetworkModel{
		"zero":   cost.ZeroNetwork{},
		"linear": cost.LinearNetwork{Latency: 0.05, PerUnit: 0.1},
	}
	for _, algo := range strategies.NewRegistry().Names() {
		for procs := 1; procs <= 4; procs++ {
			for netName, net := range networks {
				name := fmt.Sprintf("%s/p%d/%s", algo, procs, netName)
				t.Run(name, func(t *testing.T) {
					g := lattice(t)
					_, res := run(t, g, simulation.Setup{Algorithm: algo, Processes: procs, Network: net})

					assert.Equal(t, g.NodesCount(), res.DiscoveredNodes)
					assert.Equal(t, g.EdgesCount(), res.CalculatedEdges, "each node is expanded once")
					assert.Empty(t, res.MultiplyDiscovered)
					assert.Len(t, res.Processes, procs)
					for _, p := range res.Processes {
						assert.Equal(t, "finished", p.State)
						assert.GreaterOrEqual(t, p.Clock.Busy, 0.0)
					}
				})
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	for _, algo := range []string{"overflow", "partition", "chain", "master"} {
		t.Run(algo, func(t *testing.T) {
			s := simulation.Setup{
				Algorithm: algo,
				Processes: 3,
				Network:   cost.LinearNetwork{Latency: 0.2, PerUnit: 0.1},
			}
			_, first := run(t, lattice(t), s)
			_, second := run(t, lattice(t), s)
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("runs differ (-first +second):\n%s", diff)
			}
		})
	}
}

func TestPartition_SeedIsHonoured(t *testing.T) {
	owners := func(seed int) map[string][]int {
		g := star(t, 16, 0)
		d, _ := run(t, g, simulation.Setup{
			Algorithm: "partition",
			Processes: 4,
			Args:      map[string]any{"seed": seed},
		})
		return d.Stats().Snapshot().DiscoveredNodes
	}
	assert.Equal(t, owners(11), owners(11))
}

func TestLocal_Order(t *testing.T) {
	cases := []struct {
		order string
		want  []string
	}{
		{"bfs", []string{"root", "a", "b", "c", "d"}},
		{"dfs", []string{"root", "a", "b", "d", "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.order, func(t *testing.T) {
			g := newGraph(t, "root",
				edgeSpec{"root", "a", 1},
				edgeSpec{"root", "b", 1},
				edgeSpec{"a", "c", 1},
				edgeSpec{"b", "d", 1},
			)
			d := simulation.New(strategies.NewRegistry())
			var got []string
			d.Bus().Subscribe(func(ev event.Event) { got = append(got, ev.Node) }, event.NodeDiscovered)
			require.NoError(t, d.Load(g, simulation.Setup{
				Algorithm: "local",
				Processes: 2,
				Args:      map[string]any{"order": tc.order},
			}))
			res, err := d.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, 4.0, res.EndTime)
			assert.Zero(t, res.Processes[1].Clock.Steps, "process 1 stays idle")
		})
	}
}

func TestOverflow_OffloadsToIdlePeer(t *testing.T) {
	g := star(t, 6, 1)
	d, res := run(t, g, simulation.Setup{
		Algorithm: "overflow",
		Processes: 2,
		Args:      map[string]any{"limit": 1},
	})
	assert.Equal(t, 7, res.DiscoveredNodes)
	assert.Positive(t, res.Processes[0].Sent)
	assert.Equal(t, res.Processes[0].Sent, res.Processes[1].Received)
	assert.Empty(t, d.Stats().MultiplyDiscoveredNodes())
}

func TestChain_ForwardsToNext(t *testing.T) {
	g := newGraph(t, "n0", edgeSpec{"n0", "n1", 1}, edgeSpec{"n1", "n2", 1}, edgeSpec{"n2", "n3", 1})
	d, res := run(t, g, simulation.Setup{Algorithm: "chain", Processes: 3})

	// Each discovery is made by the expanding process and handed on.
	assert.Equal(t, []int{0}, d.Stats().NodeDiscoverers("n1"))
	assert.Equal(t, []int{1}, d.Stats().NodeDiscoverers("n2"))
	assert.Equal(t, []int{2}, d.Stats().NodeDiscoverers("n3"))
	assert.Equal(t, 3.0, res.EndTime)
}

func TestMaster_WorkersCompute(t *testing.T) {
	g := star(t, 3, 1)
	d, res := run(t, g, simulation.Setup{Algorithm: "master", Processes: 3})

	assert.Equal(t, 4, res.DiscoveredNodes)
	assert.Zero(t, res.Processes[0].Clock.Steps, "master only dispatches")
	for _, e := range g.Edges() {
		assert.False(t, d.Stats().IsEdgeCalculatedBy(e, 0), e.Key().String())
	}
	// every leaf is dispatched and then reported back empty, then stopped
	assert.Equal(t, 4+2, res.Processes[0].Sent)
}

func TestInvalidArguments(t *testing.T) {
	d := simulation.New(strategies.NewRegistry())
	g := lattice(t)
	err := d.Load(g, simulation.Setup{Algorithm: "local", Args: map[string]any{"order": "random"}})
	assert.Error(t, err)
	err = d.Load(g, simulation.Setup{Algorithm: "overflow", Args: map[string]any{"limit": "two"}})
	assert.Error(t, err)
	err = d.Load(g, simulation.Setup{Algorithm: "gossip"})
	assert.Error(t, err)
}

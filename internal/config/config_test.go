package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/dssim/internal/config"
)

const minimal = `
version: v1
graph:
  root: a
  nodes:
    - { id: a }
    - { id: b, size: 2 }
  edges:
    - { source: a, target: b, cost: 1.5, label: go }
`

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "overflow", cfg.Simulation.Algorithm)
	assert.Equal(t, 1, cfg.Simulation.Processes)
	assert.Equal(t, "edge", cfg.Simulation.Compute.Model)
	assert.Equal(t, "zero", cfg.Simulation.Network.Model)
	assert.Equal(t, 4, cfg.Engine.SweepWorkers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)

	require.Len(t, cfg.Graph.Edges, 1)
	assert.Equal(t, 1.5, cfg.Graph.Edges[0].Cost)
	assert.NoError(t, config.Validate(cfg))
}

func TestParse_KeepsExplicitValues(t *testing.T) {
	cfg, err := config.Parse([]byte(minimal + `
simulation:
  algorithm: partition
  processes: 4
  args: { seed: 3 }
  network:
    model: formula
    expr: size * k
    params: { k: 0.5 }
`))
	require.NoError(t, err)
	assert.Equal(t, "partition", cfg.Simulation.Algorithm)
	assert.Equal(t, 4, cfg.Simulation.Processes)
	assert.Equal(t, 3, cfg.Simulation.Args["seed"])
	assert.Equal(t, "formula", cfg.Simulation.Network.Model)
	assert.Equal(t, "size * k", cfg.Simulation.Network.Expr)
	assert.Equal(t, 0.5, cfg.Simulation.Network.Params["k"])
	assert.Equal(t, "edge", cfg.Simulation.Compute.Model)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := config.Parse([]byte("graph: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.ScenarioConfig)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*config.ScenarioConfig) {},
		},
		{
			name:    "missing version",
			mutate:  func(c *config.ScenarioConfig) { c.Version = "" },
			wantErr: "version is required",
		},
		{
			name:    "zero processes",
			mutate:  func(c *config.ScenarioConfig) { c.Simulation.Processes = 0 },
			wantErr: "processes must be >= 1",
		},
		{
			name:    "root not declared",
			mutate:  func(c *config.ScenarioConfig) { c.Graph.Root = "zz" },
			wantErr: `root "zz" is not a declared node`,
		},
		{
			name: "duplicate node",
			mutate: func(c *config.ScenarioConfig) {
				c.Graph.Nodes = append(c.Graph.Nodes, config.NodeConf{ID: "a"})
			},
			wantErr: `duplicate node id "a"`,
		},
		{
			name: "dangling edge",
			mutate: func(c *config.ScenarioConfig) {
				c.Graph.Edges = append(c.Graph.Edges, config.EdgeConf{Source: "a", Target: "nope"})
			},
			wantErr: `unknown target "nope"`,
		},
		{
			name:    "negative cost",
			mutate:  func(c *config.ScenarioConfig) { c.Graph.Edges[0].Cost = -1 },
			wantErr: "cost must be >= 0",
		},
		{
			name:    "negative size",
			mutate:  func(c *config.ScenarioConfig) { c.Graph.Nodes[1].Size = -2 },
			wantErr: "size must be >= 0",
		},
		{
			name:    "formula without expr",
			mutate:  func(c *config.ScenarioConfig) { c.Simulation.Compute = config.ModelConf{Model: "formula"} },
			wantErr: "formula model needs an expr",
		},
		{
			name: "expr on non-formula model",
			mutate: func(c *config.ScenarioConfig) {
				c.Simulation.Network = config.ModelConf{Model: "linear", Expr: "size"}
			},
			wantErr: "expr is only read by the formula model",
		},
		{
			name:    "negative max events",
			mutate:  func(c *config.ScenarioConfig) { c.Engine.MaxEvents = -1 },
			wantErr: "max_events must be >= 0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte(minimal))
			require.NoError(t, err)
			tc.mutate(cfg)
			err = config.Validate(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg, err := config.Parse([]byte(minimal))
	require.NoError(t, err)
	cfg.Simulation.Processes = 0
	cfg.Graph.Root = ""
	err = config.Validate(cfg)
	require.Error(t, err)
	assert.Equal(t, 2, strings.Count(err.Error(), "\n  - "), err.Error())
}

func TestLoader_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	l, err := config.NewLoader(path)
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())
	assert.Equal(t, "overflow", l.Config().Simulation.Algorithm)

	var seen []string
	l.OnChange(func(c *config.ScenarioConfig) { seen = append(seen, c.Simulation.Algorithm) })

	require.NoError(t, os.WriteFile(path, []byte(minimal+"simulation: { algorithm: chain }\n"), 0o644))
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, "chain", cfg.Simulation.Algorithm)
	assert.Equal(t, "chain", l.Config().Simulation.Algorithm)
	assert.Equal(t, []string{"chain"}, seen)

	// A broken file keeps the previous config.
	require.NoError(t, os.WriteFile(path, []byte("graph: ["), 0o644))
	_, err = l.Reload()
	assert.Error(t, err)
	assert.Equal(t, "chain", l.Config().Simulation.Algorithm)
	assert.Len(t, seen, 1)
}

func TestNewLoader_MissingFile(t *testing.T) {
	_, err := config.NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShippedScenarios(t *testing.T) {
	for _, name := range []string{"star.yaml", "formula.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := config.Load(filepath.Join("..", "..", "configs", name))
			require.NoError(t, err)
			assert.NoError(t, config.Validate(cfg))
		})
	}
}

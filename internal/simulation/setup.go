package simulation

import (
	"fmt"

	"github.com/gyaneshwarpardhi/dssim/internal/config"
	"github.com/gyaneshwarpardhi/dssim/internal/cost"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
)

// Setup selects what a run simulates on a loaded graph.
type Setup struct {
	Algorithm string
	Processes int
	Args      map[string]any
	Compute   cost.ComputeModel
	Network   cost.NetworkModel
	MaxEvents int
}

// SetupFromConfig resolves the simulation section of a scenario against
// the cost model registry.
func SetupFromConfig(cfg *config.ScenarioConfig, models *cost.Registry) (Setup, error) {
	sim := cfg.Simulation
	compute, err := models.Compute(sim.Compute.Model, cost.Config{Params: sim.Compute.Params, Expr: sim.Compute.Expr})
	if err != nil {
		return Setup{}, fmt.Errorf("compute model: %w", err)
	}
	network, err := models.Network(sim.Network.Model, cost.Config{Params: sim.Network.Params, Expr: sim.Network.Expr})
	if err != nil {
		return Setup{}, fmt.Errorf("network model: %w", err)
	}
	return Setup{
		Algorithm: sim.Algorithm,
		Processes: sim.Processes,
		Args:      sim.Args,
		Compute:   compute,
		Network:   network,
		MaxEvents: cfg.Engine.MaxEvents,
	}, nil
}

func (s Setup) withDefaults() Setup {
	if s.Processes == 0 {
		s.Processes = 1
	}
	if s.Compute == nil {
		s.Compute = cost.EdgeCost{Factor: 1}
	}
	if s.Network == nil {
		s.Network = cost.ZeroNetwork{}
	}
	return s
}

// LoadConfig validates a scenario, builds its graph and loads both into d.
func (d *Driver) LoadConfig(cfg *config.ScenarioConfig, models *cost.Registry) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	g, err := graph.Build(cfg.Graph)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	s, err := SetupFromConfig(cfg, models)
	if err != nil {
		return err
	}
	return d.Load(g, s)
}

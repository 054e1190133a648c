package config

import (
	"fmt"
	"strings"
)

// Validate checks the scenario for:
//   - Required fields (version, algorithm, root)
//   - Duplicate node ids
//   - Edges that reference undeclared nodes
//   - A root that is not a declared node
//   - Negative costs, sizes and process counts
//
// Algorithm names and argument types are checked later against the registry.
func Validate(cfg *ScenarioConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	sim := cfg.Simulation
	if sim.Algorithm == "" {
		errs = append(errs, "simulation: algorithm is required")
	}
	if sim.Processes < 1 {
		errs = append(errs, fmt.Sprintf("simulation: processes must be >= 1, got %d", sim.Processes))
	}
	validateModel("simulation.compute", sim.Compute, &errs)
	validateModel("simulation.network", sim.Network, &errs)
	if cfg.Engine.MaxEvents < 0 {
		errs = append(errs, fmt.Sprintf("engine: max_events must be >= 0, got %d", cfg.Engine.MaxEvents))
	}

	validateGraph(cfg.Graph, &errs)

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateModel(loc string, m ModelConf, errs *[]string) {
	switch {
	case m.Model == "":
		*errs = append(*errs, loc+": model is required")
	case m.Model == "formula" && strings.TrimSpace(m.Expr) == "":
		*errs = append(*errs, loc+": formula model needs an expr")
	case m.Model != "formula" && m.Expr != "":
		*errs = append(*errs, fmt.Sprintf("%s: expr is only read by the formula model, not %q", loc, m.Model))
	}
}

func validateGraph(g GraphConf, errs *[]string) {
	ids := make(map[string]int, len(g.Nodes)) // id → index
	for i, n := range g.Nodes {
		if n.ID == "" {
			*errs = append(*errs, fmt.Sprintf("graph.nodes[%d]: id is required", i))
			continue
		}
		if prev, ok := ids[n.ID]; ok {
			*errs = append(*errs, fmt.Sprintf("duplicate node id %q (first seen at nodes[%d], again at nodes[%d])", n.ID, prev, i))
			continue
		}
		ids[n.ID] = i
		if n.Size < 0 {
			*errs = append(*errs, fmt.Sprintf("node %s: size must be >= 0", n.ID))
		}
	}

	if g.Root == "" {
		*errs = append(*errs, "graph: root is required")
	} else if _, ok := ids[g.Root]; !ok {
		*errs = append(*errs, fmt.Sprintf("graph: root %q is not a declared node", g.Root))
	}

	for j, e := range g.Edges {
		loc := fmt.Sprintf("graph.edges[%d]", j)
		if _, ok := ids[e.Source]; !ok {
			*errs = append(*errs, fmt.Sprintf("%s: unknown source %q", loc, e.Source))
		}
		if _, ok := ids[e.Target]; !ok {
			*errs = append(*errs, fmt.Sprintf("%s: unknown target %q", loc, e.Target))
		}
		if e.Cost < 0 {
			*errs = append(*errs, fmt.Sprintf("%s: cost must be >= 0", loc))
		}
	}
}

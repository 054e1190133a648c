package config

// ScenarioConfig is the top-level YAML structure.
type ScenarioConfig struct {
	Version    string         `yaml:"version"`
	Simulation SimulationConf `yaml:"simulation"`
	Engine     EngineConf     `yaml:"engine"`
	Log        LogConf        `yaml:"log"`
	Graph      GraphConf      `yaml:"graph"`
}

// SimulationConf selects the traversal algorithm and the cost models.
type SimulationConf struct {
	Algorithm string                 `yaml:"algorithm"`
	Processes int                    `yaml:"processes"`
	Args      map[string]interface{} `yaml:"args"`
	Compute   ModelConf              `yaml:"compute"`
	Network   ModelConf              `yaml:"network"`
}

// ModelConf names a cost model and its numeric parameters. Expr is the
// expression of a "formula" model.
type ModelConf struct {
	Model  string             `yaml:"model"`
	Params map[string]float64 `yaml:"params"`
	Expr   string             `yaml:"expr"`
}

// EngineConf holds tunable engine settings.
type EngineConf struct {
	MaxEvents int `yaml:"max_events"` // 0 = unlimited
	// SweepWorkers bounds how many independent runs a sweep executes at once.
	SweepWorkers int `yaml:"sweep_workers"`
}

// LogConf configures the slog handler used by the CLI.
type LogConf struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, auto
}

// GraphConf is the state space to explore.
type GraphConf struct {
	Root  string     `yaml:"root"`
	Nodes []NodeConf `yaml:"nodes"`
	Edges []EdgeConf `yaml:"edges"`
}

// NodeConf declares one state.
type NodeConf struct {
	ID   string  `yaml:"id"`
	Size float64 `yaml:"size"`
}

// EdgeConf declares one transition. Cost defaults to 0.
type EdgeConf struct {
	Source string  `yaml:"source"`
	Target string  `yaml:"target"`
	Cost   float64 `yaml:"cost"`
	Label  string  `yaml:"label"`
	Events int     `yaml:"events"`
	Pids   []int   `yaml:"pids"`
}

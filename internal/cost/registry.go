package cost

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownModel is returned for a model name nobody registered.
var ErrUnknownModel = errors.New("unknown cost model")

// Params are the numeric knobs of a model, as read from a scenario.
type Params map[string]float64

// Get returns p[name] or def when absent.
func (p Params) Get(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Config is everything a scenario says about one model besides its name.
type Config struct {
	Params Params
	Expr   string // only read by formula models
}

// ComputeFactory builds a compute model from its config.
type ComputeFactory func(Config) (ComputeModel, error)

// NetworkFactory builds a network model from its config.
type NetworkFactory func(Config) (NetworkModel, error)

// Registry maps model names to factories.
// Register should only be called at startup.
type Registry struct {
	compute map[string]ComputeFactory
	network map[string]NetworkFactory
}

// NewRegistry returns a registry holding the built-in models.
func NewRegistry() *Registry {
	r := &Registry{
		compute: make(map[string]ComputeFactory),
		network: make(map[string]NetworkFactory),
	}
	r.RegisterCompute("edge", func(s Config) (ComputeModel, error) {
		return EdgeCost{Factor: s.Params.Get("factor", 1)}, nil
	})
	r.RegisterCompute("node_size", func(s Config) (ComputeModel, error) {
		return NodeSize{Factor: s.Params.Get("factor", 1)}, nil
	})
	r.RegisterCompute("constant", func(s Config) (ComputeModel, error) {
		v := s.Params.Get("value", 1)
		if v < 0 {
			return nil, fmt.Errorf("constant compute: value must be >= 0, got %v", v)
		}
		return ConstantCompute{Value: v}, nil
	})
	r.RegisterCompute("zero", func(Config) (ComputeModel, error) {
		return ConstantCompute{}, nil
	})
	r.RegisterCompute("formula", func(s Config) (ComputeModel, error) {
		return NewFormulaCompute(s.Expr, s.Params)
	})
	r.RegisterNetwork("zero", func(Config) (NetworkModel, error) {
		return ZeroNetwork{}, nil
	})
	r.RegisterNetwork("constant", func(s Config) (NetworkModel, error) {
		l := s.Params.Get("latency", 0)
		if l < 0 {
			return nil, fmt.Errorf("constant network: latency must be >= 0, got %v", l)
		}
		return ConstantNetwork{Latency: l}, nil
	})
	r.RegisterNetwork("linear", func(s Config) (NetworkModel, error) {
		n := LinearNetwork{Latency: s.Params.Get("latency", 0), PerUnit: s.Params.Get("per_unit", 0.1)}
		if n.Latency < 0 || n.PerUnit < 0 {
			return nil, fmt.Errorf("linear network: latency and per_unit must be >= 0")
		}
		return n, nil
	})
	r.RegisterNetwork("formula", func(s Config) (NetworkModel, error) {
		return NewFormulaNetwork(s.Expr, s.Params)
	})
	return r
}

// RegisterCompute adds a compute model. Panics on duplicate name to surface misconfiguration early.
func (r *Registry) RegisterCompute(name string, f ComputeFactory) {
	if _, exists := r.compute[name]; exists {
		panic(fmt.Sprintf("cost registry: duplicate compute model %q", name))
	}
	r.compute[name] = f
}

// RegisterNetwork adds a network model. Panics on duplicate name.
func (r *Registry) RegisterNetwork(name string, f NetworkFactory) {
	if _, exists := r.network[name]; exists {
		panic(fmt.Sprintf("cost registry: duplicate network model %q", name))
	}
	r.network[name] = f
}

// Compute builds the named compute model.
func (r *Registry) Compute(name string, s Config) (ComputeModel, error) {
	f, ok := r.compute[name]
	if !ok {
		return nil, fmt.Errorf("compute model %q: %w", name, ErrUnknownModel)
	}
	return f(s)
}

// Network builds the named network model.
func (r *Registry) Network(name string, s Config) (NetworkModel, error) {
	f, ok := r.network[name]
	if !ok {
		return nil, fmt.Errorf("network model %q: %w", name, ErrUnknownModel)
	}
	return f(s)
}

// ComputeNames returns the registered compute model names, sorted.
func (r *Registry) ComputeNames() []string { return sortedKeys(r.compute) }

// NetworkNames returns the registered network model names, sorted.
func (r *Registry) NetworkNames() []string { return sortedKeys(r.network) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

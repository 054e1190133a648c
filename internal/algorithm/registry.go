// Package algorithm maps traversal algorithm names to strategy factories and
// validates the arguments a run is configured with.
package algorithm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gyaneshwarpardhi/dssim/internal/process"
)

var (
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrInvalidArgument  = errors.New("invalid algorithm argument")
)

// ParamType is the declared type of an algorithm parameter.
type ParamType string

const (
	IntParam    ParamType = "int"
	FloatParam  ParamType = "float"
	StringParam ParamType = "string"
	BoolParam   ParamType = "bool"
)

// Param declares one tunable of an algorithm.
type Param struct {
	Type    ParamType `json:"type"`
	Default any       `json:"default"`
	Help    string    `json:"help,omitempty"`
	// Choices restricts a string parameter to a fixed set.
	Choices []string `json:"choices,omitempty"`
}

// Factory builds the strategy of process id.
type Factory func(id int, ctx *process.Context) process.Strategy

// Descriptor is a registered algorithm.
type Descriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Params      map[string]Param `json:"params,omitempty"`
	New         Factory          `json:"-"`
}

// Registry maps algorithm names to descriptors.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu    sync.RWMutex
	algos map[string]Descriptor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{algos: make(map[string]Descriptor)}
}

// Register adds an algorithm. Panics on a duplicate name or a missing
// factory to surface misconfiguration early.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.New == nil {
		panic(fmt.Sprintf("algorithm registry: %q has no factory", d.Name))
	}
	if _, exists := r.algos[d.Name]; exists {
		panic(fmt.Sprintf("algorithm registry: duplicate name %q", d.Name))
	}
	r.algos[d.Name] = d
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.algos[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w %q", ErrUnknownAlgorithm, name)
	}
	return d, nil
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.algos))
	for k := range r.algos {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Descriptors returns every registered descriptor, sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(names))
	for _, n := range names {
		out = append(out, r.algos[n])
	}
	return out
}

// Resolve validates raw arguments for algorithm name and fills in defaults.
// Every problem is reported, not just the first.
func (r *Registry) Resolve(name string, raw map[string]any) (process.Args, error) {
	d, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	args := make(process.Args, len(d.Params))
	var errs []string

	for k, v := range raw {
		p, ok := d.Params[k]
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown parameter %q", name, k))
			continue
		}
		cv, err := coerce(p, v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s.%s: %v", name, k, err))
			continue
		}
		args[k] = cv
	}
	for k, p := range d.Params {
		if _, ok := args[k]; !ok {
			args[k] = p.Default
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("%w:\n  - %s", ErrInvalidArgument, strings.Join(errs, "\n  - "))
	}
	return args, nil
}

// coerce converts v to the declared parameter type. YAML and JSON decode
// numbers as int or float64, so whole floats are accepted for int params.
func coerce(p Param, v any) (any, error) {
	switch p.Type {
	case IntParam:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n != float64(int(n)) {
				return nil, fmt.Errorf("expected int, got %v", n)
			}
			return int(n), nil
		}
	case FloatParam:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case StringParam:
		if s, ok := v.(string); ok {
			if len(p.Choices) > 0 && !contains(p.Choices, s) {
				return nil, fmt.Errorf("must be one of %s, got %q", strings.Join(p.Choices, "|"), s)
			}
			return s, nil
		}
	case BoolParam:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	default:
		return nil, fmt.Errorf("undeclared type %q", p.Type)
	}
	return nil, fmt.Errorf("expected %s, got %T", p.Type, v)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

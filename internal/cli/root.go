// Package cli is the dssim command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/algorithm/strategies"
	"github.com/gyaneshwarpardhi/dssim/internal/config"
	"github.com/gyaneshwarpardhi/dssim/internal/cost"
)

// options are the flags shared by every subcommand.
type options struct {
	scenario  string
	algorithm string
	processes int
	args      []string
	logLevel  string
	logFormat string
	jsonOut   bool
}

// app is what a subcommand works with once flags are parsed.
type app struct {
	opts   *options
	reg    *algorithm.Registry
	models *cost.Registry
	log    *slog.Logger
}

// Execute is the entry point to running the CLI.
func Execute(ctx context.Context, version string) {
	if err := NewRootCommand(ctx, version).Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand(ctx context.Context, version string) *cobra.Command {
	opts := &options{}
	a := &app{
		opts:   opts,
		reg:    strategies.NewRegistry(),
		models: cost.NewRegistry(),
	}

	root := &cobra.Command{
		Use:          "dssim",
		Short:        "Simulate distributed state-space exploration on a virtual clock",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.scenario, "file", "f", "configs/star.yaml", "path to scenario YAML")
	root.PersistentFlags().StringVarP(&opts.algorithm, "algorithm", "a", "", "override simulation.algorithm")
	root.PersistentFlags().IntVarP(&opts.processes, "processes", "p", 0, "override simulation.processes")
	root.PersistentFlags().StringArrayVar(&opts.args, "arg", nil, "algorithm argument name=value (repeatable)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "override log.format (text, json, auto)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newRunCommand(ctx, a),
		newStepCommand(ctx, a),
		newSweepCommand(ctx, a),
		newServeCommand(ctx, a),
		newAlgorithmsCommand(a),
	)
	return root
}

// loadScenario reads the scenario file, applies flag overrides and sets up
// the logger from the resulting log section.
func (a *app) loadScenario(cmd *cobra.Command) (*config.ScenarioConfig, error) {
	cfg, err := config.Load(a.opts.scenario)
	if err != nil {
		return nil, err
	}
	if err := a.override(cfg); err != nil {
		return nil, err
	}
	a.log = newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(a.log)
	return cfg, nil
}

func (a *app) override(cfg *config.ScenarioConfig) error {
	o := a.opts
	if o.algorithm != "" && o.algorithm != cfg.Simulation.Algorithm {
		cfg.Simulation.Algorithm = o.algorithm
		cfg.Simulation.Args = nil // arguments are algorithm specific
	}
	if o.processes != 0 {
		cfg.Simulation.Processes = o.processes
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if len(o.args) > 0 && cfg.Simulation.Args == nil {
		cfg.Simulation.Args = make(map[string]interface{}, len(o.args))
	}
	for _, kv := range o.args {
		name, v, err := parseArg(kv)
		if err != nil {
			return err
		}
		cfg.Simulation.Args[name] = v
	}
	return nil
}

// parseArg splits name=value and decodes value as a YAML scalar, so
// numbers and booleans keep their type.
func parseArg(kv string) (string, any, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("--arg %q: expected name=value", kv)
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return "", nil, fmt.Errorf("--arg %s: %w", name, err)
	}
	if v == nil {
		v = raw
	}
	return name, v, nil
}

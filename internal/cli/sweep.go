package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/dssim/internal/config"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
	"github.com/gyaneshwarpardhi/dssim/internal/simulation"
)

func newSweepCommand(ctx context.Context, a *app) *cobra.Command {
	var algorithms []string
	var counts []int
	var workers int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the scenario for every algorithm and process count combination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadScenario(cmd)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			g, err := graph.Build(cfg.Graph)
			if err != nil {
				return err
			}
			base, err := simulation.SetupFromConfig(cfg, a.models)
			if err != nil {
				return err
			}
			if len(algorithms) == 0 {
				algorithms = []string{base.Algorithm}
			}
			if len(counts) == 0 {
				counts = []int{base.Processes}
			}
			if workers == 0 {
				workers = cfg.Engine.SweepWorkers
			}

			var setups []simulation.Setup
			for _, name := range algorithms {
				for _, n := range counts {
					s := base
					s.Algorithm, s.Processes = name, n
					if name != base.Algorithm {
						s.Args = nil // arguments are algorithm specific
					}
					setups = append(setups, s)
				}
			}

			a.log.Info("sweep started", "runs", len(setups), "workers", workers)
			results, err := simulation.Sweep(ctx, a.reg, g, setups, workers, simulation.WithLogger(a.log))
			if perr := a.printSweep(cmd, setups, results); perr != nil {
				return errors.Join(err, perr)
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&algorithms, "algorithms", nil, "algorithms to compare (default: the scenario's)")
	cmd.Flags().IntSliceVar(&counts, "counts", nil, "process counts to compare (default: the scenario's)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default: engine.sweep_workers)")
	return cmd
}

func (a *app) printSweep(cmd *cobra.Command, setups []simulation.Setup, results []*simulation.Result) error {
	out := cmd.OutOrStdout()
	if a.opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tPROCESSES\tOUTCOME\tTIME\tEVENTS\tNODES\tCALCULATED\tDUPLICATES")
	for i, s := range setups {
		r := results[i]
		if r == nil {
			fmt.Fprintf(tw, "%s\t%d\tfailed\t-\t-\t-\t-\t-\n", s.Algorithm, s.Processes)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.4g\t%d\t%d/%d\t%d/%d\t%d\n",
			s.Algorithm, s.Processes, r.Outcome, r.EndTime, r.Events,
			r.DiscoveredNodes, r.Nodes, r.CalculatedEdges, r.Edges, len(r.MultiplyDiscovered))
	}
	return tw.Flush()
}

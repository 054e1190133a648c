package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/dssim/internal/simulation"
)

func newRunCommand(ctx context.Context, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scenario to completion and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.driver(cmd)
			if err != nil {
				return err
			}
			res, err := d.Run(ctx)
			if res != nil {
				if perr := a.printResult(cmd.OutOrStdout(), res); perr != nil {
					return perr
				}
			}
			return err
		},
	}
}

// driver loads the scenario into a fresh driver.
func (a *app) driver(cmd *cobra.Command) (*simulation.Driver, error) {
	cfg, err := a.loadScenario(cmd)
	if err != nil {
		return nil, err
	}
	d := simulation.New(a.reg, simulation.WithLogger(a.log))
	if err := d.LoadConfig(cfg, a.models); err != nil {
		return nil, err
	}
	return d, nil
}

func (a *app) printResult(w io.Writer, res *simulation.Result) error {
	if a.opts.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintf(w, "run %s: %s (%s)\n", res.RunID, res.Outcome, res.Algorithm)
	if res.Error != "" {
		fmt.Fprintf(w, "error: %s\n", res.Error)
	}
	fmt.Fprintf(w, "time %.4g, %d events\n", res.EndTime, res.Events)
	fmt.Fprintf(w, "nodes %d/%d discovered, edges %d discovered, %d/%d calculated\n",
		res.DiscoveredNodes, res.Nodes, res.DiscoveredEdges, res.CalculatedEdges, res.Edges)
	if len(res.MultiplyDiscovered) > 0 {
		fmt.Fprintf(w, "multiply discovered: %v\n", res.MultiplyDiscovered)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tSTATE\tBUSY\tIDLE\tSTEPS\tSENT\tRECEIVED\tNODES")
	for _, p := range res.Processes {
		fmt.Fprintf(tw, "%d\t%s\t%.4g\t%.4g\t%d\t%d\t%d\t%d\n",
			p.ID, p.State, p.Clock.Busy, p.Clock.Idle, p.Clock.Steps, p.Sent, p.Received, p.Taps.NodesDiscovered)
	}
	return tw.Flush()
}

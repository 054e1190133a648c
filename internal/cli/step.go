package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStepCommand(ctx context.Context, a *app) *cobra.Command {
	var visible bool
	var limit int
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Step through the scenario, printing progress after every step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.driver(cmd)
			if err != nil {
				return err
			}
			if err := d.Start(); err != nil {
				return err
			}
			step := d.DoStep
			if visible {
				step = d.DoVisibleStep
			}
			out := cmd.OutOrStdout()
			var runErr error
			for i := 1; ; i++ {
				if ctx.Err() != nil || (limit > 0 && i > limit) {
					d.Stop()
					break
				}
				more, err := step()
				fmt.Fprintf(out, "%d\tt=%.4g\tdiscovered=%d\tcalculated=%d\n",
					i, d.Now(), d.Stats().DiscoveredNodesCount(), d.Stats().CalculatedEdgesCount())
				if err != nil || !more {
					runErr = err
					break
				}
			}
			if res := d.Result(); res != nil {
				if err := a.printResult(out, res); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&visible, "visible", false, "advance until the next node discovery instead of one event")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many steps (0 = until the run ends)")
	return cmd
}

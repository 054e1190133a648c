package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAlgorithmsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the traversal algorithms, their parameters and the cost models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if a.opts.jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"algorithms":     a.reg.Descriptors(),
					"compute_models": a.models.ComputeNames(),
					"network_models": a.models.NetworkNames(),
				})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, d := range a.reg.Descriptors() {
				fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
				names := make([]string, 0, len(d.Params))
				for n := range d.Params {
					names = append(names, n)
				}
				sort.Strings(names)
				for _, n := range names {
					p := d.Params[n]
					fmt.Fprintf(tw, "  --arg %s=<%s>\tdefault %v. %s\n", n, p.Type, p.Default, p.Help)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\ncompute models: %s\n", strings.Join(a.models.ComputeNames(), ", "))
			fmt.Fprintf(out, "network models: %s\n", strings.Join(a.models.NetworkNames(), ", "))
			return nil
		},
	}
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"manoonchai/internal/report"
	"manoonchai/internal/store"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show optimizer run history",
		Long: `Without arguments, lists recent optimizer runs, newest first. With a run ID
(or a unique prefix of one), shows that run and its accepted swaps.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, err := st.GetRun(args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				if asJSON {
					return report.WriteJSON(out, run)
				}
				printRun(out, run)
				return nil
			}

			runs, err := st.ListRuns(limit)
			if err != nil {
				return err
			}
			if asJSON {
				return report.WriteJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No optimizer runs recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tBASE\tSTRATEGY\tROUNDS\tSWAPS\tIMPROVEMENT\tSTOP\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.2f%%\t%s\t%s\n",
					r.ID[:8], r.BaseLayout, r.Strategy, r.Iterations, r.Accepted,
					100*improvement(&r), r.Stop, humanize.Time(time.Unix(0, r.StartedNs)))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func improvement(r *store.Run) float64 {
	if r.InitialEffort == 0 {
		return 0
	}
	return (r.InitialEffort - r.FinalEffort) / r.InitialEffort
}

func printRun(w io.Writer, r *store.Run) {
	started := time.Unix(0, r.StartedNs)
	fmt.Fprintf(w, "Run %s\n", r.ID)
	fmt.Fprintf(w, "  base layout:  %s\n", r.BaseLayout)
	if r.LayoutID != nil {
		fmt.Fprintf(w, "  saved as:     #%d\n", *r.LayoutID)
	}
	fmt.Fprintf(w, "  corpus:       %s\n", r.CorpusHash[:min(12, len(r.CorpusHash))])
	fmt.Fprintf(w, "  strategy:     %s, %d workers, seed %d\n", r.Strategy, r.Workers, r.Seed)
	fmt.Fprintf(w, "  rounds:       %d (stopped: %s)\n", r.Iterations, r.Stop)
	fmt.Fprintf(w, "  effort:       %s -> %s (%.2f%% lower)\n",
		humanize.CommafWithDigits(r.InitialEffort, 2), humanize.CommafWithDigits(r.FinalEffort, 2), 100*improvement(r))
	fmt.Fprintf(w, "  started:      %s (%s)\n", started.Format(time.RFC3339), humanize.Time(started))
	fmt.Fprintf(w, "  duration:     %s\n", time.Duration(r.FinishedNs-r.StartedNs).Round(time.Millisecond))

	if len(r.Swaps) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %d swaps:\n", len(r.Swaps))
	for _, s := range r.Swaps {
		fmt.Fprintf(w, "  round %-6d %s %s <-> %s %s  %.2f\n", s.Round, s.A, s.CharA, s.B, s.CharB, s.Effort)
	}
}

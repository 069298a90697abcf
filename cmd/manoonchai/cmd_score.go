package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"manoonchai/internal/effort"
	"manoonchai/internal/mcptools"
	"manoonchai/internal/report"
)

func newScoreCmd(a *app) *cobra.Command {
	var (
		lf      layoutFlags
		asJSON  bool
		compare []string
	)

	cmd := &cobra.Command{
		Use:   "score [corpus files...]",
		Short: "Report the typing effort of a corpus on a layout",
		Long: `Scores the corpus on the selected layout and prints total and mean triad
effort, hand/row/finger usage, stroke path class counts and the costliest
triads. Characters the layout cannot type split the text; no triad spans them.

With --compare, the listed layouts are scored as well and ranked by mean
effort per triad.

Example:
  manoonchai score corpus.txt
  manoonchai score --layout kedmanee --compare pattachote,manoonchai_v02 corpus.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadCorpus(args)
			if err != nil {
				return err
			}
			m, err := a.model(lf)
			if err != nil {
				return err
			}
			primary, err := report.Analyze(m, c)
			if err != nil {
				return err
			}
			a.log.Info("scored",
				"layout", primary.Layout,
				"triads", primary.Triads,
				"mean", primary.MeanPerTriad,
			)

			out := cmd.OutOrStdout()
			if len(compare) == 0 {
				if asJSON {
					return report.WriteJSON(out, primary)
				}
				report.PrintReport(out, primary)
				return nil
			}

			summaries := []*report.Summary{primary}
			for _, name := range compare {
				other, err := a.model(layoutFlags{name: name})
				if err != nil {
					return err
				}
				s, err := report.Analyze(other, c)
				if err != nil {
					return err
				}
				summaries = append(summaries, s)
			}
			if asJSON {
				return report.WriteJSON(out, report.Rank(summaries))
			}
			report.PrintComparison(out, summaries)
			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringSliceVar(&compare, "compare", nil, "other layouts to rank against")
	return cmd
}

func newKeyCmd(a *app) *cobra.Command {
	var (
		lf     layoutFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "key <char>",
		Short: "Show the per-key effort of a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(lf)
			if err != nil {
				return err
			}
			k, err := mcptools.DescribeKey(m, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return report.WriteJSON(cmd.OutOrStdout(), k)
			}
			printKey(cmd.OutOrStdout(), m.Layout().Name(), k)
			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printKey(w io.Writer, layoutName string, k *mcptools.KeyReport) {
	fmt.Fprintf(w, "%s on %s\n", k.Char, layoutName)
	fmt.Fprintf(w, "  position:  %s (row %d, shifted %t)\n", k.Position, k.Row, k.Shifted)
	fmt.Fprintf(w, "  finger:    %s, hand %s\n", k.Finger, k.Hand)
	fmt.Fprintf(w, "  base:      %.4f\n", k.Base)
	fmt.Fprintf(w, "  penalties: finger %.2f  row %.2f  hand %.2f\n", k.PenaltyFinger, k.PenaltyRow, k.PenaltyHand)
	fmt.Fprintf(w, "  penalty:   %.4f\n", k.Penalty)
}

func newTriadCmd(a *app) *cobra.Command {
	var (
		lf     layoutFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "triad <abc>",
		Short: "Break down the effort of a three-key sequence",
		Long: `Classifies the triad's hand, row and finger alternation and prints its
base, penalty, stroke and total effort.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(lf)
			if err != nil {
				return err
			}
			b, err := m.TriadEffort(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return report.WriteJSON(cmd.OutOrStdout(), b)
			}
			printBreakdown(cmd.OutOrStdout(), args[0], m.Layout().Name(), b)
			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printBreakdown(w io.Writer, triad, layoutName string, b effort.Breakdown) {
	fmt.Fprintf(w, "%s on %s\n", triad, layoutName)
	fmt.Fprintf(w, "  hand:    %d  %s\n", b.Hand, effort.HandAltNames[b.Hand])
	fmt.Fprintf(w, "  row:     %d  %s\n", b.Row, effort.RowAltNames[b.Row])
	fmt.Fprintf(w, "  finger:  %d  %s\n", b.Finger, effort.FingerAltNames[b.Finger])
	fmt.Fprintln(w, "  "+strings.Repeat("-", 30))
	fmt.Fprintf(w, "  base:    %.4f\n", b.Base)
	fmt.Fprintf(w, "  penalty: %.4f\n", b.Penalty)
	fmt.Fprintf(w, "  stroke:  %.4f\n", b.Stroke)
	fmt.Fprintf(w, "  total:   %.4f\n", b.Total)
}

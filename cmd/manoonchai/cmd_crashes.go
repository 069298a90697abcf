package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"manoonchai/internal/report"
)

func newCrashesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "crashes",
		Short: "List crash reports written by earlier runs",
		Long: `Lists the crash reports in the data directory, newest first. A report is
written when a command or an optimizer worker panics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := a.crash.Reports()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return report.WriteJSON(out, reports)
			}
			if len(reports) == 0 {
				fmt.Fprintln(out, "No crash reports.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tVERSION\tCOMMAND\tPANIC")
			for _, r := range reports {
				command := "-"
				if len(r.Args) > 1 {
					command = strings.Join(r.Args[1:], " ")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					humanize.Time(r.Timestamp), r.Version, command, firstLine(r.PanicValue))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d reports in %s\n", len(reports), a.crash.Dir())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full reports as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all crash reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.crash.ClearReports()
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d crash reports\n", n)
			return err
		},
	})
	return cmd
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

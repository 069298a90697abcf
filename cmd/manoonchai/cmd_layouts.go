package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"manoonchai/internal/layout"
	"manoonchai/internal/report"
)

func newLayoutsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List, inspect, check and export layouts",
	}
	cmd.AddCommand(
		newLayoutsListCmd(a),
		newLayoutsShowCmd(a),
		newLayoutsCheckCmd(a),
		newLayoutsExportCmd(a),
		newLayoutsVerifyCmd(a),
	)
	return cmd
}

func newLayoutsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in presets and saved layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSOURCE\tFINGERPRINT\tCREATED")
			for _, name := range layout.PresetNames() {
				source := "preset"
				if name == layout.DefaultPreset {
					source = "preset (default)"
				}
				fmt.Fprintf(tw, "%s\t%s\t-\t-\n", name, source)
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.ListLayouts()
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintf(tw, "%s\tsaved #%d\t%s\t%s\n",
					r.Name, r.ID, r.Fingerprint[:12], humanize.Time(time.Unix(0, r.CreatedNs)))
			}
			return tw.Flush()
		},
	}
}

func newLayoutsShowCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <name|file>",
		Short: "Print a layout's key matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.layoutArg(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return report.WriteJSON(out, layout.FileFromLayout(l))
			}
			fmt.Fprintf(out, "%s\n\n", l.Name())
			report.PrintMatrix(out, l.Matrix())
			if dups := l.Matrix().Duplicates(); len(dups) > 0 {
				fmt.Fprintf(out, "\nduplicate keys (first occurrence is used): %s\n", string(dups))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newLayoutsCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file...>",
		Short: "Validate layout files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				f, err := layout.ReadFile(path)
				if err == nil {
					_, err = f.Layout()
				}
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", path, err)
					continue
				}
				m, _ := f.Matrix()
				if dups := m.Duplicates(); len(dups) > 0 {
					fmt.Fprintf(out, "ok    %s (%s; duplicate keys %s)\n", path, f.Name, string(dups))
					continue
				}
				fmt.Fprintf(out, "ok    %s (%s)\n", path, f.Name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d layout files invalid", failed, len(args))
			}
			a.log.Debug("layout files valid", "count", len(args))
			return nil
		},
	}
}

func newLayoutsExportCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "export <name> <file>",
		Short: "Write a preset or saved layout to a file",
		Long: `Writes the layout as TOML, JSON or YAML, chosen by the file extension.
The file can be edited and used with --layout-file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[1]
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s exists (use --force to overwrite)", path)
				}
			}
			l, err := a.namedLayout(args[0])
			if err != nil {
				return err
			}
			if err := layout.WriteFile(path, layout.FileFromLayout(l)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s to %s\n", l.Name(), path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newLayoutsVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check saved layouts against their fingerprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			bad, err := st.VerifyAllLayouts()
			if err != nil {
				return err
			}
			if len(bad) > 0 {
				return fmt.Errorf("%d saved layouts failed verification: %v", len(bad), bad)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all saved layouts verified")
			return nil
		},
	}
}

// layoutArg resolves a positional argument that is either a layout file or
// a layout name.
func (a *app) layoutArg(arg string) (*layout.Layout, error) {
	if isLayoutFile(arg) {
		return a.resolveLayout(layoutFlags{file: arg})
	}
	l, err := a.namedLayout(arg)
	if errors.Is(err, layout.ErrUnknownPreset) {
		return nil, fmt.Errorf("%w (not a preset, saved layout or layout file)", err)
	}
	return l, err
}

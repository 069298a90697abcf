package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"

	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
	"manoonchai/internal/optimizer"
)

var rowNames = [layout.PhysicalRows]string{"number", "upper", "home", "lower"}

// PrintReport writes a human-readable effort report to w.
func PrintReport(w io.Writer, s *Summary) {
	if s == nil {
		fmt.Fprintln(w, "No summary available")
		return
	}

	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "%s\n", center("TYPING EFFORT: "+strings.ToUpper(s.Layout), 72))
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Characters:     %s\n", humanize.Comma(int64(s.Runes)))
	fmt.Fprintf(w, "Typed:          %s (%.1f%% coverage)\n", humanize.Comma(int64(s.Mapped)), 100*s.Coverage)
	fmt.Fprintf(w, "Triads:         %s\n", humanize.Comma(int64(s.Triads)))
	if len(s.Missing) > 0 {
		fmt.Fprintf(w, "Missing keys:   %s\n", strings.Join(s.Missing, " "))
	}
	fmt.Fprintln(w)

	section(w, "EFFORT")
	fmt.Fprintf(w, "Total:          %s\n", humanize.CommafWithDigits(s.TotalEffort, 2))
	fmt.Fprintf(w, "Mean per triad: %.4f  %s\n", s.MeanPerTriad, FormatMetricBar(s.MeanPerTriad, 0, 10, 20))
	fmt.Fprintf(w, "  -> %s\n", interpretMeanEffort(s.MeanPerTriad))
	fmt.Fprintf(w, "Base:           %s\n", humanize.CommafWithDigits(s.BaseEffort, 2))
	fmt.Fprintf(w, "Penalty:        %s\n", humanize.CommafWithDigits(s.PenaltyEffort, 2))
	fmt.Fprintf(w, "Stroke path:    %s\n", humanize.CommafWithDigits(s.StrokeEffort, 2))
	fmt.Fprintln(w)

	section(w, "KEY USAGE")
	fmt.Fprintf(w, "Left hand:      %5.1f%%  %s\n", 100*s.Share(s.HandUsage[0]), FormatMetricBar(s.Share(s.HandUsage[0]), 0, 1, 20))
	fmt.Fprintf(w, "Right hand:     %5.1f%%  %s\n", 100*s.Share(s.HandUsage[1]), FormatMetricBar(s.Share(s.HandUsage[1]), 0, 1, 20))
	fmt.Fprintf(w, "  -> %s\n", interpretHandBalance(s.Share(s.HandUsage[0])))
	for r, n := range s.RowUsage {
		fmt.Fprintf(w, "Row %-10s  %5.1f%%  %s\n", rowNames[r]+":", 100*s.Share(n), FormatMetricBar(s.Share(n), 0, 1, 20))
	}
	for f, n := range s.FingerUsage {
		finger := layout.Finger(f)
		if finger == layout.LeftThumb || finger == layout.RightThumb {
			continue
		}
		fmt.Fprintf(w, "%-14s  %5.1f%%  %s\n", finger.String()+":", 100*s.Share(n), FormatMetricBar(s.Share(n), 0, 0.5, 20))
	}
	fmt.Fprintf(w, "Shifted:        %5.1f%%\n", 100*s.ShiftedRatio)
	fmt.Fprintln(w)

	section(w, "STROKE PATHS")
	printClasses(w, "Hand", s, s.HandAlt[:], effort.HandAltNames[:])
	printClasses(w, "Row", s, s.RowAlt[:], effort.RowAltNames[:])
	printClasses(w, "Finger", s, s.FingerAlt[:], effort.FingerAltNames[:])

	if len(s.Costliest) > 0 {
		section(w, "COSTLIEST TRIADS")
		for i, tc := range s.Costliest {
			fmt.Fprintf(w, "%2d. %s  x%-8s %s\n", i+1, tc.Triad, humanize.Comma(int64(tc.Count)), humanize.CommafWithDigits(tc.Effort, 2))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

func printClasses(w io.Writer, title string, s *Summary, counts []int, names []string) {
	fmt.Fprintf(w, "%s alternation:\n", title)
	for i, n := range counts {
		fmt.Fprintf(w, "  %d %-42s %5.1f%%\n", i, names[i], 100*s.TriadShare(n))
	}
	fmt.Fprintln(w)
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintln(w)
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintComparison writes a ranking of several layouts, best first.
func PrintComparison(w io.Writer, summaries []*Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No layouts to compare")
		return
	}
	ranked := Rank(summaries)
	best := ranked[0].MeanPerTriad

	fmt.Fprintf(w, "%-4s %-18s %10s %12s %9s %8s\n", "#", "LAYOUT", "MEAN", "TOTAL", "VS BEST", "COVER")
	for i, s := range ranked {
		rel := "-"
		if i > 0 && best > 0 {
			rel = fmt.Sprintf("+%.1f%%", 100*(s.MeanPerTriad-best)/best)
		}
		fmt.Fprintf(w, "%-4d %-18s %10.4f %12s %9s %7.1f%%\n",
			i+1, s.Layout, s.MeanPerTriad, humanize.CommafWithDigits(s.TotalEffort, 1), rel, 100*s.Coverage)
	}
}

// PrintOptimization writes the outcome of an optimizer run, including
// the final matrix.
func PrintOptimization(w io.Writer, r *optimizer.Result) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "%s\n", center("OPTIMIZATION RESULT", 72))
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Strategy:       %s (%d workers, seed %d)\n", r.Strategy, r.Workers, r.Seed)
	fmt.Fprintf(w, "Rounds:         %s (stopped: %s)\n", humanize.Comma(int64(r.Iterations)), r.Stop)
	fmt.Fprintf(w, "Accepted swaps: %d\n", r.Accepted)
	fmt.Fprintf(w, "Duration:       %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Effort:         %s -> %s  (%.2f%% lower)\n",
		humanize.CommafWithDigits(r.Initial, 2), humanize.CommafWithDigits(r.Final, 2), 100*r.Improvement())
	fmt.Fprintf(w, "                %s\n", FormatMetricBar(r.Improvement(), 0, 0.5, 40))
	fmt.Fprintln(w)

	if len(r.Swaps) > 0 {
		section(w, "SWAPS")
		for _, s := range r.Swaps {
			fmt.Fprintf(w, "round %-6d %s %s <-> %s %s  %s\n",
				s.Round, s.A, s.CharA, s.CharB, s.B, humanize.CommafWithDigits(s.Effort, 2))
		}
		fmt.Fprintln(w)
	}

	section(w, "LAYOUT")
	PrintMatrix(w, r.Matrix)
}

// PrintMatrix writes the matrix one row per line, keys separated by spaces.
// Combining marks are drawn on a dotted circle so they stay visible.
func PrintMatrix(w io.Writer, m layout.Matrix) {
	for r, row := range m {
		if r == layout.PhysicalRows {
			fmt.Fprintln(w)
		}
		keys := make([]string, len(row))
		for c, ch := range row {
			keys[c] = displayKey(ch)
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", r%layout.PhysicalRows), strings.Join(keys, " "))
	}
}

func displayKey(ch rune) string {
	if unicode.Is(unicode.Mn, ch) {
		return "◌" + string(ch)
	}
	return string(ch)
}

// FormatMetricBar produces an ASCII bar for value within [min, max].
func FormatMetricBar(value, min, max float64, width int) string {
	if width <= 0 {
		return ""
	}
	if max <= min {
		return strings.Repeat("-", width)
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	filled := int(normalized * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func interpretMeanEffort(mean float64) string {
	switch {
	case mean < 1.5:
		return "Very low: most triads stay on the home row and alternate hands"
	case mean < 2.5:
		return "Low: comfortable layout for this text"
	case mean < 4:
		return "Moderate: frequent row jumps or same-finger strokes"
	default:
		return "High: heavy use of outer rows and weak fingers"
	}
}

func interpretHandBalance(left float64) string {
	switch {
	case left < 0.35:
		return "Right-heavy: the right hand does most of the typing"
	case left > 0.65:
		return "Left-heavy: the left hand does most of the typing"
	default:
		return "Balanced between hands"
	}
}

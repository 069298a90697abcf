package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"manoonchai/internal/config"
	"manoonchai/internal/corpus"
	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
	"manoonchai/internal/report"
	"manoonchai/internal/watcher"
)

// rescorer keeps the latest layout and corpus of a watch session and
// prints a line each time the score is recomputed.
type rescorer struct {
	layoutPath  string
	corpusPaths []string
	weights     func() effort.Weights
	out         io.Writer

	layout *layout.Layout
	corpus *corpus.Corpus
	last   float64
}

// handle reloads whatever changed and rescores. Errors are printed rather
// than returned: a half-edited layout file must not end the session.
func (r *rescorer) handle(ev watcher.Event) {
	if ev.Path == r.layoutPath || r.layout == nil {
		f, err := layout.ReadFile(r.layoutPath)
		if err == nil {
			r.layout, err = f.Layout()
		}
		if err != nil {
			fmt.Fprintf(r.out, "%s  %s: %v\n", ev.Timestamp.Format(time.TimeOnly), filepath.Base(r.layoutPath), err)
			r.layout = nil
			return
		}
	}
	if ev.Path != r.layoutPath || r.corpus == nil {
		c, err := corpus.Load(r.corpusPaths...)
		if err != nil {
			fmt.Fprintf(r.out, "%s  corpus: %v\n", ev.Timestamp.Format(time.TimeOnly), err)
			return
		}
		r.corpus = c
	}
	r.rescore(ev.Timestamp)
}

func (r *rescorer) rescore(at time.Time) {
	if r.layout == nil || r.corpus == nil {
		return
	}
	s, err := report.Analyze(effort.NewModel(r.layout, r.weights()), r.corpus)
	if err != nil {
		fmt.Fprintf(r.out, "%s  score: %v\n", at.Format(time.TimeOnly), err)
		return
	}

	delta := ""
	if r.last != 0 {
		delta = fmt.Sprintf(" (%+.4f)", s.MeanPerTriad-r.last)
	}
	r.last = s.MeanPerTriad
	fmt.Fprintf(r.out, "%s  %s  mean %.4f%s  total %.2f  coverage %.1f%%\n",
		at.Format(time.TimeOnly), s.Layout, s.MeanPerTriad, delta, s.TotalEffort, 100*s.Coverage)
}

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <layout-file> [corpus files...]",
		Short: "Rescore a layout file every time it is saved",
		Long: `Watches a layout file and the corpus, and prints the mean effort per
triad each time either settles after a change. Changes to the model
coefficients in the config file apply on the next rescore.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layoutPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			paths, err := a.corpusPaths(args[1:])
			if err != nil {
				return err
			}
			for i, p := range paths {
				if paths[i], err = filepath.Abs(p); err != nil {
					return err
				}
			}

			weights := make(chan effort.Weights, 1)
			current := a.weights()
			if err := a.loader.Watch(); err != nil {
				a.log.Warn("config hot reload disabled", "error", err)
			} else {
				a.loader.OnChange(func(c *config.Config) {
					select {
					case <-weights:
					default:
					}
					weights <- c.Model.Weights()
				})
			}

			r := &rescorer{
				layoutPath:  layoutPath,
				corpusPaths: paths,
				out:         cmd.OutOrStdout(),
				weights: func() effort.Weights {
					select {
					case w := <-weights:
						current = w
						a.log.Info("model coefficients reloaded")
					default:
					}
					return current
				},
			}

			w, err := watcher.New(append([]string{layoutPath}, paths...), debounce)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			a.log.Info("watching", "layout", layoutPath, "corpus_files", len(paths))
			return w.Run(ctx, r.handle, func(err error) {
				a.log.Warn("watch", "error", err)
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "wait this long after the last write before rescoring")
	return cmd
}

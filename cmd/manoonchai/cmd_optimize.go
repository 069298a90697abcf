package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"manoonchai/internal/layout"
	"manoonchai/internal/logging"
	"manoonchai/internal/metrics"
	"manoonchai/internal/optimizer"
	"manoonchai/internal/report"
	"manoonchai/internal/store"
)

func newOptimizeCmd(a *app) *cobra.Command {
	var (
		lf         layoutFlags
		iterations int
		workers    int
		candidates int
		patience   int
		seed       int64
		strategy   string
		timeout    time.Duration
		save       bool
		name       string
		out        string
		asJSON     bool
		quiet      bool
		metricsOut string
	)

	cmd := &cobra.Command{
		Use:   "optimize [corpus files...]",
		Short: "Search for a layout with lower effort on a corpus",
		Long: `Hill-climbs from the selected layout: every round each worker scores
candidate swaps of unlocked keys, and the best strictly improving swap is
applied. The search stops after --iterations rounds, after --patience rounds
without improvement, or on Ctrl-C, keeping the best layout found so far.

Runs are reproducible for a fixed --seed and --workers.

Example:
  manoonchai optimize --iterations 2000 --workers 8 --seed 42 --out best.toml corpus.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.loadCorpus(args)
			if err != nil {
				return err
			}
			l, err := a.resolveLayout(lf)
			if err != nil {
				return err
			}
			base := l.Name()

			opts := a.cfg.OptimizerOptions()
			flags := cmd.Flags()
			if flags.Changed("iterations") {
				opts.Iterations = iterations
			}
			if flags.Changed("workers") {
				opts.Workers = workers
			}
			if flags.Changed("candidates") {
				opts.Candidates = candidates
			}
			if flags.Changed("patience") {
				opts.Patience = patience
			}
			if flags.Changed("seed") {
				opts.Seed = seed
			}
			if flags.Changed("strategy") {
				s, err := optimizer.ParseStrategy(strategy)
				if err != nil {
					return err
				}
				opts.Strategy = s
			}
			if flags.Changed("timeout") {
				opts.Timeout = timeout
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			runID := uuid.NewString()
			ctx = logging.ContextWithRunID(ctx, runID)
			log := a.log.WithContext(ctx)
			opts.Logger = log.Logger
			if !quiet {
				progress := cmd.ErrOrStderr()
				opts.Progress = func(p optimizer.Progress) {
					fmt.Fprintf(progress, "round %-6d swaps %-4d effort %.2f (%.2f%% lower)\n",
						p.Round, p.Accepted, p.Effort, 100*(p.Initial-p.Effort)/p.Initial)
				}
			}

			opts.Recover = a.crash.Recover
			if metricsOut != "" {
				opts.Metrics = metrics.NewOptimizer(metrics.NewRegistry("manoonchai", ""))
			}

			started := time.Now()
			res, err := optimizer.New(opts).Run(ctx, l, c)
			if err != nil {
				return err
			}
			if metricsOut != "" {
				if err := writeMetrics(metricsOut, opts.Metrics.Registry()); err != nil {
					return err
				}
				rounds := opts.Metrics.RoundDuration
				log.Info("metrics written",
					"path", metricsOut,
					"rounds", rounds.Count(),
					"mean_round", time.Duration(rounds.Mean()*float64(time.Second)),
				)
			}

			if name == "" {
				name = base + "-opt"
			}
			result, err := layout.New(name, res.Matrix, l.Locked())
			if err != nil {
				return err
			}

			if out != "" {
				f := layout.FileFromLayout(result)
				f.Description = fmt.Sprintf("optimized from %s, seed %d, effort %.2f", base, res.Seed, res.Final)
				if err := layout.WriteFile(out, f); err != nil {
					return err
				}
				log.Info("layout written", "path", out)
			}

			if save || a.cfg.Storage.SaveRuns {
				if err := a.recordRun(runID, res, result, base, c.Hash(), started, save); err != nil {
					return err
				}
			}

			if asJSON {
				return report.WriteJSON(cmd.OutOrStdout(), struct {
					RunID string `json:"run_id"`
					*optimizer.Result
					Layout [layout.Rows]string `json:"layout"`
				}{runID, res, res.Matrix.Strings()})
			}
			report.PrintOptimization(cmd.OutOrStdout(), res)
			return nil
		},
	}

	lf.register(cmd)
	f := cmd.Flags()
	f.IntVarP(&iterations, "iterations", "n", 0, "maximum rounds")
	f.IntVarP(&workers, "workers", "w", 0, "parallel workers (default: GOMAXPROCS)")
	f.IntVar(&candidates, "candidates", 0, "random swaps per worker per round")
	f.IntVar(&patience, "patience", 0, "stop after this many rounds without improvement (0 disables)")
	f.Int64Var(&seed, "seed", 0, "random seed")
	f.StringVar(&strategy, "strategy", "", "search strategy: random or sweep")
	f.DurationVar(&timeout, "timeout", 0, "stop after this long")
	f.BoolVar(&save, "save", false, "save the resulting layout to the store")
	f.StringVar(&name, "name", "", "name of the resulting layout (default: <base>-opt)")
	f.StringVarP(&out, "out", "o", "", "write the resulting layout to a file")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	f.BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	f.StringVar(&metricsOut, "metrics", "", "write run metrics to a file (JSON if it ends in .json, Prometheus text otherwise)")
	return cmd
}

func writeMetrics(path string, r *metrics.Registry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = r.WriteJSON(f)
	} else {
		err = r.WritePrometheus(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// recordRun stores the run and, when saveLayout is set, the resulting
// layout.
func (a *app) recordRun(runID string, res *optimizer.Result, result *layout.Layout, base, corpusHash string, started time.Time, saveLayout bool) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var layoutID *int64
	if saveLayout {
		rec, err := st.SaveLayout(result, fmt.Sprintf("optimized from %s", base))
		if err != nil {
			return err
		}
		layoutID = &rec.ID
		a.log.Info("layout saved", "id", rec.ID, "name", rec.Name, "fingerprint", rec.Fingerprint[:12])
	}

	run := store.RunFromResult(res, base, corpusHash, layoutID, started)
	run.ID = runID
	if err := st.InsertRun(run); err != nil {
		return err
	}
	a.log.Info("run recorded", "run_id", runID, "swaps", len(run.Swaps))
	return nil
}

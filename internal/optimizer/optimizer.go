// Package optimizer searches for lower-effort layouts by swapping unlocked
// keys and re-scoring a corpus.
//
// Each round fans candidate evaluation out over a fixed set of workers.
// Every worker owns a private clone of the layout and a private random
// stream, so no Layout or rand.Rand is ever shared between goroutines and
// a run is reproducible for a given seed and worker count.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"manoonchai/internal/corpus"
	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
)

// ErrSwapRejected means the layout refused a swap a worker proposed, which
// only happens if the layout was changed while a run was in progress.
var ErrSwapRejected = errors.New("optimizer: swap rejected by layout")

// ErrWorkerPanic means a worker panicked while scoring candidates. The run
// fails with it instead of taking the process down.
var ErrWorkerPanic = errors.New("optimizer: worker panicked")

// Score returns the total effort of weighted triads on the model's layout.
func Score(m *effort.Model, triads []corpus.Weighted) (float64, error) {
	var total float64
	for _, w := range triads {
		b, err := m.TriadRunes([3]rune(w.Triad))
		if err != nil {
			return 0, err
		}
		total += float64(w.Count) * b.Total
	}
	return total, nil
}

// Optimizer runs a hill-climbing search over key swaps.
type Optimizer struct {
	opts Options
	log  *slog.Logger
}

// New creates an optimizer. Zero-valued options fall back to safe values.
func New(opts Options) *Optimizer {
	opts = opts.normalized()
	return &Optimizer{opts: opts, log: opts.Logger}
}

// Options returns the effective options.
func (o *Optimizer) Options() Options { return o.opts }

type candidate struct {
	a, b   layout.Position
	effort float64
	ok     bool
}

func (c candidate) better(o candidate) bool {
	return c.ok && (!o.ok || c.effort < o.effort)
}

type worker struct {
	id     int
	layout *layout.Layout
	model  *effort.Model
	rng    *rand.Rand
	triads []corpus.Weighted

	// scored counts candidates evaluated in the current round. Only the
	// worker writes it; the coordinator reads it after the round's Wait.
	scored int
}

// Run optimizes l in place against c and returns the search summary.
//
// The best strictly improving swap of each round is committed to l.
// Cancelling ctx is not an error: the run stops and reports what it found
// so far with Stop set to StopCancelled.
func (o *Optimizer) Run(ctx context.Context, l *layout.Layout, c *corpus.Corpus) (*Result, error) {
	opts := o.opts
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	start := time.Now()

	counts, stats := c.TriadCounts(l)
	triads := corpus.SortedTriads(counts)

	initial, err := Score(effort.NewModel(l, opts.Weights), triads)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Initial:  initial,
		Final:    initial,
		Seed:     opts.Seed,
		Strategy: opts.Strategy,
		Workers:  opts.Workers,
		Triads:   len(triads),
	}
	opts.Metrics.RunStarted(initial)
	o.log.Info("optimizer started",
		"layout", l.Name(),
		"strategy", opts.Strategy,
		"workers", opts.Workers,
		"seed", opts.Seed,
		"triads", len(triads),
		"unmapped", stats.Unmapped,
		"effort", initial,
	)

	free := l.UnlockedPositions()
	if len(free) < 2 {
		res.Stop = StopNoMoves
		return o.finish(res, l, start), nil
	}

	root := rngFromSeed(opts.Seed)
	pivots := deriveRNG(root, 0)
	workers := make([]*worker, opts.Workers)
	for i := range workers {
		wl := l.Clone()
		workers[i] = &worker{
			id:     i,
			layout: wl,
			model:  effort.NewModel(wl, opts.Weights),
			rng:    deriveRNG(root, uint64(i+1)),
			triads: triads,
		}
	}

	current := initial
	stale := 0
	for round := 1; round <= opts.Iterations; round++ {
		if ctx.Err() != nil {
			res.Stop = StopCancelled
			break
		}

		var pivot layout.Position
		if opts.Strategy == StrategySweep {
			pivot = free[pivots.Intn(len(free))]
		}

		timer := opts.Metrics.RoundTimer()
		best, err := o.round(ctx, workers, l.Matrix(), free, pivot)
		if err != nil {
			if ctx.Err() != nil {
				res.Stop = StopCancelled
				break
			}
			return nil, err
		}
		res.Iterations = round
		scored := 0
		for _, w := range workers {
			scored += w.scored
		}
		opts.Metrics.RoundFinished(timer, scored)

		if !best.ok || !improves(best.effort, current) {
			stale++
			if opts.Patience > 0 && stale >= opts.Patience {
				res.Stop = StopPatience
				break
			}
			continue
		}

		m := l.Matrix()
		swap := Swap{
			Round:  round,
			A:      best.a,
			B:      best.b,
			CharA:  string(m[best.a.Row][best.a.Column]),
			CharB:  string(m[best.b.Row][best.b.Column]),
			Effort: best.effort,
		}
		if !l.SwapUnlockedPair(best.a, best.b) {
			return nil, fmt.Errorf("%w: %s <-> %s", ErrSwapRejected, best.a, best.b)
		}
		current = best.effort
		stale = 0
		res.Accepted++
		res.Swaps = append(res.Swaps, swap)
		opts.Metrics.SwapAccepted(current)

		o.log.Debug("swap accepted",
			"round", round,
			"a", swap.A.String(),
			"b", swap.B.String(),
			"chars", swap.CharA+swap.CharB,
			"effort", current,
		)
		if opts.Progress != nil {
			opts.Progress(Progress{
				Round:    round,
				Accepted: res.Accepted,
				Initial:  initial,
				Effort:   current,
				Swap:     swap,
			})
		}
	}
	if res.Stop == "" {
		res.Stop = StopIterations
	}
	res.Final = current
	return o.finish(res, l, start), nil
}

func (o *Optimizer) finish(res *Result, l *layout.Layout, start time.Time) *Result {
	res.Matrix = l.Matrix()
	res.Duration = time.Since(start)
	o.opts.Metrics.RunFinished(res.Duration)
	o.log.Info("optimizer finished",
		"layout", l.Name(),
		"stop", res.Stop,
		"rounds", res.Iterations,
		"accepted", res.Accepted,
		"initial", res.Initial,
		"final", res.Final,
		"duration", res.Duration,
	)
	return res
}

// round evaluates one batch of candidates on every worker and returns the
// best. Ties go to the lowest worker id.
func (o *Optimizer) round(ctx context.Context, workers []*worker, cur layout.Matrix, free []layout.Position, pivot layout.Position) (candidate, error) {
	results := make([]candidate, len(workers))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range workers {
		g.Go(func() error {
			var err error
			if perr := o.protect(w.id, func() {
				results[i], err = o.evaluate(gctx, w, cur, free, pivot, len(workers))
			}); perr != nil {
				return perr
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return candidate{}, err
	}

	var best candidate
	for _, c := range results {
		if c.better(best) {
			best = c
		}
	}
	return best, nil
}

func (o *Optimizer) evaluate(ctx context.Context, w *worker, cur layout.Matrix, free []layout.Position, pivot layout.Position, stride int) (candidate, error) {
	w.scored = 0
	if err := w.layout.SetMatrix(cur); err != nil {
		return candidate{}, err
	}
	switch o.opts.Strategy {
	case StrategySweep:
		return w.sweep(ctx, free, pivot, stride)
	default:
		return w.random(ctx, o.opts.Candidates)
	}
}

// protect runs fn and turns a panic into ErrWorkerPanic. With
// Options.Recover set, the panic is handed to it instead.
func (o *Optimizer) protect(id int, fn func()) (err error) {
	if o.opts.Recover != nil {
		if o.opts.Recover(fn) {
			return fmt.Errorf("%w: worker %d", ErrWorkerPanic, id)
		}
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: worker %d: %v", ErrWorkerPanic, id, r)
		}
	}()
	fn()
	return nil
}

// try scores the layout with a and b swapped, then swaps them back.
func (w *worker) try(a, b layout.Position) (candidate, error) {
	if !w.layout.SwapUnlockedPair(a, b) {
		return candidate{}, nil
	}
	e, err := Score(w.model, w.triads)
	w.layout.SwapUnlockedPair(a, b)
	w.scored++
	if err != nil {
		return candidate{}, err
	}
	return candidate{a: a, b: b, effort: e, ok: true}, nil
}

func (w *worker) random(ctx context.Context, n int) (candidate, error) {
	var best candidate
	for k := 0; k < n; k++ {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		a, b, ok := w.layout.SwapRandomPair(w.rng)
		if !ok {
			return best, nil
		}
		// Undo and re-apply through try so scoring has one code path.
		w.layout.SwapUnlockedPair(a, b)
		c, err := w.try(a, b)
		if err != nil {
			return best, err
		}
		if c.better(best) {
			best = c
		}
	}
	return best, nil
}

// sweep tries pivot against the share of free positions assigned to this
// worker (every stride-th one, offset by the worker id).
func (w *worker) sweep(ctx context.Context, free []layout.Position, pivot layout.Position, stride int) (candidate, error) {
	var best candidate
	for j, p := range free {
		if j%stride != w.id || p == pivot {
			continue
		}
		if err := ctx.Err(); err != nil {
			return best, err
		}
		c, err := w.try(pivot, p)
		if err != nil {
			return best, err
		}
		if c.better(best) {
			best = c
		}
	}
	return best, nil
}

// improves reports whether next is lower than cur by more than float noise.
func improves(next, cur float64) bool {
	return next < cur-1e-9*math.Max(1, math.Abs(cur))
}

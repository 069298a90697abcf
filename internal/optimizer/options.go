package optimizer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
	"manoonchai/internal/metrics"
)

// Strategy selects how candidate swaps are generated each round.
type Strategy string

const (
	// StrategyRandom tries random unlocked pairs.
	StrategyRandom Strategy = "random"
	// StrategySweep picks one unlocked key and tries it against every
	// other unlocked key.
	StrategySweep Strategy = "sweep"
)

// ErrUnknownStrategy is returned by ParseStrategy.
var ErrUnknownStrategy = errors.New("optimizer: unknown strategy")

// ParseStrategy parses a strategy name. The empty string means random.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyRandom:
		return StrategyRandom, nil
	case StrategySweep:
		return StrategySweep, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Options configures a run.
type Options struct {
	// Iterations is the maximum number of rounds.
	Iterations int
	// Workers is the number of goroutines scoring candidates each round.
	Workers int
	// Candidates is the number of random swaps each worker tries per
	// round. Ignored by the sweep strategy.
	Candidates int
	// Patience stops the run after this many rounds without improvement.
	// Zero disables it.
	Patience int
	// Seed makes runs reproducible for a fixed worker count. Zero means 1.
	Seed     int64
	Strategy Strategy
	Weights  effort.Weights

	// Timeout bounds the whole run. Zero means no limit beyond the
	// caller's context.
	Timeout time.Duration

	// Progress is called from the coordinating goroutine after every
	// accepted swap.
	Progress func(Progress)
	Logger   *slog.Logger
	// Metrics, when set, receives per-round counters and timings.
	Metrics *metrics.Optimizer
	// Recover, when set, runs each worker's share of a round and reports
	// whether it panicked. A crash handler plugs in here to write a dump.
	Recover func(fn func()) (panicked bool)
}

// DefaultOptions returns options for a modest random search.
func DefaultOptions() Options {
	return Options{
		Iterations: 1000,
		Workers:    runtime.GOMAXPROCS(0),
		Candidates: 8,
		Patience:   200,
		Seed:       defaultSeed,
		Strategy:   StrategyRandom,
		Weights:    effort.DefaultWeights(),
	}
}

func (o Options) normalized() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Candidates <= 0 {
		o.Candidates = 1
	}
	if o.Iterations < 0 {
		o.Iterations = 0
	}
	if o.Strategy == "" {
		o.Strategy = StrategyRandom
	}
	if o.Seed == 0 {
		o.Seed = defaultSeed
	}
	if o.Weights == (effort.Weights{}) {
		o.Weights = effort.DefaultWeights()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Swap is one accepted key exchange.
type Swap struct {
	Round  int             `json:"round"`
	A      layout.Position `json:"a"`
	B      layout.Position `json:"b"`
	CharA  string          `json:"char_a"` // character that was at A before the swap
	CharB  string          `json:"char_b"`
	Effort float64         `json:"effort"` // corpus effort after the swap
}

// Progress reports an accepted swap.
type Progress struct {
	Round    int
	Accepted int
	Initial  float64
	Effort   float64
	Swap     Swap
}

// StopReason says why a run ended.
type StopReason string

const (
	StopIterations StopReason = "iterations"
	StopPatience   StopReason = "patience"
	StopCancelled  StopReason = "cancelled"
	StopNoMoves    StopReason = "no-moves"
)

// Result is the outcome of a run.
type Result struct {
	Initial    float64       `json:"initial_effort"`
	Final      float64       `json:"final_effort"`
	Iterations int           `json:"iterations"`
	Accepted   int           `json:"accepted"`
	Swaps      []Swap        `json:"swaps"`
	Matrix     layout.Matrix `json:"-"`
	Duration   time.Duration `json:"duration"`
	Stop       StopReason    `json:"stop"`

	Seed     int64    `json:"seed"`
	Strategy Strategy `json:"strategy"`
	Workers  int      `json:"workers"`
	Triads   int      `json:"triads"`
}

// Improvement is the relative effort reduction, 0 when there was none.
func (r *Result) Improvement() float64 {
	if r.Initial == 0 {
		return 0
	}
	return (r.Initial - r.Final) / r.Initial
}

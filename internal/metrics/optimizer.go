package metrics

import "time"

// Optimizer holds the metrics recorded by optimizer runs. A nil *Optimizer
// is valid and records nothing.
type Optimizer struct {
	registry *Registry

	RunsTotal       *Counter
	RoundsTotal     *Counter
	CandidatesTotal *Counter
	SwapsTotal      *Counter

	InitialEffort *Gauge
	CurrentEffort *Gauge

	RoundDuration *Histogram
	RunDuration   *Histogram
}

// NewOptimizer registers the optimizer metrics on registry. A nil registry
// gets a fresh one under the "manoonchai" namespace.
func NewOptimizer(registry *Registry) *Optimizer {
	if registry == nil {
		registry = NewRegistry("manoonchai", "")
	}
	return &Optimizer{
		registry: registry,

		RunsTotal: registry.RegisterCounter("optimizer_runs_total",
			"Optimizer runs started", nil),
		RoundsTotal: registry.RegisterCounter("optimizer_rounds_total",
			"Search rounds completed", nil),
		CandidatesTotal: registry.RegisterCounter("optimizer_candidates_total",
			"Candidate swaps scored against the corpus", nil),
		SwapsTotal: registry.RegisterCounter("optimizer_swaps_accepted_total",
			"Swaps committed to the layout", nil),

		InitialEffort: registry.RegisterGauge("optimizer_initial_effort",
			"Corpus effort before the latest run", nil),
		CurrentEffort: registry.RegisterGauge("optimizer_effort",
			"Corpus effort of the layout being optimized", nil),

		RoundDuration: registry.RegisterHistogram("optimizer_round_duration_seconds",
			"Wall time of one search round", nil, DurationBuckets),
		RunDuration: registry.RegisterHistogram("optimizer_run_duration_seconds",
			"Wall time of a whole run", nil, []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600}),
	}
}

// Registry returns the registry the metrics live on.
func (m *Optimizer) Registry() *Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RunStarted records the start of a run at the given effort.
func (m *Optimizer) RunStarted(effort float64) {
	if m == nil {
		return
	}
	m.RunsTotal.Inc()
	m.InitialEffort.Set(effort)
	m.CurrentEffort.Set(effort)
}

// RoundTimer starts timing a search round. It is nil when m is nil.
func (m *Optimizer) RoundTimer() *HistogramTimer {
	if m == nil {
		return nil
	}
	return m.RoundDuration.Timer()
}

// RoundFinished stops the round timer and records that the round scored
// candidates swaps.
func (m *Optimizer) RoundFinished(t *HistogramTimer, candidates int) {
	if m == nil {
		return
	}
	t.Stop()
	m.RoundsTotal.Inc()
	m.CandidatesTotal.Add(uint64(candidates))
}

// SwapAccepted records a committed swap and the new effort.
func (m *Optimizer) SwapAccepted(effort float64) {
	if m == nil {
		return
	}
	m.SwapsTotal.Inc()
	m.CurrentEffort.Set(effort)
}

// RunFinished records the wall time of a run.
func (m *Optimizer) RunFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.ObserveDuration(d)
}

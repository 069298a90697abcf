// Package metrics provides Prometheus-compatible counters, gauges and
// histograms that can be written out as text or JSON after a run.
//
// All metric types are safe for concurrent use.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricType represents the type of metric.
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Labels represents metric labels.
type Labels map[string]string

// String renders labels in Prometheus form with keys sorted.
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}

	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(l))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s=%q`, k, l[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels Labels
	value  atomic.Uint64
}

// NewCounter creates a new Counter.
func NewCounter(name, help string, labels Labels) *Counter {
	return &Counter{name: name, help: help, labels: labels}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds v to the counter.
func (c *Counter) Add(v uint64) { c.value.Add(v) }

// Value returns the current value.
func (c *Counter) Value() uint64 { return c.value.Load() }

// Gauge is a float value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels Labels
	bits   atomic.Uint64
}

// NewGauge creates a new Gauge.
func NewGauge(name, help string, labels Labels) *Gauge {
	return &Gauge{name: name, help: help, labels: labels}
}

// Set sets the gauge to v.
func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

// Value returns the current value.
func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }

// Histogram tracks the distribution of values.
type Histogram struct {
	name    string
	help    string
	labels  Labels
	buckets []float64

	mu     sync.Mutex
	counts []uint64 // per bucket, last is +Inf
	sum    float64
	count  uint64
}

// DurationBuckets are buckets for duration histograms in seconds.
var DurationBuckets = []float64{
	0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewHistogram creates a new Histogram. Nil buckets means DurationBuckets.
func NewHistogram(name, help string, labels Labels, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DurationBuckets
	}
	sorted := make([]float64, len(buckets))
	copy(sorted, buckets)
	sort.Float64s(sorted)

	return &Histogram{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: sorted,
		counts:  make([]uint64, len(sorted)+1),
	}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += v
	h.count++
	// Buckets are upper-inclusive, as in Prometheus.
	h.counts[sort.SearchFloat64s(h.buckets, v)]++
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Timer returns a timer that records its elapsed time when stopped.
func (h *Histogram) Timer() *HistogramTimer {
	return &HistogramTimer{histogram: h, start: time.Now()}
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Mean returns the mean of observed values, or 0 with no observations.
func (h *Histogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.meanLocked()
}

func (h *Histogram) meanLocked() float64 {
	if h.count == 0 {
		return 0
	}
	return h.sum / float64(h.count)
}

func (h *Histogram) cumulativeLocked() []uint64 {
	cum := make([]uint64, len(h.counts))
	var total uint64
	for i, c := range h.counts {
		total += c
		cum[i] = total
	}
	return cum
}

// HistogramTimer measures one observation.
type HistogramTimer struct {
	histogram *Histogram
	start     time.Time
}

// Stop records the elapsed time and returns it. Stopping a nil timer
// records nothing.
func (t *HistogramTimer) Stop() time.Duration {
	if t == nil {
		return 0
	}
	d := time.Since(t.start)
	t.histogram.ObserveDuration(d)
	return d
}

// Registry holds named metrics under a common prefix.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram

	namespace string
	subsystem string
}

// NewRegistry creates a new Registry. Metric names are prefixed with
// namespace and subsystem, each joined by an underscore when non-empty.
func NewRegistry(namespace, subsystem string) *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
		namespace:  namespace,
		subsystem:  subsystem,
	}
}

func (r *Registry) fullName(name string) string {
	var parts []string
	if r.namespace != "" {
		parts = append(parts, r.namespace)
	}
	if r.subsystem != "" {
		parts = append(parts, r.subsystem)
	}
	return strings.Join(append(parts, name), "_")
}

// RegisterCounter registers a counter, or returns the existing one.
func (r *Registry) RegisterCounter(name, help string, labels Labels) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.fullName(name)
	if c, ok := r.counters[full]; ok {
		return c
	}
	c := NewCounter(full, help, labels)
	r.counters[full] = c
	return c
}

// RegisterGauge registers a gauge, or returns the existing one.
func (r *Registry) RegisterGauge(name, help string, labels Labels) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.fullName(name)
	if g, ok := r.gauges[full]; ok {
		return g
	}
	g := NewGauge(full, help, labels)
	r.gauges[full] = g
	return g
}

// RegisterHistogram registers a histogram, or returns the existing one.
func (r *Registry) RegisterHistogram(name, help string, labels Labels, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.fullName(name)
	if h, ok := r.histograms[full]; ok {
		return h
	}
	h := NewHistogram(full, help, labels, buckets)
	r.histograms[full] = h
	return h
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WritePrometheus writes metrics in Prometheus text format, sorted by name
// within each metric type.
func (r *Registry) WritePrometheus(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name)
		fmt.Fprintf(&b, "%s%s %d\n", c.name, c.labels.String(), c.Value())
	}
	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n", g.name, g.help, g.name)
		fmt.Fprintf(&b, "%s%s %g\n", g.name, g.labels.String(), g.Value())
	}
	for _, name := range sortedKeys(r.histograms) {
		h := r.histograms[name]
		h.mu.Lock()
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)

		prefix := h.labels.String()
		if prefix == "" {
			prefix = "{"
		} else {
			prefix = prefix[:len(prefix)-1] + ","
		}
		cum := h.cumulativeLocked()
		for i, bucket := range h.buckets {
			fmt.Fprintf(&b, "%s_bucket%sle=\"%g\"} %d\n", h.name, prefix, bucket, cum[i])
		}
		fmt.Fprintf(&b, "%s_bucket%sle=\"+Inf\"} %d\n", h.name, prefix, cum[len(h.buckets)])
		fmt.Fprintf(&b, "%s_sum%s %g\n", h.name, h.labels.String(), h.sum)
		fmt.Fprintf(&b, "%s_count%s %d\n", h.name, h.labels.String(), h.count)
		h.mu.Unlock()
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes metrics as an indented JSON object keyed by name.
func (r *Registry) WriteJSON(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]any)
	for _, c := range r.counters {
		out[c.name] = map[string]any{
			"type":   TypeCounter.String(),
			"help":   c.help,
			"labels": c.labels,
			"value":  c.Value(),
		}
	}
	for _, g := range r.gauges {
		out[g.name] = map[string]any{
			"type":   TypeGauge.String(),
			"help":   g.help,
			"labels": g.labels,
			"value":  g.Value(),
		}
	}
	for _, h := range r.histograms {
		h.mu.Lock()
		cum := h.cumulativeLocked()
		buckets := make(map[string]uint64, len(cum))
		for i, bucket := range h.buckets {
			buckets[fmt.Sprintf("%g", bucket)] = cum[i]
		}
		buckets["+Inf"] = cum[len(h.buckets)]

		out[h.name] = map[string]any{
			"type":    TypeHistogram.String(),
			"help":    h.help,
			"labels":  h.labels,
			"buckets": buckets,
			"sum":     h.sum,
			"count":   h.count,
			"mean":    h.meanLocked(),
			"p50":     percentile(h.buckets, cum, 50),
			"p95":     percentile(h.buckets, cum, 95),
		}
		h.mu.Unlock()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// percentile estimates the p-th percentile from cumulative bucket counts.
// The final count is the +Inf bucket.
func percentile(buckets []float64, cum []uint64, p float64) float64 {
	if len(cum) == 0 || cum[len(cum)-1] == 0 || len(buckets) == 0 {
		return 0
	}

	total := cum[len(cum)-1]
	target := uint64(math.Ceil(float64(total) * p / 100))
	if target == 0 {
		target = 1
	}

	for i, count := range cum {
		if count < target {
			continue
		}
		if i == len(buckets) {
			return buckets[len(buckets)-1]
		}
		lower := 0.0
		prev := uint64(0)
		if i > 0 {
			lower = buckets[i-1]
			prev = cum[i-1]
		}
		upper := buckets[i]
		ratio := float64(target-prev) / float64(count-prev)
		return lower + (upper-lower)*ratio
	}
	return buckets[len(buckets)-1]
}

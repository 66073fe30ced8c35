// Package metrics implements a small Prometheus-format collector for the
// WebLoom server. It renders text/plain exposition output directly, without
// pulling in the prometheus client library.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing value.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Add(n int64)  { c.value.Add(n) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can move in both directions.
type Gauge struct {
	name  string
	help  string
	value atomic.Int64
}

func (g *Gauge) Set(v int64)  { g.value.Store(v) }
func (g *Gauge) Inc()         { g.value.Add(1) }
func (g *Gauge) Dec()         { g.value.Add(-1) }
func (g *Gauge) Value() int64 { return g.value.Load() }

// Histogram tracks a distribution with cumulative buckets.
type Histogram struct {
	name    string
	help    string
	mu      sync.Mutex
	count   int64
	sum     float64
	bounds  []float64
	buckets []int64
}

func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i, le := range h.bounds {
		if v <= le {
			h.buckets[i]++
		}
	}
}

// Registry holds the server's metrics and renders them in registration
// order so the exposition output is stable across scrapes.
type Registry struct {
	mu         sync.Mutex
	counters   []*Counter
	gauges     []*Gauge
	histograms []*Histogram
	byName     map[string]any
	startTime  time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		byName:    make(map[string]any),
		startTime: time.Now(),
	}
}

// Uptime reports time since the registry was created.
func (r *Registry) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// Counter returns the named counter, creating it on first use.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok {
		return existing.(*Counter)
	}
	c := &Counter{name: name, help: help}
	r.counters = append(r.counters, c)
	r.byName[name] = c
	return c
}

// Gauge returns the named gauge, creating it on first use.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok {
		return existing.(*Gauge)
	}
	g := &Gauge{name: name, help: help}
	r.gauges = append(r.gauges, g)
	r.byName[name] = g
	return g
}

// Histogram returns the named histogram, creating it on first use with the
// given bucket bounds.
func (r *Registry) Histogram(name, help string, bounds []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok {
		return existing.(*Histogram)
	}
	sorted := append([]float64(nil), bounds...)
	sort.Float64s(sorted)
	h := &Histogram{
		name:    name,
		help:    help,
		bounds:  sorted,
		buckets: make([]int64, len(sorted)),
	}
	r.histograms = append(r.histograms, h)
	r.byName[name] = h
	return h
}

// Render produces the Prometheus text exposition for all metrics.
func (r *Registry) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder

	fmt.Fprintf(&sb, "# HELP webloom_uptime_seconds Time since the server started.\n")
	fmt.Fprintf(&sb, "# TYPE webloom_uptime_seconds gauge\n")
	fmt.Fprintf(&sb, "webloom_uptime_seconds %d\n", int64(time.Since(r.startTime).Seconds()))

	for _, c := range r.counters {
		fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", c.name, c.help, c.name, c.name, c.Value())
	}
	for _, g := range r.gauges {
		fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n", g.name, g.help, g.name, g.name, g.Value())
	}
	for _, h := range r.histograms {
		h.mu.Lock()
		fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name)
		for i, le := range h.bounds {
			if math.IsInf(le, 1) {
				continue
			}
			fmt.Fprintf(&sb, "%s_bucket{le=%q} %d\n", h.name, fmt.Sprintf("%g", le), h.buckets[i])
		}
		// The format requires a +Inf bucket covering every observation.
		fmt.Fprintf(&sb, "%s_bucket{le=\"+Inf\"} %d\n", h.name, h.count)
		fmt.Fprintf(&sb, "%s_count %d\n", h.name, h.count)
		fmt.Fprintf(&sb, "%s_sum %f\n", h.name, h.sum)
		h.mu.Unlock()
	}

	return sb.String()
}

// Handler serves the exposition output.
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		fmt.Fprint(w, r.Render())
	}
}

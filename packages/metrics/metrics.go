// Package metrics aggregates invocation durations and outcomes.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
)

// Histogram range: 1us to 10min, 3 significant digits
const (
	minLatencyUs = 1
	maxLatencyUs = 600_000_000
	sigFigs      = 3
)

// Recorder collects per-method and global duration histograms
type Recorder struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	counts    Counts
	methods   map[string]*methodMetrics
	order     []string
}

// Counts tallies outcomes
type Counts struct {
	Total    int64 `json:"total"`
	Passed   int64 `json:"passed"`
	Failed   int64 `json:"failed"`
	Skipped  int64 `json:"skipped"`
	Ignored  int64 `json:"ignored"`
	Retried  int64 `json:"retried"`
	Attempts int64 `json:"attempts"`
}

type methodMetrics struct {
	counts    Counts
	histogram *hdrhistogram.Histogram
}

func NewRecorder() *Recorder {
	return &Recorder{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs),
		methods:   make(map[string]*methodMetrics),
	}
}

// Observe records one invocation result
func (r *Recorder) Observe(res *runner.InvocationResult) {
	key := res.Class + "." + res.Method
	latency := clamp(res.Duration.Microseconds())

	r.mu.Lock()
	defer r.mu.Unlock()

	mm, ok := r.methods[key]
	if !ok {
		mm = &methodMetrics{histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs)}
		r.methods[key] = mm
		r.order = append(r.order, key)
	}

	count(&r.counts, res)
	count(&mm.counts, res)

	// ignored methods never ran
	if res.Status != runner.StatusIgnored {
		_ = r.histogram.RecordValue(latency)
		_ = mm.histogram.RecordValue(latency)
	}
}

// ObserveRun records every result of a run
func (r *Recorder) ObserveRun(result *runner.RunResult) {
	for _, res := range result.Results {
		r.Observe(res)
	}
}

func count(c *Counts, res *runner.InvocationResult) {
	c.Total++
	c.Attempts += int64(res.Attempts)
	switch res.Status {
	case runner.StatusPassed:
		c.Passed++
		if res.Flaky() {
			c.Retried++
		}
	case runner.StatusFailed:
		c.Failed++
	case runner.StatusSkipped:
		c.Skipped++
	case runner.StatusIgnored:
		c.Ignored++
	}
}

func clamp(us int64) int64 {
	if us < minLatencyUs {
		return minLatencyUs
	}
	if us > maxLatencyUs {
		return maxLatencyUs
	}
	return us
}

// Latency holds duration percentiles
type Latency struct {
	P50  time.Duration `json:"p50"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	Mean time.Duration `json:"mean"`
}

// Summary is a point-in-time view of the recorder
type Summary struct {
	Counts
	Latency
	Methods []MethodSummary `json:"methods"`
}

// MethodSummary holds the figures of one test method
type MethodSummary struct {
	Name string `json:"name"`
	Counts
	Latency
}

// Summary returns the aggregated figures; methods are sorted by name
func (r *Recorder) Summary() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Summary{Counts: r.counts, Latency: latency(r.histogram)}
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	for _, name := range names {
		mm := r.methods[name]
		s.Methods = append(s.Methods, MethodSummary{
			Name:    name,
			Counts:  mm.counts,
			Latency: latency(mm.histogram),
		})
	}
	return s
}

func latency(h *hdrhistogram.Histogram) Latency {
	if h.TotalCount() == 0 {
		return Latency{}
	}
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return Latency{
		P50:  us(h.ValueAtQuantile(50)),
		P95:  us(h.ValueAtQuantile(95)),
		P99:  us(h.ValueAtQuantile(99)),
		Min:  us(h.Min()),
		Max:  us(h.Max()),
		Mean: time.Duration(h.Mean()) * time.Microsecond,
	}
}

package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	runsStarted   atomic.Uint64
	runsCompleted atomic.Uint64
	runsFailed    atomic.Uint64
	runsInFlight  atomic.Int64
	searchFailed  atomic.Uint64

	generationRequests = newLabeledCounter("task")
	generationFailures = newLabeledCounter("task")

	runDuration        = newHistogram([]float64{1000, 5000, 10000, 30000, 60000, 120000, 300000})
	generationDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncRunStarted counts a submission that passed validation.
func IncRunStarted() {
	runsStarted.Add(1)
	runsInFlight.Add(1)
}

// IncRunCompleted counts a run whose three steps all succeeded.
func IncRunCompleted() {
	runsCompleted.Add(1)
	runsInFlight.Add(-1)
}

// IncRunFailed counts a run that ended with any error.
func IncRunFailed() {
	runsFailed.Add(1)
	runsInFlight.Add(-1)
}

// IncSearchFailed counts job searches that fell back to a prompt without results.
func IncSearchFailed() {
	searchFailed.Add(1)
}

// ObserveRunDurationMs records an end-to-end run duration in milliseconds.
func ObserveRunDurationMs(value float64) {
	runDuration.Observe(max(value, 0))
}

// ObserveGeneration records one generation call for task.
func ObserveGeneration(task string, durationMs float64, failed bool) {
	generationRequests.Inc(task)
	if failed {
		generationFailures.Inc(task)
	}
	generationDuration.Observe(max(durationMs, 0))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(Render()))
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "runs_started_total", "Coaching runs started", runsStarted.Load())
	writeCounter(&buf, "runs_completed_total", "Coaching runs completed without errors", runsCompleted.Load())
	writeCounter(&buf, "runs_failed_total", "Coaching runs that recorded an error", runsFailed.Load())
	writeGauge(&buf, "runs_in_flight", "Coaching runs currently executing", runsInFlight.Load())
	generationRequests.write(&buf, "generation_requests_total", "Text generation calls")
	generationFailures.write(&buf, "generation_failed_total", "Text generation calls that returned an error")
	writeCounter(&buf, "search_failed_total", "Job searches that failed", searchFailed.Load())
	writeHistogram(&buf, "run_duration_ms", "Run duration in milliseconds", runDuration.Snapshot())
	writeHistogram(&buf, "generation_duration_ms", "Generation call duration in milliseconds", generationDuration.Snapshot())
	return buf.String()
}

// SinceMillis returns the milliseconds elapsed since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

type labeledCounter struct {
	label  string
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter(label string) *labeledCounter {
	return &labeledCounter{label: label, values: map[string]uint64{}}
}

func (l *labeledCounter) Inc(value string) {
	if value == "" {
		value = "unknown"
	}
	l.mu.Lock()
	l.values[value]++
	l.mu.Unlock()
}

func (l *labeledCounter) write(buf *bytes.Buffer, name, help string) {
	l.mu.Lock()
	keys := make([]string, 0, len(l.values))
	for k := range l.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	snapshot := make([]uint64, len(keys))
	for i, k := range keys {
		snapshot[i] = l.values[k]
	}
	l.mu.Unlock()

	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	for i, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, l.label, k, snapshot[i])
	}
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe stores value in its first matching bucket; writeHistogram accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	i := sort.SearchFloat64s(h.buckets, value)
	if i < len(h.buckets) {
		h.counts[i]++
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, value)
}

func writeGauge(buf *bytes.Buffer, name, help string, value int64) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n", name, help, name, name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s histogram\n", name, help, name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

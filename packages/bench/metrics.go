package bench

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

const (
	// latencies are recorded in microseconds, 1us to 10m
	minLatencyUs = 1
	maxLatencyUs = 600_000_000
)

// Metrics collects the outcome of every call in a run
type Metrics struct {
	mu sync.Mutex

	histogram   *hdrhistogram.Histogram
	total       int64
	ok          int64
	byStatus    map[int]int64
	byOutcome   map[string]int64
	divergent   int64
	reference   *relay.Result
	firstErrors map[string]string

	startTime time.Time
	endTime   time.Time
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		histogram:   hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		byStatus:    make(map[int]int64),
		byOutcome:   make(map[string]int64),
		firstErrors: make(map[string]string),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.mu.Lock()
	m.endTime = time.Now()
	m.mu.Unlock()
}

// Record adds one call's Result and wall latency. The first recorded
// Result is the reference every later one is compared against.
func (m *Metrics) Record(res relay.Result, latency time.Duration) {
	latencyUs := latency.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.histogram.RecordValue(latencyUs)
	m.total++
	if res.OK {
		m.ok++
	}
	m.byStatus[res.Status]++
	m.byOutcome[res.StatusText]++

	if !res.OK {
		if _, seen := m.firstErrors[res.StatusText]; !seen {
			m.firstErrors[res.StatusText] = res.Error
		}
	}

	cmp := withoutVolatileHeaders(res)
	if m.reference == nil {
		m.reference = &cmp
	} else if !m.reference.Equivalent(cmp) {
		m.divergent++
	}
}

// volatileHeaders change between identical responses and are left out of
// the divergence comparison
var volatileHeaders = []string{"date", "age"}

func withoutVolatileHeaders(res relay.Result) relay.Result {
	headers := make(map[string]string, len(res.Headers))
	for k, v := range res.Headers {
		headers[k] = v
	}
	for _, h := range volatileHeaders {
		delete(headers, h)
	}
	res.Headers = headers
	return res
}

// Summary is the final report of a run
type Summary struct {
	Duration time.Duration
	Total    int64
	OK       int64
	Failed   int64
	RPS      float64

	// ByStatus counts HTTP status codes; 0 counts calls that never completed
	ByStatus map[int]int64
	// ByOutcome counts status texts, e.g. "OK", "Timeout", "FetchError"
	ByOutcome map[string]int64
	// Errors holds the first error message seen per failure kind
	Errors map[string]string
	// Divergent counts Results that differ from the first one apart from timing
	Divergent int64

	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// Consistent reports whether every call produced an equivalent Result
func (s *Summary) Consistent() bool {
	return s.Divergent == 0
}

// GetSummary returns the metrics summary
func (m *Metrics) GetSummary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	rps := float64(0)
	if duration.Seconds() > 0 {
		rps = float64(m.total) / duration.Seconds()
	}

	summary := &Summary{
		Duration:  duration,
		Total:     m.total,
		OK:        m.ok,
		Failed:    m.total - m.ok,
		RPS:       rps,
		ByStatus:  make(map[int]int64, len(m.byStatus)),
		ByOutcome: make(map[string]int64, len(m.byOutcome)),
		Errors:    make(map[string]string, len(m.firstErrors)),
		Divergent: m.divergent,
	}
	for k, v := range m.byStatus {
		summary.ByStatus[k] = v
	}
	for k, v := range m.byOutcome {
		summary.ByOutcome[k] = v
	}
	for k, v := range m.firstErrors {
		summary.Errors[k] = v
	}

	if m.total > 0 {
		summary.P50 = time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond
		summary.P95 = time.Duration(m.histogram.ValueAtQuantile(95)) * time.Microsecond
		summary.P99 = time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond
		summary.Min = time.Duration(m.histogram.Min()) * time.Microsecond
		summary.Max = time.Duration(m.histogram.Max()) * time.Microsecond
		summary.Mean = time.Duration(m.histogram.Mean()) * time.Microsecond
	}

	return summary
}

package core

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// OperationStats aggregates outcomes for one service operation.
type OperationStats struct {
	Success int64   `json:"success"`
	Error   int64   `json:"error"`
	TotalMS float64 `json:"total_ms"`
	MaxMS   float64 `json:"max_ms"`
}

// ServiceStats is the expvar-exported view of service activity. Resolutions
// counts how often each match strategy satisfied a lookup, so operators can
// see when clients lean on legacy identifier forms instead of row ids.
type ServiceStats struct {
	Operations       map[string]OperationStats `json:"operations"`
	Resolutions      map[string]int64          `json:"resolutions_by_strategy"`
	DuplicateMatches int64                     `json:"duplicate_matches"`
	TakenAt          time.Time                 `json:"taken_at"`
}

// ExpvarMetricsRecorder publishes ServiceStats under an expvar name so
// /debug/vars carries the service counters without an external scrape
// endpoint. It implements MetricsRecorder and ResolutionRecorder.
type ExpvarMetricsRecorder struct {
	name string

	mu         sync.Mutex
	operations map[string]*OperationStats
	strategies map[string]int64
	duplicates int64
}

// NewExpvarMetricsRecorder constructs a recorder and publishes it under the
// supplied expvar name. An empty name gets a unique generated one, which
// keeps parallel tests from colliding on the process-global expvar registry.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("taskcore_service_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:       name,
		operations: make(map[string]*OperationStats),
		strategies: make(map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Observe records one completed service operation.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.operations[operation]
	if !ok {
		stats = &OperationStats{}
		r.operations[operation] = stats
	}
	if success {
		stats.Success++
	} else {
		stats.Error++
	}
	stats.TotalMS += ms
	if ms > stats.MaxMS {
		stats.MaxMS = ms
	}
}

// ObserveResolution tallies which strategy satisfied a lookup and whether the
// identifier matched more than one row.
func (r *ExpvarMetricsRecorder) ObserveResolution(_ context.Context, strategy MatchStrategy, duplicate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[string(strategy)]++
	if duplicate {
		r.duplicates++
	}
}

// Snapshot returns a copy of the aggregated stats.
func (r *ExpvarMetricsRecorder) Snapshot() ServiceStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	operations := make(map[string]OperationStats, len(r.operations))
	for op, stats := range r.operations {
		operations[op] = *stats
	}
	strategies := make(map[string]int64, len(r.strategies))
	for strategy, count := range r.strategies {
		strategies[strategy] = count
	}
	return ServiceStats{
		Operations:       operations,
		Resolutions:      strategies,
		DuplicateMatches: r.duplicates,
		TakenAt:          time.Now().UTC(),
	}
}

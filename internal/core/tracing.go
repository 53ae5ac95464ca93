package core

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// traceRetention bounds the in-memory span buffer of JSONTraceTracer. The
// writer, when set, still receives every span.
const traceRetention = 256

// TraceEvent is one completed span as emitted by JSONTraceTracer.
type TraceEvent struct {
	Operation  string    `json:"operation"`
	Outcome    string    `json:"outcome"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes spans as JSON lines and keeps the most recent ones
// for inspection. With a nil writer it acts as a bounded in-memory trace ring.
type JSONTraceTracer struct {
	mu     sync.Mutex
	recent []TraceEvent
	enc    *json.Encoder
}

// NewJSONTracer constructs a tracer emitting to w, which may be nil.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Recent returns a copy of the retained spans, oldest first.
func (t *JSONTraceTracer) Recent() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.recent))
	copy(out, t.recent)
	return out
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{
		tracer:    t,
		operation: operation,
		started:   time.Now().UTC(),
	}
}

func (t *JSONTraceTracer) record(event TraceEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recent = append(t.recent, event)
	if len(t.recent) > traceRetention {
		t.recent = t.recent[len(t.recent)-traceRetention:]
	}
	if t.enc != nil {
		_ = t.enc.Encode(event)
	}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	outcome := "success"
	var errMsg string
	if err != nil {
		outcome = "error"
		errMsg = err.Error()
	}
	ended := time.Now().UTC()
	s.tracer.record(TraceEvent{
		Operation:  s.operation,
		Outcome:    outcome,
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		Error:      errMsg,
		StartedAt:  s.started,
		EndedAt:    ended,
	})
}

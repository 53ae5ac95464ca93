package core

import (
	"context"
	"time"
)

// Logger is the minimal structured logging surface the service depends on.
// Arguments follow the slog convention of alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock abstracts time acquisition so tests can pin timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// MetricsRecorder receives one observation per completed service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// ResolutionRecorder is an optional extension of MetricsRecorder. Recorders
// implementing it additionally receive, per successful lookup, the match
// strategy that satisfied it and whether the identifier was ambiguous.
type ResolutionRecorder interface {
	ObserveResolution(ctx context.Context, strategy MatchStrategy, duplicate bool)
}

// MetricsRecorders fans every observation out to each recorder in order.
// Nil entries are skipped, so wiring code can pass optional sinks directly.
func MetricsRecorders(recorders ...MetricsRecorder) MetricsRecorder {
	return multiRecorder(recorders)
}

type multiRecorder []MetricsRecorder

func (m multiRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, rec := range m {
		if rec != nil {
			rec.Observe(ctx, operation, success, duration)
		}
	}
}

func (m multiRecorder) ObserveResolution(ctx context.Context, strategy MatchStrategy, duplicate bool) {
	for _, rec := range m {
		if rr, ok := rec.(ResolutionRecorder); ok {
			rr.ObserveResolution(ctx, strategy, duplicate)
		}
	}
}

// TraceSpan terminates a single traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

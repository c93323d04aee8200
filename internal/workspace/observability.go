package workspace

import (
	"context"
	"time"
)

// AuditStatus classifies the outcome of a recorded workspace operation.
type AuditStatus string

// Audit statuses.
const (
	// AuditStatusSuccess marks an operation that completed.
	AuditStatusSuccess AuditStatus = "success"
	// AuditStatusError marks an operation that returned an error.
	AuditStatusError AuditStatus = "error"
)

// AuditEntry records the outcome of a single workspace operation. EntityID
// carries the identifier of the project or data file the operation touched,
// when one exists.
type AuditEntry struct {
	Operation string
	Status    AuditStatus
	EntityID  string
	Duration  time.Duration
	At        time.Time
}

// AuditRecorder receives one entry per workspace operation. Implementations
// must be safe for concurrent use and must not block the operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder aggregates operation outcomes and latencies.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer opens a span around each workspace operation. The returned context
// flows into the operation body so nested work can attach to the span.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a span opened by a Tracer. A nil error marks the
// span successful.
type TraceSpan interface {
	End(err error)
}

// Clock supplies the timestamps stamped onto audit entries.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

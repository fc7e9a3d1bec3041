// Package observability provides request tracing and Prometheus metrics for
// the engagement services.
//
// This provides:
//   - Lightweight in-memory spans for record → evaluate → commit
//   - Trace ID propagation through context
//   - Game metrics: transactions, XP, level-ups, classes, quests, badges, respects
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ═══════════════════════════════════════════════════════════════════════════
// Trace Spans
// ═══════════════════════════════════════════════════════════════════════════

// SpanStatus indicates success/failure.
type SpanStatus int

const (
	SpanOK SpanStatus = iota
	SpanError
)

// Span is one timed unit of work.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration"`
	Status    SpanStatus        `json:"status"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// ─── Tracer ─────────────────────────────────────────────────────────────────

// Tracer keeps the most recent spans in a bounded buffer and feeds span
// durations into OperationLatency.
type Tracer struct {
	mu       sync.Mutex
	spans    []Span
	maxSpans int
	enabled  bool
	now      func() time.Time
}

// TracerConfig configures the tracer.
type TracerConfig struct {
	Enabled  bool
	MaxSpans int // ring buffer size (default 1_000)
}

// DefaultTracerConfig returns production defaults.
func DefaultTracerConfig() TracerConfig {
	return TracerConfig{Enabled: true, MaxSpans: 1_000}
}

// NewTracer creates a new tracer.
func NewTracer(cfg TracerConfig) *Tracer {
	if cfg.MaxSpans <= 0 {
		cfg.MaxSpans = DefaultTracerConfig().MaxSpans
	}
	return &Tracer{
		spans:    make([]Span, 0, cfg.MaxSpans),
		maxSpans: cfg.MaxSpans,
		enabled:  cfg.Enabled,
		now:      time.Now,
	}
}

// StartSpan begins a span. The caller must pass it to EndSpan.
func (t *Tracer) StartSpan(ctx context.Context, operation string, attrs map[string]string) *Span {
	span := &Span{
		TraceID:   TraceID(ctx),
		SpanID:    uuid.NewString(),
		Operation: operation,
		StartTime: t.now(),
		Status:    SpanOK,
		Attrs:     attrs,
	}
	return span
}

// EndSpan completes a span and records it.
func (t *Tracer) EndSpan(span *Span, err error) {
	if span == nil {
		return
	}
	span.Duration = t.now().Sub(span.StartTime)
	OperationLatency.WithLabelValues(span.Operation).Observe(span.Duration.Seconds())

	if err != nil {
		span.Status = SpanError
		if span.Attrs == nil {
			span.Attrs = make(map[string]string)
		}
		span.Attrs["error"] = err.Error()
		OperationErrors.WithLabelValues(span.Operation).Inc()
	}
	if !t.enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.spans) >= t.maxSpans {
		t.spans = t.spans[1:]
	}
	t.spans = append(t.spans, *span)
}

// Spans returns up to limit of the most recent spans, oldest first.
func (t *Tracer) Spans(limit int) []Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.spans) {
		limit = len(t.spans)
	}
	out := make([]Span, limit)
	copy(out, t.spans[len(t.spans)-limit:])
	return out
}

// SpanCount returns the number of buffered spans.
func (t *Tracer) SpanCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// ─── Context Helpers ────────────────────────────────────────────────────────

type contextKey string

const traceIDKey contextKey = "nocturna-trace-id"

// WithTraceID returns a context carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the context's trace ID, or a fresh one.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok && v != "" {
		return v
	}
	return uuid.NewString()
}

// ═══════════════════════════════════════════════════════════════════════════
// Game Metrics
// ═══════════════════════════════════════════════════════════════════════════

// ─── Transactions ───────────────────────────────────────────────────────────

// TransactionsRecorded counts recorded transactions by sector.
var TransactionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nocturna",
	Subsystem: "transactions",
	Name:      "recorded_total",
	Help:      "Total transactions recorded, by sector.",
}, []string{"sector"})

// XPAwarded sums XP handed out, by bonus kind (base, repeat, first).
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nocturna",
	Subsystem: "transactions",
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded, by bonus kind.",
}, []string{"bonus"})

// ─── Progression ────────────────────────────────────────────────────────────

// LevelUps counts rank promotions by the rank reached.
var LevelUps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nocturna",
	Subsystem: "progression",
	Name:      "level_ups_total",
	Help:      "Total rank promotions, by new rank.",
}, []string{"rank"})

// ClassAssignments counts class recomputations by resulting class.
var ClassAssignments = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nocturna",
	Subsystem: "progression",
	Name:      "class_assignments_total",
	Help:      "Total class recomputations, by resulting class.",
}, []string{"class"})

// QuestEvaluations counts quest catalog evaluations.
var QuestEvaluations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "nocturna",
	Subsystem: "progression",
	Name:      "quest_evaluations_total",
	Help:      "Total quest catalog evaluations.",
})

// BadgeEvaluations counts badge catalog evaluations.
var BadgeEvaluations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "nocturna",
	Subsystem: "progression",
	Name:      "badge_evaluations_total",
	Help:      "Total badge catalog evaluations.",
})

// ─── Social ─────────────────────────────────────────────────────────────────

// RespectsSent counts respect attempts by outcome (ok, duplicate, self).
var RespectsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nocturna",
	Subsystem: "social",
	Name:      "respects_total",
	Help:      "Total respect attempts, by outcome.",
}, []string{"outcome"})

// ─── Operations ─────────────────────────────────────────────────────────────

// OperationLatency tracks span durations by operation.
var OperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "nocturna",
	Subsystem: "engine",
	Name:      "operation_seconds",
	Help:      "Duration of engagement operations in seconds.",
	Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
}, []string{"operation"})

// OperationErrors counts failed operations.
var OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nocturna",
	Subsystem: "engine",
	Name:      "operation_errors_total",
	Help:      "Total failed engagement operations.",
}, []string{"operation"})

package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// ─── Tracer ─────────────────────────────────────────────────────────────────

func TestTracer_StartEnd_RecordsSpan(t *testing.T) {
	tr := NewTracer(DefaultTracerConfig())
	start := time.Date(2026, 10, 14, 21, 0, 0, 0, time.UTC)
	clock := start
	tr.now = func() time.Time { return clock }

	span := tr.StartSpan(context.Background(), "record", map[string]string{"agent": "a1"})
	clock = clock.Add(40 * time.Millisecond)
	tr.EndSpan(span, nil)

	if tr.SpanCount() != 1 {
		t.Fatalf("SpanCount() = %d, want 1", tr.SpanCount())
	}
	got := tr.Spans(1)[0]
	if got.Operation != "record" || got.Status != SpanOK {
		t.Errorf("span = %+v", got)
	}
	if got.Duration != 40*time.Millisecond {
		t.Errorf("Duration = %v, want 40ms", got.Duration)
	}
	if got.Attrs["agent"] != "a1" {
		t.Errorf("Attrs[agent] = %q", got.Attrs["agent"])
	}
}

func TestTracer_EndSpan_RecordsError(t *testing.T) {
	tr := NewTracer(DefaultTracerConfig())
	before := testutil.ToFloat64(OperationErrors.WithLabelValues("test_fail"))

	span := tr.StartSpan(context.Background(), "test_fail", nil)
	tr.EndSpan(span, errors.New("boom"))

	got := tr.Spans(1)[0]
	if got.Status != SpanError || got.Attrs["error"] != "boom" {
		t.Errorf("span = %+v", got)
	}
	if after := testutil.ToFloat64(OperationErrors.WithLabelValues("test_fail")); after != before+1 {
		t.Errorf("OperationErrors = %v, want %v", after, before+1)
	}
}

func TestTracer_Disabled_StillMeasures(t *testing.T) {
	tr := NewTracer(TracerConfig{Enabled: false, MaxSpans: 10})
	span := tr.StartSpan(context.Background(), "noop", nil)
	tr.EndSpan(span, nil)

	if tr.SpanCount() != 0 {
		t.Errorf("disabled tracer SpanCount() = %d, want 0", tr.SpanCount())
	}
	tr.EndSpan(nil, nil)
}

func TestTracer_RingBuffer(t *testing.T) {
	tr := NewTracer(TracerConfig{Enabled: true, MaxSpans: 3})
	for _, op := range []string{"a", "b", "c", "d", "e"} {
		tr.EndSpan(tr.StartSpan(context.Background(), op, nil), nil)
	}

	if tr.SpanCount() != 3 {
		t.Fatalf("SpanCount() = %d, want 3", tr.SpanCount())
	}
	spans := tr.Spans(0)
	if spans[0].Operation != "c" || spans[2].Operation != "e" {
		t.Errorf("kept %s..%s, want c..e", spans[0].Operation, spans[2].Operation)
	}
	if len(tr.Spans(2)) != 2 {
		t.Error("Spans(2) should return 2")
	}
}

func TestNewTracer_DefaultsMaxSpans(t *testing.T) {
	tr := NewTracer(TracerConfig{Enabled: true})
	if tr.maxSpans != DefaultTracerConfig().MaxSpans {
		t.Errorf("maxSpans = %d", tr.maxSpans)
	}
}

// ─── Context Propagation ────────────────────────────────────────────────────

func TestTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "req-abc")
	if got := TraceID(ctx); got != "req-abc" {
		t.Errorf("TraceID() = %q, want req-abc", got)
	}
	a, b := TraceID(context.Background()), TraceID(context.Background())
	if a == "" || a == b {
		t.Errorf("generated IDs should be unique and non-empty: %q %q", a, b)
	}
}

func TestTracer_SpanIDUnique(t *testing.T) {
	tr := NewTracer(DefaultTracerConfig())
	s1 := tr.StartSpan(context.Background(), "op", nil)
	s2 := tr.StartSpan(context.Background(), "op", nil)
	if s1.SpanID == s2.SpanID {
		t.Errorf("SpanIDs should differ, both %q", s1.SpanID)
	}
}

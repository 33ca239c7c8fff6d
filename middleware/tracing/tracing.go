// Package tracing provides OpenTelemetry integration for factlog.
//
// It wraps a fact log adapter so appends and loads produce spans, and offers
// a helper for tracing reconstructions at the boundary-action level.
//
// Basic usage:
//
//	tp := sdktrace.NewTracerProvider(...)
//	otel.SetTracerProvider(tp)
//
//	tracer := tracing.NewTracer()
//	store := factlog.New(tracer.WrapAdapter(memory.NewAdapter()))
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/factlog/factlog"
	"github.com/factlog/factlog/adapters"
)

const (
	// TracerName is the name of the factlog tracer.
	TracerName = "github.com/factlog/factlog"

	// DefaultServiceName is the default service name for spans.
	DefaultServiceName = "factlog"
)

// Span attribute keys.
const (
	AttrEntity    = attribute.Key("factlog.entity")
	AttrFactCount = attribute.Key("factlog.fact_count")
	AttrAsOf      = attribute.Key("factlog.as_of")
	AttrFromSeq   = attribute.Key("factlog.from_seq")
)

// Tracer wraps an OpenTelemetry tracer for factlog operations.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithTracerProvider sets a custom TracerProvider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(t *Tracer) {
		t.tracer = tp.Tracer(TracerName)
	}
}

// WithServiceName sets the service name for spans.
func WithServiceName(name string) TracerOption {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// NewTracer creates a new Tracer with the global TracerProvider.
func NewTracer(opts ...TracerOption) *Tracer {
	t := &Tracer{
		tracer:      otel.Tracer(TracerName),
		serviceName: DefaultServiceName,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WrapAdapter wraps a fact log adapter so every operation produces a span.
func (t *Tracer) WrapAdapter(next adapters.FactLogAdapter) adapters.FactLogAdapter {
	return &tracingAdapter{next: next, tracer: t}
}

// TraceReconstruct runs fn inside a "factlog.reconstruct" span. Intended for
// boundary actions wrapping Reconstructor calls.
func (t *Tracer) TraceReconstruct(ctx context.Context, entity string, asOf time.Time, fn func(ctx context.Context) (factlog.Snapshot, error)) (factlog.Snapshot, error) {
	ctx, span := t.tracer.Start(ctx, "factlog.reconstruct",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrEntity.String(entity),
			AttrAsOf.String(asOf.Format(time.RFC3339Nano)),
		),
	)
	defer span.End()

	snap, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(AttrFactCount.Int(snap.Len()))
	span.SetStatus(codes.Ok, "")
	return snap, nil
}

type tracingAdapter struct {
	next   adapters.FactLogAdapter
	tracer *Tracer
}

var (
	_ adapters.FactLogAdapter = (*tracingAdapter)(nil)
	_ adapters.FeedAdapter    = (*tracingAdapter)(nil)
)

func (a *tracingAdapter) AppendFacts(ctx context.Context, records []adapters.FactRecord) ([]adapters.StoredFact, error) {
	ctx, span := a.tracer.tracer.Start(ctx, "factlog.append",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrFactCount.Int(len(records))),
	)
	defer span.End()

	stored, err := a.next.AppendFacts(ctx, records)
	finishSpan(span, err)
	return stored, err
}

func (a *tracingAdapter) FactsFor(ctx context.Context, entity string, upto time.Time) ([]adapters.StoredFact, error) {
	ctx, span := a.tracer.tracer.Start(ctx, "factlog.facts_for",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrEntity.String(entity),
			AttrAsOf.String(upto.Format(time.RFC3339Nano)),
		),
	)
	defer span.End()

	facts, err := a.next.FactsFor(ctx, entity, upto)
	if err == nil {
		span.SetAttributes(AttrFactCount.Int(len(facts)))
	}
	finishSpan(span, err)
	return facts, err
}

func (a *tracingAdapter) LoadFromSeq(ctx context.Context, fromSeq uint64, limit int) ([]adapters.StoredFact, error) {
	feed, ok := a.next.(adapters.FeedAdapter)
	if !ok {
		return nil, factlog.ErrFeedNotSupported
	}

	ctx, span := a.tracer.tracer.Start(ctx, "factlog.feed",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrFromSeq.Int64(int64(fromSeq))),
	)
	defer span.End()

	facts, err := feed.LoadFromSeq(ctx, fromSeq, limit)
	finishSpan(span, err)
	return facts, err
}

func (a *tracingAdapter) Head(ctx context.Context) (uint64, error) {
	return a.next.Head(ctx)
}

func (a *tracingAdapter) GetLogInfo(ctx context.Context) (*adapters.LogInfo, error) {
	return a.next.GetLogInfo(ctx)
}

func (a *tracingAdapter) Initialize(ctx context.Context) error {
	return a.next.Initialize(ctx)
}

func (a *tracingAdapter) Close() error {
	return a.next.Close()
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

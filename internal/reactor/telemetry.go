package reactor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacoelho/yang/internal/phase"
)

const instrumentationName = "github.com/jacoelho/yang/internal/reactor"

// telemetry holds the tracer and instruments of one build. Instruments
// that fail to register stay nil and are skipped.
type telemetry struct {
	tracer trace.Tracer

	buildLatency    metric.Float64Histogram
	buildTotal      metric.Int64Counter
	statementsTotal metric.Int64Counter
	sweptTotal      metric.Int64Counter
	actionsTotal    metric.Int64Counter
	roundsTotal     metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, logger *slog.Logger) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	var errs [6]error

	t.buildLatency, errs[0] = meter.Float64Histogram(
		"reactor_build_duration_seconds",
		metric.WithDescription("Duration of schema builds"),
		metric.WithUnit("s"),
	)
	t.buildTotal, errs[1] = meter.Int64Counter(
		"reactor_builds_total",
		metric.WithDescription("Total number of schema builds"),
	)
	t.statementsTotal, errs[2] = meter.Int64Counter(
		"reactor_statements_total",
		metric.WithDescription("Statement contexts created by builds"),
	)
	t.sweptTotal, errs[3] = meter.Int64Counter(
		"reactor_swept_total",
		metric.WithDescription("Statement contexts released after their effective model was built"),
	)
	t.actionsTotal, errs[4] = meter.Int64Counter(
		"reactor_actions_total",
		metric.WithDescription("Inference actions applied"),
	)
	t.roundsTotal, errs[5] = meter.Int64Counter(
		"reactor_rounds_total",
		metric.WithDescription("Phase completion rounds"),
	)
	if err := errors.Join(errs[:]...); err != nil {
		logger.Debug("metric instruments unavailable", "error", err)
	}
	return t
}

func (t *telemetry) startBuild(ctx context.Context, id string, sources int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "reactor.build",
		trace.WithAttributes(
			attribute.String("reactor.build_id", id),
			attribute.Int("reactor.sources", sources),
		),
	)
}

func (t *telemetry) startPhase(ctx context.Context, p phase.Phase, sources int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "reactor.phase",
		trace.WithAttributes(
			attribute.String("reactor.phase", p.String()),
			attribute.Int("reactor.sources", sources),
		),
	)
}

func (t *telemetry) record(ctx context.Context, duration time.Duration, stats Stats, success bool) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	if t.buildLatency != nil {
		t.buildLatency.Record(ctx, duration.Seconds(), attrs)
	}
	if t.buildTotal != nil {
		t.buildTotal.Add(ctx, 1, attrs)
	}
	add := func(c metric.Int64Counter, n int) {
		if c != nil {
			c.Add(ctx, int64(n))
		}
	}
	add(t.statementsTotal, stats.Statements)
	add(t.sweptTotal, stats.Swept)
	add(t.actionsTotal, stats.Actions)
	add(t.roundsTotal, stats.Rounds)
}

package reactor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

var errNoInstruments = errors.New("instruments disabled")

type rejectingMeterProvider struct{ noop.MeterProvider }

func (rejectingMeterProvider) Meter(string, ...metric.MeterOption) metric.Meter {
	return rejectingMeter{}
}

type rejectingMeter struct{ noop.Meter }

func (rejectingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errNoInstruments
}

func (rejectingMeter) Float64Histogram(string, ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	return nil, errNoInstruments
}

func TestTelemetryLogsRejectedInstrumentsOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tel := newTelemetry(tracenoop.NewTracerProvider(), rejectingMeterProvider{}, logger)

	assert.Nil(t, tel.buildTotal)
	assert.Nil(t, tel.buildLatency)
	assert.Equal(t, 1, strings.Count(buf.String(), "metric instruments unavailable"))
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), errNoInstruments.Error())

	assert.NotPanics(t, func() {
		tel.record(context.Background(), 0, Stats{Statements: 3}, true)
	})
}

func TestTelemetryQuietWhenInstrumentsRegister(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tel := newTelemetry(tracenoop.NewTracerProvider(), noop.NewMeterProvider(), logger)

	require.NotNil(t, tel.buildTotal)
	assert.Empty(t, buf.String())
}

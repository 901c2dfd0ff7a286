package yang

import (
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/reactor"
	"github.com/jacoelho/yang/internal/rfc7950"
)

type boolOption struct {
	value bool
	set   bool
}

func (o boolOption) resolved(def bool) bool {
	if !o.set {
		return def
	}
	return o.value
}

// BuildOptions configures schema builds. The zero value is valid.
type BuildOptions struct {
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	buildID        string
	features       []string
	featuresSet    bool
	strictVersion  boolOption
}

type resolvedBuildOptions struct {
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	buildID        string
	language       rfc7950.Options
}

// NewBuildOptions returns a default, valid build options value.
func NewBuildOptions() BuildOptions {
	return BuildOptions{}
}

// Validate validates build options values.
func (o BuildOptions) Validate() error {
	_, err := o.withDefaults()
	return err
}

// WithLogger sets the logger receiving build progress (nil uses slog.Default).
func (o BuildOptions) WithLogger(logger *slog.Logger) BuildOptions {
	o.logger = logger
	return o
}

// WithSupportedFeatures limits supported features to the given
// "module:feature" names. Without this option every feature is supported.
func (o BuildOptions) WithSupportedFeatures(features ...string) BuildOptions {
	o.features = append([]string(nil), features...)
	o.featuresSet = true
	return o
}

// WithTracerProvider sets the tracer provider for build spans (nil uses the otel global).
func (o BuildOptions) WithTracerProvider(tp trace.TracerProvider) BuildOptions {
	o.tracerProvider = tp
	return o
}

// WithMeterProvider sets the meter provider for build metrics (nil uses the otel global).
func (o BuildOptions) WithMeterProvider(mp metric.MeterProvider) BuildOptions {
	o.meterProvider = mp
	return o
}

// WithStrictVersion controls whether YANG 1.1 statements are rejected in
// YANG 1.0 modules. Enabled by default.
func (o BuildOptions) WithStrictVersion(value bool) BuildOptions {
	o.strictVersion = boolOption{value: value, set: true}
	return o
}

// WithBuildID sets the identifier attached to logs and spans (empty generates one).
func (o BuildOptions) WithBuildID(id string) BuildOptions {
	o.buildID = id
	return o
}

func (o BuildOptions) withDefaults() (resolvedBuildOptions, error) {
	features, err := parseFeatures(o.features, o.featuresSet)
	if err != nil {
		return resolvedBuildOptions{}, fmt.Errorf("supported features: %w", err)
	}
	return resolvedBuildOptions{
		logger:         o.logger,
		tracerProvider: o.tracerProvider,
		meterProvider:  o.meterProvider,
		buildID:        o.buildID,
		language: rfc7950.Options{
			Features:      features,
			StrictVersion: o.strictVersion.resolved(true),
		},
	}, nil
}

func (r resolvedBuildOptions) config() reactor.Config {
	cfg := rfc7950.Config(r.language)
	cfg.Logger = r.logger
	cfg.BuildID = r.buildID
	cfg.TracerProvider = r.tracerProvider
	cfg.MeterProvider = r.meterProvider
	return cfg
}

func parseFeatures(names []string, set bool) (reactor.FeatureSet, error) {
	if !set {
		return nil, nil
	}
	for _, name := range names {
		module, feature, ok := strings.Cut(name, ":")
		if !ok || !qname.IsIdentifier(module) || !qname.IsIdentifier(feature) {
			return nil, fmt.Errorf("%q is not of the form module:feature", name)
		}
	}
	return reactor.NewFeatureSet(names...), nil
}

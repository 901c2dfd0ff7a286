package reactor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/source"
)

// Config selects the statement supports and environment of a build.
type Config struct {
	// Bundles holds the supports available in each declaration phase.
	// A phase without a bundle uses the bundle of the closest earlier one.
	Bundles map[phase.Phase]*Bundle
	// Unrecognized handles prefixed extension keywords with no support.
	Unrecognized Support
	// Features selects supported features; nil supports all of them.
	Features FeatureSet
	Logger   *slog.Logger
	// BuildID tags log records and spans; a random one is generated when
	// empty.
	BuildID string
	// TracerProvider and MeterProvider default to the otel globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Stats summarizes the work done by a build.
type Stats struct {
	Statements int
	Swept      int
	Actions    int
	Rounds     int
}

type counters struct {
	statements int
	swept      int
	actions    int
	rounds     int
}

func (c counters) export() Stats {
	return Stats{Statements: c.statements, Swept: c.swept, Actions: c.actions, Rounds: c.rounds}
}

// Result is the outcome of a successful build, one root per source in
// input order.
type Result struct {
	BuildID   string
	Declared  []model.Declared
	Effective []model.Effective
	Stats     Stats
}

// buildContext is the global storage node of one build.
type buildContext struct {
	cfg      Config
	registry *namespace.Registry
	logger   *slog.Logger
	tel      *telemetry
	sources  []*SourceContext
	mutables []model.Mutable
	storage  namespace.Storage
	stats    counters
	events   int

	// collecting is set once every phase completed.
	collecting bool
}

func (b *buildContext) StorageType() namespace.StorageType { return namespace.GlobalStorage }
func (b *buildContext) ParentStorage() namespace.StorageNode { return nil }
func (b *buildContext) Storage() *namespace.Storage { return &b.storage }
func (b *buildContext) Registry() *namespace.Registry { return b.registry }

func (b *buildContext) addMutable(m model.Mutable) { b.mutables = append(b.mutables, m) }

func (b *buildContext) bundleFor(p phase.Phase) *Bundle {
	for q := p; ; q = q.Previous() {
		if bundle, ok := b.cfg.Bundles[q]; ok && bundle != nil {
			return bundle
		}
		if q == phase.Init {
			return NewBundle(p, nil)
		}
	}
}

// Build runs sources through every phase and returns their declared and
// effective roots. Failures are reported as a *errors.ReactorError.
func Build(ctx context.Context, cfg Config, sources ...source.StreamSource) (*Result, error) {
	if len(sources) == 0 {
		return nil, errors.New("reactor: no sources")
	}
	id := cfg.BuildID
	if id == "" {
		id = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("build_id", id)
	b := &buildContext{
		cfg:      cfg,
		registry: namespace.NewRegistry(),
		logger:   logger,
		tel:      newTelemetry(cfg.TracerProvider, cfg.MeterProvider, logger),
	}
	for _, stream := range sources {
		b.sources = append(b.sources, newSourceContext(b, stream))
	}

	ctx, span := b.tel.startBuild(ctx, id, len(sources))
	defer span.End()
	start := time.Now()
	res, err := b.run(ctx)
	b.tel.record(ctx, time.Since(start), b.stats.export(), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res.BuildID = id
	b.logger.Debug("build completed",
		"sources", len(b.sources),
		"statements", res.Stats.Statements,
		"swept", res.Stats.Swept,
		"rounds", res.Stats.Rounds,
		"duration", time.Since(start))
	return res, nil
}

func (b *buildContext) run(ctx context.Context) (*Result, error) {
	for _, p := range phase.Sequence {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spanCtx, span := b.tel.startPhase(ctx, p, len(b.sources))
		err := b.executePhase(spanCtx, p)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if err != nil {
			return nil, err
		}
	}
	return b.collect()
}

func (b *buildContext) executePhase(ctx context.Context, p phase.Phase) error {
	b.logger.Debug("phase started", "phase", p)
	for _, s := range b.sources {
		if err := s.startPhase(p); err != nil {
			return b.sourceFailure(p, s, err)
		}
	}
	for _, s := range b.sources {
		if err := s.loadStatements(); err != nil {
			return b.sourceFailure(p, s, err)
		}
	}
	pending := b.sources
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.stats.rounds++
		before := b.events
		advanced := false
		next := make([]*SourceContext, 0, len(pending))
		for _, s := range pending {
			outcome, err := s.tryToCompletePhase()
			if err != nil {
				return b.sourceFailure(p, s, err)
			}
			advanced = advanced || outcome != noProgress
			if outcome == finished {
				continue
			}
			next = append(next, s)
		}
		pending = next
		// listeners firing inside a round advance nodes without an outcome
		if len(pending) > 0 && !advanced && b.events == before {
			return b.stalled(p, pending)
		}
	}
	b.logger.Debug("phase completed", "phase", p, "rounds", b.stats.rounds)
	return nil
}

func (b *buildContext) sourceFailure(p phase.Phase, s *SourceContext, err error) error {
	b.logger.Error("source failed", "phase", p, "source", s.Identifier().String(), "error", err)
	return &yangerrors.ReactorError{Cause: err, Phase: p.String(), Source: s.Identifier().String()}
}

// stalled fails the pending actions of every source that could not
// complete p. The first failure becomes the cause, the rest are
// suppressed.
func (b *buildContext) stalled(p phase.Phase, pending []*SourceContext) error {
	re := &yangerrors.ReactorError{Phase: p.String()}
	for _, s := range pending {
		for _, err := range s.failModifiers() {
			s.logger.Error("phase stalled", "phase", p, "error", err)
			if re.Cause == nil {
				re.Cause = err
				re.Source = s.Identifier().String()
				continue
			}
			re.Suppressed = append(re.Suppressed, err)
		}
	}
	return re
}

func (b *buildContext) collect() (*Result, error) {
	b.collecting = true
	res := &Result{}
	for _, s := range b.sources {
		d, err := s.root.Declared()
		if err != nil {
			return nil, b.sourceFailure(phase.EffectiveModel, s, err)
		}
		res.Declared = append(res.Declared, d)
	}
	for _, s := range b.sources {
		e, err := s.root.Effective()
		if err != nil {
			return nil, b.sourceFailure(phase.EffectiveModel, s, err)
		}
		res.Effective = append(res.Effective, e)
	}
	for _, m := range b.mutables {
		m.Seal()
	}
	res.Stats = b.stats.export()
	return res, nil
}

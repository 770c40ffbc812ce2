package analysis

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/verte-zerg/vezaxff/internal/logger"
	"github.com/verte-zerg/vezaxff/internal/model"
	"github.com/verte-zerg/vezaxff/internal/telemetry"
)

// Fetcher loads report data. *wcl.Client implements it.
type Fetcher interface {
	Fights(ctx context.Context, logID string) (model.Report, error)
	DamageTaken(ctx context.Context, logID string, start, end int64) ([]model.DamageEvent, error)
	Debuffs(ctx context.Context, logID string, start, end int64) ([]model.DebuffEvent, error)
}

// Options selects which attempts of a log are analyzed.
type Options struct {
	LogID           string
	OnlyKill        bool
	WipeGracePeriod int
}

// Result is the outcome of a run.
type Result struct {
	Attempts []model.Attempt
	Total    model.RunningTotal
	Players  model.PlayerDirectory
}

// Analyzer runs the fetch, correlate and merge pipeline.
type Analyzer struct {
	fetcher Fetcher
	log     logger.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// NewAnalyzer builds an Analyzer. lg and m may be nil.
func NewAnalyzer(f Fetcher, lg logger.Logger, m *telemetry.Metrics) *Analyzer {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Analyzer{
		fetcher: f,
		log:     lg,
		metrics: m,
		tracer:  otel.Tracer("github.com/verte-zerg/vezaxff/internal/analysis"),
	}
}

// Run analyzes every selected attempt of opts.LogID in fight order.
func (a *Analyzer) Run(ctx context.Context, opts Options) (res Result, err error) {
	ctx, span := a.tracer.Start(ctx, "analysis.Run", trace.WithAttributes(
		attribute.String("log_id", opts.LogID),
		attribute.Bool("only_kill", opts.OnlyKill),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	report, err := a.fetcher.Fights(ctx, opts.LogID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch fights: %w", err)
	}
	attempts := SelectAttempts(report.Fights, opts.OnlyKill, opts.WipeGracePeriod)
	a.log.Info(ctx, "selected attempts",
		logger.Int("fights", len(report.Fights)),
		logger.Int("attempts", len(attempts)))

	perAttempt := make([][]model.AttemptAggregate, 0, len(attempts))
	for _, at := range attempts {
		aggs, err := a.attempt(ctx, opts.LogID, at)
		if err != nil {
			return Result{}, fmt.Errorf("fight %d: %w", at.FightID, err)
		}
		perAttempt = append(perAttempt, aggs)
		a.metrics.AttemptAnalyzed(at.Kill)
	}

	return Result{
		Attempts: attempts,
		Total:    MergeAll(perAttempt),
		Players:  report.Players,
	}, nil
}

// AnalyzeAttempt correlates the events of one attempt. Intervals left open
// by a trimmed wipe window stay open through the window end, which the
// event queries include.
func AnalyzeAttempt(at model.Attempt, debuffs []model.DebuffEvent, damage []model.DamageEvent) ([]model.AttemptAggregate, error) {
	var opts []IntervalOption
	if !at.Kill {
		opts = append(opts, WithWindowEnd(at.End+1))
	}
	intervals, err := BuildIntervals(debuffs, opts...)
	if err != nil {
		return nil, err
	}
	return Correlate(intervals, damage)
}

func (a *Analyzer) attempt(ctx context.Context, logID string, at model.Attempt) (aggs []model.AttemptAggregate, err error) {
	ctx, span := a.tracer.Start(ctx, "analysis.Attempt", trace.WithAttributes(
		attribute.Int("fight_id", at.FightID),
		attribute.Bool("kill", at.Kill),
		attribute.Int64("start", at.Start),
		attribute.Int64("end", at.End),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	damage, err := a.fetcher.DamageTaken(ctx, logID, at.Start, at.End)
	if err != nil {
		return nil, fmt.Errorf("fetch damage: %w", err)
	}
	debuffs, err := a.fetcher.Debuffs(ctx, logID, at.Start, at.End)
	if err != nil {
		return nil, fmt.Errorf("fetch debuffs: %w", err)
	}

	aggs, err = AnalyzeAttempt(at, debuffs, damage)
	if err != nil {
		return nil, err
	}
	a.log.Debug(ctx, "attempt analyzed",
		logger.Int("fight_id", at.FightID),
		logger.Bool("kill", at.Kill),
		logger.Int("damage_events", len(damage)),
		logger.Int("debuff_events", len(debuffs)),
		logger.Int("players", len(aggs)))
	return aggs, nil
}

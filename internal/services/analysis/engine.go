// Package analysis runs one full analysis pass for a trading pair: indicators,
// risk, signal sources, aggregation and the trade decision.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/internal/metrics"
	"github.com/vadiminshakov/tradegate/internal/services/aggregator"
	"github.com/vadiminshakov/tradegate/internal/services/decision"
	"github.com/vadiminshakov/tradegate/internal/services/riskgate"
	"github.com/vadiminshakov/tradegate/internal/services/sources"
	"github.com/vadiminshakov/tradegate/pkg/indicators"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWindow is the number of bars requested from the price source.
const DefaultWindow = 100

// PriceSource recent bars ordered oldest to newest. Returning fewer bars than
// requested is fine.
type PriceSource interface {
	GetRecentBars(ctx context.Context, pair domain.Pair, tf domain.Timeframe, count int) ([]domain.PriceBar, error)
}

// Engine composes the analysis stages. It holds no per-run state, so
// concurrent runs are safe.
type Engine struct {
	prices  PriceSource
	sources []sources.Source
	gate    *riskgate.Gate
	decider *decision.Decider
	logger  *zap.Logger
	metrics *metrics.Recorder
	window  int
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records every run on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// WithWindow sets how many bars are requested per run.
func WithWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.window = n
		}
	}
}

// WithClock overrides the time source used for calendar lookups and reports.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an analysis engine. Sources are evaluated in the given
// order and their results keep that order in the report.
func NewEngine(
	prices PriceSource,
	srcs []sources.Source,
	gate *riskgate.Gate,
	decider *decision.Decider,
	logger *zap.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		prices:  prices,
		sources: srcs,
		gate:    gate,
		decider: decider,
		logger:  logger,
		window:  DefaultWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunAnalysis fetches the latest bars for pair and analyses them.
func (e *Engine) RunAnalysis(ctx context.Context, pair domain.Pair, tf domain.Timeframe) (*domain.Report, error) {
	start := time.Now()

	report, err := e.runAnalysis(ctx, pair, tf)
	if err != nil {
		e.metrics.RecordFailure(pair.String())
		return nil, err
	}

	e.metrics.RecordRun(pair.String(), tf.String(), report.Decision.Direction.String(),
		report.Aggregate.Score, report.Aggregate.Confidence, time.Since(start))
	return report, nil
}

func (e *Engine) runAnalysis(ctx context.Context, pair domain.Pair, tf domain.Timeframe) (*domain.Report, error) {
	if _, err := tf.Duration(); err != nil {
		return nil, errors.Wrap(err, "invalid timeframe")
	}

	bars, err := e.prices.GetRecentBars(ctx, pair, tf, e.window)
	if err != nil {
		return nil, &domain.UpstreamUnavailableError{Upstream: "price", Err: err}
	}

	return e.Analyze(ctx, pair, tf, bars)
}

// Analyze runs every stage over an already fetched window.
func (e *Engine) Analyze(ctx context.Context, pair domain.Pair, tf domain.Timeframe, bars []domain.PriceBar) (*domain.Report, error) {
	if len(bars) < domain.MinWindowBars {
		return nil, &domain.InsufficientDataError{Name: "analysis", Need: domain.MinWindowBars, Got: len(bars)}
	}
	if err := domain.ValidateWindow(bars); err != nil {
		return nil, err
	}

	set, err := indicators.ComputeAll(bars)
	if err != nil {
		return nil, errors.Wrap(err, "indicators")
	}
	for name, cause := range set.Excluded {
		e.logger.Debug("indicator excluded",
			zap.String("pair", pair.String()), zap.String("indicator", name), zap.Error(cause))
	}

	// risk is computed first so the risk source and the decision share one profile
	risk, err := e.gate.Assess(bars, tf)
	if err != nil {
		return nil, errors.Wrap(err, "risk")
	}

	snap := sources.Snapshot{
		Pair:       pair,
		Timeframe:  tf,
		Bars:       bars,
		Indicators: set,
		Risk:       risk,
		Now:        e.now(),
	}

	outcomes, err := e.evaluate(ctx, snap)
	if err != nil {
		return nil, err
	}

	signals := make([]domain.SignalSource, len(outcomes))
	blackout := false
	for i, o := range outcomes {
		signals[i] = o.Signal
		blackout = blackout || o.Blackout
		if o.Degraded != nil {
			e.metrics.RecordDegraded(string(o.Signal.Name))
			e.logger.Warn("signal source degraded",
				zap.String("pair", pair.String()),
				zap.String("source", string(o.Signal.Name)),
				zap.Error(o.Degraded))
		}
	}

	agg, err := aggregator.Aggregate(signals, len(bars))
	if err != nil {
		return nil, err
	}

	last, _ := domain.LatestBar(bars)
	dec := e.decider.Decide(agg, risk, blackout)
	if dec.ShouldTrade {
		dec.Plan = decision.BuildPlan(dec.Direction, last.Close, risk.Sizing)
	}

	report := &domain.Report{
		ID:          uuid.New(),
		Pair:        pair,
		Timeframe:   tf,
		GeneratedAt: snap.Now,
		BarCount:    len(bars),
		LastPrice:   last.Close.String(),
		Indicators:  set.Indicators,
		Aggregate:   agg,
		Risk:        risk,
		Blackout:    blackout,
		Decision:    dec,
	}

	e.logger.Info("analysis complete",
		zap.String("pair", pair.String()),
		zap.String("timeframe", tf.String()),
		zap.String("label", string(agg.Label)),
		zap.Float64("confidence", agg.Confidence),
		zap.String("risk", risk.Level.String()),
		zap.Bool("should_trade", dec.ShouldTrade))

	return report, nil
}

// evaluate fans the snapshot out to every source. Each goroutine writes only
// its own slot.
func (e *Engine) evaluate(ctx context.Context, snap sources.Snapshot) ([]sources.Outcome, error) {
	outcomes := make([]sources.Outcome, len(e.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range e.sources {
		g.Go(func() error {
			outcomes[i] = src.Evaluate(gctx, snap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "analysis canceled")
	}

	return outcomes, nil
}

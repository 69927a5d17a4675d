package internal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"go.uber.org/zap"
)

// DefaultWatchInterval how often the watcher re-runs the analysis.
const DefaultWatchInterval = 5 * time.Minute

// Analyzer runs one analysis pass.
type Analyzer interface {
	RunAnalysis(ctx context.Context, pair domain.Pair, tf domain.Timeframe) (*domain.Report, error)
}

// ReportSink receives every successful report.
type ReportSink interface {
	Save(report domain.Report) (uint64, error)
}

// WatcherConfig watcher settings.
type WatcherConfig struct {
	Pairs     []domain.Pair
	Timeframe domain.Timeframe
	Interval  time.Duration
	// Coalesce skips a tick for a pair whose previous run is still in flight.
	Coalesce bool
}

// Watcher periodically analyses every configured pair.
type Watcher struct {
	analyzer Analyzer
	sink     ReportSink
	cfg      WatcherConfig
	logger   *zap.Logger
	running  map[domain.Pair]*atomic.Bool
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher instance.
func NewWatcher(analyzer Analyzer, sink ReportSink, cfg WatcherConfig, logger *zap.Logger) (*Watcher, error) {
	if len(cfg.Pairs) == 0 {
		return nil, errors.New("no pairs to watch")
	}
	if _, err := cfg.Timeframe.Duration(); err != nil {
		return nil, errors.Wrap(err, "invalid timeframe")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWatchInterval
	}

	running := make(map[domain.Pair]*atomic.Bool, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		running[p] = &atomic.Bool{}
	}

	return &Watcher{
		analyzer: analyzer,
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
		running:  running,
	}, nil
}

// Run analyses every pair immediately and then on each tick until ctx is done.
// In-flight runs are awaited before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.wg.Wait()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info("Starting watch loop",
		zap.Int("pairs", len(w.cfg.Pairs)),
		zap.String("timeframe", w.cfg.Timeframe.String()),
		zap.Duration("interval", w.cfg.Interval))

	w.tickAll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Context done, stopping watch loop.")
			return ctx.Err()
		case <-ticker.C:
			w.tickAll(ctx)
		}
	}
}

func (w *Watcher) tickAll(ctx context.Context) {
	for _, pair := range w.cfg.Pairs {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.Tick(ctx, pair)
		}()
	}
}

// Tick runs one analysis for pair and stores the report. It returns false
// when the run was skipped because a previous one is still in flight.
func (w *Watcher) Tick(ctx context.Context, pair domain.Pair) bool {
	flag, ok := w.running[pair]
	if !ok {
		flag = &atomic.Bool{}
	}
	if w.cfg.Coalesce {
		if !flag.CompareAndSwap(false, true) {
			w.logger.Debug("Previous analysis still running, skipping tick", zap.String("pair", pair.String()))
			return false
		}
		defer flag.Store(false)
	}

	report, err := w.analyzer.RunAnalysis(ctx, pair, w.cfg.Timeframe)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Analysis failed", zap.String("pair", pair.String()), zap.Error(err))
		}
		return true
	}

	idx, err := w.sink.Save(*report)
	if err != nil {
		w.logger.Error("Failed to store report", zap.String("pair", pair.String()), zap.Error(err))
		return true
	}

	w.logger.Debug("Report stored",
		zap.String("pair", pair.String()),
		zap.Uint64("index", idx),
		zap.String("direction", report.Decision.Direction.String()),
		zap.Bool("should_trade", report.Decision.ShouldTrade))
	return true
}

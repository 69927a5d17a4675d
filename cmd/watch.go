package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/tradegate/internal"
	"github.com/vadiminshakov/tradegate/internal/metrics"
	"github.com/vadiminshakov/tradegate/internal/storage/reports"
	"github.com/vadiminshakov/tradegate/internal/web"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Analyse every configured pair periodically and serve the results",
	Long: `Run the analysis for every configured pair on a fixed interval. Reports are
kept in memory and served over HTTP together with Prometheus metrics:

  GET /analysis?pair=BTC_USDT&timeframe=1h   on-demand analysis
  GET /reports?after=N                       stored reports
  GET /reports/stream                        reports as server-sent events
  GET /metrics                               Prometheus metrics`,
	RunE: runWatch,
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	pairs, err := cfg.ParsedPairs()
	if err != nil {
		return err
	}

	rec := metrics.New()
	engine, err := internal.NewEngine(cfg, rec, logger)
	if err != nil {
		return errors.Wrap(err, "failed to build engine")
	}

	store := reports.NewMemoryStore(cfg.ReportHistory)
	watcher, err := internal.NewWatcher(engine, store, internal.WatcherConfig{
		Pairs:     pairs,
		Timeframe: cfg.TF(),
		Interval:  cfg.WatchInterval,
		Coalesce:  cfg.Coalesce,
	}, logger)
	if err != nil {
		return err
	}

	server := web.NewServer(cfg.ListenAddr, engine, store, rec.Handler(), cfg.TF(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return server.Start(ctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete", zap.Int("pairs", len(pairs)))
	return nil
}

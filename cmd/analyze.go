package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vadiminshakov/tradegate/internal"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/internal/render"
)

var (
	analyzePair      string
	analyzeTimeframe string
	analyzeJSON      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis and print the report",
	Long: `Fetch the latest bars for a pair, run every signal source, aggregate them and
print the gated decision.

Examples:
  tradegate analyze --pair BTC_USDT
  tradegate analyze --pair eth_usdt --timeframe 4h --json`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePair, "pair", "p", "", "pair to analyse, e.g. BTC_USDT (first configured pair when empty)")
	analyzeCmd.Flags().StringVarP(&analyzeTimeframe, "timeframe", "t", "", "bar timeframe, e.g. 15m, 1h, 4h, 1d (config value when empty)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	pairs, err := cfg.ParsedPairs()
	if err != nil {
		return err
	}
	pair := pairs[0]
	if analyzePair != "" {
		if pair, err = domain.ParsePair(analyzePair); err != nil {
			return err
		}
	}

	tf := cfg.TF()
	if analyzeTimeframe != "" {
		if tf, err = domain.ParseTimeframe(analyzeTimeframe); err != nil {
			return err
		}
	}

	engine, err := internal.NewEngine(cfg, nil, logger)
	if err != nil {
		return errors.Wrap(err, "failed to build engine")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := engine.RunAnalysis(ctx, pair, tf)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_, err = fmt.Fprintln(out, render.Report(*report))
	return err
}

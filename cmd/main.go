// Command tradegate aggregates trading signals for cryptocurrency pairs and
// gates them into trade decisions.
//
// Usage:
//
//	tradegate analyze --config config.yaml --pair BTC_USDT --timeframe 4h
//	tradegate watch --config config.yaml
//
// Optional environment variables:
//
//	BINANCE_API_KEY, BINANCE_API_SECRET
//	BYBIT_API_KEY, BYBIT_API_SECRET
//	LLM_API_KEY (external sentiment)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradegate/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tradegate",
	Short: "Signal aggregation and trade gating for crypto pairs",
	Long: `tradegate combines technical indicators, price-action sentiment, candlestick
patterns, market structure, volatility risk, an economic calendar and backtest
statistics into one weighted signal, then gates it through risk and confidence
checks into a BUY, SELL or WAIT decision.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults only when empty)")
	rootCmd.AddCommand(analyzeCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

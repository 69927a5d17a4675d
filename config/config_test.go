package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/internal/services/decision"
	"github.com/vadiminshakov/tradegate/internal/services/riskgate"
	"github.com/vadiminshakov/tradegate/internal/services/sources"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, ExchangeBinance, cfg.Exchange)
	assert.Equal(t, []string{"BTC_USDT"}, cfg.Pairs)
	assert.Equal(t, domain.Timeframe("1h"), cfg.TF())
	assert.Equal(t, 100, cfg.Window)
	assert.Equal(t, 5*time.Minute, cfg.WatchInterval)
	assert.True(t, cfg.Coalesce)
	assert.Equal(t, sources.DefaultWeights(), cfg.Weights)
	assert.Equal(t, decision.DefaultConfig(), cfg.DecisionConfig())
	assert.Equal(t, sources.DefaultCalendarWindow(), cfg.CalendarWindow())
	assert.Equal(t, 10*time.Second, cfg.Sentiment.Timeout)
	assert.False(t, cfg.Sentiment.Enabled)

	gate, err := cfg.RiskGateConfig()
	require.NoError(t, err)
	want := riskgate.DefaultConfig()
	assert.Equal(t, want.RiskPerTrade, gate.RiskPerTrade)
	assert.Equal(t, want.MaxFraction, gate.MaxFraction)
	assert.Equal(t, want.StopMultiplier, gate.StopMultiplier)
	assert.Equal(t, want.TakeProfitMultiples, gate.TakeProfitMultiples)
	assert.Equal(t, want.Window, gate.Window)
	assert.True(t, gate.Capital.IsZero())
}

func TestParse_OverridesKeepExplicitZero(t *testing.T) {
	raw := []byte(`
exchange: bybit
pairs: [eth_usdt, SOL_USDT]
timeframe: 4h
watch_interval: 1m
weights:
  sentiment: 0
risk:
  capital: "2500.50"
  max_fraction: 0.1
calendar:
  blackout_before: 1h
  events:
    - title: CPI
      currency: USD
      impact: HIGH
      time: 2024-05-15T12:30:00Z
backtest:
  strategy: trend
  stats:
    - strategy: trend
      win_rate: 0.6
      profit_factor: 1.4
      trades: 120
`)

	cfg, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, ExchangeBybit, cfg.Exchange)
	assert.Equal(t, time.Minute, cfg.WatchInterval)
	assert.Zero(t, cfg.Weights.Sentiment)
	assert.Equal(t, 0.30, cfg.Weights.Technical)

	pairs, err := cfg.ParsedPairs()
	require.NoError(t, err)
	assert.Equal(t, []domain.Pair{{From: "ETH", To: "USDT"}, {From: "SOL", To: "USDT"}}, pairs)

	gate, err := cfg.RiskGateConfig()
	require.NoError(t, err)
	assert.Equal(t, "2500.5", gate.Capital.String())
	assert.Equal(t, 0.1, gate.MaxFraction)

	assert.Equal(t, time.Hour, cfg.CalendarWindow().Before)
	require.Len(t, cfg.Calendar.Events, 1)
	assert.Equal(t, domain.ImpactHigh, cfg.Calendar.Events[0].Impact)
	assert.True(t, time.Date(2024, 5, 15, 12, 30, 0, 0, time.UTC).Equal(cfg.Calendar.Events[0].Time))

	require.Len(t, cfg.Backtest.Stats, 1)
	assert.Equal(t, 120, cfg.Backtest.Stats[0].Trades)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown exchange", "exchange: kraken"},
		{"bad pair", "pairs: [BTCUSDT]"},
		{"no pairs", "pairs: []"},
		{"bad timeframe", "timeframe: 3x"},
		{"short window", "window: 10"},
		{"weight above one", "weights:\n  technical: 1.5"},
		{"bad capital", "risk:\n  capital: lots"},
		{"negative capital", "risk:\n  capital: \"-1\""},
		{"volume band inverted", "risk:\n  volume_low: 5\n  volume_high: 2"},
		{"bad impact", "calendar:\n  events:\n    - title: x\n      impact: SEVERE\n      time: 2024-05-15T12:30:00Z"},
		{"bad url", "sentiment:\n  api_url: not a url"},
		{"malformed yaml", "pairs: [BTC_USDT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pairs: [BTC_USDT]\nsentiment:\n  enabled: true\n  model: test-model\n"), 0o600))

	t.Setenv("LLM_API_KEY", "llm-secret")
	t.Setenv("BINANCE_API_KEY", "binance-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Sentiment.Enabled)
	assert.Equal(t, "binance-key", cfg.Secrets.BinanceAPIKey)

	llm := cfg.LLMConfig()
	assert.Equal(t, "llm-secret", llm.APIKey)
	assert.Equal(t, "test-model", llm.Model)
	assert.Equal(t, 20, llm.RequestsPerMinute)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

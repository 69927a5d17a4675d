package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/pkg/indicators"
	"go.uber.org/zap"
)

var (
	testPair = domain.Pair{From: "BTC", To: "USDT"}
	testNow  = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
)

func ohlc(i int, o, h, l, c float64) domain.PriceBar {
	return domain.PriceBar{
		Timestamp: testNow.Add(time.Duration(i-100) * time.Hour),
		Open:      decimal.NewFromFloat(o),
		High:      decimal.NewFromFloat(h),
		Low:       decimal.NewFromFloat(l),
		Close:     decimal.NewFromFloat(c),
		Volume:    decimal.NewFromInt(100),
	}
}

func linearBars(n int, start, step float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = ohlc(i, c, c+0.5, c-0.5, c)
	}
	return bars
}

type sentimentFunc func(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error)

func (f sentimentFunc) ExternalSentiment(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error) {
	return f(ctx, req)
}

type calendarFunc func(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error)

func (f calendarFunc) UpcomingEvents(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error) {
	return f(ctx, from, to)
}

type backtestFunc func(ctx context.Context, strategy string) (domain.BacktestStats, error)

func (f backtestFunc) StrategyStats(ctx context.Context, strategy string) (domain.BacktestStats, error) {
	return f(ctx, strategy)
}

func TestTechnicalSignal(t *testing.T) {
	t.Run("strength weighted vote", func(t *testing.T) {
		set := indicators.Set{
			Indicators: []domain.Indicator{
				{Name: "RSI", Label: domain.LabelBuy, Strength: 80},
				{Name: "MACD", Label: domain.LabelBuy, Strength: 60},
				{Name: "VOLUME_RATIO", Label: domain.LabelNeutral, Strength: 0},
				{Name: "BOLLINGER", Label: domain.LabelSell, Strength: 20},
			},
			Excluded: map[string]error{
				"MA_CROSS": &domain.InsufficientDataError{Name: "MA_CROSS", Need: 50, Got: 30},
			},
		}

		src := TechnicalSignal(set, 0.3)
		// (75*80 + 75*60 + 50*0 + 25*20) / 160 = 68.75
		assert.Equal(t, domain.LabelBuy, src.Label)
		assert.InDelta(t, 70.0, src.Confidence, 1e-9)
		assert.Equal(t, 0.3, src.Weight)
		assert.Equal(t, "68.75", src.Metadata["score"])
		assert.Equal(t, "MA_CROSS", src.Metadata["excluded"])
	})

	t.Run("no strength resolves neutral", func(t *testing.T) {
		set := indicators.Set{Indicators: []domain.Indicator{
			{Name: "RSI", Label: domain.LabelBuy, Strength: 0},
			{Name: "VOLUME_RATIO", Label: domain.LabelNeutral, Strength: 0},
		}}
		src := TechnicalSignal(set, 0.3)
		assert.Equal(t, domain.LabelNeutral, src.Label)
		assert.Equal(t, 0.0, src.Confidence)
	})

	t.Run("no indicators is a non-vote", func(t *testing.T) {
		src := TechnicalSignal(indicators.Set{}, 0.3)
		assert.Equal(t, domain.LabelNeutral, src.Label)
		assert.Equal(t, 0.0, src.Confidence)
		assert.False(t, src.Active())
	})
}

func TestSentiment(t *testing.T) {
	rising := linearBars(40, 100, 1)
	snap := Snapshot{Pair: testPair, Timeframe: "1h", Bars: rising, Now: testNow}

	fallback, err := PriceActionSentiment(rising)
	require.NoError(t, err)
	require.Equal(t, domain.LabelBullish, fallback.Label)

	tests := []struct {
		name           string
		provider       SentimentProvider
		bars           []domain.PriceBar
		wantLabel      domain.Label
		wantConfidence float64
		wantOrigin     string
		wantDegraded   bool
	}{
		{
			name: "agreeing external opinion is boosted",
			provider: sentimentFunc(func(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error) {
				return domain.ExternalSentiment{Label: domain.LabelBullish, Confidence: 70}, nil
			}),
			wantLabel:      domain.LabelBullish,
			wantConfidence: 75,
			wantOrigin:     "external",
		},
		{
			name: "boost is capped",
			provider: sentimentFunc(func(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error) {
				return domain.ExternalSentiment{Label: domain.LabelBullish, Confidence: 93}, nil
			}),
			wantLabel:      domain.LabelBullish,
			wantConfidence: 95,
			wantOrigin:     "external",
		},
		{
			name: "disagreeing external opinion is not boosted",
			provider: sentimentFunc(func(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error) {
				return domain.ExternalSentiment{Label: domain.LabelBearish, Confidence: 70}, nil
			}),
			wantLabel:      domain.LabelBearish,
			wantConfidence: 70,
			wantOrigin:     "external",
		},
		{
			name: "provider failure falls back to price action",
			provider: sentimentFunc(func(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error) {
				return domain.ExternalSentiment{}, errors.New("503")
			}),
			wantLabel:      domain.LabelBullish,
			wantConfidence: fallback.Confidence,
			wantOrigin:     "price_action",
			wantDegraded:   true,
		},
		{
			name: "malformed provider output falls back",
			provider: sentimentFunc(func(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error) {
				return domain.ExternalSentiment{Label: domain.LabelStrongBuy, Confidence: 70}, nil
			}),
			wantLabel:      domain.LabelBullish,
			wantConfidence: fallback.Confidence,
			wantOrigin:     "price_action",
			wantDegraded:   true,
		},
		{
			name: "slow provider times out",
			provider: sentimentFunc(func(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error) {
				<-ctx.Done()
				return domain.ExternalSentiment{}, ctx.Err()
			}),
			wantLabel:      domain.LabelBullish,
			wantConfidence: fallback.Confidence,
			wantOrigin:     "price_action",
			wantDegraded:   true,
		},
		{
			name:           "no provider uses price action",
			wantLabel:      domain.LabelBullish,
			wantConfidence: fallback.Confidence,
			wantOrigin:     "price_action",
		},
		{
			name:         "no input at all is a non-vote",
			bars:         linearBars(10, 100, 1),
			wantLabel:    domain.LabelNeutral,
			wantDegraded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSentiment(tt.provider, 0.15, zap.NewNop(), WithSentimentTimeout(20*time.Millisecond))
			in := snap
			if tt.bars != nil {
				in.Bars = tt.bars
			}

			out := s.Evaluate(context.Background(), in)
			assert.Equal(t, tt.wantLabel, out.Signal.Label)
			assert.InDelta(t, tt.wantConfidence, out.Signal.Confidence, 1e-9)
			assert.Equal(t, 0.15, out.Signal.Weight)
			assert.Equal(t, tt.wantOrigin, out.Signal.Metadata["origin"])
			if tt.wantDegraded {
				assert.Error(t, out.Degraded)
			} else {
				assert.NoError(t, out.Degraded)
			}
			assert.NoError(t, out.Signal.Validate())
		})
	}

	t.Run("provider failure is reported as upstream unavailable", func(t *testing.T) {
		s := NewSentiment(sentimentFunc(func(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error) {
			return domain.ExternalSentiment{}, errors.New("boom")
		}), 0.15, zap.NewNop())
		out := s.Evaluate(context.Background(), snap)
		var upstream *domain.UpstreamUnavailableError
		assert.ErrorAs(t, out.Degraded, &upstream)
	})
}

func TestDetectPatterns(t *testing.T) {
	t.Run("bullish engulfing", func(t *testing.T) {
		bars := []domain.PriceBar{
			ohlc(0, 105, 106, 99, 100),
			ohlc(1, 99, 108, 98, 107),
		}
		patterns := DetectPatterns(bars)
		require.Len(t, patterns, 1)
		assert.Equal(t, "bullish_engulfing", patterns[0].Name)

		src := PatternSignal(patterns, 0.15)
		assert.Equal(t, domain.LabelBuy, src.Label)
		assert.InDelta(t, 70.0, src.Confidence, 1e-9)
	})

	t.Run("doji", func(t *testing.T) {
		bars := []domain.PriceBar{
			ohlc(0, 100, 101.5, 99.5, 101),
			ohlc(1, 100, 102, 98, 100.05),
		}
		patterns := DetectPatterns(bars)
		require.Len(t, patterns, 1)
		assert.Equal(t, "doji", patterns[0].Name)

		src := PatternSignal(patterns, 0.15)
		assert.Equal(t, domain.LabelNeutral, src.Label)
		assert.InDelta(t, 40.0, src.Confidence, 1e-9)
	})

	t.Run("hammer after decline", func(t *testing.T) {
		var bars []domain.PriceBar
		for i, c := range []float64{110, 108, 106, 104, 102} {
			bars = append(bars, ohlc(i, c+1, c+1.5, c-0.5, c))
		}
		bars = append(bars, ohlc(5, 100, 101.2, 97, 101))

		patterns := DetectPatterns(bars)
		require.Len(t, patterns, 1)
		assert.Equal(t, "hammer", patterns[0].Name)
		assert.Equal(t, domain.LabelBuy, patterns[0].Label)
	})

	t.Run("double top with neckline break", func(t *testing.T) {
		highs := []float64{100, 102, 110, 103, 101, 104, 110.5, 103, 100, 98, 96}
		bars := make([]domain.PriceBar, len(highs))
		for i, h := range highs {
			l := h - 2
			bars[i] = ohlc(i, h-0.2, h, l, l+0.2)
		}

		patterns := DetectPatterns(bars)
		require.Len(t, patterns, 1)
		assert.Equal(t, "double_top", patterns[0].Name)

		src := PatternSignal(patterns, 0.15)
		assert.Equal(t, domain.LabelSell, src.Label)
		assert.InDelta(t, 75.0, src.Confidence, 1e-9)
	})

	t.Run("no pattern is a non-vote", func(t *testing.T) {
		bars := []domain.PriceBar{
			ohlc(0, 100, 101.5, 99.5, 101),
			ohlc(1, 100, 101.5, 99.5, 101),
		}
		assert.Empty(t, DetectPatterns(bars))

		src := PatternSignal(nil, 0.15)
		assert.False(t, src.Active())
		assert.Equal(t, domain.LabelNeutral, src.Label)
	})
}

func TestStructureSignal(t *testing.T) {
	t.Run("uptrend on full window", func(t *testing.T) {
		src, err := StructureSignal(linearBars(60, 100, 1), 0.15)
		require.NoError(t, err)
		assert.Equal(t, domain.LabelBuy, src.Label)
		assert.InDelta(t, 70.0, src.Confidence, 1e-9)
		assert.Equal(t, string(domain.TrendUp), src.Metadata["trend"])
	})

	t.Run("downtrend on full window", func(t *testing.T) {
		src, err := StructureSignal(linearBars(60, 200, -1), 0.15)
		require.NoError(t, err)
		assert.Equal(t, domain.LabelSell, src.Label)
	})

	t.Run("short window halves confidence", func(t *testing.T) {
		src, err := StructureSignal(linearBars(30, 100, 1), 0.15)
		require.NoError(t, err)
		assert.Equal(t, domain.LabelBuy, src.Label)
		assert.InDelta(t, 35.0, src.Confidence, 1e-9)
		assert.Equal(t, "sma10/sma20", src.Metadata["trend_basis"])
	})

	t.Run("too short is a degraded non-vote", func(t *testing.T) {
		out := NewStructure(0.15).Evaluate(context.Background(), Snapshot{Bars: linearBars(10, 100, 1)})
		assert.False(t, out.Signal.Active())
		var insufficient *domain.InsufficientDataError
		assert.ErrorAs(t, out.Degraded, &insufficient)
	})
}

func TestSwingPoints(t *testing.T) {
	highs := []float64{100, 101, 105, 101, 100, 99, 98}
	bars := make([]domain.PriceBar, len(highs))
	for i, h := range highs {
		bars[i] = ohlc(i, h-1, h, h-2, h-1)
	}

	swingHighs, swingLows := SwingPoints(bars)
	assert.Equal(t, []Level{{Index: 2, Price: 105}}, swingHighs)
	assert.Empty(t, swingLows)
}

func TestRiskSignal(t *testing.T) {
	src := RiskSignal(domain.RiskProfile{Level: domain.RiskHigh, Score: 72}, 0.1)
	assert.Equal(t, domain.LabelNeutral, src.Label)
	assert.Equal(t, 72.0, src.Confidence)
	assert.Equal(t, "HIGH", src.Metadata["level"])
}

func TestCalendar(t *testing.T) {
	window := DefaultCalendarWindow()

	tests := []struct {
		name         string
		events       []domain.EconomicEvent
		wantBlackout bool
		wantScore    float64
	}{
		{
			name:         "high impact event inside blackout",
			events:       []domain.EconomicEvent{{Title: "CPI", Currency: "USD", Impact: domain.ImpactHigh, Time: testNow.Add(30 * time.Minute)}},
			wantBlackout: true,
			wantScore:    100 / 1.5,
		},
		{
			name:         "high impact event just released",
			events:       []domain.EconomicEvent{{Title: "FOMC", Currency: "USD", Impact: domain.ImpactHigh, Time: testNow.Add(-15 * time.Minute)}},
			wantBlackout: true,
			wantScore:    100 / 1.25,
		},
		{
			name:      "high impact event later today",
			events:    []domain.EconomicEvent{{Title: "NFP", Currency: "USD", Impact: domain.ImpactHigh, Time: testNow.Add(3 * time.Hour)}},
			wantScore: 25,
		},
		{
			name:      "unrelated currency is ignored",
			events:    []domain.EconomicEvent{{Title: "BoJ", Currency: "JPY", Impact: domain.ImpactHigh, Time: testNow.Add(5 * time.Minute)}},
			wantScore: 0,
		},
		{
			name: "score is capped",
			events: []domain.EconomicEvent{
				{Title: "CPI", Impact: domain.ImpactHigh, Time: testNow},
				{Title: "PPI", Impact: domain.ImpactHigh, Time: testNow},
			},
			wantBlackout: true,
			wantScore:    100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := calendarFunc(func(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error) {
				assert.Equal(t, testNow.Add(-window.After), from)
				assert.Equal(t, testNow.Add(window.Lookahead), to)
				return tt.events, nil
			})

			out := NewCalendar(feed, 0.05, window).Evaluate(context.Background(), Snapshot{Pair: testPair, Now: testNow})
			assert.Equal(t, tt.wantBlackout, out.Blackout)
			assert.Equal(t, domain.LabelNeutral, out.Signal.Label)
			assert.InDelta(t, tt.wantScore, out.Signal.Confidence, 1e-9)
			assert.NoError(t, out.Degraded)
		})
	}

	t.Run("feed failure is a degraded non-vote without blackout", func(t *testing.T) {
		feed := calendarFunc(func(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error) {
			return nil, errors.New("feed down")
		})
		out := NewCalendar(feed, 0.05, window).Evaluate(context.Background(), Snapshot{Pair: testPair, Now: testNow})
		assert.False(t, out.Blackout)
		assert.False(t, out.Signal.Active())
		var upstream *domain.UpstreamUnavailableError
		assert.ErrorAs(t, out.Degraded, &upstream)
	})

	t.Run("no feed is a non-vote", func(t *testing.T) {
		out := NewCalendar(nil, 0.05, window).Evaluate(context.Background(), Snapshot{Pair: testPair, Now: testNow})
		assert.False(t, out.Signal.Active())
		assert.NoError(t, out.Degraded)
	})
}

func TestBacktestSignal(t *testing.T) {
	tests := []struct {
		name      string
		stats     domain.BacktestStats
		wantLabel domain.Label
		wantConf  float64
	}{
		{name: "strong edge", stats: domain.BacktestStats{WinRate: 0.70, ProfitFactor: 1.8, Trades: 100}, wantLabel: domain.LabelStrongBuy, wantConf: 90},
		{name: "mild edge", stats: domain.BacktestStats{WinRate: 0.58, ProfitFactor: 1.3, Trades: 25}, wantLabel: domain.LabelBuy, wantConf: 45},
		{name: "losing badly", stats: domain.BacktestStats{WinRate: 0.30, ProfitFactor: 0.6, Trades: 400}, wantLabel: domain.LabelStrongSell, wantConf: 90},
		{name: "unprofitable", stats: domain.BacktestStats{WinRate: 0.50, ProfitFactor: 0.9, Trades: 100}, wantLabel: domain.LabelSell, wantConf: 90},
		{name: "no edge", stats: domain.BacktestStats{WinRate: 0.50, ProfitFactor: 1.1, Trades: 100}, wantLabel: domain.LabelNeutral, wantConf: 90},
		{name: "no trades", stats: domain.BacktestStats{WinRate: 0.70, ProfitFactor: 2, Trades: 0}, wantLabel: domain.LabelNeutral, wantConf: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := BacktestSignal(tt.stats, 0.1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, src.Label)
			assert.InDelta(t, tt.wantConf, src.Confidence, 1e-9)
		})
	}

	_, err := BacktestSignal(domain.BacktestStats{WinRate: 1.5, ProfitFactor: 1, Trades: 10}, 0.1)
	assert.Error(t, err)

	t.Run("provider failure degrades", func(t *testing.T) {
		provider := backtestFunc(func(ctx context.Context, strategy string) (domain.BacktestStats, error) {
			return domain.BacktestStats{}, errors.New("not found")
		})
		out := NewBacktest(provider, "ema_cross", 0.1).Evaluate(context.Background(), Snapshot{})
		assert.False(t, out.Signal.Active())
		assert.Error(t, out.Degraded)
	})
}

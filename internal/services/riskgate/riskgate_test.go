package riskgate

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"go.uber.org/zap"
)

func bars(closes []float64) []domain.PriceBar {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = domain.PriceBar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      decimal.NewFromFloat(c),
			High:      decimal.NewFromFloat(c + 0.5),
			Low:       decimal.NewFromFloat(c - 0.5),
			Close:     decimal.NewFromFloat(c),
			Volume:    decimal.NewFromInt(100),
		}
	}
	return out
}

func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func choppy(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = 100
		} else {
			out[i] = 110
		}
	}
	return out
}

func newGate(t *testing.T, cfg Config) *Gate {
	t.Helper()
	g, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestClassify(t *testing.T) {
	tests := []struct {
		volatility float64
		level      domain.RiskLevel
		score      float64
	}{
		{volatility: 0, level: domain.RiskLow, score: 0},
		{volatility: 1, level: domain.RiskLow, score: 15},
		{volatility: 2, level: domain.RiskMedium, score: 30},
		{volatility: 3.5, level: domain.RiskMedium, score: 45},
		{volatility: 5, level: domain.RiskMedium, score: 60},
		{volatility: 7.5, level: domain.RiskHigh, score: 72.5},
		{volatility: 10, level: domain.RiskHigh, score: 85},
		{volatility: 15, level: domain.RiskExtreme, score: 92.5},
		{volatility: 40, level: domain.RiskExtreme, score: 100},
		{volatility: math.NaN(), level: domain.RiskExtreme, score: 100},
		{volatility: math.Inf(1), level: domain.RiskExtreme, score: 100},
	}

	for _, tt := range tests {
		level, score := Classify(tt.volatility)
		assert.Equal(t, tt.level, level, "volatility %v", tt.volatility)
		assert.InDelta(t, tt.score, score, 1e-9, "volatility %v", tt.volatility)
	}
}

func TestSize_Ceiling(t *testing.T) {
	cfg := DefaultConfig()
	g := newGate(t, cfg)

	proxies := []float64{0, 1e-12, 0.001, 0.05, 1e9, math.Inf(1), math.Inf(-1), math.NaN(), -0.5}
	levels := []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskExtreme}

	for _, proxy := range proxies {
		for _, level := range levels {
			s := g.Size(proxy, level)
			assert.GreaterOrEqual(t, s.RecommendedFraction, 0.0, "proxy %v level %v", proxy, level)
			assert.LessOrEqual(t, s.RecommendedFraction, cfg.MaxFraction, "proxy %v level %v", proxy, level)
			assert.False(t, math.IsNaN(s.StopDistance))
			assert.False(t, math.IsInf(s.StopDistance, 0))
			if level == domain.RiskExtreme {
				assert.Equal(t, 0.0, s.RecommendedFraction)
			}
		}
	}

	assert.Equal(t, cfg.MaxFraction, g.Size(0, domain.RiskLow).RecommendedFraction)
	assert.Equal(t, 0.0, g.Size(math.NaN(), domain.RiskLow).RecommendedFraction)
}

func TestSize_Plan(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capital = decimal.NewFromInt(10000)
	g := newGate(t, cfg)

	s := g.Size(0.05, domain.RiskMedium)
	assert.InDelta(t, 0.1, s.StopDistance, 1e-12)
	assert.InDelta(t, 0.1, s.RecommendedFraction, 1e-12)
	require.Len(t, s.TakeProfitDistances, 3)
	assert.InDelta(t, 0.15, s.TakeProfitDistances[0], 1e-12)
	assert.InDelta(t, 0.25, s.TakeProfitDistances[1], 1e-12)
	assert.InDelta(t, 0.4, s.TakeProfitDistances[2], 1e-12)
	assert.True(t, s.RiskAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, s.PositionValue.Sub(decimal.NewFromInt(1000)).Abs().LessThan(decimal.NewFromFloat(1e-6)))

	high := g.Size(0.05, domain.RiskHigh)
	assert.InDelta(t, 0.05, high.RecommendedFraction, 1e-12)
}

func TestAssess(t *testing.T) {
	g := newGate(t, DefaultConfig())

	t.Run("calm window", func(t *testing.T) {
		p, err := g.Assess(bars(flat(30, 100)), "1h")
		require.NoError(t, err)
		assert.Equal(t, domain.RiskLow, p.Level)
		assert.Equal(t, 0.0, p.Score)
		assert.Equal(t, 0.0, p.AnnualizedVolatility)
		assert.False(t, p.VolumeEscalated)
		assert.Equal(t, proxyATR, p.Sizing.VolatilityProxyLabel)
		// ATR 1 on price 100, stop 0.02, 0.01/0.02 = 0.5 capped
		assert.InDelta(t, 0.02, p.Sizing.StopDistance, 1e-9)
		assert.Equal(t, 0.25, p.Sizing.RecommendedFraction)
	})

	t.Run("choppy window", func(t *testing.T) {
		p, err := g.Assess(bars(choppy(30)), "1h")
		require.NoError(t, err)
		assert.Equal(t, domain.RiskHigh, p.Level)
		assert.Greater(t, p.Volatility, 5.0)
		assert.InDelta(t, p.Volatility*math.Sqrt(8760), p.AnnualizedVolatility, 1e-6)
		assert.LessOrEqual(t, p.Sizing.RecommendedFraction, 0.125)
	})

	t.Run("volume anomaly escalates", func(t *testing.T) {
		window := bars(flat(30, 100))
		window[29].Volume = decimal.NewFromInt(1000)

		p, err := g.Assess(window, "1h")
		require.NoError(t, err)
		assert.True(t, p.VolumeEscalated)
		assert.Equal(t, domain.RiskMedium, p.Level)
		assert.Equal(t, 25.0, p.Score)
		assert.Greater(t, p.VolumeAnomalyRatio, 3.0)
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, err := g.Assess(bars(flat(10, 100)), "1h")
		var insufficient *domain.InsufficientDataError
		assert.ErrorAs(t, err, &insufficient)
	})
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFraction = 0
	_, err := New(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.StopMultiplier = -1
	_, err = New(cfg, zap.NewNop())
	assert.Error(t, err)
}

// Package riskgate classifies the risk of a price window and derives a
// volatility-scaled position-sizing plan with a hard ceiling.
package riskgate

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/pkg/indicators"
	"go.uber.org/zap"
)

const (
	lowBandPct     = 2.0
	mediumBandPct  = 5.0
	extremeBandPct = 10.0

	volumeAnomalyPenalty = 25.0

	proxyATR         = "atr"
	proxyReturnStdev = "return_stdev"
)

// Config risk gate parameters.
type Config struct {
	// RiskPerTrade fraction of capital lost when the stop is hit.
	RiskPerTrade float64
	// MaxFraction hard ceiling on the recommended position fraction.
	MaxFraction float64
	// StopMultiplier k1 in stop_distance = k1 * volatility proxy.
	StopMultiplier float64
	// TakeProfitMultiples R-multiples of the stop distance.
	TakeProfitMultiples []float64
	// VolumeLow and VolumeHigh bound the normal current/average volume ratio.
	VolumeLow  float64
	VolumeHigh float64
	// Window trailing return window for volatility.
	Window int
	// Capital optional account size for risk amount and position value.
	Capital decimal.Decimal
}

// DefaultConfig returns the default risk parameters.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:        0.01,
		MaxFraction:         0.25,
		StopMultiplier:      2.0,
		TakeProfitMultiples: []float64{1.5, 2.5, 4},
		VolumeLow:           0.3,
		VolumeHigh:          3.0,
		Window:              indicators.VolatilityWindow,
		Capital:             decimal.Zero,
	}
}

// Gate assesses risk for a price window.
type Gate struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a risk gate.
func New(cfg Config, logger *zap.Logger) (*Gate, error) {
	if cfg.MaxFraction <= 0 || cfg.MaxFraction > 1 {
		return nil, errors.Errorf("max fraction %v must be within (0,1]", cfg.MaxFraction)
	}
	if cfg.RiskPerTrade < 0 || cfg.RiskPerTrade > 1 {
		return nil, errors.Errorf("risk per trade %v must be within [0,1]", cfg.RiskPerTrade)
	}
	if cfg.StopMultiplier <= 0 {
		return nil, errors.Errorf("stop multiplier %v must be positive", cfg.StopMultiplier)
	}
	if cfg.Window <= 1 {
		return nil, errors.Errorf("volatility window %d too short", cfg.Window)
	}
	return &Gate{cfg: cfg, logger: logger}, nil
}

// Assess computes the risk profile of the window.
func (g *Gate) Assess(bars []domain.PriceBar, tf domain.Timeframe) (domain.RiskProfile, error) {
	vol, err := indicators.Volatility(bars, g.cfg.Window)
	if err != nil {
		return domain.RiskProfile{}, errors.Wrap(err, "risk volatility")
	}
	volatility := vol.Value

	level, score := Classify(volatility)

	va := domain.NewVolumeAnalysis(bars)
	ratio := va.Ratio()
	escalated := va.IsAnomalous(g.cfg.VolumeLow, g.cfg.VolumeHigh)
	if escalated {
		level = level.Escalate()
		score = math.Min(100, score+volumeAnomalyPenalty)
		g.logger.Debug("volume anomaly escalates risk",
			zap.Float64("ratio", ratio), zap.String("level", level.String()))
	}

	annualized := 0.0
	if bpy := tf.BarsPerYear(); bpy > 0 {
		annualized = volatility * math.Sqrt(bpy)
	}

	proxy, proxyLabel := volatilityProxy(bars, volatility)
	sizing := g.Size(proxy, level)
	sizing.VolatilityProxyLabel = proxyLabel

	return domain.RiskProfile{
		Level:                level,
		Score:                domain.ClampConfidence(score),
		Volatility:           volatility,
		AnnualizedVolatility: annualized,
		VolumeAnomalyRatio:   ratio,
		VolumeEscalated:      escalated,
		Sizing:               sizing,
	}, nil
}

// Size derives the position plan from a volatility proxy expressed as a
// fraction of price. The recommended fraction never exceeds MaxFraction,
// including for zero, infinite or NaN proxies.
func (g *Gate) Size(proxy float64, level domain.RiskLevel) domain.PositionSizing {
	stop := g.cfg.StopMultiplier * proxy

	var fraction float64
	switch {
	case math.IsNaN(stop) || stop < 0:
		fraction = 0
	case stop == 0:
		fraction = g.cfg.MaxFraction
	default:
		fraction = g.cfg.RiskPerTrade / stop
	}
	fraction = math.Max(0, math.Min(fraction, g.cfg.MaxFraction))

	switch level {
	case domain.RiskHigh:
		fraction /= 2
	case domain.RiskExtreme:
		fraction = 0
	}

	targets := make([]float64, 0, len(g.cfg.TakeProfitMultiples))
	if !math.IsNaN(stop) && !math.IsInf(stop, 0) && stop > 0 {
		for _, m := range g.cfg.TakeProfitMultiples {
			targets = append(targets, stop*m)
		}
	}

	budget := domain.NewRiskBudget(g.cfg.Capital, g.cfg.RiskPerTrade)
	return domain.PositionSizing{
		RecommendedFraction: fraction,
		StopDistance:        sanitize(stop),
		TakeProfitDistances: targets,
		RiskAmount:          budget.RiskAmount(),
		PositionValue:       budget.Allocate(fraction),
		VolatilityProxy:     sanitize(proxy),
	}
}

// Classify maps window volatility (percent) onto a tier and a 0..100 score
// that is continuous inside each tier. Non-finite volatility is EXTREME.
func Classify(volatility float64) (domain.RiskLevel, float64) {
	switch {
	case math.IsNaN(volatility) || math.IsInf(volatility, 0):
		return domain.RiskExtreme, 100
	case volatility > extremeBandPct:
		return domain.RiskExtreme, 85 + math.Min(15, (volatility-extremeBandPct)/extremeBandPct*15)
	case volatility > mediumBandPct:
		return domain.RiskHigh, 60 + (volatility-mediumBandPct)/(extremeBandPct-mediumBandPct)*25
	case volatility >= lowBandPct:
		return domain.RiskMedium, 30 + (volatility-lowBandPct)/(mediumBandPct-lowBandPct)*30
	default:
		return domain.RiskLow, math.Max(0, volatility) / lowBandPct * 30
	}
}

// volatilityProxy prefers ATR relative to price and falls back to the return stdev.
func volatilityProxy(bars []domain.PriceBar, volatilityPct float64) (float64, string) {
	latest, ok := domain.LatestBar(bars)
	if ok {
		price := latest.Close.InexactFloat64()
		if atr, err := indicators.ATR(bars, indicators.ATRPeriod); err == nil && price > 0 && atr > 0 {
			return atr / price, proxyATR
		}
	}
	return volatilityPct / 100, proxyReturnStdev
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

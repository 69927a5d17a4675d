// Package decision gates an aggregate result into a trade decision.
package decision

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

const planPricePrecision = 8

// Config gating floors.
type Config struct {
	// ConfidenceFloor minimum overall confidence to trade.
	ConfidenceFloor float64
	// AccuracyFloor minimum accuracy estimate to trade.
	AccuracyFloor float64
	// BlackoutOverrideFloor confidence a STRONG label needs to trade through a blackout.
	BlackoutOverrideFloor float64
	// HighUrgencyConfidence and MediumUrgencyConfidence urgency thresholds.
	HighUrgencyConfidence   float64
	MediumUrgencyConfidence float64
}

// DefaultConfig returns the default gating floors.
func DefaultConfig() Config {
	return Config{
		ConfidenceFloor:         60,
		AccuracyFloor:           65,
		BlackoutOverrideFloor:   85,
		HighUrgencyConfidence:   80,
		MediumUrgencyConfidence: 70,
	}
}

// Decider applies gating rules in a fixed order.
type Decider struct {
	cfg Config
}

// New creates a decider.
func New(cfg Config) *Decider {
	return &Decider{cfg: cfg}
}

// Decide returns whether to trade. Rules, in order: label is directional,
// confidence and accuracy clear their floors, risk is not EXTREME, and no
// blackout unless a STRONG label clears the override floor.
func (d *Decider) Decide(agg domain.AggregateResult, risk domain.RiskProfile, blackout bool) domain.TradeDecision {
	decision := domain.TradeDecision{
		Direction: domain.DirectionWait,
		Urgency:   domain.UrgencyLow,
		RiskLevel: risk.Level,
	}

	summary := fmt.Sprintf("%s signal (confidence %.1f%%, accuracy %.1f%%), risk %s",
		agg.Label, agg.Confidence, agg.AccuracyEstimate, risk.Level)

	if reason := d.veto(agg, risk, blackout); reason != "" {
		decision.Explanation = fmt.Sprintf("%s: no trade, %s", summary, reason)
		return decision
	}

	decision.ShouldTrade = true
	decision.Direction = domain.DirectionFromLabel(agg.Label)
	decision.Urgency = d.urgency(agg)

	parts := []string{summary, fmt.Sprintf("%s with %s urgency", decision.Direction, decision.Urgency)}
	if blackout {
		parts = append(parts, "calendar blackout overridden by strong signal")
	}
	decision.Explanation = strings.Join(parts, ": ")

	return decision
}

func (d *Decider) veto(agg domain.AggregateResult, risk domain.RiskProfile, blackout bool) string {
	switch {
	case agg.Label.Bucket() == domain.BucketNeutral:
		return "no directional signal"
	case agg.Confidence < d.cfg.ConfidenceFloor:
		return fmt.Sprintf("confidence below %.0f%% floor", d.cfg.ConfidenceFloor)
	case agg.AccuracyEstimate < d.cfg.AccuracyFloor:
		return fmt.Sprintf("accuracy below %.0f%% floor", d.cfg.AccuracyFloor)
	case risk.Level == domain.RiskExtreme:
		return "risk is EXTREME"
	case blackout && !(agg.Label.IsStrong() && agg.Confidence > d.cfg.BlackoutOverrideFloor):
		return "high-impact economic event blackout"
	}
	return ""
}

func (d *Decider) urgency(agg domain.AggregateResult) domain.Urgency {
	switch {
	case agg.Label.IsStrong() && agg.Confidence > d.cfg.HighUrgencyConfidence:
		return domain.UrgencyHigh
	case agg.Confidence > d.cfg.MediumUrgencyConfidence:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}

// BuildPlan converts sizing distances into price levels around entry.
// It returns nil for WAIT or a non-positive entry.
func BuildPlan(direction domain.Direction, entry decimal.Decimal, sizing domain.PositionSizing) *domain.TradePlan {
	if direction == domain.DirectionWait || !entry.IsPositive() {
		return nil
	}

	sign := decimal.NewFromInt(1)
	if direction == domain.DirectionSell {
		sign = decimal.NewFromInt(-1)
	}

	level := func(distance float64) decimal.Decimal {
		offset := entry.Mul(decimal.NewFromFloat(distance)).Mul(sign)
		return entry.Add(offset).Round(planPricePrecision)
	}

	targets := make([]decimal.Decimal, 0, len(sizing.TakeProfitDistances))
	for _, tp := range sizing.TakeProfitDistances {
		targets = append(targets, level(tp))
	}

	return &domain.TradePlan{
		Entry:     entry,
		StopLoss:  level(-sizing.StopDistance),
		Targets:   targets,
		Fraction:  sizing.RecommendedFraction,
		RiskValue: sizing.RiskAmount,
	}
}

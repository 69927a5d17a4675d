package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

func sampleReport(trade bool) domain.Report {
	tech := domain.NewSignalSource(domain.SourceTechnical, domain.LabelBuy, 72, 0.3)
	tech.Metadata["indicators"] = "5"
	cal := domain.NonVote(domain.SourceCalendar, 0.05, "no calendar feed configured")

	r := domain.Report{
		Pair:        domain.Pair{From: "BTC", To: "USDT"},
		Timeframe:   "1h",
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		BarCount:    100,
		LastPrice:   "64000.5",
		Indicators: []domain.Indicator{
			{Name: "RSI", Value: 61.2, Label: domain.LabelNeutral, Description: "rsi 61.2"},
		},
		Aggregate: domain.AggregateResult{
			Label:            domain.LabelBuy,
			Score:            74,
			Confidence:       78,
			AccuracyEstimate: 80,
			Consensus:        1,
			Components:       []domain.SignalSource{tech, cal},
		},
		Risk: domain.RiskProfile{Level: domain.RiskMedium, Score: 40},
		Decision: domain.TradeDecision{
			Direction:   domain.DirectionWait,
			Explanation: "BUY signal: no trade, high-impact economic event blackout",
		},
		Blackout: !trade,
	}

	if trade {
		r.Decision = domain.TradeDecision{
			ShouldTrade: true,
			Direction:   domain.DirectionBuy,
			Urgency:     domain.UrgencyMedium,
			Explanation: "BUY with MEDIUM urgency",
			Plan: &domain.TradePlan{
				Entry:     decimal.RequireFromString("64000.5"),
				StopLoss:  decimal.RequireFromString("62720.49"),
				Targets:   []decimal.Decimal{decimal.RequireFromString("65920.515")},
				Fraction:  0.25,
				RiskValue: decimal.NewFromInt(25),
			},
		}
	}
	return r
}

func TestReport_Trade(t *testing.T) {
	out := Report(sampleReport(true))

	assert.Contains(t, out, "BTC_USDT")
	assert.Contains(t, out, "BUY · urgency MEDIUM")
	assert.Contains(t, out, "entry 64000.5")
	assert.Contains(t, out, "stop 62720.49")
	assert.Contains(t, out, "65920.515")
	assert.Contains(t, out, "at risk 25.00")
	assert.Contains(t, out, "RSI")
	assert.NotContains(t, out, "blackout")
}

func TestReport_Wait(t *testing.T) {
	out := Report(sampleReport(false))

	assert.Contains(t, out, "WAIT")
	assert.Contains(t, out, "economic calendar blackout")
	assert.NotContains(t, out, "entry ")
}

func TestSources(t *testing.T) {
	out := Sources(sampleReport(true).Aggregate.Components)

	assert.Contains(t, out, "technical")
	assert.Contains(t, out, "indicators=5")
	assert.Contains(t, out, "(abstains)")
	assert.Contains(t, out, "reason=no calendar feed configured")
}

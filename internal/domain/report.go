package domain

import (
	"time"

	"github.com/google/uuid"
)

// Report everything one analysis run produced.
type Report struct {
	ID          uuid.UUID       `json:"id"`
	Pair        Pair            `json:"pair"`
	Timeframe   Timeframe       `json:"timeframe"`
	GeneratedAt time.Time       `json:"generated_at"`
	BarCount    int             `json:"bar_count"`
	LastPrice   string          `json:"last_price"`
	Indicators  []Indicator     `json:"indicators"`
	Aggregate   AggregateResult `json:"aggregate"`
	Risk        RiskProfile     `json:"risk"`
	Blackout    bool            `json:"calendar_blackout"`
	Decision    TradeDecision   `json:"decision"`
}

// ReportRecord report with its position in an in-memory log.
type ReportRecord struct {
	Index  uint64
	Report Report
}

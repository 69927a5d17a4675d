package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinWindowBars is the smallest window any analysis pass accepts.
const MinWindowBars = 20

// PriceBar single OHLCV candlestick.
type PriceBar struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// ValidateWindow checks that timestamps strictly increase.
func ValidateWindow(bars []PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return &InvariantViolation{
				Field:  "timestamp",
				Value:  bars[i].Timestamp,
				Reason: "price bars must be ordered oldest to newest with strictly increasing timestamps",
			}
		}
	}
	return nil
}

// Closes extracts close prices as float64.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close.InexactFloat64()
	}
	return out
}

// Highs extracts high prices as float64.
func Highs(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High.InexactFloat64()
	}
	return out
}

// Lows extracts low prices as float64.
func Lows(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low.InexactFloat64()
	}
	return out
}

// LatestBar returns the most recent bar.
func LatestBar(bars []PriceBar) (PriceBar, bool) {
	if len(bars) == 0 {
		return PriceBar{}, false
	}
	return bars[len(bars)-1], true
}

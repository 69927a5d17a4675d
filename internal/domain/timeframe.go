package domain

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Timeframe candle interval such as "1m", "15m", "1h", "4h", "1d" or "1w".
type Timeframe string

// ParseTimeframe validates an interval string.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if _, err := tf.Duration(); err != nil {
		return "", err
	}
	return tf, nil
}

// String returns the string representation.
func (t Timeframe) String() string {
	return string(t)
}

// Unit returns the trailing unit character of the interval.
func (t Timeframe) Unit() byte {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1]
}

// Count returns the numeric part of the interval.
func (t Timeframe) Count() (int, error) {
	if len(t) < 2 {
		return 0, errors.Errorf("invalid timeframe format: %q", string(t))
	}
	n, err := strconv.Atoi(string(t[:len(t)-1]))
	if err != nil || n <= 0 {
		return 0, errors.Errorf("invalid timeframe number: %q", string(t))
	}
	return n, nil
}

// Duration returns the wall-clock length of one bar.
func (t Timeframe) Duration() (time.Duration, error) {
	n, err := t.Count()
	if err != nil {
		return 0, err
	}

	switch t.Unit() {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, errors.Errorf("unsupported timeframe unit: %q", string(t))
	}
}

// BarsPerYear returns how many bars of this timeframe fit in a 365-day year
// of continuous trading. Zero for an invalid timeframe.
func (t Timeframe) BarsPerYear() float64 {
	d, err := t.Duration()
	if err != nil || d <= 0 {
		return 0
	}
	return float64(365*24*time.Hour) / float64(d)
}

// Trend qualitative direction of price structure.
type Trend string

const (
	TrendUp       Trend = "UPTREND"
	TrendDown     Trend = "DOWNTREND"
	TrendSideways Trend = "SIDEWAYS"
)

// DetermineTrend classifies moving-average ordering, fastest first.
// Strictly descending averages make an uptrend, strictly ascending a downtrend.
func DetermineTrend(averages ...float64) Trend {
	if len(averages) < 2 {
		return TrendSideways
	}

	up, down := true, true
	for i := 1; i < len(averages); i++ {
		if !(averages[i-1] > averages[i]) {
			up = false
		}
		if !(averages[i-1] < averages[i]) {
			down = false
		}
	}

	switch {
	case up:
		return TrendUp
	case down:
		return TrendDown
	default:
		return TrendSideways
	}
}

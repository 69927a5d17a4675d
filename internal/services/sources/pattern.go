package sources

import (
	"context"
	"math"
	"strings"

	"github.com/vadiminshakov/tradegate/internal/domain"
)

// Fixed reliability per pattern type.
const (
	ReliabilityEngulfing    = 0.70
	ReliabilityHammer       = 0.60
	ReliabilityShootingStar = 0.60
	ReliabilityDoji         = 0.40
	ReliabilityDoubleTop    = 0.75
	ReliabilityDoubleBottom = 0.75

	dojiBodyRatio       = 0.1
	shadowBodyMultiple  = 2.0
	patternContextBars  = 5
	doubleTolerancePct  = 1.5
	doubleMinSeparation = 3
)

// Pattern detected candlestick or geometric formation.
type Pattern struct {
	Name        string
	Label       domain.Label
	Reliability float64
	// Index of the bar completing the pattern.
	Index int
}

// PatternSource votes detected patterns by their reliability.
type PatternSource struct {
	weight float64
}

// NewPattern creates the pattern source.
func NewPattern(weight float64) *PatternSource {
	return &PatternSource{weight: weight}
}

func (p *PatternSource) Name() domain.SourceName { return domain.SourcePattern }

func (p *PatternSource) Evaluate(_ context.Context, snap Snapshot) Outcome {
	return Outcome{Signal: PatternSignal(DetectPatterns(snap.Bars), p.weight)}
}

// PatternSignal reduces detected patterns to one source. No pattern is a non-vote.
func PatternSignal(patterns []Pattern, weight float64) domain.SignalSource {
	if len(patterns) == 0 {
		return domain.NonVote(domain.SourcePattern, weight, "no pattern detected")
	}

	votes := make([]vote, 0, len(patterns))
	names := make([]string, 0, len(patterns))
	for _, p := range patterns {
		votes = append(votes, vote{label: p.Label, weight: p.Reliability})
		names = append(names, p.Name)
	}
	label, reliability, _ := reduceVotes(votes)

	src := domain.NewSignalSource(domain.SourcePattern, label, reliability*100, weight)
	src.Metadata["patterns"] = strings.Join(names, ",")
	return src
}

// DetectPatterns scans the tail of the window for known formations.
func DetectPatterns(bars []domain.PriceBar) []Pattern {
	if len(bars) == 0 {
		return nil
	}

	var found []Pattern
	last := len(bars) - 1

	if p, ok := engulfing(bars); ok {
		found = append(found, p)
	}

	c := candleOf(bars[last])
	switch {
	case c.isDoji():
		found = append(found, Pattern{Name: "doji", Label: domain.LabelNeutral, Reliability: ReliabilityDoji, Index: last})
	case c.isHammer() && priorMove(bars) < 0:
		found = append(found, Pattern{Name: "hammer", Label: domain.LabelBuy, Reliability: ReliabilityHammer, Index: last})
	case c.isShootingStar() && priorMove(bars) > 0:
		found = append(found, Pattern{Name: "shooting_star", Label: domain.LabelSell, Reliability: ReliabilityShootingStar, Index: last})
	}

	if p, ok := doubleTopBottom(bars); ok {
		found = append(found, p)
	}

	return found
}

type candle struct {
	open, high, low, close float64
}

func candleOf(b domain.PriceBar) candle {
	return candle{
		open:  b.Open.InexactFloat64(),
		high:  b.High.InexactFloat64(),
		low:   b.Low.InexactFloat64(),
		close: b.Close.InexactFloat64(),
	}
}

func (c candle) body() float64        { return math.Abs(c.close - c.open) }
func (c candle) rng() float64         { return c.high - c.low }
func (c candle) upperShadow() float64 { return c.high - math.Max(c.open, c.close) }
func (c candle) lowerShadow() float64 { return math.Min(c.open, c.close) - c.low }
func (c candle) bullish() bool        { return c.close > c.open }
func (c candle) bearish() bool        { return c.close < c.open }

func (c candle) isDoji() bool {
	return c.rng() > 0 && c.body() <= dojiBodyRatio*c.rng()
}

func (c candle) isHammer() bool {
	return c.body() > 0 &&
		c.lowerShadow() >= shadowBodyMultiple*c.body() &&
		c.upperShadow() <= c.body()
}

func (c candle) isShootingStar() bool {
	return c.body() > 0 &&
		c.upperShadow() >= shadowBodyMultiple*c.body() &&
		c.lowerShadow() <= c.body()
}

// priorMove returns the close change over the bars preceding the last one.
func priorMove(bars []domain.PriceBar) float64 {
	last := len(bars) - 1
	if last < patternContextBars {
		return 0
	}
	return bars[last-1].Close.InexactFloat64() - bars[last-patternContextBars].Close.InexactFloat64()
}

func engulfing(bars []domain.PriceBar) (Pattern, bool) {
	if len(bars) < 2 {
		return Pattern{}, false
	}
	last := len(bars) - 1
	prev, curr := candleOf(bars[last-1]), candleOf(bars[last])

	if prev.bearish() && curr.bullish() && curr.open <= prev.close && curr.close >= prev.open && curr.body() > prev.body() {
		return Pattern{Name: "bullish_engulfing", Label: domain.LabelBuy, Reliability: ReliabilityEngulfing, Index: last}, true
	}
	if prev.bullish() && curr.bearish() && curr.open >= prev.close && curr.close <= prev.open && curr.body() > prev.body() {
		return Pattern{Name: "bearish_engulfing", Label: domain.LabelSell, Reliability: ReliabilityEngulfing, Index: last}, true
	}
	return Pattern{}, false
}

// doubleTopBottom looks at the two most recent swing highs (lows). They must be
// within tolerance of each other and price must have broken the neckline
// between them.
func doubleTopBottom(bars []domain.PriceBar) (Pattern, bool) {
	highs, lows := SwingPoints(bars)
	closes := domain.Closes(bars)
	last := len(bars) - 1
	price := closes[last]

	if len(highs) >= 2 {
		a, b := highs[len(highs)-2], highs[len(highs)-1]
		if b.Index-a.Index >= doubleMinSeparation && withinPct(a.Price, b.Price, doubleTolerancePct) {
			neckline := minBetween(domain.Lows(bars), a.Index, b.Index)
			if price < neckline {
				return Pattern{Name: "double_top", Label: domain.LabelSell, Reliability: ReliabilityDoubleTop, Index: last}, true
			}
		}
	}

	if len(lows) >= 2 {
		a, b := lows[len(lows)-2], lows[len(lows)-1]
		if b.Index-a.Index >= doubleMinSeparation && withinPct(a.Price, b.Price, doubleTolerancePct) {
			neckline := maxBetween(domain.Highs(bars), a.Index, b.Index)
			if price > neckline {
				return Pattern{Name: "double_bottom", Label: domain.LabelBuy, Reliability: ReliabilityDoubleBottom, Index: last}, true
			}
		}
	}

	return Pattern{}, false
}

func withinPct(a, b, pct float64) bool {
	if a == 0 {
		return false
	}
	return math.Abs(a-b)/a*100 <= pct
}

func minBetween(values []float64, from, to int) float64 {
	m := math.Inf(1)
	for i := from; i <= to; i++ {
		m = math.Min(m, values[i])
	}
	return m
}

func maxBetween(values []float64, from, to int) float64 {
	m := math.Inf(-1)
	for i := from; i <= to; i++ {
		m = math.Max(m, values[i])
	}
	return m
}

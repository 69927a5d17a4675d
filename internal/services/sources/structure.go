package sources

import (
	"context"
	"math"
	"strconv"

	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/pkg/indicators"
)

const (
	swingNeighbours     = 2
	levelProximityPct   = 1.0
	structureConfidence = 70.0
	sidewaysConfidence  = 40.0
	levelBonus          = 15.0
	levelPenalty        = 10.0
)

// Level swing high or low used as resistance or support.
type Level struct {
	Index int
	Price float64
}

// Structure classifies trend from moving-average ordering and refines it with
// support and resistance proximity.
type Structure struct {
	weight float64
}

// NewStructure creates the market-structure source.
func NewStructure(weight float64) *Structure {
	return &Structure{weight: weight}
}

func (s *Structure) Name() domain.SourceName { return domain.SourceStructure }

func (s *Structure) Evaluate(_ context.Context, snap Snapshot) Outcome {
	src, err := StructureSignal(snap.Bars, s.weight)
	if err != nil {
		return Outcome{
			Signal:   domain.NonVote(domain.SourceStructure, s.weight, err.Error()),
			Degraded: err,
		}
	}
	return Outcome{Signal: src}
}

// StructureSignal computes the market-structure source. Below 50 bars the
// trend uses SMA(10)/SMA(20) only and confidence is halved.
func StructureSignal(bars []domain.PriceBar, weight float64) (domain.SignalSource, error) {
	closes := domain.Closes(bars)

	sma10, err := indicators.SMA(closes, 10)
	if err != nil {
		return domain.SignalSource{}, err
	}
	sma20, err := indicators.SMA(closes, 20)
	if err != nil {
		return domain.SignalSource{}, err
	}

	var trend domain.Trend
	degraded := false
	if sma50, err := indicators.SMA(closes, 50); err == nil {
		trend = domain.DetermineTrend(sma10, sma20, sma50)
	} else {
		trend = domain.DetermineTrend(sma10, sma20)
		degraded = true
	}

	label := domain.LabelNeutral
	confidence := sidewaysConfidence
	switch trend {
	case domain.TrendUp:
		label, confidence = domain.LabelBuy, structureConfidence
	case domain.TrendDown:
		label, confidence = domain.LabelSell, structureConfidence
	}

	price := closes[len(closes)-1]
	highs, lows := SwingPoints(bars)
	support, hasSupport := nearestBelow(lows, price)
	resistance, hasResistance := nearestAbove(highs, price)
	nearSupport := hasSupport && withinPct(price, support, levelProximityPct)
	nearResistance := hasResistance && withinPct(price, resistance, levelProximityPct)

	switch trend {
	case domain.TrendUp:
		if nearSupport {
			label, confidence = domain.LabelStrongBuy, confidence+levelBonus
		} else if nearResistance {
			confidence -= levelPenalty
		}
	case domain.TrendDown:
		if nearResistance {
			label, confidence = domain.LabelStrongSell, confidence+levelBonus
		} else if nearSupport {
			confidence -= levelPenalty
		}
	default:
		if nearSupport && !nearResistance {
			label, confidence = domain.LabelBuy, confidence+levelBonus
		} else if nearResistance && !nearSupport {
			label, confidence = domain.LabelSell, confidence+levelBonus
		}
	}

	if degraded {
		confidence /= 2
	}

	src := domain.NewSignalSource(domain.SourceStructure, label, confidence, weight)
	src.Metadata["trend"] = string(trend)
	if hasSupport {
		src.Metadata["support"] = strconv.FormatFloat(support, 'f', -1, 64)
	}
	if hasResistance {
		src.Metadata["resistance"] = strconv.FormatFloat(resistance, 'f', -1, 64)
	}
	if degraded {
		src.Metadata["trend_basis"] = "sma10/sma20"
	}

	return src, nil
}

// SwingPoints returns bars whose high (low) is strictly higher (lower) than
// the two neighbours on each side.
func SwingPoints(bars []domain.PriceBar) (highs, lows []Level) {
	h := domain.Highs(bars)
	l := domain.Lows(bars)

	for i := swingNeighbours; i < len(bars)-swingNeighbours; i++ {
		isHigh, isLow := true, true
		for j := i - swingNeighbours; j <= i+swingNeighbours; j++ {
			if j == i {
				continue
			}
			if h[j] >= h[i] {
				isHigh = false
			}
			if l[j] <= l[i] {
				isLow = false
			}
		}
		if isHigh {
			highs = append(highs, Level{Index: i, Price: h[i]})
		}
		if isLow {
			lows = append(lows, Level{Index: i, Price: l[i]})
		}
	}

	return highs, lows
}

func nearestBelow(levels []Level, price float64) (float64, bool) {
	best, found := math.Inf(-1), false
	for _, lv := range levels {
		if lv.Price <= price && lv.Price > best {
			best, found = lv.Price, true
		}
	}
	return best, found
}

func nearestAbove(levels []Level, price float64) (float64, bool) {
	best, found := math.Inf(1), false
	for _, lv := range levels {
		if lv.Price >= price && lv.Price < best {
			best, found = lv.Price, true
		}
	}
	return best, found
}

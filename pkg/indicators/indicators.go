// Package indicators computes normalized technical indicators (RSI, MACD,
// moving-average cross, Bollinger position, volume ratio, volatility, ATR)
// from an ordered price window. Moving averages come from cinar/indicator.
package indicators

import (
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

const (
	NameRSI        = "RSI"
	NameMACD       = "MACD"
	NameMACross    = "MA_CROSS"
	NameBollinger  = "BOLLINGER"
	NameVolume     = "VOLUME_RATIO"
	NameVolatility = "VOLATILITY"
	NameATR        = "ATR"
)

const (
	RSIPeriod        = 14
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignal       = 9
	MACDMinBars      = MACDSlow + MACDSignal - 1
	MAFastPeriod     = 20
	MASlowPeriod     = 50
	BollingerPeriod  = 20
	BollingerK       = 2.0
	VolumePeriod     = 20
	VolatilityWindow = 20
	ATRPeriod        = 14

	volumeHighRatio = 1.5
	volumeLowRatio  = 0.7
)

// Set indicators computed for one window. Indicators that could not be
// computed are listed in Excluded with their error.
type Set struct {
	Indicators []domain.Indicator
	Excluded   map[string]error
}

// ComputeAll computes every directional indicator for the window. It fails fast
// when the window is shorter than domain.MinWindowBars; otherwise indicators
// needing more bars are excluded with an InsufficientDataError.
func ComputeAll(bars []domain.PriceBar) (Set, error) {
	if len(bars) < domain.MinWindowBars {
		return Set{}, &domain.InsufficientDataError{Name: "window", Need: domain.MinWindowBars, Got: len(bars)}
	}

	set := Set{Excluded: map[string]error{}}
	calcs := []struct {
		name string
		fn   func([]domain.PriceBar) (domain.Indicator, error)
	}{
		{NameRSI, func(b []domain.PriceBar) (domain.Indicator, error) { return RSI(b, RSIPeriod) }},
		{NameMACD, MACD},
		{NameMACross, MovingAverageCross},
		{NameBollinger, Bollinger},
		{NameVolume, VolumeRatio},
	}

	for _, c := range calcs {
		ind, err := c.fn(bars)
		if err != nil {
			set.Excluded[c.name] = err
			continue
		}
		set.Indicators = append(set.Indicators, ind)
	}

	return set, nil
}

// RSI computes the relative strength index from simple averages of the last
// period gains and losses.
func RSI(bars []domain.PriceBar, period int) (domain.Indicator, error) {
	if len(bars) < period+1 {
		return domain.Indicator{}, &domain.InsufficientDataError{Name: NameRSI, Need: period + 1, Got: len(bars)}
	}

	closes := domain.Closes(bars)
	closes = closes[len(closes)-period-1:]

	gains := make([]float64, period)
	losses := make([]float64, period)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain, err := lastSMA(gains, period)
	if err != nil {
		return domain.Indicator{}, err
	}
	avgLoss, err := lastSMA(losses, period)
	if err != nil {
		return domain.Indicator{}, err
	}

	var rsi float64
	switch {
	case avgLoss == 0 && avgGain == 0:
		rsi = 50
	case avgLoss == 0:
		rsi = 100
	default:
		rs := avgGain / avgLoss
		rsi = 100 - 100/(1+rs)
	}

	label := domain.LabelNeutral
	desc := "RSI neutral"
	switch {
	case rsi < 25:
		label, desc = domain.LabelStrongBuy, "RSI deeply oversold"
	case rsi < 30:
		label, desc = domain.LabelBuy, "RSI oversold"
	case rsi > 75:
		label, desc = domain.LabelStrongSell, "RSI deeply overbought"
	case rsi > 70:
		label, desc = domain.LabelSell, "RSI overbought"
	case rsi > 50:
		label, desc = domain.LabelBuy, "RSI weak bullish momentum"
	}

	return domain.Indicator{
		Name:        NameRSI,
		Value:       rsi,
		Label:       label,
		Strength:    domain.ClampConfidence(math.Abs(rsi-50) * 2),
		Description: fmt.Sprintf("%s (%.1f)", desc, rsi),
	}, nil
}

// MACD computes EMA(12) - EMA(26) against its 9-period EMA signal line.
// The label follows the histogram sign.
func MACD(bars []domain.PriceBar) (domain.Indicator, error) {
	if len(bars) < MACDMinBars {
		return domain.Indicator{}, &domain.InsufficientDataError{Name: NameMACD, Need: MACDMinBars, Got: len(bars)}
	}

	closes := domain.Closes(bars)
	macd := trend.NewMacd[float64]()
	macdChan, signalChan := macd.Compute(helper.SliceToChan(closes))

	// signal channel must be drained concurrently or the pipeline blocks
	signalDone := make(chan []float64, 1)
	go func() {
		signalDone <- helper.ChanToSlice(signalChan)
	}()
	macdLine := helper.ChanToSlice(macdChan)
	signalLine := <-signalDone

	if len(macdLine) == 0 || len(signalLine) == 0 {
		return domain.Indicator{}, &domain.InsufficientDataError{Name: NameMACD, Need: MACDMinBars + 1, Got: len(bars)}
	}

	m := macdLine[len(macdLine)-1]
	s := signalLine[len(signalLine)-1]
	hist := m - s
	price := closes[len(closes)-1]

	label := domain.LabelNeutral
	desc := "MACD on signal line"
	switch {
	case hist > 0:
		label, desc = domain.LabelBuy, "MACD above signal line"
	case hist < 0:
		label, desc = domain.LabelSell, "MACD below signal line"
	}

	strength := 0.0
	if price > 0 {
		strength = math.Abs(hist) / price * 10000
	}

	return domain.Indicator{
		Name:        NameMACD,
		Value:       m,
		Label:       label,
		Strength:    domain.ClampConfidence(strength),
		Description: fmt.Sprintf("%s (macd %.4f, signal %.4f)", desc, m, s),
	}, nil
}

// MovingAverageCross compares price with SMA(20) and SMA(50).
func MovingAverageCross(bars []domain.PriceBar) (domain.Indicator, error) {
	if len(bars) < MASlowPeriod {
		return domain.Indicator{}, &domain.InsufficientDataError{Name: NameMACross, Need: MASlowPeriod, Got: len(bars)}
	}

	closes := domain.Closes(bars)
	fast, err := lastSMA(closes, MAFastPeriod)
	if err != nil {
		return domain.Indicator{}, err
	}
	slow, err := lastSMA(closes, MASlowPeriod)
	if err != nil {
		return domain.Indicator{}, err
	}
	price := closes[len(closes)-1]

	label := domain.LabelNeutral
	desc := "moving averages mixed"
	switch {
	case price > fast && fast > slow:
		label, desc = domain.LabelBuy, "price above SMA20 above SMA50"
	case price < fast && fast < slow:
		label, desc = domain.LabelSell, "price below SMA20 below SMA50"
	}

	strength := 0.0
	if slow > 0 {
		strength = math.Abs(price-slow) / slow * 1000
	}

	return domain.Indicator{
		Name:        NameMACross,
		Value:       fast - slow,
		Label:       label,
		Strength:    domain.ClampConfidence(strength),
		Description: fmt.Sprintf("%s (sma20 %.4f, sma50 %.4f)", desc, fast, slow),
	}, nil
}

// Bollinger locates price within SMA(20) +/- 2 standard deviations.
// Value is %B scaled to 0..100 at the bands.
func Bollinger(bars []domain.PriceBar) (domain.Indicator, error) {
	if len(bars) < BollingerPeriod {
		return domain.Indicator{}, &domain.InsufficientDataError{Name: NameBollinger, Need: BollingerPeriod, Got: len(bars)}
	}

	closes := domain.Closes(bars)
	middle, err := lastSMA(closes, BollingerPeriod)
	if err != nil {
		return domain.Indicator{}, err
	}
	sd := stddev(closes[len(closes)-BollingerPeriod:])
	upper := middle + BollingerK*sd
	lower := middle - BollingerK*sd
	price := closes[len(closes)-1]

	if upper == lower {
		return domain.Indicator{
			Name:        NameBollinger,
			Value:       50,
			Label:       domain.LabelNeutral,
			Description: "Bollinger bands collapsed",
		}, nil
	}

	pb := (price - lower) / (upper - lower)

	label := domain.LabelNeutral
	desc := "price inside Bollinger bands"
	switch {
	case price <= lower:
		label, desc = domain.LabelBuy, "price at or below lower band"
	case price >= upper:
		label, desc = domain.LabelSell, "price at or above upper band"
	}

	return domain.Indicator{
		Name:        NameBollinger,
		Value:       pb * 100,
		Label:       label,
		Strength:    domain.ClampConfidence(math.Abs(pb-0.5) * 200),
		Description: fmt.Sprintf("%s (lower %.4f, upper %.4f)", desc, lower, upper),
	}, nil
}

// VolumeRatio compares current volume with its 20-bar average.
func VolumeRatio(bars []domain.PriceBar) (domain.Indicator, error) {
	if len(bars) < VolumePeriod {
		return domain.Indicator{}, &domain.InsufficientDataError{Name: NameVolume, Need: VolumePeriod, Got: len(bars)}
	}

	va := domain.NewVolumeAnalysis(bars)
	ratio := va.Ratio()
	if va.AverageVolume.IsZero() {
		return domain.Indicator{
			Name:        NameVolume,
			Label:       domain.LabelNeutral,
			Description: "no traded volume in window",
		}, nil
	}

	label := domain.LabelNeutral
	desc := "volume near average"
	switch {
	case ratio > volumeHighRatio:
		label, desc = domain.LabelBuy, "volume surge"
	case ratio < volumeLowRatio:
		label, desc = domain.LabelSell, "volume drying up"
	}

	return domain.Indicator{
		Name:        NameVolume,
		Value:       ratio,
		Label:       label,
		Strength:    domain.ClampConfidence(math.Abs(ratio-1) * 100),
		Description: fmt.Sprintf("%s (%.2fx average)", desc, ratio),
	}, nil
}

// Volatility is the standard deviation of bar-over-bar percentage returns
// over the trailing window, expressed in percent.
func Volatility(bars []domain.PriceBar, window int) (domain.Indicator, error) {
	if len(bars) < domain.MinWindowBars {
		return domain.Indicator{}, &domain.InsufficientDataError{Name: NameVolatility, Need: domain.MinWindowBars, Got: len(bars)}
	}

	returns := PercentReturns(domain.Closes(bars))
	if len(returns) > window {
		returns = returns[len(returns)-window:]
	}
	v := stddev(returns) * 100

	return domain.Indicator{
		Name:        NameVolatility,
		Value:       v,
		Label:       domain.LabelNeutral,
		Strength:    domain.ClampConfidence(v * 10),
		Description: fmt.Sprintf("return stdev %.2f%% over %d bars", v, len(returns)),
	}, nil
}

// ATR returns the latest average true range.
func ATR(bars []domain.PriceBar, period int) (float64, error) {
	if len(bars) < period+1 {
		return 0, &domain.InsufficientDataError{Name: NameATR, Need: period + 1, Got: len(bars)}
	}

	atr := volatility.NewAtrWithPeriod[float64](period)
	out := helper.ChanToSlice(atr.Compute(
		helper.SliceToChan(domain.Highs(bars)),
		helper.SliceToChan(domain.Lows(bars)),
		helper.SliceToChan(domain.Closes(bars)),
	))
	if len(out) == 0 {
		return 0, &domain.InsufficientDataError{Name: NameATR, Need: period + 2, Got: len(bars)}
	}

	return out[len(out)-1], nil
}

// SMA returns the latest simple moving average of values.
func SMA(values []float64, period int) (float64, error) {
	if len(values) < period {
		return 0, &domain.InsufficientDataError{Name: fmt.Sprintf("SMA%d", period), Need: period, Got: len(values)}
	}
	return lastSMA(values, period)
}

// ROC returns the percentage rate of change over period bars.
func ROC(values []float64, period int) (float64, error) {
	if len(values) < period+1 {
		return 0, &domain.InsufficientDataError{Name: fmt.Sprintf("ROC%d", period), Need: period + 1, Got: len(values)}
	}
	prev := values[len(values)-1-period]
	if prev == 0 {
		return 0, nil
	}
	return (values[len(values)-1] - prev) / prev * 100, nil
}

// PercentReturns converts prices into bar-over-bar fractional returns.
// Returns after a zero price are reported as zero.
func PercentReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		out[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return out
}

func lastSMA(values []float64, period int) (float64, error) {
	sma := trend.NewSmaWithPeriod[float64](period)
	out := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
	if len(out) == 0 {
		return 0, &domain.InsufficientDataError{Name: fmt.Sprintf("SMA%d", period), Need: period, Got: len(values)}
	}
	return out[len(out)-1], nil
}

// stddev population standard deviation.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

package domain

import "github.com/shopspring/decimal"

const (
	defaultVolumePeriod  = 20
	volumeSpikeThreshold = 1.5
)

// VolumeAnalysis volume metrics of a price window.
type VolumeAnalysis struct {
	// CurrentVolume is the volume of the most recent bar.
	CurrentVolume decimal.Decimal
	// AverageVolume is the simple moving average over the trailing period, current bar included.
	AverageVolume decimal.Decimal
	// RelativeVolume is CurrentVolume / AverageVolume, zero when the average is zero.
	RelativeVolume decimal.Decimal
	// VolumeSpikes contains indices of bars whose volume exceeded 1.5x average.
	VolumeSpikes []int
}

// NewVolumeAnalysis computes volume metrics over the last 20 bars
// (or fewer if the window is shorter).
func NewVolumeAnalysis(bars []PriceBar) VolumeAnalysis {
	if len(bars) == 0 {
		return VolumeAnalysis{
			CurrentVolume:  decimal.Zero,
			AverageVolume:  decimal.Zero,
			RelativeVolume: decimal.Zero,
			VolumeSpikes:   []int{},
		}
	}

	period := defaultVolumePeriod
	if len(bars) < period {
		period = len(bars)
	}

	sum := decimal.Zero
	for i := len(bars) - period; i < len(bars); i++ {
		sum = sum.Add(bars[i].Volume)
	}
	avgVolume := sum.Div(decimal.NewFromInt(int64(period)))

	currentVolume := bars[len(bars)-1].Volume

	relativeVolume := decimal.Zero
	if avgVolume.GreaterThan(decimal.Zero) {
		relativeVolume = currentVolume.Div(avgVolume)
	}

	spikeThreshold := avgVolume.Mul(decimal.NewFromFloat(volumeSpikeThreshold))
	spikes := []int{}
	for i := len(bars) - period; i < len(bars); i++ {
		if bars[i].Volume.GreaterThan(spikeThreshold) {
			spikes = append(spikes, i)
		}
	}

	return VolumeAnalysis{
		CurrentVolume:  currentVolume,
		AverageVolume:  avgVolume,
		RelativeVolume: relativeVolume,
		VolumeSpikes:   spikes,
	}
}

// Ratio returns RelativeVolume as float64.
func (v VolumeAnalysis) Ratio() float64 {
	return v.RelativeVolume.InexactFloat64()
}

// IsAnomalous reports whether the ratio falls outside [low, high].
// A zero average (no volume data) is not an anomaly.
func (v VolumeAnalysis) IsAnomalous(low, high float64) bool {
	if v.AverageVolume.LessThanOrEqual(decimal.Zero) {
		return false
	}
	r := v.Ratio()
	return r < low || r > high
}

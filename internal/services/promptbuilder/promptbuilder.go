// Package promptbuilder formats a price window into a token-efficient
// sentiment prompt for an LLM.
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

const (
	recentCandles   = 20
	maxSpikesListed = 10
)

// BuildUserPrompt constructs the user prompt for one sentiment request.
func BuildUserPrompt(req domain.SentimentRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Market Sentiment for %s (%s)\n\n", req.Pair.String(), req.Timeframe))
	sb.WriteString(formatRecentData(req.Bars, recentCandles))
	sb.WriteString(formatHistoricalSummary(req.Bars, recentCandles))
	sb.WriteString(formatVolumeAnalysis(domain.NewVolumeAnalysis(req.Bars)))

	sb.WriteString("## Instructions\n\n")
	sb.WriteString("Assess the prevailing sentiment and answer in the JSON format described in the system prompt.\n")

	return sb.String()
}

// formatRecentData formats the last N candles as a compact table.
func formatRecentData(bars []domain.PriceBar, limit int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Recent Market Data (Last %d Candles)\n\n", limit))

	if len(bars) == 0 {
		sb.WriteString("No data available\n\n")
		return sb.String()
	}

	startIdx := len(bars) - limit
	if startIdx < 0 {
		startIdx = 0
	}

	sb.WriteString("```\n")
	sb.WriteString("Time             | Open       | High       | Low        | Close      | Volume\n")
	sb.WriteString("-----------------|------------|------------|------------|------------|------------\n")

	for i := startIdx; i < len(bars); i++ {
		b := bars[i]
		sb.WriteString(fmt.Sprintf("%-16s | %10s | %10s | %10s | %10s | %10s\n",
			b.Timestamp.UTC().Format("2006-01-02 15:04"),
			b.Open.StringFixed(2),
			b.High.StringFixed(2),
			b.Low.StringFixed(2),
			b.Close.StringFixed(2),
			b.Volume.StringFixed(2),
		))
	}

	sb.WriteString("```\n\n")

	return sb.String()
}

// formatHistoricalSummary lists only close prices of candles older than the
// recent table.
func formatHistoricalSummary(bars []domain.PriceBar, recent int) string {
	endIdx := len(bars) - recent
	if endIdx <= 0 {
		return ""
	}

	closes := make([]string, 0, endIdx)
	for i := 0; i < endIdx; i++ {
		closes = append(closes, bars[i].Close.StringFixed(2))
	}

	return fmt.Sprintf("## Historical Context (Older Candles)\n\n**Close Prices:** [%s]\n\n", strings.Join(closes, ","))
}

// formatVolumeAnalysis formats volume metrics and highlights spikes.
func formatVolumeAnalysis(volume domain.VolumeAnalysis) string {
	var sb strings.Builder

	sb.WriteString("## Volume Analysis\n\n")
	sb.WriteString(fmt.Sprintf("**Current Volume:** %s\n", volume.CurrentVolume.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("**Average Volume (20-period):** %s\n", volume.AverageVolume.StringFixed(2)))

	relVol := volume.RelativeVolume
	sb.WriteString(fmt.Sprintf("**Relative Volume:** %sx", relVol.StringFixed(2)))

	switch {
	case relVol.GreaterThan(decimal.NewFromFloat(1.5)):
		sb.WriteString(" (Significantly above average)\n")
	case relVol.GreaterThan(decimal.NewFromInt(1)):
		sb.WriteString(" (Above average)\n")
	case relVol.LessThan(decimal.NewFromFloat(0.7)):
		sb.WriteString(" (Below average)\n")
	default:
		sb.WriteString(" (Near average)\n")
	}

	if len(volume.VolumeSpikes) == 0 {
		sb.WriteString("\n**Volume Spikes:** None detected\n\n")
		return sb.String()
	}

	startIdx := 0
	if len(volume.VolumeSpikes) > maxSpikesListed {
		startIdx = len(volume.VolumeSpikes) - maxSpikesListed
	}
	spikes := make([]string, 0, len(volume.VolumeSpikes)-startIdx)
	for _, idx := range volume.VolumeSpikes[startIdx:] {
		spikes = append(spikes, fmt.Sprintf("#%d", idx))
	}
	sb.WriteString(fmt.Sprintf("\n**Volume Spikes (>1.5x avg):** Candles [%s]\n\n", strings.Join(spikes, ", ")))

	return sb.String()
}

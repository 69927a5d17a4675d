// Package render formats analysis reports for the terminal.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#D1495B", Dark: "#F25D6B"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().Foreground(subtle)

	boxStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)

	tradeStyle = lipgloss.NewStyle().Foreground(special).Bold(true)
	waitStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
)

// Report renders a full analysis report.
func Report(r domain.Report) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s  %s", r.Pair, r.Timeframe)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s · %d bars · last %s",
		r.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), r.BarCount, r.LastPrice)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("DECISION"))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(decisionBlock(r.Decision)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("AGGREGATE"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("label %s  score %.1f  confidence %.1f%%  accuracy %.1f%%  consensus %.0f%%\n",
		r.Aggregate.Label, r.Aggregate.Score, r.Aggregate.Confidence, r.Aggregate.AccuracyEstimate, r.Aggregate.Consensus*100))

	b.WriteString(sectionStyle.Render("SOURCES"))
	b.WriteString("\n")
	b.WriteString(Sources(r.Aggregate.Components))

	b.WriteString(sectionStyle.Render("RISK"))
	b.WriteString("\n")
	b.WriteString(riskBlock(r.Risk, r.Blackout))

	if len(r.Indicators) > 0 {
		b.WriteString(sectionStyle.Render("INDICATORS"))
		b.WriteString("\n")
		for _, ind := range r.Indicators {
			b.WriteString(fmt.Sprintf("%-13s %-11s %8.2f  %s\n", ind.Name, ind.Label, ind.Value, mutedStyle.Render(ind.Description)))
		}
	}

	return b.String()
}

// Sources renders one line per signal source.
func Sources(srcs []domain.SignalSource) string {
	var b strings.Builder
	for _, s := range srcs {
		line := fmt.Sprintf("%-17s %-11s conf %5.1f  weight %.2f", s.Name, s.Label, s.Confidence, s.Weight)
		if !s.Active() {
			line = mutedStyle.Render(line + "  (abstains)")
		}
		b.WriteString(line)
		if meta := metadata(s.Metadata); meta != "" {
			b.WriteString("  ")
			b.WriteString(mutedStyle.Render(meta))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func decisionBlock(d domain.TradeDecision) string {
	var b strings.Builder
	if d.ShouldTrade {
		b.WriteString(tradeStyle.Render(fmt.Sprintf("%s · urgency %s", d.Direction, d.Urgency)))
	} else {
		b.WriteString(waitStyle.Render("WAIT"))
	}
	b.WriteString("\n")
	b.WriteString(d.Explanation)

	if p := d.Plan; p != nil {
		targets := make([]string, len(p.Targets))
		for i, t := range p.Targets {
			targets[i] = t.String()
		}
		b.WriteString(fmt.Sprintf("\nentry %s  stop %s  targets %s  size %.1f%%",
			p.Entry, p.StopLoss, strings.Join(targets, " / "), p.Fraction*100))
		if p.RiskValue.IsPositive() {
			b.WriteString(fmt.Sprintf("  at risk %s", p.RiskValue.StringFixed(2)))
		}
	}
	return b.String()
}

func riskBlock(r domain.RiskProfile, blackout bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("level %s  score %.0f  volatility %.2f%%  annualized %.1f%%  volume ratio %.2f\n",
		r.Level, r.Score, r.Volatility, r.AnnualizedVolatility, r.VolumeAnomalyRatio))
	s := r.Sizing
	b.WriteString(fmt.Sprintf("fraction %.1f%%  stop %.2f%%  proxy %s\n",
		s.RecommendedFraction*100, s.StopDistance*100, s.VolatilityProxyLabel))
	if blackout {
		b.WriteString(waitStyle.Render("economic calendar blackout"))
		b.WriteString("\n")
	}
	return b.String()
}

func metadata(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, " ")
}

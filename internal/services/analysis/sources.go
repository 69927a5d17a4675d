package analysis

import (
	"github.com/vadiminshakov/tradegate/internal/services/sources"
	"go.uber.org/zap"
)

// Collaborators optional external inputs. Any of them may be nil; the
// corresponding source then abstains or falls back.
type Collaborators struct {
	Sentiment sources.SentimentProvider
	Calendar  sources.CalendarFeed
	Backtests sources.BacktestProvider
}

// SourceConfig settings of the standard source set.
type SourceConfig struct {
	Weights          sources.Weights
	Strategy         string
	CalendarWindow   sources.CalendarWindow
	SentimentOptions []sources.SentimentOption
}

// DefaultSourceConfig returns default weights and windows.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Weights:        sources.DefaultWeights(),
		CalendarWindow: sources.DefaultCalendarWindow(),
	}
}

// StandardSources builds the seven sources in report order.
func StandardSources(cfg SourceConfig, c Collaborators, logger *zap.Logger) []sources.Source {
	w := cfg.Weights

	return []sources.Source{
		sources.NewTechnical(w.Technical),
		sources.NewSentiment(c.Sentiment, w.Sentiment, logger, cfg.SentimentOptions...),
		sources.NewPattern(w.Pattern),
		sources.NewStructure(w.Structure),
		sources.NewRisk(w.Risk),
		sources.NewCalendar(c.Calendar, w.Calendar, cfg.CalendarWindow),
		sources.NewBacktest(c.Backtests, cfg.Strategy, w.Backtest),
	}
}

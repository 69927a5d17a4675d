package sources

import (
	"context"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

const (
	maxBacktestConfidence = 90.0
	fullSampleTrades      = 100
)

// BacktestProvider historical statistics of named strategies.
type BacktestProvider interface {
	StrategyStats(ctx context.Context, strategy string) (domain.BacktestStats, error)
}

// Backtest turns a strategy's historical win rate and profit factor into a vote.
type Backtest struct {
	provider BacktestProvider
	strategy string
	weight   float64
}

// NewBacktest creates the backtest source. provider may be nil.
func NewBacktest(provider BacktestProvider, strategy string, weight float64) *Backtest {
	return &Backtest{provider: provider, strategy: strategy, weight: weight}
}

func (b *Backtest) Name() domain.SourceName { return domain.SourceBacktest }

func (b *Backtest) Evaluate(ctx context.Context, _ Snapshot) Outcome {
	if b.provider == nil {
		return Outcome{Signal: domain.NonVote(domain.SourceBacktest, b.weight, "no backtest statistics configured")}
	}

	stats, err := b.provider.StrategyStats(ctx, b.strategy)
	if err != nil {
		return Outcome{
			Signal:   domain.NonVote(domain.SourceBacktest, b.weight, "backtest statistics unavailable"),
			Degraded: &domain.UpstreamUnavailableError{Upstream: "backtest", Err: err},
		}
	}

	src, err := BacktestSignal(stats, b.weight)
	if err != nil {
		return Outcome{
			Signal:   domain.NonVote(domain.SourceBacktest, b.weight, "invalid backtest statistics"),
			Degraded: &domain.UpstreamUnavailableError{Upstream: "backtest", Err: err},
		}
	}
	return Outcome{Signal: src}
}

// BacktestSignal maps strategy statistics onto a label. Confidence grows with
// the square root of the trade count up to 100 trades; zero trades is a non-vote.
func BacktestSignal(stats domain.BacktestStats, weight float64) (domain.SignalSource, error) {
	if stats.WinRate < 0 || stats.WinRate > 1 || math.IsNaN(stats.WinRate) {
		return domain.SignalSource{}, errors.Errorf("win rate %v outside [0,1]", stats.WinRate)
	}
	if stats.ProfitFactor < 0 || math.IsNaN(stats.ProfitFactor) {
		return domain.SignalSource{}, errors.Errorf("negative profit factor %v", stats.ProfitFactor)
	}
	if stats.Trades < 0 {
		return domain.SignalSource{}, errors.Errorf("negative trade count %d", stats.Trades)
	}
	if stats.Trades == 0 {
		return domain.NonVote(domain.SourceBacktest, weight, "strategy has no trades"), nil
	}

	win, pf := stats.WinRate, stats.ProfitFactor
	label := domain.LabelNeutral
	switch {
	case win > 0.65 && pf > 1.5:
		label = domain.LabelStrongBuy
	case win > 0.55 && pf > 1.2:
		label = domain.LabelBuy
	case win < 0.35 && pf < 0.8:
		label = domain.LabelStrongSell
	case win < 0.45 || pf < 1:
		label = domain.LabelSell
	}

	sample := math.Min(float64(stats.Trades), fullSampleTrades) / fullSampleTrades
	confidence := maxBacktestConfidence * math.Sqrt(sample)

	src := domain.NewSignalSource(domain.SourceBacktest, label, confidence, weight)
	src.Metadata["strategy"] = stats.Strategy
	src.Metadata["win_rate"] = strconv.FormatFloat(win, 'f', 3, 64)
	src.Metadata["profit_factor"] = strconv.FormatFloat(pf, 'f', 3, 64)
	src.Metadata["trades"] = strconv.Itoa(stats.Trades)
	return src, nil
}

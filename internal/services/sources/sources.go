// Package sources turns one immutable market snapshot into independent signal
// sources: technical, sentiment, pattern, market structure, risk, economic
// calendar and backtest. Each source always returns a SignalSource; missing
// upstream data yields a zero-confidence NEUTRAL non-vote.
package sources

import (
	"context"
	"time"

	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/pkg/indicators"
)

// Snapshot inputs shared by every source of one analysis run.
type Snapshot struct {
	Pair       domain.Pair
	Timeframe  domain.Timeframe
	Bars       []domain.PriceBar
	Indicators indicators.Set
	Risk       domain.RiskProfile
	Now        time.Time
}

// Outcome result of evaluating one source.
type Outcome struct {
	Signal domain.SignalSource
	// Blackout is raised only by the calendar source.
	Blackout bool
	// Degraded holds the failure the source recovered from, if any.
	Degraded error
}

// Source computes one signal from a snapshot. Implementations must not
// mutate the snapshot.
type Source interface {
	Name() domain.SourceName
	Evaluate(ctx context.Context, snap Snapshot) Outcome
}

// Weights declared weight of every source.
type Weights struct {
	Technical float64 `yaml:"technical" default:"0.30" validate:"gte=0,lte=1"`
	Sentiment float64 `yaml:"sentiment" default:"0.15" validate:"gte=0,lte=1"`
	Pattern   float64 `yaml:"pattern" default:"0.15" validate:"gte=0,lte=1"`
	Structure float64 `yaml:"market_structure" default:"0.15" validate:"gte=0,lte=1"`
	Risk      float64 `yaml:"risk" default:"0.10" validate:"gte=0,lte=1"`
	Calendar  float64 `yaml:"calendar" default:"0.05" validate:"gte=0,lte=1"`
	Backtest  float64 `yaml:"backtest" default:"0.10" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the weights used when no configuration is given.
func DefaultWeights() Weights {
	return Weights{
		Technical: 0.30,
		Sentiment: 0.15,
		Pattern:   0.15,
		Structure: 0.15,
		Risk:      0.10,
		Calendar:  0.05,
		Backtest:  0.10,
	}
}

// vote is one labelled opinion with a weight, used by sources that reduce
// several internal readings to one label.
type vote struct {
	label  domain.Label
	weight float64
}

// reduceVotes returns the weighted label and the average weight of votes that
// agree with it. When no vote agrees, half the overall average weight is used.
func reduceVotes(votes []vote) (domain.Label, float64, float64) {
	var num, den, total float64
	for _, v := range votes {
		num += v.label.Score() * v.weight
		den += v.weight
		total += v.weight
	}

	score := 50.0
	if den > 0 {
		score = num / den
	}
	label := domain.LabelFromScore(score)

	var agreeSum float64
	var agreeCount int
	for _, v := range votes {
		if v.label.Bucket() == label.Bucket() {
			agreeSum += v.weight
			agreeCount++
		}
	}

	if agreeCount > 0 {
		return label, agreeSum / float64(agreeCount), score
	}
	if len(votes) == 0 {
		return label, 0, score
	}
	return label, total / float64(len(votes)) / 2, score
}

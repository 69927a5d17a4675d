// Package aggregator reduces independent signal sources to one overall label,
// confidence and accuracy estimate.
package aggregator

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

const (
	neutralScore       = 50.0
	maxConfidence      = 95.0
	consensusBonus     = 10.0
	minAccuracy        = 45.0
	maxAccuracy        = 95.0
	accuracyBarsCap    = 100
	accuracyBarsTerm   = 20.0
	accuracySignalTerm = 20.0
	accuracyAgreeTerm  = 10.0
)

// Aggregate combines sources into one result. Every source is validated first;
// an out-of-contract source returns an InvariantViolation. Sources with zero
// weight or zero confidence contribute nothing. barCount feeds the accuracy
// estimate only.
func Aggregate(sources []domain.SignalSource, barCount int) (domain.AggregateResult, error) {
	for _, s := range sources {
		if err := s.Validate(); err != nil {
			return domain.AggregateResult{}, errors.Wrap(err, "aggregate")
		}
	}

	var weightedScore, totalWeight, confidenceSum float64
	buckets := map[domain.Bucket]int{}
	active := 0

	for _, s := range sources {
		ew := s.EffectiveWeight()
		weightedScore += s.Label.Score() * ew
		totalWeight += ew

		if !s.Active() {
			continue
		}
		active++
		confidenceSum += s.Confidence
		buckets[s.Label.Bucket()]++
	}

	score := neutralScore
	if totalWeight > 0 {
		score = weightedScore / totalWeight
	}

	// consensus: largest active bucket over all sources, non-votes included
	var avgConfidence, consensus float64
	if active > 0 {
		avgConfidence = confidenceSum / float64(active)
		consensus = float64(maxCount(buckets)) / float64(len(sources))
	}

	confidence := 0.0
	if active > 0 {
		confidence = math.Min(maxConfidence, avgConfidence+consensus*consensusBonus)
	}

	return domain.AggregateResult{
		Label:            domain.LabelFromScore(score),
		Confidence:       domain.ClampConfidence(confidence),
		AccuracyEstimate: accuracy(barCount, avgConfidence, consensus),
		Score:            score,
		Consensus:        consensus,
		ActiveSources:    active,
		Components:       append([]domain.SignalSource(nil), sources...),
	}, nil
}

// accuracy estimates trust in the result from data quantity, signal strength
// and agreement, bounded to [45,95].
func accuracy(barCount int, avgConfidence, consensus float64) float64 {
	bars := math.Min(float64(max(barCount, 0)), accuracyBarsCap)

	a := minAccuracy +
		bars/accuracyBarsCap*accuracyBarsTerm +
		avgConfidence/100*accuracySignalTerm +
		consensus*accuracyAgreeTerm

	return math.Max(minAccuracy, math.Min(maxAccuracy, a))
}

func maxCount(buckets map[domain.Bucket]int) int {
	m := 0
	for _, c := range buckets {
		if c > m {
			m = c
		}
	}
	return m
}

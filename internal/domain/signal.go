package domain

import "math"

// SourceName identifies a signal source.
type SourceName string

const (
	SourceTechnical SourceName = "technical"
	SourceSentiment SourceName = "sentiment"
	SourcePattern   SourceName = "pattern"
	SourceStructure SourceName = "market_structure"
	SourceRisk      SourceName = "risk"
	SourceCalendar  SourceName = "calendar"
	SourceBacktest  SourceName = "backtest"
)

// Indicator normalized technical indicator reading.
type Indicator struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Label       Label   `json:"label"`
	Strength    float64 `json:"strength"`
	Description string  `json:"description"`
}

// SignalSource independent opinion produced by one analytical view.
type SignalSource struct {
	Name       SourceName        `json:"name"`
	Label      Label             `json:"label"`
	Confidence float64           `json:"confidence"`
	Weight     float64           `json:"weight"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewSignalSource builds a source with its confidence clamped to [0,100].
func NewSignalSource(name SourceName, label Label, confidence, weight float64) SignalSource {
	return SignalSource{
		Name:       name,
		Label:      label,
		Confidence: ClampConfidence(confidence),
		Weight:     weight,
		Metadata:   map[string]string{},
	}
}

// NonVote returns the zero-confidence NEUTRAL source used when a source's
// upstream data is entirely absent.
func NonVote(name SourceName, weight float64, reason string) SignalSource {
	s := NewSignalSource(name, LabelNeutral, 0, weight)
	s.Metadata["reason"] = reason
	return s
}

// Active reports whether the source participates in the vote.
func (s SignalSource) Active() bool {
	return s.Weight > 0 && s.Confidence > 0
}

// EffectiveWeight returns weight scaled by confidence.
func (s SignalSource) EffectiveWeight() float64 {
	return s.Weight * s.Confidence / 100
}

// Validate checks the source against its documented bounds.
func (s SignalSource) Validate() error {
	if !s.Label.Valid() {
		return &InvariantViolation{Field: string(s.Name) + ".label", Value: s.Label, Reason: "unknown label"}
	}
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 100 {
		return &InvariantViolation{Field: string(s.Name) + ".confidence", Value: s.Confidence, Reason: "must be within [0,100]"}
	}
	if math.IsNaN(s.Weight) || s.Weight < 0 || s.Weight > 1 {
		return &InvariantViolation{Field: string(s.Name) + ".weight", Value: s.Weight, Reason: "must be within [0,1]"}
	}
	return nil
}

// ClampConfidence bounds a computed confidence to [0,100]. NaN becomes 0.
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

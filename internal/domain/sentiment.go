package domain

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// SentimentRequest context handed to an external sentiment provider.
type SentimentRequest struct {
	Pair      Pair
	Timeframe Timeframe
	Bars      []PriceBar
}

// ExternalSentiment opinion returned by an external provider.
type ExternalSentiment struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ParseExternalSentiment decodes and validates a provider JSON payload.
// Markdown code fences around the payload are tolerated.
func ParseExternalSentiment(raw string) (ExternalSentiment, error) {
	payload := sanitizeSentimentPayload(raw)

	if !json.Valid([]byte(payload)) {
		return ExternalSentiment{}, errors.New("invalid JSON structure")
	}

	var wire struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return ExternalSentiment{}, errors.Wrap(err, "JSON unmarshal error")
	}

	label, err := ParseLabel(wire.Label)
	if err != nil {
		return ExternalSentiment{}, err
	}

	s := ExternalSentiment{Label: sentimentLabel(label), Confidence: wire.Confidence, Reasoning: wire.Reasoning}
	if err := s.Validate(); err != nil {
		return ExternalSentiment{}, err
	}
	return s, nil
}

// Validate checks the label belongs to the sentiment domain and the confidence is in range.
func (s ExternalSentiment) Validate() error {
	switch s.Label {
	case LabelBullish, LabelBearish, LabelNeutral:
	default:
		return errors.Errorf("invalid sentiment label: %s", s.Label)
	}
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 100 {
		return errors.Errorf("invalid sentiment confidence: %f (must be 0-100)", s.Confidence)
	}
	return nil
}

// sentimentLabel folds trade labels into the sentiment domain.
func sentimentLabel(l Label) Label {
	switch l.Bucket() {
	case BucketBullish:
		return LabelBullish
	case BucketBearish:
		return LabelBearish
	default:
		return LabelNeutral
	}
}

func sanitizeSentimentPayload(raw string) string {
	response := strings.TrimSpace(raw)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

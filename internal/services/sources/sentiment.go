package sources

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/pkg/indicators"
	"go.uber.org/zap"
)

const (
	DefaultSentimentTimeout = 10 * time.Second
	DefaultAgreementBoost   = 5.0
	maxBoostedConfidence    = 95.0

	fallbackFastPeriod = 10
	fallbackSlowPeriod = 30
	fallbackROCPeriod  = 10
)

// SentimentProvider optional external market opinion.
type SentimentProvider interface {
	ExternalSentiment(ctx context.Context, req domain.SentimentRequest) (domain.ExternalSentiment, error)
}

// Sentiment combines an optional external opinion with a deterministic
// price-action fallback.
type Sentiment struct {
	provider SentimentProvider
	weight   float64
	timeout  time.Duration
	boost    float64
	logger   *zap.Logger
}

// SentimentOption configures the sentiment source.
type SentimentOption func(*Sentiment)

// WithSentimentTimeout bounds the external call.
func WithSentimentTimeout(d time.Duration) SentimentOption {
	return func(s *Sentiment) {
		s.timeout = d
	}
}

// WithAgreementBoost sets the confidence bonus applied when the external
// opinion agrees with the price-action fallback.
func WithAgreementBoost(boost float64) SentimentOption {
	return func(s *Sentiment) {
		s.boost = boost
	}
}

// NewSentiment creates the sentiment source. provider may be nil.
func NewSentiment(provider SentimentProvider, weight float64, logger *zap.Logger, opts ...SentimentOption) *Sentiment {
	s := &Sentiment{
		provider: provider,
		weight:   weight,
		timeout:  DefaultSentimentTimeout,
		boost:    DefaultAgreementBoost,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sentiment) Name() domain.SourceName { return domain.SourceSentiment }

func (s *Sentiment) Evaluate(ctx context.Context, snap Snapshot) Outcome {
	fallback, fallbackErr := PriceActionSentiment(snap.Bars)

	var (
		external    domain.ExternalSentiment
		externalErr error
	)
	if s.provider != nil {
		external, externalErr = s.fetch(ctx, snap)
	}

	switch {
	case s.provider != nil && externalErr == nil:
		confidence := external.Confidence
		agreed := fallbackErr == nil &&
			external.Label != domain.LabelNeutral &&
			external.Label.Bucket() == fallback.Label.Bucket()
		if agreed && confidence < maxBoostedConfidence {
			confidence = math.Min(maxBoostedConfidence, confidence+s.boost)
		}

		src := domain.NewSignalSource(domain.SourceSentiment, external.Label, confidence, s.weight)
		src.Metadata["origin"] = "external"
		src.Metadata["agrees_with_price_action"] = strconv.FormatBool(agreed)
		if external.Reasoning != "" {
			src.Metadata["reasoning"] = external.Reasoning
		}
		return Outcome{Signal: src}

	case fallbackErr == nil:
		fallback.Weight = s.weight
		fallback.Metadata["origin"] = "price_action"
		out := Outcome{Signal: fallback}
		if externalErr != nil {
			out.Degraded = externalErr
			s.logger.Debug("sentiment provider unavailable, using price action",
				zap.String("pair", snap.Pair.String()), zap.Error(externalErr))
		}
		return out

	default:
		out := Outcome{
			Signal:   domain.NonVote(domain.SourceSentiment, s.weight, "no sentiment input available"),
			Degraded: fallbackErr,
		}
		if externalErr != nil {
			out.Degraded = externalErr
		}
		return out
	}
}

func (s *Sentiment) fetch(ctx context.Context, snap Snapshot) (domain.ExternalSentiment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	external, err := s.provider.ExternalSentiment(ctx, domain.SentimentRequest{
		Pair:      snap.Pair,
		Timeframe: snap.Timeframe,
		Bars:      snap.Bars,
	})
	if err != nil {
		return domain.ExternalSentiment{}, &domain.UpstreamUnavailableError{Upstream: "sentiment", Err: err}
	}
	if err := external.Validate(); err != nil {
		return domain.ExternalSentiment{}, &domain.UpstreamUnavailableError{
			Upstream: "sentiment",
			Err:      errors.Wrap(err, "malformed sentiment"),
		}
	}

	return external, nil
}

// PriceActionSentiment derives sentiment from SMA(10) vs SMA(30) ordering and
// the 10-bar rate of change.
func PriceActionSentiment(bars []domain.PriceBar) (domain.SignalSource, error) {
	closes := domain.Closes(bars)
	fast, err := indicators.SMA(closes, fallbackFastPeriod)
	if err != nil {
		return domain.SignalSource{}, err
	}
	slow, err := indicators.SMA(closes, fallbackSlowPeriod)
	if err != nil {
		return domain.SignalSource{}, err
	}
	roc, err := indicators.ROC(closes, fallbackROCPeriod)
	if err != nil {
		return domain.SignalSource{}, err
	}

	spread := 0.0
	if slow != 0 {
		spread = (fast - slow) / slow * 100
	}

	label := domain.LabelNeutral
	confidence := 30.0
	switch {
	case fast > slow && roc > 0:
		label = domain.LabelBullish
		confidence = 40 + math.Abs(roc)*5 + math.Abs(spread)*10
	case fast < slow && roc < 0:
		label = domain.LabelBearish
		confidence = 40 + math.Abs(roc)*5 + math.Abs(spread)*10
	}

	src := domain.NewSignalSource(domain.SourceSentiment, label, math.Min(80, confidence), 0)
	src.Metadata["sma_spread_pct"] = strconv.FormatFloat(spread, 'f', 3, 64)
	src.Metadata["roc_pct"] = strconv.FormatFloat(roc, 'f', 3, 64)
	return src, nil
}

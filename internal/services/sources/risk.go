package sources

import (
	"context"
	"strconv"

	"github.com/vadiminshakov/tradegate/internal/domain"
)

// Risk is direction-neutral: a NEUTRAL vote whose confidence is the risk
// score, so high risk pulls the aggregate toward NEUTRAL.
type Risk struct {
	weight float64
}

// NewRisk creates the risk source.
func NewRisk(weight float64) *Risk {
	return &Risk{weight: weight}
}

func (r *Risk) Name() domain.SourceName { return domain.SourceRisk }

func (r *Risk) Evaluate(_ context.Context, snap Snapshot) Outcome {
	return Outcome{Signal: RiskSignal(snap.Risk, r.weight)}
}

// RiskSignal maps a risk profile onto a source.
func RiskSignal(profile domain.RiskProfile, weight float64) domain.SignalSource {
	src := domain.NewSignalSource(domain.SourceRisk, domain.LabelNeutral, profile.Score, weight)
	src.Metadata["level"] = profile.Level.String()
	src.Metadata["volatility_pct"] = strconv.FormatFloat(profile.Volatility, 'f', 3, 64)
	return src
}

package sources

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/pkg/indicators"
)

// Technical votes the computed indicators, each weighted by its strength.
type Technical struct {
	weight float64
}

// NewTechnical creates the technical source.
func NewTechnical(weight float64) *Technical {
	return &Technical{weight: weight}
}

func (t *Technical) Name() domain.SourceName { return domain.SourceTechnical }

func (t *Technical) Evaluate(_ context.Context, snap Snapshot) Outcome {
	return Outcome{Signal: TechnicalSignal(snap.Indicators, t.weight)}
}

// TechnicalSignal reduces an indicator set to one source. Excluded indicators
// do not vote; confidence is the average strength of agreeing indicators.
func TechnicalSignal(set indicators.Set, weight float64) domain.SignalSource {
	if len(set.Indicators) == 0 {
		return domain.NonVote(domain.SourceTechnical, weight, "no indicator could be computed")
	}

	votes := make([]vote, 0, len(set.Indicators))
	for _, ind := range set.Indicators {
		votes = append(votes, vote{label: ind.Label, weight: ind.Strength})
	}
	label, confidence, score := reduceVotes(votes)

	src := domain.NewSignalSource(domain.SourceTechnical, label, confidence, weight)
	src.Metadata["score"] = strconv.FormatFloat(score, 'f', 2, 64)
	src.Metadata["indicators"] = strconv.Itoa(len(set.Indicators))
	if len(set.Excluded) > 0 {
		names := make([]string, 0, len(set.Excluded))
		for name := range set.Excluded {
			names = append(names, name)
		}
		sort.Strings(names)
		src.Metadata["excluded"] = strings.Join(names, ",")
	}

	return src
}

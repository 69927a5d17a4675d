package domain

// AggregateResult reduction of all signal sources for one analysis pass.
type AggregateResult struct {
	Label            Label          `json:"overall_label"`
	Confidence       float64        `json:"overall_confidence"`
	AccuracyEstimate float64        `json:"accuracy_estimate"`
	Score            float64        `json:"score"`
	Consensus        float64        `json:"consensus"`
	ActiveSources    int            `json:"active_sources"`
	Components       []SignalSource `json:"component_breakdown"`
}

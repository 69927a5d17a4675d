package domain

import "github.com/shopspring/decimal"

// RiskLevel risk tier.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskExtreme
)

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskExtreme:
		return "EXTREME"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Escalate returns the next tier up, saturating at EXTREME.
func (r RiskLevel) Escalate() RiskLevel {
	if r >= RiskExtreme {
		return RiskExtreme
	}
	return r + 1
}

// PositionSizing volatility-derived sizing plan. Distances are fractions of price.
type PositionSizing struct {
	RecommendedFraction  float64         `json:"recommended_fraction"`
	StopDistance         float64         `json:"stop_distance"`
	TakeProfitDistances  []float64       `json:"take_profit_distances"`
	RiskAmount           decimal.Decimal `json:"risk_amount"`
	PositionValue        decimal.Decimal `json:"position_value"`
	VolatilityProxy      float64         `json:"volatility_proxy"`
	VolatilityProxyLabel string          `json:"volatility_proxy_label"`
}

// RiskProfile output of the risk gate.
type RiskProfile struct {
	Level                RiskLevel      `json:"risk_level"`
	Score                float64        `json:"risk_score"`
	Volatility           float64        `json:"volatility"`
	AnnualizedVolatility float64        `json:"annualized_volatility"`
	VolumeAnomalyRatio   float64        `json:"volume_anomaly_ratio"`
	VolumeEscalated      bool           `json:"volume_escalated"`
	Sizing               PositionSizing `json:"position_sizing"`
}

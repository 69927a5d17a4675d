package domain

import "github.com/shopspring/decimal"

// Direction trade direction.
type Direction int

const (
	DirectionWait Direction = iota
	DirectionBuy
	DirectionSell
)

// direction string constants to avoid magic strings
const (
	directionStringWait = "WAIT"
	directionStringBuy  = "BUY"
	directionStringSell = "SELL"
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return directionStringBuy
	case DirectionSell:
		return directionStringSell
	default:
		return directionStringWait
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DirectionFromLabel maps a label onto a direction.
func DirectionFromLabel(l Label) Direction {
	switch l.Bucket() {
	case BucketBullish:
		return DirectionBuy
	case BucketBearish:
		return DirectionSell
	default:
		return DirectionWait
	}
}

// Urgency how soon an actionable decision should be acted upon.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
)

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyHigh:
		return "HIGH"
	case UrgencyMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// TradePlan price levels of an actionable decision.
type TradePlan struct {
	Entry     decimal.Decimal   `json:"entry"`
	StopLoss  decimal.Decimal   `json:"stop_loss"`
	Targets   []decimal.Decimal `json:"targets"`
	Fraction  float64           `json:"fraction"`
	RiskValue decimal.Decimal   `json:"risk_amount"`
}

// TradeDecision final gated recommendation.
type TradeDecision struct {
	ShouldTrade bool       `json:"should_trade"`
	Direction   Direction  `json:"direction"`
	Urgency     Urgency    `json:"urgency"`
	RiskLevel   RiskLevel  `json:"risk_level"`
	Explanation string     `json:"explanation"`
	Plan        *TradePlan `json:"plan,omitempty"`
}

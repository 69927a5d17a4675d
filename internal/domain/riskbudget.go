package domain

import "github.com/shopspring/decimal"

// RiskBudget capital allocation for a single trade.
type RiskBudget struct {
	capital      decimal.Decimal
	riskPerTrade float64
}

// NewRiskBudget returns a risk budget. riskPerTrade is a fraction of capital (0.01 = 1%).
func NewRiskBudget(capital decimal.Decimal, riskPerTrade float64) RiskBudget {
	return RiskBudget{capital: capital, riskPerTrade: riskPerTrade}
}

// RiskAmount capital lost if the stop is hit.
func (r RiskBudget) RiskAmount() decimal.Decimal {
	if r.riskPerTrade <= 0 || r.capital.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return r.capital.Mul(decimal.NewFromFloat(r.riskPerTrade))
}

// Allocate calculates the position value for a fraction of capital.
func (r RiskBudget) Allocate(fraction float64) decimal.Decimal {
	if fraction <= 0 || r.capital.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return r.capital.Mul(decimal.NewFromFloat(fraction))
}

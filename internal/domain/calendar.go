package domain

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Impact economic event impact level.
type Impact string

const (
	ImpactLow    Impact = "LOW"
	ImpactMedium Impact = "MEDIUM"
	ImpactHigh   Impact = "HIGH"
)

// ParseImpact parses an impact level, case-insensitively.
func ParseImpact(s string) (Impact, error) {
	i := Impact(strings.ToUpper(strings.TrimSpace(s)))
	switch i {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return i, nil
	}
	return "", errors.Errorf("unknown impact %q", s)
}

// Weight impact contribution on the 0..100 scale.
func (i Impact) Weight() float64 {
	switch i {
	case ImpactHigh:
		return 100
	case ImpactMedium:
		return 50
	case ImpactLow:
		return 20
	default:
		return 0
	}
}

// EconomicEvent scheduled macro event.
type EconomicEvent struct {
	Title    string    `json:"title" yaml:"title"`
	Currency string    `json:"currency" yaml:"currency"`
	Impact   Impact    `json:"impact" yaml:"impact"`
	Time     time.Time `json:"time" yaml:"time"`
}

// Affects reports whether the event concerns one of the pair's currencies.
// Events without a currency are global.
func (e EconomicEvent) Affects(p Pair) bool {
	if e.Currency == "" {
		return true
	}
	c := strings.ToUpper(e.Currency)
	return c == p.From || c == p.To || (c == "USD" && strings.HasPrefix(p.To, "USD"))
}

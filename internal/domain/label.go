package domain

import (
	"strings"

	"github.com/pkg/errors"
)

// Label opinion emitted by an indicator, a signal source or the aggregator.
type Label string

const (
	LabelStrongBuy  Label = "STRONG_BUY"
	LabelBuy        Label = "BUY"
	LabelNeutral    Label = "NEUTRAL"
	LabelSell       Label = "SELL"
	LabelStrongSell Label = "STRONG_SELL"

	// sentiment domain
	LabelBullish Label = "BULLISH"
	LabelBearish Label = "BEARISH"
)

// Bucket directional group a label belongs to.
type Bucket int

const (
	BucketNeutral Bucket = iota
	BucketBullish
	BucketBearish
)

// String returns the string representation of the bucket.
func (b Bucket) String() string {
	switch b {
	case BucketBullish:
		return "bullish"
	case BucketBearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// ParseLabel converts a free-form string into a Label.
func ParseLabel(s string) (Label, error) {
	l := Label(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", errors.Errorf("unknown label %q", s)
	}
	return l, nil
}

// Valid reports whether the label is one of the known values.
func (l Label) Valid() bool {
	switch l {
	case LabelStrongBuy, LabelBuy, LabelNeutral, LabelSell, LabelStrongSell,
		LabelBullish, LabelBearish:
		return true
	}
	return false
}

// Score maps the label onto the fixed 0..100 aggregation scale.
func (l Label) Score() float64 {
	switch l {
	case LabelStrongBuy, LabelBullish:
		return 100
	case LabelBuy:
		return 75
	case LabelSell, LabelBearish:
		return 25
	case LabelStrongSell:
		return 0
	default:
		return 50
	}
}

// Bucket returns the directional group of the label.
func (l Label) Bucket() Bucket {
	switch l {
	case LabelStrongBuy, LabelBuy, LabelBullish:
		return BucketBullish
	case LabelStrongSell, LabelSell, LabelBearish:
		return BucketBearish
	default:
		return BucketNeutral
	}
}

// IsStrong reports whether the label is a STRONG variant.
func (l Label) IsStrong() bool {
	return l == LabelStrongBuy || l == LabelStrongSell
}

// LabelFromScore maps an aggregated 0..100 score back onto a trade label.
func LabelFromScore(score float64) Label {
	switch {
	case score >= 85:
		return LabelStrongBuy
	case score >= 65:
		return LabelBuy
	case score <= 15:
		return LabelStrongSell
	case score <= 35:
		return LabelSell
	default:
		return LabelNeutral
	}
}

// Package collector fetches price bars from cryptocurrency exchanges and
// normalizes them into ordered analysis windows.
package collector

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

const defaultFetchTimeout = 30 * time.Second

// KlineProvider fetches raw klines from one exchange.
type KlineProvider interface {
	// GetKlines fetches up to limit bars ending at the most recent one.
	// interval uses the "1m", "1h", "4h", "1d" notation.
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.PriceBar, error)
}

// Collector serves ordered, validated price windows from a kline provider.
type Collector struct {
	provider KlineProvider
	timeout  time.Duration
	now      func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock overrides the time source used to detect the still-open bar.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

// New creates a collector over provider.
func New(provider KlineProvider, opts ...Option) *Collector {
	c := &Collector{provider: provider, timeout: defaultFetchTimeout, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRecentBars returns up to count closed bars ordered oldest to newest.
// Exchanges also return the bar that is still forming; it is dropped.
func (c *Collector) GetRecentBars(ctx context.Context, pair domain.Pair, tf domain.Timeframe, count int) ([]domain.PriceBar, error) {
	if count <= 0 {
		return nil, errors.New("count must be > 0")
	}
	barLen, err := tf.Duration()
	if err != nil {
		return nil, errors.Wrap(err, "invalid timeframe")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// one extra bar replaces the open one
	bars, err := c.provider.GetKlines(ctx, pair, tf.String(), count+1)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines for timeframe %s", tf)
	}

	bars = dropOpenBars(sortBars(bars), barLen, c.now())
	if len(bars) == 0 {
		return nil, errors.Errorf("no kline data returned for %s %s", pair, tf)
	}

	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}

	if err := domain.ValidateWindow(bars); err != nil {
		return nil, errors.Wrapf(err, "kline window for %s %s", pair, tf)
	}

	return bars, nil
}

// dropOpenBars trims trailing bars whose close time is after now.
func dropOpenBars(bars []domain.PriceBar, barLen time.Duration, now time.Time) []domain.PriceBar {
	for len(bars) > 0 && bars[len(bars)-1].Timestamp.Add(barLen).After(now) {
		bars = bars[:len(bars)-1]
	}
	return bars
}

// sortBars returns a copy ordered by timestamp ascending.
func sortBars(bars []domain.PriceBar) []domain.PriceBar {
	out := append([]domain.PriceBar(nil), bars...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

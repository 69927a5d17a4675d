// Package feeds serves economic calendar events and backtest statistics
// declared in configuration.
package feeds

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

// ErrUnknownStrategy is returned for a strategy with no recorded statistics.
var ErrUnknownStrategy = errors.New("unknown strategy")

// StaticCalendar in-memory economic calendar.
type StaticCalendar struct {
	mu     sync.RWMutex
	events []domain.EconomicEvent
}

// NewStaticCalendar creates a calendar holding events ordered by time.
func NewStaticCalendar(events []domain.EconomicEvent) (*StaticCalendar, error) {
	c := &StaticCalendar{}
	if err := c.Replace(events); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace swaps the whole event list.
func (c *StaticCalendar) Replace(events []domain.EconomicEvent) error {
	sorted := make([]domain.EconomicEvent, len(events))
	for i, ev := range events {
		impact, err := domain.ParseImpact(string(ev.Impact))
		if err != nil {
			return errors.Wrapf(err, "event %q", ev.Title)
		}
		if ev.Time.IsZero() {
			return errors.Errorf("event %q has no time", ev.Title)
		}
		ev.Impact = impact
		ev.Currency = strings.ToUpper(ev.Currency)
		sorted[i] = ev
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	c.mu.Lock()
	c.events = sorted
	c.mu.Unlock()
	return nil
}

// UpcomingEvents returns events with from <= time <= to.
func (c *StaticCalendar) UpcomingEvents(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, errors.Errorf("invalid range: %s is before %s", to, from)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.EconomicEvent
	for _, ev := range c.events {
		if ev.Time.Before(from) {
			continue
		}
		if ev.Time.After(to) {
			break
		}
		out = append(out, ev)
	}
	return out, nil
}

// StaticBacktests in-memory backtest statistics keyed by strategy name.
type StaticBacktests struct {
	mu    sync.RWMutex
	stats map[string]domain.BacktestStats
}

// NewStaticBacktests creates a stats store from a list of strategies.
func NewStaticBacktests(stats []domain.BacktestStats) (*StaticBacktests, error) {
	b := &StaticBacktests{stats: make(map[string]domain.BacktestStats, len(stats))}
	for _, s := range stats {
		if err := b.Put(s); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Put records or overwrites statistics of one strategy.
func (b *StaticBacktests) Put(s domain.BacktestStats) error {
	if s.Strategy == "" {
		return errors.New("strategy name is empty")
	}

	b.mu.Lock()
	b.stats[s.Strategy] = s
	b.mu.Unlock()
	return nil
}

// StrategyStats returns the recorded statistics of strategy.
func (b *StaticBacktests) StrategyStats(ctx context.Context, strategy string) (domain.BacktestStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.BacktestStats{}, err
	}

	b.mu.RLock()
	s, ok := b.stats[strategy]
	b.mu.RUnlock()
	if !ok {
		return domain.BacktestStats{}, errors.Wrapf(ErrUnknownStrategy, "%q", strategy)
	}
	return s, nil
}

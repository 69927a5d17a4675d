package sources

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vadiminshakov/tradegate/internal/domain"
)

const (
	DefaultCalendarLookahead = 24 * time.Hour
	DefaultBlackoutBefore    = 30 * time.Minute
	DefaultBlackoutAfter     = 30 * time.Minute
)

// CalendarFeed scheduled economic events.
type CalendarFeed interface {
	UpcomingEvents(ctx context.Context, from, to time.Time) ([]domain.EconomicEvent, error)
}

// CalendarWindow bounds of the calendar source.
type CalendarWindow struct {
	// Lookahead is how far ahead events contribute to the impact score.
	Lookahead time.Duration
	// Before is how long before a HIGH impact event trading is blacked out.
	Before time.Duration
	// After is how long after a HIGH impact event trading stays blacked out.
	After time.Duration
}

// DefaultCalendarWindow returns the default lookahead and blackout bounds.
func DefaultCalendarWindow() CalendarWindow {
	return CalendarWindow{
		Lookahead: DefaultCalendarLookahead,
		Before:    DefaultBlackoutBefore,
		After:     DefaultBlackoutAfter,
	}
}

// Calendar scores upcoming economic events and raises the blackout flag.
type Calendar struct {
	feed   CalendarFeed
	weight float64
	window CalendarWindow
}

// NewCalendar creates the calendar source. feed may be nil.
func NewCalendar(feed CalendarFeed, weight float64, window CalendarWindow) *Calendar {
	return &Calendar{feed: feed, weight: weight, window: window}
}

func (c *Calendar) Name() domain.SourceName { return domain.SourceCalendar }

func (c *Calendar) Evaluate(ctx context.Context, snap Snapshot) Outcome {
	if c.feed == nil {
		return Outcome{Signal: domain.NonVote(domain.SourceCalendar, c.weight, "no calendar feed configured")}
	}

	events, err := c.feed.UpcomingEvents(ctx, snap.Now.Add(-c.window.After), snap.Now.Add(c.window.Lookahead))
	if err != nil {
		return Outcome{
			Signal:   domain.NonVote(domain.SourceCalendar, c.weight, "calendar feed unavailable"),
			Degraded: &domain.UpstreamUnavailableError{Upstream: "calendar", Err: err},
		}
	}

	src, blackout := CalendarSignal(events, snap.Pair, snap.Now, c.window, c.weight)
	return Outcome{Signal: src, Blackout: blackout}
}

// CalendarSignal returns a NEUTRAL source whose confidence is the impact score
// of relevant events, and whether a HIGH impact event falls inside the
// blackout window around now.
func CalendarSignal(events []domain.EconomicEvent, pair domain.Pair, now time.Time, window CalendarWindow, weight float64) (domain.SignalSource, bool) {
	var (
		score    float64
		blackout bool
		titles   []string
	)

	for _, ev := range events {
		if !ev.Affects(pair) {
			continue
		}
		until := ev.Time.Sub(now)
		if until < -window.After || until > window.Lookahead {
			continue
		}

		score += ev.Impact.Weight() * impactDecay(until)
		if ev.Impact == domain.ImpactHigh && until >= -window.After && until <= window.Before {
			blackout = true
			titles = append(titles, ev.Title)
		}
	}

	src := domain.NewSignalSource(domain.SourceCalendar, domain.LabelNeutral, math.Min(100, score), weight)
	src.Metadata["blackout"] = strconv.FormatBool(blackout)
	if len(titles) > 0 {
		src.Metadata["blackout_events"] = strings.Join(titles, ",")
	}
	return src, blackout
}

// impactDecay is 1 at the event time and halves one hour away from it.
func impactDecay(until time.Duration) float64 {
	hours := math.Abs(until.Hours())
	return 1 / (1 + hours)
}

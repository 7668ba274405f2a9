// Package timer implements the one-second countdown against color thresholds.
package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/session"
)

// Countdown ticks the session clock once per second, publishing the
// elapsed display and the current color zone. Reaching the speech limit
// flips the live flag off and publishes a terminal display; cancelling the
// context ends the loop early without it.
type Countdown struct {
	// Interval is one tick; overridable in tests.
	Interval time.Duration

	st         *session.State
	thresholds model.Thresholds
	events     chan<- model.Event
	onExpire   func()
}

// New returns a countdown against the given thresholds. onExpire, if not
// nil, runs after the limit flips the live flag off.
func New(st *session.State, thresholds model.Thresholds, events chan<- model.Event, onExpire func()) *Countdown {
	return &Countdown{
		Interval:   time.Second,
		st:         st,
		thresholds: thresholds,
		events:     events,
		onExpire:   onExpire,
	}
}

// Run blocks until the limit is reached or ctx is cancelled.
func (c *Countdown) Run(ctx context.Context) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := c.st.AdvanceClock()
			zone := model.ZoneFor(elapsed, c.thresholds)
			if elapsed >= c.thresholds.Limit {
				c.st.SetLive(false)
				c.publish(ctx, model.TimerEvent{
					Display:      "Time limit reached",
					Zone:         zone,
					Elapsed:      elapsed,
					LimitReached: true,
				})
				if c.onExpire != nil {
					c.onExpire()
				}
				return
			}
			c.publish(ctx, model.TimerEvent{
				Display: FormatClock(elapsed),
				Zone:    zone,
				Elapsed: elapsed,
			})
		}
	}
}

func (c *Countdown) publish(ctx context.Context, ev model.Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

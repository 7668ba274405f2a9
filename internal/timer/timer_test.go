package timer

import (
	"context"
	"testing"
	"time"

	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/session"
)

func testThresholds() model.Thresholds {
	return model.Thresholds{Green: 10, Yellow: 20, Red: 30, Limit: 35}
}

func TestZoneBoundaries(t *testing.T) {
	th := testThresholds()
	cases := []struct {
		elapsed int
		want    model.Zone
	}{
		{0, model.ZoneDefault},
		{9, model.ZoneDefault},
		{10, model.ZoneGreen},
		{19, model.ZoneGreen},
		{20, model.ZoneYellow},
		{29, model.ZoneYellow},
		{30, model.ZoneRed},
		{35, model.ZoneRed},
		{100, model.ZoneRed},
	}
	for _, c := range cases {
		if got := model.ZoneFor(c.elapsed, th); got != c.want {
			t.Fatalf("zone at %ds: expected %v, got %v", c.elapsed, c.want, got)
		}
	}
}

func TestZoneAtFifteenIsGreen(t *testing.T) {
	// With green=10 yellow=20 red=30, 15s is still in the green zone;
	// the yellow zone begins at the yellow threshold.
	if got := model.ZoneFor(15, testThresholds()); got != model.ZoneGreen {
		t.Fatalf("expected green at 15s, got %v", got)
	}
}

func TestCountdownRunsToLimit(t *testing.T) {
	st := session.New()
	st.ResetForStart()
	events := make(chan model.Event, 64)
	expired := make(chan struct{})

	c := New(st, model.Thresholds{Green: 1, Yellow: 2, Red: 3, Limit: 4}, events, func() {
		close(expired)
	})
	c.Interval = time.Millisecond

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("countdown did not reach the limit")
	}
	select {
	case <-expired:
	default:
		t.Fatalf("expected the expiry callback to run")
	}
	if st.Live() {
		t.Fatalf("expected live flag to be lowered at the limit")
	}

	var last model.TimerEvent
	var ticks int
	for {
		select {
		case ev := <-events:
			if te, ok := ev.(model.TimerEvent); ok {
				last = te
				ticks++
			}
			continue
		default:
		}
		break
	}
	if ticks != 4 {
		t.Fatalf("expected 4 ticks, got %d", ticks)
	}
	if !last.LimitReached {
		t.Fatalf("expected the final event to mark the limit")
	}
	if last.Display != "Time limit reached" {
		t.Fatalf("unexpected terminal display %q", last.Display)
	}
	if last.Zone != model.ZoneRed {
		t.Fatalf("expected red zone at the limit, got %v", last.Zone)
	}
}

func TestCountdownCancelledEarly(t *testing.T) {
	st := session.New()
	st.ResetForStart()
	events := make(chan model.Event, 64)

	c := New(st, model.Thresholds{Green: 1, Yellow: 2, Red: 3, Limit: 1000}, events, func() {
		t.Errorf("expiry callback must not run on early cancellation")
	})
	c.Interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("countdown did not stop on cancellation")
	}
	if !st.Live() {
		t.Fatalf("early cancellation must not lower the live flag")
	}
	for {
		select {
		case ev := <-events:
			if te, ok := ev.(model.TimerEvent); ok && te.LimitReached {
				t.Fatalf("terminal display published on early cancellation")
			}
			continue
		default:
		}
		break
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{65, "01:05"},
		{600, "10:00"},
		{-3, "00:00"},
	}
	for _, c := range cases {
		if got := FormatClock(c.seconds); got != c.want {
			t.Fatalf("FormatClock(%d): expected %q, got %q", c.seconds, c.want, got)
		}
	}
}

package session

import (
	"errors"
	"testing"
)

func TestObserveEmotionCountsWhileLive(t *testing.T) {
	st := New()
	st.ResetForStart()
	for i := 0; i < 3; i++ {
		if !st.ObserveEmotion("happy") {
			t.Fatalf("expected observation to be recorded while live")
		}
	}
	if !st.ObserveEmotion("neutral") {
		t.Fatalf("expected observation to be recorded while live")
	}
	tally := st.Tally()
	if len(tally) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(tally))
	}
	if tally[0].Label != "happy" || tally[0].Count != 3 {
		t.Fatalf("unexpected first entry: %+v", tally[0])
	}
	if tally[1].Label != "neutral" || tally[1].Count != 1 {
		t.Fatalf("unexpected second entry: %+v", tally[1])
	}
}

func TestObserveEmotionIgnoredWhileNotLive(t *testing.T) {
	st := New()
	if st.ObserveEmotion("happy") {
		t.Fatalf("expected observation to be dropped while not live")
	}
	if len(st.Tally()) != 0 {
		t.Fatalf("tally must stay empty while not live")
	}
}

func TestMostAndLeastUsed(t *testing.T) {
	st := New()
	st.ResetForStart()
	for i := 0; i < 3; i++ {
		st.ObserveEmotion("happy")
	}
	st.ObserveEmotion("neutral")

	most, err := st.MostUsed()
	if err != nil {
		t.Fatalf("most used: %v", err)
	}
	if most != "happy" {
		t.Fatalf("expected happy, got %q", most)
	}
	least, err := st.LeastUsed()
	if err != nil {
		t.Fatalf("least used: %v", err)
	}
	if least != "neutral" {
		t.Fatalf("expected neutral, got %q", least)
	}
}

func TestEmptyTally(t *testing.T) {
	st := New()
	if _, err := st.MostUsed(); !errors.Is(err, ErrEmptyTally) {
		t.Fatalf("expected ErrEmptyTally, got %v", err)
	}
	if _, err := st.LeastUsed(); !errors.Is(err, ErrEmptyTally) {
		t.Fatalf("expected ErrEmptyTally, got %v", err)
	}
}

func TestAverageRate(t *testing.T) {
	st := New()
	st.ResetForStart()
	for _, r := range []float64{120, 100, 140} {
		if !st.AddRateSample(r) {
			t.Fatalf("expected sample to be recorded while live")
		}
	}
	if avg := st.AverageRate(); avg != 120 {
		t.Fatalf("expected average 120, got %v", avg)
	}
}

func TestAverageRateEmpty(t *testing.T) {
	st := New()
	if avg := st.AverageRate(); avg != 0 {
		t.Fatalf("expected 0 for empty samples, got %v", avg)
	}
}

func TestRateSampleDroppedWhileNotLive(t *testing.T) {
	st := New()
	if st.AddRateSample(100) {
		t.Fatalf("expected sample to be dropped while not live")
	}
	if st.SampleCount() != 0 {
		t.Fatalf("expected no samples")
	}
}

func TestFillerCountAlerts(t *testing.T) {
	st := New()
	st.ResetForStart()
	if !st.SetFillerCount(2) {
		t.Fatalf("expected alert on first increase while live")
	}
	if !st.SetFillerCount(3) {
		t.Fatalf("expected alert on increase while live")
	}
	if st.SetFillerCount(3) {
		t.Fatalf("expected no alert on unchanged count")
	}
	if st.SetFillerCount(1) {
		t.Fatalf("expected no alert on decreasing count")
	}
	st.SetLive(false)
	if st.SetFillerCount(5) {
		t.Fatalf("expected no alert while not live")
	}
	if n, ok := st.FillerCount(); !ok || n != 5 {
		t.Fatalf("expected count 5 to be stored, got %d (%v)", n, ok)
	}
}

func TestClearObservationsKeepsFillerCount(t *testing.T) {
	st := New()
	st.ResetForStart()
	st.ObserveEmotion("happy")
	st.AddRateSample(110)
	st.SetFillerCount(4)

	st.ClearObservations()

	if len(st.Tally()) != 0 {
		t.Fatalf("expected tally to be cleared")
	}
	if st.SampleCount() != 0 {
		t.Fatalf("expected samples to be cleared")
	}
	if n, ok := st.FillerCount(); !ok || n != 4 {
		t.Fatalf("expected filler count to persist, got %d (%v)", n, ok)
	}
}

func TestClockAdvance(t *testing.T) {
	st := New()
	st.ResetForStart()
	if st.Elapsed() != 0 {
		t.Fatalf("expected clock reset on start")
	}
	if got := st.AdvanceClock(); got != 1 {
		t.Fatalf("expected 1 after one tick, got %d", got)
	}
	st.AdvanceClock()
	if st.Elapsed() != 2 {
		t.Fatalf("expected 2 after two ticks, got %d", st.Elapsed())
	}
}

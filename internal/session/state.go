// Package session holds the shared mutable state of one speaking session.
package session

import (
	"errors"
	"sync"
)

// ErrEmptyTally is returned when the most- or least-used emotion is
// requested and no emotion was ever recorded.
var ErrEmptyTally = errors.New("no emotions recorded")

// TallyEntry is one emotion label with its observation count.
type TallyEntry struct {
	Label string
	Count int
}

// State is the shared mutable record of one speaking session. The video
// worker writes the emotion tally, the speech worker writes rate samples,
// the timer and controller flip the live flag, and the companion receiver
// writes the filler count. All methods are safe for concurrent use.
type State struct {
	mu             sync.Mutex
	live           bool
	elapsedSeconds int
	fillerCount    int
	fillerSet      bool
	emotionOrder   []string
	emotionCounts  map[string]int
	rateSamples    []float64
}

// New returns an empty session state.
func New() *State {
	return &State{emotionCounts: map[string]int{}}
}

// Live reports whether observations are currently being recorded.
func (s *State) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// SetLive flips the live flag.
func (s *State) SetLive(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = v
}

// ResetForStart prepares the state for a new live session: the clock is
// reset and the live flag raised. Tally and samples are kept; they are
// cleared only by an explicit ClearObservations.
func (s *State) ResetForStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsedSeconds = 0
	s.live = true
}

// AdvanceClock adds one second to the session clock and returns the new
// elapsed value.
func (s *State) AdvanceClock() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsedSeconds++
	return s.elapsedSeconds
}

// Elapsed returns the session clock in seconds.
func (s *State) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedSeconds
}

// ObserveEmotion records one classifier observation. It reports whether
// the observation was recorded; while not live the tally is untouched.
func (s *State) ObserveEmotion(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live {
		return false
	}
	if _, ok := s.emotionCounts[label]; !ok {
		s.emotionOrder = append(s.emotionOrder, label)
	}
	s.emotionCounts[label]++
	return true
}

// Tally returns the emotion counts in first-seen order.
func (s *State) Tally() []TallyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TallyEntry, 0, len(s.emotionOrder))
	for _, label := range s.emotionOrder {
		out = append(out, TallyEntry{Label: label, Count: s.emotionCounts[label]})
	}
	return out
}

// MostUsed returns the label with the highest count. Ties go to the label
// seen first. Returns ErrEmptyTally when nothing was recorded.
func (s *State) MostUsed() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.emotionOrder) == 0 {
		return "", ErrEmptyTally
	}
	best := s.emotionOrder[0]
	for _, label := range s.emotionOrder[1:] {
		if s.emotionCounts[label] > s.emotionCounts[best] {
			best = label
		}
	}
	return best, nil
}

// LeastUsed returns the label with the lowest count. Ties go to the label
// seen first. Returns ErrEmptyTally when nothing was recorded.
func (s *State) LeastUsed() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.emotionOrder) == 0 {
		return "", ErrEmptyTally
	}
	best := s.emotionOrder[0]
	for _, label := range s.emotionOrder[1:] {
		if s.emotionCounts[label] < s.emotionCounts[best] {
			best = label
		}
	}
	return best, nil
}

// AddRateSample appends one words-per-minute sample. It reports whether
// the sample was recorded; while not live samples are dropped.
func (s *State) AddRateSample(rate float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live {
		return false
	}
	s.rateSamples = append(s.rateSamples, rate)
	return true
}

// AverageRate returns the arithmetic mean of the rate samples, 0 when no
// sample was recorded. An empty session is not an error.
func (s *State) AverageRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rateSamples) == 0 {
		return 0
	}
	var sum float64
	for _, r := range s.rateSamples {
		sum += r
	}
	return sum / float64(len(s.rateSamples))
}

// SampleCount returns the number of recorded rate samples.
func (s *State) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rateSamples)
}

// SetFillerCount stores the latest companion filler-word count and reports
// whether an audible alert should fire: the session is live and the count
// increased. Decreasing or repeated counts are accepted without alerting.
func (s *State) SetFillerCount(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := 0
	if s.fillerSet {
		prev = s.fillerCount
	}
	s.fillerCount = n
	s.fillerSet = true
	return s.live && n > prev
}

// FillerCount returns the last received filler count and whether any
// report has arrived yet.
func (s *State) FillerCount() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fillerCount, s.fillerSet
}

// ClearObservations drops the emotion tally and the rate samples. The
// filler count and the session clock persist; this is the cancel/restart
// transition, not a full reset.
func (s *State) ClearObservations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emotionOrder = nil
	s.emotionCounts = map[string]int{}
	s.rateSamples = nil
}

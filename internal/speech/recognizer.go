// Package speech implements the microphone capture and transcription worker.
package speech

import (
	"context"
	"errors"
	"time"
)

// Expected transient transcription outcomes. Neither one stops the worker;
// both show up as a fixed diagnostic message on the display.
var (
	// ErrUnrecognized means the phrase window elapsed without a usable
	// transcript.
	ErrUnrecognized = errors.New("speech not recognized")
	// ErrServiceUnavailable means the transcription service could not be
	// reached or reported a failure.
	ErrServiceUnavailable = errors.New("transcription service unavailable")
)

// Result is one transcribed utterance.
type Result struct {
	Text string
	// Seconds is the spoken duration of the utterance. Zero when the
	// service provided no word timings; callers fall back to the phrase
	// window.
	Seconds float64
}

// Recognizer turns microphone audio into per-phrase transcripts.
type Recognizer interface {
	// Start acquires the microphone and connects to the service.
	Start(ctx context.Context) error
	// Recognize blocks for up to one phrase window and returns the next
	// utterance, ErrUnrecognized, or ErrServiceUnavailable.
	Recognize(ctx context.Context, window time.Duration) (Result, error)
	// Close releases the microphone and the service connection.
	Close() error
}

package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/session"
)

// Fixed diagnostic messages, shown in place of a transcript.
const (
	msgUnrecognized = "Speech recognition could not understand audio"
	msgUnavailable  = "Could not request results from speech recognition service"
)

// Voice phrases that drive session transitions.
const (
	startPhrase = "start speech"
	stopPhrase  = "stop speech"
)

// Worker runs the capture/transcribe loop: one phrase window per
// iteration, one rate sample per recognized utterance.
type Worker struct {
	// PhraseWindow is the listening window per utterance.
	PhraseWindow time.Duration
	// RetryDelay is the backoff after a service-unavailable outcome.
	RetryDelay time.Duration

	rec      Recognizer
	st       *session.State
	events   chan<- model.Event
	commands chan<- model.Command

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker wires a recognizer to the session state. Voice-driven start
// and stop phrases are forwarded on the commands channel.
func NewWorker(rec Recognizer, st *session.State, events chan<- model.Event, commands chan<- model.Command) *Worker {
	return &Worker{
		PhraseWindow: 5 * time.Second,
		RetryDelay:   2 * time.Second,
		rec:          rec,
		st:           st,
		events:       events,
		commands:     commands,
	}
}

// Start acquires the microphone and service connection and launches the
// loop. Failures are reported synchronously with nothing left running.
func (w *Worker) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	if err := w.rec.Start(runCtx); err != nil {
		cancel()
		return err
	}
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(runCtx)
	return nil
}

// Stop signals the loop and waits for the microphone to be released.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer func() {
		if err := w.rec.Close(); err != nil {
			log.Printf("speech worker: closing recognizer: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := w.rec.Recognize(ctx, w.PhraseWindow)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		case errors.Is(err, ErrUnrecognized):
			w.publish(ctx, model.TranscriptEvent{Text: msgUnrecognized, Diagnostic: true})
		case errors.Is(err, ErrServiceUnavailable):
			w.publish(ctx, model.TranscriptEvent{Text: msgUnavailable, Diagnostic: true})
			// The reference retried immediately; back off instead so an
			// outage does not turn into a hot loop.
			select {
			case <-time.After(w.RetryDelay):
			case <-ctx.Done():
				return
			}
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			w.publish(ctx, model.ErrorEvent{Err: fmt.Errorf("speech worker: %w", err)})
			return
		default:
			w.handleUtterance(ctx, res)
		}
	}
}

func (w *Worker) handleUtterance(ctx context.Context, res Result) {
	words := len(strings.Fields(res.Text))
	seconds := res.Seconds
	if seconds <= 0 {
		seconds = w.PhraseWindow.Seconds()
	}
	rate := float64(words) * 60.0 / seconds

	w.st.AddRateSample(rate)
	w.publish(ctx, model.TranscriptEvent{Text: res.Text, Words: words, Rate: rate})
	w.checkVoicePhrase(res.Text)
}

// checkVoicePhrase feeds the literal start/stop phrases into the
// controller as alternate input edges for the same transitions.
func (w *Worker) checkVoicePhrase(text string) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case startPhrase:
		if !w.st.Live() {
			w.command(model.CommandStart)
		}
	case stopPhrase:
		if w.st.Live() {
			w.command(model.CommandStop)
		}
	}
}

func (w *Worker) command(cmd model.Command) {
	if w.commands == nil {
		return
	}
	select {
	case w.commands <- cmd:
	default:
		log.Printf("speech worker: dropping voice command %v", cmd)
	}
}

func (w *Worker) publish(ctx context.Context, ev model.Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

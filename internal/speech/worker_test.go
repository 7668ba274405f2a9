package speech

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/session"
)

type recOutcome struct {
	res Result
	err error
}

type fakeRecognizer struct {
	outcomes chan recOutcome
	startErr error
	closed   atomic.Bool
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{outcomes: make(chan recOutcome, 16)}
}

func (f *fakeRecognizer) Start(_ context.Context) error {
	return f.startErr
}

func (f *fakeRecognizer) Recognize(ctx context.Context, _ time.Duration) (Result, error) {
	select {
	case out := <-f.outcomes:
		return out.res, out.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (f *fakeRecognizer) Close() error {
	f.closed.Store(true)
	return nil
}

func startWorker(t *testing.T, rec Recognizer, st *session.State) (*Worker, chan model.Event, chan model.Command) {
	t.Helper()
	events := make(chan model.Event, 64)
	commands := make(chan model.Command, 8)
	w := NewWorker(rec, st, events, commands)
	w.RetryDelay = time.Millisecond
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, events, commands
}

func nextTranscript(t *testing.T, events chan model.Event) model.TranscriptEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if te, ok := ev.(model.TranscriptEvent); ok {
				return te
			}
		case <-deadline:
			t.Fatalf("no transcript event arrived")
		}
	}
}

func TestWorkerRecordsRate(t *testing.T) {
	st := session.New()
	st.ResetForStart()
	rec := newFakeRecognizer()
	_, events, _ := startWorker(t, rec, st)

	rec.outcomes <- recOutcome{res: Result{Text: "hello there my friend", Seconds: 2}}

	te := nextTranscript(t, events)
	if te.Diagnostic {
		t.Fatalf("expected a transcript, got a diagnostic: %q", te.Text)
	}
	if te.Words != 4 {
		t.Fatalf("expected 4 words, got %d", te.Words)
	}
	// 4 words in 2 seconds = 120 words per minute.
	if te.Rate != 120 {
		t.Fatalf("expected rate 120, got %v", te.Rate)
	}
	waitFor(t, func() bool { return st.SampleCount() == 1 })
	if avg := st.AverageRate(); avg != 120 {
		t.Fatalf("expected recorded sample 120, got %v", avg)
	}
}

func TestWorkerFallsBackToPhraseWindow(t *testing.T) {
	st := session.New()
	st.ResetForStart()
	rec := newFakeRecognizer()
	_, events, _ := startWorker(t, rec, st)

	// No word timings: the 5s phrase window stands in for the duration.
	rec.outcomes <- recOutcome{res: Result{Text: "one two three"}}

	te := nextTranscript(t, events)
	if te.Rate != 36 {
		t.Fatalf("expected rate 36 (3 words x 60/5s), got %v", te.Rate)
	}
}

func TestWorkerUnrecognizedSkipsSample(t *testing.T) {
	st := session.New()
	st.ResetForStart()
	rec := newFakeRecognizer()
	_, events, _ := startWorker(t, rec, st)

	rec.outcomes <- recOutcome{err: ErrUnrecognized}

	te := nextTranscript(t, events)
	if !te.Diagnostic || te.Text != msgUnrecognized {
		t.Fatalf("unexpected diagnostic: %+v", te)
	}
	if st.SampleCount() != 0 {
		t.Fatalf("unrecognized audio must not append a sample")
	}
}

func TestWorkerSurvivesServiceOutage(t *testing.T) {
	st := session.New()
	st.ResetForStart()
	rec := newFakeRecognizer()
	_, events, _ := startWorker(t, rec, st)

	rec.outcomes <- recOutcome{err: ErrServiceUnavailable}
	rec.outcomes <- recOutcome{res: Result{Text: "still here", Seconds: 1}}

	te := nextTranscript(t, events)
	if !te.Diagnostic || te.Text != msgUnavailable {
		t.Fatalf("unexpected diagnostic: %+v", te)
	}
	te = nextTranscript(t, events)
	if te.Diagnostic || te.Text != "still here" {
		t.Fatalf("worker did not resume after outage: %+v", te)
	}
}

func TestWorkerVoiceCommands(t *testing.T) {
	st := session.New() // not live
	rec := newFakeRecognizer()
	_, _, commands := startWorker(t, rec, st)

	rec.outcomes <- recOutcome{res: Result{Text: "Start Speech", Seconds: 1}}
	select {
	case cmd := <-commands:
		if cmd != model.CommandStart {
			t.Fatalf("expected start command, got %v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no start command issued")
	}

	st.SetLive(true)
	rec.outcomes <- recOutcome{res: Result{Text: "stop speech", Seconds: 1}}
	select {
	case cmd := <-commands:
		if cmd != model.CommandStop {
			t.Fatalf("expected stop command, got %v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no stop command issued")
	}
}

func TestWorkerVoiceCommandsRespectLiveState(t *testing.T) {
	st := session.New()
	st.SetLive(true)
	rec := newFakeRecognizer()
	_, _, commands := startWorker(t, rec, st)

	// "start speech" while already live is just a transcript.
	rec.outcomes <- recOutcome{res: Result{Text: "start speech", Seconds: 1}}
	rec.outcomes <- recOutcome{res: Result{Text: "filler", Seconds: 1}}
	waitFor(t, func() bool { return st.SampleCount() == 2 })
	if len(commands) != 0 {
		t.Fatalf("no command expected while already live, got %d", len(commands))
	}
}

func TestWorkerStartFailure(t *testing.T) {
	st := session.New()
	rec := newFakeRecognizer()
	rec.startErr = fmt.Errorf("microphone: device busy")

	w := NewWorker(rec, st, make(chan model.Event, 8), nil)
	if err := w.Start(context.Background()); err == nil {
		t.Fatalf("expected start to fail when the microphone is busy")
	}
	w.Stop()
}

func TestWorkerStopClosesRecognizer(t *testing.T) {
	st := session.New()
	rec := newFakeRecognizer()
	w := NewWorker(rec, st, make(chan model.Event, 8), nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	w.Stop()
	if !rec.closed.Load() {
		t.Fatalf("expected the recognizer to be closed on stop")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

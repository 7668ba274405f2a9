package vision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/session"
)

// Worker runs the capture-and-classify loop: one frame read, one classify
// call, one display update per iteration. The tally is only touched while
// the session is live; that gate lives in session.State.
type Worker struct {
	// FPSWindow is the number of frames per FPS measurement.
	FPSWindow int

	source     FrameSource
	classifier Classifier
	st         *session.State
	events     chan<- model.Event

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker wires a frame source and a classifier to the session state.
func NewWorker(source FrameSource, classifier Classifier, st *session.State, events chan<- model.Event) *Worker {
	return &Worker{
		FPSWindow:  30,
		source:     source,
		classifier: classifier,
		st:         st,
		events:     events,
	}
}

// Start opens the camera and launches the loop. A camera that cannot be
// acquired is reported synchronously and nothing is left running.
func (w *Worker) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	if err := w.source.Open(runCtx); err != nil {
		cancel()
		return err
	}
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(runCtx)
	return nil
}

// Stop signals the loop and waits for it to release the camera.
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
		if err := w.source.Close(); err != nil {
			log.Printf("video worker: closing camera: %v", err)
		}
	}()

	frames := 0
	batchStart := time.Now()
	for {
		// Cooperative cancellation, checked once per frame so the
		// device is always released cleanly.
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := w.source.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.publish(ctx, model.ErrorEvent{Err: fmt.Errorf("video worker: %w", err)})
			return
		}

		w.observe(ctx, frame)

		frames++
		if frames >= w.FPSWindow {
			if secs := time.Since(batchStart).Seconds(); secs > 0 {
				fps := math.Round(float64(frames)/secs*1000) / 1000
				w.publish(ctx, model.FPSEvent{FPS: fps})
			}
			frames = 0
			batchStart = time.Now()
		}
	}
}

func (w *Worker) observe(ctx context.Context, frame []byte) {
	emo, err := w.classifier.Classify(ctx, frame)
	switch {
	case errors.Is(err, ErrNoFace):
		w.publish(ctx, model.EmotionEvent{FaceDetected: false})
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		// A classifier hiccup shows up as "no face" on the display and
		// never touches the tally.
		log.Printf("video worker: classify: %v", err)
		w.publish(ctx, model.EmotionEvent{FaceDetected: false})
	default:
		w.st.ObserveEmotion(emo.Label)
		w.publish(ctx, model.EmotionEvent{Label: emo.Label, Score: emo.Score, FaceDetected: true})
	}
}

func (w *Worker) publish(ctx context.Context, ev model.Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

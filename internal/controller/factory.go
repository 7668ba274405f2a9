package controller

import (
	"context"
	"time"

	"github.com/hansenc101/podium/internal/companion"
	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/session"
	"github.com/hansenc101/podium/internal/speech"
	"github.com/hansenc101/podium/internal/timer"
	"github.com/hansenc101/podium/internal/vision"
)

// DefaultFactory wires the production workers from the session config.
func DefaultFactory(cfg model.Config, speechAPIKey string) Factory {
	return Factory{
		NewCompanion: func(st *session.State, events chan<- model.Event) Worker {
			return companion.New(cfg.CompanionAddr, st, events)
		},
		NewVideo: func(st *session.State, events chan<- model.Event) Worker {
			source := vision.NewMJPEGSource(cfg.CameraURL)
			classifier := vision.NewHTTPClassifier(cfg.ClassifierURL)
			return vision.NewWorker(source, classifier, st, events)
		},
		NewSpeech: func(st *session.State, events chan<- model.Event, commands chan<- model.Command) Worker {
			rec := speech.NewStreamRecognizer(cfg.SpeechURL, speechAPIKey, speech.NewMicSource())
			w := speech.NewWorker(rec, st, events, commands)
			if cfg.PhraseSeconds > 0 {
				w.PhraseWindow = time.Duration(cfg.PhraseSeconds) * time.Second
			}
			return w
		},
		NewTimer: func(st *session.State, th model.Thresholds, events chan<- model.Event, onExpire func()) Worker {
			return &timerWorker{countdown: timer.New(st, th, events, onExpire)}
		},
	}
}

// timerWorker adapts the countdown's blocking Run loop to the Worker
// interface the controller manages.
type timerWorker struct {
	countdown *timer.Countdown
	cancel    context.CancelFunc
	done      chan struct{}
}

func (w *timerWorker) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		w.countdown.Run(runCtx)
	}()
	return nil
}

func (w *timerWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
}

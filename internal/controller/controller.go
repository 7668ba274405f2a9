// Package controller owns the session lifecycle and the four workers.
package controller

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hansenc101/podium/internal/model"
	"github.com/hansenc101/podium/internal/report"
	"github.com/hansenc101/podium/internal/session"
)

// Worker is one of the four session workers. Start acquires the worker's
// device or socket and reports failure synchronously; Stop signals the
// worker and joins it, so a stopped worker has fully released its
// resources.
type Worker interface {
	Start(ctx context.Context) error
	Stop()
}

// Factory builds the four workers for one live session. Tests inject
// fakes here; DefaultFactory wires the real ones.
type Factory struct {
	NewCompanion func(st *session.State, events chan<- model.Event) Worker
	NewVideo     func(st *session.State, events chan<- model.Event) Worker
	NewSpeech    func(st *session.State, events chan<- model.Event, commands chan<- model.Command) Worker
	NewTimer     func(st *session.State, th model.Thresholds, events chan<- model.Event, onExpire func()) Worker
}

// Controller drives the Idle -> Configuring -> Live -> ReportReady state
// machine. All transitions come in through Dispatch, whether they
// originate from the view, a voice phrase, or timer expiry.
type Controller struct {
	// SettleDelay spaces out worker startup so device acquisition does
	// not race; overridable in tests.
	SettleDelay time.Duration

	cfg       model.Config
	reportDir string
	factory   Factory

	st       *session.State
	events   chan model.Event
	commands chan model.Command

	mu         sync.Mutex
	state      model.State
	workers    []Worker
	runCancel  context.CancelFunc
	reportText string
}

// New returns an idle controller.
func New(cfg model.Config, reportDir string, factory Factory) *Controller {
	return &Controller{
		SettleDelay: 300 * time.Millisecond,
		cfg:         cfg,
		reportDir:   reportDir,
		factory:     factory,
		st:          session.New(),
		events:      make(chan model.Event, 256),
		commands:    make(chan model.Command, 8),
	}
}

// Events returns the channel the view consumes.
func (c *Controller) Events() <-chan model.Event {
	return c.events
}

// State returns the current lifecycle state.
func (c *Controller) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session exposes the shared session state, read-only use intended.
func (c *Controller) Session() *session.State {
	return c.st
}

// Run forwards voice-driven commands until ctx is cancelled. It is the
// only consumer of the commands channel.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.commands:
			if err := c.Dispatch(cmd); err != nil {
				log.Printf("voice command %v rejected: %v", cmd, err)
			}
		}
	}
}

// Dispatch applies one command to the state machine. Invalid transitions
// are rejected without side effects.
func (c *Controller) Dispatch(cmd model.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd {
	case model.CommandEnterSettings:
		if c.state != model.StateIdle {
			return c.rejected(cmd)
		}
		c.setState(model.StateConfiguring)
		return nil

	case model.CommandStart:
		if c.state != model.StateIdle && c.state != model.StateConfiguring {
			return c.rejected(cmd)
		}
		return c.startSession(true)

	case model.CommandStop:
		// Stop also backs out of the settings screen.
		if c.state != model.StateLive && c.state != model.StateConfiguring {
			return c.rejected(cmd)
		}
		c.st.SetLive(false)
		c.stopWorkers()
		c.setState(model.StateIdle)
		return nil

	case model.CommandGenerateReport:
		if c.state != model.StateLive {
			return c.rejected(cmd)
		}
		c.st.SetLive(false)
		// Every worker must have joined before the snapshot, so no
		// observation can land after the report is taken.
		c.stopWorkers()
		c.reportText = report.Build(c.st).Render()
		c.setState(model.StateReportReady)
		c.publish(model.ReportEvent{Text: c.reportText})
		return nil

	case model.CommandCancelReport:
		if c.state != model.StateReportReady {
			return c.rejected(cmd)
		}
		// Rate and emotion observations start over; the filler count,
		// the clock, and the configured thresholds carry across.
		c.st.ClearObservations()
		c.reportText = ""
		return c.startSession(false)

	case model.CommandQuit:
		c.st.SetLive(false)
		c.stopWorkers()
		c.setState(model.StateIdle)
		return nil

	default:
		return fmt.Errorf("unknown command %v", cmd)
	}
}

// SetThresholds replaces the configured thresholds. Only valid while
// configuring; invalid orderings are rejected.
func (c *Controller) SetThresholds(th model.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != model.StateConfiguring {
		return fmt.Errorf("cannot change thresholds while %s", c.state)
	}
	c.cfg.Thresholds = th
	return nil
}

// Thresholds returns the currently configured countdown thresholds.
func (c *Controller) Thresholds() model.Thresholds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Thresholds
}

// ReportText returns the last generated or imported report.
func (c *Controller) ReportText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reportText
}

// SaveReport writes the current report to path, or to a fresh file under
// the report directory when path is empty. Returns the path written.
func (c *Controller) SaveReport(path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reportText == "" {
		return "", fmt.Errorf("no report to save")
	}
	if path == "" {
		path = report.DefaultPath(c.reportDir)
	}
	if err := report.Save(path, c.reportText); err != nil {
		return "", err
	}
	c.publish(model.ReportEvent{Text: c.reportText, Path: path})
	return path, nil
}

// ImportReport loads a previously saved report for unparsed display.
func (c *Controller) ImportReport(path string) error {
	text, err := report.Load(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == model.StateLive {
		return fmt.Errorf("cannot import a report while live")
	}
	c.reportText = text
	c.setState(model.StateReportReady)
	c.publish(model.ReportEvent{Text: text, Path: path})
	return nil
}

// startSession builds and starts the four workers in order: companion
// receiver, countdown, then after a settle delay the video worker, then
// the speech worker. Any acquisition failure rolls the whole start back.
// Callers hold c.mu.
func (c *Controller) startSession(resetClock bool) error {
	if err := c.cfg.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	if resetClock {
		c.st.ResetForStart()
	} else {
		c.st.SetLive(true)
	}

	workers := []Worker{
		c.factory.NewCompanion(c.st, c.events),
		c.factory.NewTimer(c.st, c.cfg.Thresholds, c.events, c.expireAsync),
		c.factory.NewVideo(c.st, c.events),
		c.factory.NewSpeech(c.st, c.events, c.commands),
	}

	// The run context outlives startSession; stopWorkers cancels it so
	// workers that only watch their context also come down.
	ctx, cancel := context.WithCancel(context.Background())
	for i, w := range workers {
		if i >= 2 && c.SettleDelay > 0 {
			time.Sleep(c.SettleDelay)
		}
		if err := w.Start(ctx); err != nil {
			// No torn startup: everything already running comes back
			// down before the error surfaces.
			cancel()
			for j := i - 1; j >= 0; j-- {
				workers[j].Stop()
			}
			c.st.SetLive(false)
			err = fmt.Errorf("session start: %w", err)
			c.publish(model.ErrorEvent{Err: err})
			return err
		}
	}

	c.workers = workers
	c.runCancel = cancel
	c.setState(model.StateLive)
	return nil
}

// stopWorkers cancels the run context, then signals and joins all running
// workers, newest first. Callers hold c.mu.
func (c *Controller) stopWorkers() {
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
	for i := len(c.workers) - 1; i >= 0; i-- {
		c.workers[i].Stop()
	}
	c.workers = nil
}

// expireAsync runs off the timer's goroutine: the countdown cannot join
// itself from its own expiry callback.
func (c *Controller) expireAsync() {
	go c.handleExpiry()
}

func (c *Controller) handleExpiry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != model.StateLive {
		return
	}
	c.stopWorkers()
	c.setState(model.StateIdle)
}

// setState records and announces a transition. Callers hold c.mu.
func (c *Controller) setState(s model.State) {
	if c.state == s {
		return
	}
	c.state = s
	c.publish(model.StateEvent{State: s})
}

func (c *Controller) publish(ev model.Event) {
	select {
	case c.events <- ev:
	default:
		log.Printf("controller: dropping %T, view not consuming", ev)
	}
}

func (c *Controller) rejected(cmd model.Command) error {
	return fmt.Errorf("cannot %s while %s", cmd, c.state)
}

package model

// Events published by the workers and the controller for the view. Each one
// maps to a label or styling update; the view consumes them from a single
// channel.

// Event is implemented by every event type in this package.
type Event interface {
	isEvent()
}

func (EmotionEvent) isEvent()    {}
func (FPSEvent) isEvent()        {}
func (TranscriptEvent) isEvent() {}
func (TimerEvent) isEvent()      {}
func (StatusEvent) isEvent()     {}
func (ColorEvent) isEvent()      {}
func (StateEvent) isEvent()      {}
func (ReportEvent) isEvent()     {}
func (ErrorEvent) isEvent()      {}

// EmotionEvent carries the latest classifier result for the display.
type EmotionEvent struct {
	Label string
	Score float64
	// FaceDetected is false when the classifier saw no face; Label and
	// Score are then meaningless and the display shows "N/A".
	FaceDetected bool
}

// FPSEvent carries the measured capture rate.
type FPSEvent struct {
	FPS float64
}

// TranscriptEvent carries the latest utterance or a diagnostic message.
type TranscriptEvent struct {
	Text  string
	Words int
	Rate  float64
	// Diagnostic marks a fixed "could not understand" / "service
	// unavailable" message instead of a transcript.
	Diagnostic bool
}

// TimerEvent is published once per countdown tick.
type TimerEvent struct {
	Display      string
	Zone         Zone
	Elapsed      int
	LimitReached bool
}

// StatusEvent carries companion status text and the filler-word count.
type StatusEvent struct {
	Status  string
	AhCount int
	// Alert is set when the filler count increased while live.
	Alert bool
}

// ColorEvent carries an RGB styling command from the companion device.
type ColorEvent struct {
	Red   int
	Green int
	Blue  int
}

// StateEvent announces a controller state transition.
type StateEvent struct {
	State State
}

// ReportEvent carries the rendered report text.
type ReportEvent struct {
	Text string
	Path string
}

// ErrorEvent surfaces a recoverable failure to the view.
type ErrorEvent struct {
	Err error
}

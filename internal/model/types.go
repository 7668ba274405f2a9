// Package model defines shared data structures.
package model

import "fmt"

// Thresholds configures the countdown color zones, in seconds.
type Thresholds struct {
	Green  int
	Yellow int
	Red    int
	Limit  int
}

// Validate checks the required zone ordering: 0 <= green < yellow < red <= limit.
func (t Thresholds) Validate() error {
	if t.Green < 0 {
		return fmt.Errorf("green threshold must be >= 0")
	}
	if t.Yellow <= t.Green {
		return fmt.Errorf("yellow threshold must be greater than green (%d)", t.Green)
	}
	if t.Red <= t.Yellow {
		return fmt.Errorf("red threshold must be greater than yellow (%d)", t.Yellow)
	}
	if t.Limit < t.Red {
		return fmt.Errorf("speech limit must be at least the red threshold (%d)", t.Red)
	}
	return nil
}

// Zone is the countdown color state driven by elapsed time.
type Zone int

// Zones, in escalation order.
const (
	ZoneDefault Zone = iota
	ZoneGreen
	ZoneYellow
	ZoneRed
)

// String returns the zone name.
func (z Zone) String() string {
	switch z {
	case ZoneGreen:
		return "green"
	case ZoneYellow:
		return "yellow"
	case ZoneRed:
		return "red"
	default:
		return "default"
	}
}

// ZoneFor maps elapsed seconds to a zone. Boundaries are lower-inclusive,
// upper-exclusive.
func ZoneFor(elapsed int, t Thresholds) Zone {
	switch {
	case elapsed >= t.Red:
		return ZoneRed
	case elapsed >= t.Yellow:
		return ZoneYellow
	case elapsed >= t.Green:
		return ZoneGreen
	default:
		return ZoneDefault
	}
}

// State is the session controller lifecycle state.
type State int

// Controller states.
const (
	StateIdle State = iota
	StateConfiguring
	StateLive
	StateReportReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateLive:
		return "live"
	case StateReportReady:
		return "report-ready"
	default:
		return "idle"
	}
}

// Command is a view- or voice-originated instruction to the controller.
type Command int

// Commands accepted by the controller.
const (
	CommandEnterSettings Command = iota
	CommandStart
	CommandStop
	CommandGenerateReport
	CommandCancelReport
	CommandQuit
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CommandEnterSettings:
		return "enter-settings"
	case CommandStart:
		return "start"
	case CommandStop:
		return "stop"
	case CommandGenerateReport:
		return "generate-report"
	case CommandCancelReport:
		return "cancel-report"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Config carries the runtime settings for a coaching session.
type Config struct {
	CameraURL     string
	ClassifierURL string
	SpeechURL     string
	CompanionAddr string
	PhraseSeconds int
	Thresholds    Thresholds
}

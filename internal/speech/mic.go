package speech

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// chunkBytes is 100ms of 16kHz mono signed 16-bit audio.
const chunkBytes = SampleRate * 2 / 10

// MicSource captures microphone audio by running a capture command that
// writes raw PCM to stdout. The default is ALSA's arecord configured for
// the stream the recognizer expects.
type MicSource struct {
	// Command and Args override the capture process.
	Command string
	Args    []string

	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func NewMicSource() *MicSource {
	return &MicSource{
		Command: "arecord",
		Args: []string{
			"-q",
			"-f", "S16_LE",
			"-r", fmt.Sprintf("%d", SampleRate),
			"-c", "1",
			"-t", "raw",
			"-",
		},
	}
}

// Open starts the capture process. A missing or busy audio device fails
// here rather than on the first read.
func (m *MicSource) Open(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, m.Command, m.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("microphone capture: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("microphone capture: %w", err)
	}
	m.cmd = cmd
	m.stdout = stdout
	return nil
}

// ReadChunk blocks until a full chunk of audio has been captured.
func (m *MicSource) ReadChunk() ([]byte, error) {
	buf := make([]byte, chunkBytes)
	if _, err := io.ReadFull(m.stdout, buf); err != nil {
		return nil, fmt.Errorf("microphone read: %w", err)
	}
	return buf, nil
}

// Close stops the capture process and releases the device.
func (m *MicSource) Close() error {
	if m.cmd == nil {
		return nil
	}
	m.stdout.Close()
	if m.cmd.Process != nil {
		m.cmd.Process.Kill()
	}
	// Kill makes Wait report an error; the device is released either way.
	m.cmd.Wait()
	m.cmd = nil
	return nil
}

// Package report builds and persists the end-of-session report.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/hansenc101/podium/internal/session"
	"github.com/hansenc101/podium/internal/timer"
)

const banner = "========== Speech Session Report =========="

// Report is the immutable summary of one finished session.
type Report struct {
	AverageRate    float64
	MostUsed       string
	LeastUsed      string
	FillerCount    string
	ElapsedSeconds int
}

// Build snapshots the frozen session state. The most/least-used emotions
// degrade to "N/A" when no face was ever recorded and the filler count to
// "N/A" when the companion device never reported.
func Build(st *session.State) Report {
	r := Report{
		AverageRate:    st.AverageRate(),
		MostUsed:       "N/A",
		LeastUsed:      "N/A",
		FillerCount:    "N/A",
		ElapsedSeconds: st.Elapsed(),
	}
	if most, err := st.MostUsed(); err == nil {
		r.MostUsed = most
	}
	if least, err := st.LeastUsed(); err == nil {
		r.LeastUsed = least
	}
	if n, ok := st.FillerCount(); ok {
		r.FillerCount = strconv.Itoa(n)
	}
	return r
}

// Render formats the report as plain text.
func (r Report) Render() string {
	var b strings.Builder
	fmt.Fprintln(&b, banner)
	fmt.Fprintf(&b, "Average speech rate: %.1f words/minute\n", r.AverageRate)
	fmt.Fprintf(&b, "Most used emotion: %s\n", r.MostUsed)
	fmt.Fprintf(&b, "Least used emotion: %s\n", r.LeastUsed)
	fmt.Fprintf(&b, "Ah count: %s\n", r.FillerCount)
	fmt.Fprintf(&b, "Elapsed time: %s\n", timer.FormatClock(r.ElapsedSeconds))
	return b.String()
}

// DefaultPath builds a fresh report path under dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, "session_"+ulid.Make().String()+".txt")
}

// Save writes the report text atomically: temp file plus rename, so an
// interrupted save never leaves a half-written report behind.
func Save(path, text string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "report-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create temp report: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.WriteString(text); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Load reads a saved report back verbatim; it is displayed unparsed.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read report: %w", err)
	}
	return string(data), nil
}

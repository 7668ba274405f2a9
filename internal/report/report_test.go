package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/hansenc101/podium/internal/session"
)

func TestBuildFromRecordedSession(t *testing.T) {
	st := session.New()
	st.ResetForStart()
	for i := 0; i < 3; i++ {
		st.ObserveEmotion("happy")
	}
	st.ObserveEmotion("neutral")
	for _, r := range []float64{120, 100, 140} {
		st.AddRateSample(r)
	}
	st.SetFillerCount(7)
	for i := 0; i < 95; i++ {
		st.AdvanceClock()
	}

	r := Build(st)
	if r.AverageRate != 120 {
		t.Fatalf("expected average 120, got %v", r.AverageRate)
	}
	if r.MostUsed != "happy" || r.LeastUsed != "neutral" {
		t.Fatalf("unexpected emotions: %q / %q", r.MostUsed, r.LeastUsed)
	}
	if r.FillerCount != "7" {
		t.Fatalf("expected filler count 7, got %q", r.FillerCount)
	}
	if r.ElapsedSeconds != 95 {
		t.Fatalf("expected 95 elapsed seconds, got %d", r.ElapsedSeconds)
	}

	text := r.Render()
	for _, want := range []string{
		"Speech Session Report",
		"Average speech rate: 120.0 words/minute",
		"Most used emotion: happy",
		"Least used emotion: neutral",
		"Ah count: 7",
		"Elapsed time: 01:35",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered report missing %q:\n%s", want, text)
		}
	}
}

func TestBuildFromEmptySession(t *testing.T) {
	r := Build(session.New())
	if r.AverageRate != 0 {
		t.Fatalf("expected 0 average for an empty session, got %v", r.AverageRate)
	}
	if r.MostUsed != "N/A" || r.LeastUsed != "N/A" {
		t.Fatalf("expected N/A emotions, got %q / %q", r.MostUsed, r.LeastUsed)
	}
	if r.FillerCount != "N/A" {
		t.Fatalf("expected N/A filler count, got %q", r.FillerCount)
	}
	text := r.Render()
	if !strings.Contains(text, "Most used emotion: N/A") {
		t.Fatalf("rendered report missing N/A substitution:\n%s", text)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := session.New()
	st.ResetForStart()
	st.ObserveEmotion("surprise")
	st.AddRateSample(130)

	text := Build(st).Render()
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := Save(path, text); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != text {
		t.Fatalf("round trip not byte-identical:\nsaved:\n%s\nloaded:\n%s", text, loaded)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "report.txt")
	if err := Save(path, "report body\n"); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != "report body\n" {
		t.Fatalf("unexpected content %q", loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected an error for a missing report")
	}
}

func TestDefaultPathUnique(t *testing.T) {
	dir := t.TempDir()
	a := DefaultPath(dir)
	b := DefaultPath(dir)
	if a == b {
		t.Fatalf("expected unique report paths, got %q twice", a)
	}
	if filepath.Dir(a) != dir {
		t.Fatalf("expected path under %q, got %q", dir, a)
	}
}

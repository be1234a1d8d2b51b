package datasource

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/neurodeck/pkg/pipeline"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHistoryRecordAndRecent(t *testing.T) {
	h := openTestHistory(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	steps := []string{pipeline.StepCollect, pipeline.StepTrain, pipeline.StepTrain}
	for i, step := range steps {
		entry, err := h.Record(RunEntry{
			Step:     step,
			Started:  base.Add(time.Duration(i) * time.Minute),
			Duration: time.Duration(i+1) * time.Second,
			Outcome:  OutcomeOK,
		})
		if err != nil {
			t.Fatalf("record %s: %v", step, err)
		}
		if entry.ID == 0 {
			t.Errorf("record %s: expected assigned id", step)
		}
	}

	trains, err := h.Recent(pipeline.StepTrain, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(trains) != 2 {
		t.Fatalf("expected 2 train runs, got %d", len(trains))
	}
	if !trains[0].Started.After(trains[1].Started) {
		t.Error("expected newest run first")
	}

	all, err := h.Recent("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs total, got %d", len(all))
	}
}

func TestHistoryRejectsUnknownStep(t *testing.T) {
	h := openTestHistory(t)

	if _, err := h.Record(RunEntry{Step: "compile", Started: time.Now()}); err == nil {
		t.Fatal("expected error for unknown step")
	}
}

func TestHistorySummaryRoundTrip(t *testing.T) {
	h := openTestHistory(t)

	want := pipeline.Summary{
		Model:     "clean",
		Episodes:  25,
		AvgAlive:  310.4,
		AvgReward: 187.2,
		AvgRoute:  0.82,
		Crashes:   3,
	}
	if _, err := h.Record(RunEntry{
		Step:     pipeline.StepSimulate,
		Started:  time.Now(),
		Duration: 90 * time.Second,
		Outcome:  OutcomeOK,
		Summary:  &want,
	}); err != nil {
		t.Fatal(err)
	}

	last, err := h.Last(pipeline.StepSimulate)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil {
		t.Fatal("expected a recorded run")
	}
	if last.Summary == nil {
		t.Fatal("expected summary to survive the round trip")
	}
	if *last.Summary != want {
		t.Errorf("summary mismatch: got %+v, want %+v", *last.Summary, want)
	}
	if last.Duration != 90*time.Second {
		t.Errorf("duration mismatch: got %v", last.Duration)
	}
}

func TestHistoryLastForUnrunStep(t *testing.T) {
	h := openTestHistory(t)

	last, err := h.Last(pipeline.StepDemo)
	if err != nil {
		t.Fatal(err)
	}
	if last != nil {
		t.Errorf("expected nil for step with no runs, got %+v", last)
	}
}

func TestHistoryCountAndLastModified(t *testing.T) {
	h := openTestHistory(t)

	mod, err := h.LastModified()
	if err != nil {
		t.Fatal(err)
	}
	if !mod.IsZero() {
		t.Errorf("expected zero time for empty history, got %v", mod)
	}

	newest := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	for _, started := range []time.Time{newest.Add(-time.Hour), newest} {
		if _, err := h.Record(RunEntry{Step: pipeline.StepProcess, Started: started, Outcome: OutcomeFailed}); err != nil {
			t.Fatal(err)
		}
	}

	count, err := h.Count(pipeline.StepProcess)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 runs, got %d", count)
	}

	mod, err = h.LastModified()
	if err != nil {
		t.Fatal(err)
	}
	if !mod.Equal(newest) {
		t.Errorf("expected last modified %v, got %v", newest, mod)
	}
}

func TestHistoryDefaultOutcome(t *testing.T) {
	h := openTestHistory(t)

	if _, err := h.Record(RunEntry{Step: pipeline.StepCollect, Started: time.Now()}); err != nil {
		t.Fatal(err)
	}
	last, err := h.Last(pipeline.StepCollect)
	if err != nil {
		t.Fatal(err)
	}
	if last.Outcome != OutcomeOK {
		t.Errorf("expected default outcome ok, got %s", last.Outcome)
	}
}

func TestOpenHistoryCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "neurodeck", "history.db")
	h, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("OpenHistory in a missing directory: %v", err)
	}
	defer h.Close()

	if _, err := h.Record(RunEntry{Step: pipeline.StepCollect, Started: time.Now()}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if n, err := h.Count(pipeline.StepCollect); err != nil || n != 1 {
		t.Fatalf("Count = %d, %v, want 1 row", n, err)
	}
}

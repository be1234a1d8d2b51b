package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStepVocabulary(t *testing.T) {
	want := []string{"collect", "process", "train", "simulate", "demo"}
	got := Steps()
	if len(got) != len(want) {
		t.Fatalf("got %d steps, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.ID != want[i] {
			t.Errorf("step %d = %q, want %q", i, s.ID, want[i])
		}
		if !Valid(s.ID) {
			t.Errorf("step %q should be valid", s.ID)
		}
	}
	if Valid("deploy") {
		t.Error("unknown step should be invalid")
	}
	if err := ValidateID("deploy"); err == nil {
		t.Error("ValidateID should reject unknown steps")
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want func(t *testing.T, msg Message)
	}{
		{
			name: "plain log line",
			line: "loading dataset...",
			want: func(t *testing.T, msg Message) {
				if msg.Event != nil {
					t.Errorf("expected no event, got %T", msg.Event)
				}
				if msg.Raw != "loading dataset..." {
					t.Errorf("raw = %q", msg.Raw)
				}
			},
		},
		{
			name: "oc point",
			line: `{"type":"oc","sec":12,"fatigue":0.4,"engagement":0.7,"oc":0.55}`,
			want: func(t *testing.T, msg Message) {
				oc, ok := msg.Event.(*OCPoint)
				if !ok {
					t.Fatalf("event = %T, want *OCPoint", msg.Event)
				}
				if oc.Sec != 12 || oc.OC != 0.55 {
					t.Errorf("oc = %+v", oc)
				}
			},
		},
		{
			name: "split",
			line: `{"type":"split","dirty":120,"clean":340}`,
			want: func(t *testing.T, msg Message) {
				sp, ok := msg.Event.(*Split)
				if !ok {
					t.Fatalf("event = %T, want *Split", msg.Event)
				}
				if sp.Dirty != 120 || sp.Clean != 340 {
					t.Errorf("split = %+v", sp)
				}
			},
		},
		{
			name: "run",
			line: `{"type":"run","model":"clean","idx":3,"alive":41.5,"reward":122.0,"route":0.87,"crash_type":"none"}`,
			want: func(t *testing.T, msg Message) {
				run, ok := msg.Event.(*Run)
				if !ok {
					t.Fatalf("event = %T, want *Run", msg.Event)
				}
				if run.Model != "clean" || run.Route != 0.87 {
					t.Errorf("run = %+v", run)
				}
			},
		},
		{
			name: "step marker",
			line: `{"type":"step_marker","name":"train","status":"done"}`,
			want: func(t *testing.T, msg Message) {
				m, ok := msg.Event.(*StepMarker)
				if !ok {
					t.Fatalf("event = %T, want *StepMarker", msg.Event)
				}
				if m.Name != "train" || m.Status != "done" {
					t.Errorf("marker = %+v", m)
				}
			},
		},
		{
			name: "unknown json type passes through as log",
			line: `{"type":"telemetry","x":1}`,
			want: func(t *testing.T, msg Message) {
				if msg.Event != nil {
					t.Errorf("expected no event, got %T", msg.Event)
				}
			},
		},
		{
			name: "malformed json passes through as log",
			line: `{"type":"oc", broken`,
			want: func(t *testing.T, msg Message) {
				if msg.Event != nil {
					t.Errorf("expected no event, got %T", msg.Event)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, ParseLine(tt.line))
		})
	}
}

func TestArtefactStatus(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "results_dirty.json")
	if err := os.WriteFile(existing, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := Artefacts{
		ResultsDirty: existing,
		ResultsClean: filepath.Join(dir, "missing.json"),
	}
	st := a.Check()
	if !st["results_dirty"] {
		t.Error("existing artefact should be reported present")
	}
	if st["results_clean"] {
		t.Error("missing artefact should be reported absent")
	}
	if st.StepReady(StepSimulate) {
		t.Error("simulate should not be ready with one result missing")
	}

	if err := os.WriteFile(a.ResultsClean, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !a.Check().StepReady(StepSimulate) {
		t.Error("simulate should be ready once both results exist")
	}
}

func TestLoadResultsBothLayouts(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.json")
	os.WriteFile(bare, []byte(`[{"alive_time":10,"reward":5,"route_completion":0.5}]`), 0o644)
	wrapped := filepath.Join(dir, "wrapped.json")
	os.WriteFile(wrapped, []byte(`{"runs":[{"steps":20,"total_reward":8,"route_completion":0.25,"crash_vehicle":true}]}`), 0o644)

	runs, err := LoadResults(bare)
	if err != nil || len(runs) != 1 {
		t.Fatalf("bare: %v, %d runs", err, len(runs))
	}
	if runs[0].Alive() != 10 || runs[0].TotalRewardValue() != 5 {
		t.Errorf("bare run = %+v", runs[0])
	}

	runs, err = LoadResults(wrapped)
	if err != nil || len(runs) != 1 {
		t.Fatalf("wrapped: %v, %d runs", err, len(runs))
	}
	if runs[0].Alive() != 20 || runs[0].TotalRewardValue() != 8 {
		t.Errorf("wrapped run = %+v", runs[0])
	}
	if runs[0].Crash() != "vehicle" {
		t.Errorf("crash = %q, want vehicle", runs[0].Crash())
	}
}

func TestSummarize(t *testing.T) {
	runs := []RunRecord{
		{AliveTime: 10, Reward: 4, Route: 0.2},
		{AliveTime: 20, Reward: 8, Route: 0.4, OutOfRoad: true},
		{AliveTime: 30, Reward: 12, Route: 0.6},
	}
	s := Summarize("clean", runs)
	if s.Episodes != 3 || s.Crashes != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.AvgAlive != 20 || s.AvgReward != 8 {
		t.Errorf("averages = %v/%v, want 20/8", s.AvgAlive, s.AvgReward)
	}
	if math.Abs(s.AvgRoute-0.4) > 1e-9 {
		t.Errorf("avg route = %v, want 0.4", s.AvgRoute)
	}
	if s.StdAlive != 10 {
		t.Errorf("std alive = %v, want 10", s.StdAlive)
	}

	empty := Summarize("dirty", nil)
	if empty.Episodes != 0 || empty.AvgAlive != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestRunnerStreamsOutput(t *testing.T) {
	r := NewRunner([]string{"sh", "-c", `echo plain; echo '{"type":"split","dirty":1,"clean":2}'; true`, "runner"})

	job, err := r.Run(context.Background(), StepProcess)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var msgs []Message
	for msg := range job.Messages() {
		msgs = append(msgs, msg)
	}
	<-job.Done()
	if err := job.Err(); err != nil {
		t.Fatalf("job error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2: %+v", len(msgs), msgs)
	}
	if msgs[0].Raw != "plain" || msgs[0].Event != nil {
		t.Errorf("first message = %+v", msgs[0])
	}
	if sp, ok := msgs[1].Event.(*Split); !ok || sp.Clean != 2 {
		t.Errorf("second message = %+v", msgs[1])
	}
}

func TestRunnerRejectsUnknownStep(t *testing.T) {
	r := NewRunner([]string{"true"})
	if _, err := r.Run(context.Background(), "deploy"); err == nil {
		t.Fatal("unknown step should be rejected")
	}
}

func TestRunnerSerializesPerStep(t *testing.T) {
	r := NewRunner([]string{"sh", "-c", "sleep 5", "runner"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job, err := r.Run(ctx, StepTrain)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !r.Running(StepTrain) {
		t.Error("step should be marked running")
	}
	if _, err := r.Run(ctx, StepTrain); err == nil {
		t.Error("second run of the same step should be rejected")
	}

	cancel()
	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled job did not finish")
	}
}

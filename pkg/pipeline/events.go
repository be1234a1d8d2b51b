package pipeline

import (
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/neurodeck/pkg/metrics"
)

// Structured events a pipeline run interleaves with its plain log output.
// Each event is a single JSON line with a "type" discriminator.

// OCPoint is one per-second overcognition score from the process step.
type OCPoint struct {
	Sec        int     `json:"sec"`
	Fatigue    float64 `json:"fatigue"`
	Engagement float64 `json:"engagement"`
	OC         float64 `json:"oc"`
}

// Split reports the dirty/clean dataset row counts.
type Split struct {
	Dirty int `json:"dirty"`
	Clean int `json:"clean"`
}

// Tree describes one estimator of a trained forest.
type Tree struct {
	Model          string    `json:"model"`
	Idx            int       `json:"idx"`
	Depth          int       `json:"depth"`
	NodeCount      int       `json:"node_count"`
	FeatureIndices []int     `json:"feature_indices"`
	Thresholds     []float64 `json:"thresholds"`
	ChildrenLeft   []int     `json:"children_left"`
	ChildrenRight  []int     `json:"children_right"`
}

// Importance carries a model's feature importances.
type Importance struct {
	Model    string    `json:"model"`
	Features []float64 `json:"features"`
}

// Run is one simulator episode result.
type Run struct {
	Model     string  `json:"model"`
	Idx       int     `json:"idx"`
	Alive     float64 `json:"alive"`
	Reward    float64 `json:"reward"`
	Route     float64 `json:"route"`
	CrashType string  `json:"crash_type"`
}

// Stats is the batch summary for one model.
type Stats struct {
	Model     string  `json:"model"`
	AvgAlive  float64 `json:"avg_alive"`
	AvgReward float64 `json:"avg_reward"`
	AvgRoute  float64 `json:"avg_route"`
}

// StepMarker delimits sub-steps inside a demo run.
type StepMarker struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Message is one line of run output: the raw text, plus the decoded event
// when the line was a structured JSON event.
type Message struct {
	Raw   string
	Event any
}

type envelope struct {
	Type string `json:"type"`
}

// ParseLine decodes a run output line. Lines that are not JSON, or JSON
// without a known type, come back with a nil Event and are treated as log
// output.
func ParseLine(line string) Message {
	defer metrics.Timer(metrics.EventParsing)()
	msg := Message{Raw: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return msg
	}
	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return msg
	}
	decode := func(v any) any {
		if err := json.Unmarshal([]byte(trimmed), v); err != nil {
			return nil
		}
		return v
	}
	switch env.Type {
	case "oc":
		msg.Event = decode(&OCPoint{})
	case "split":
		msg.Event = decode(&Split{})
	case "tree":
		msg.Event = decode(&Tree{})
	case "importance":
		msg.Event = decode(&Importance{})
	case "run":
		msg.Event = decode(&Run{})
	case "stats":
		msg.Event = decode(&Stats{})
	case "step_marker":
		msg.Event = decode(&StepMarker{})
	}
	return msg
}

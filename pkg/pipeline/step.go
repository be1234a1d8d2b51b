// Package pipeline models the NeuroLabel demo pipeline the dashboard
// fronts: the five step vocabulary, which artefacts each step leaves on
// disk, running a step as a subprocess, and the structured events a run
// emits alongside its plain log output.
package pipeline

import "fmt"

// Step ids, in pipeline order. These double as the card element ids in the
// dashboard scene and as the tint vocabulary of the particle background.
const (
	StepCollect  = "collect"
	StepProcess  = "process"
	StepTrain    = "train"
	StepSimulate = "simulate"
	StepDemo     = "demo"
)

// Step describes one pipeline step.
type Step struct {
	ID    string
	Title string
	Blurb string
}

var steps = []Step{
	{ID: StepCollect, Title: "Collect", Blurb: "Record driving sessions with live biosignal capture"},
	{ID: StepProcess, Title: "Process", Blurb: "Score overcognition and split dirty/clean datasets"},
	{ID: StepTrain, Title: "Train", Blurb: "Fit dirty and clean behavior-cloning models"},
	{ID: StepSimulate, Title: "Simulate", Blurb: "Batch-run both models in the simulator"},
	{ID: StepDemo, Title: "Demo", Blurb: "Synthetic end-to-end run: process, train, simulate"},
}

// Steps returns the pipeline steps in order.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// ByID returns the step with the given id.
func ByID(id string) (Step, bool) {
	for _, s := range steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// Valid reports whether id names a pipeline step.
func Valid(id string) bool {
	_, ok := ByID(id)
	return ok
}

// ValidateID returns a descriptive error for unknown step ids.
func ValidateID(id string) error {
	if !Valid(id) {
		return fmt.Errorf("pipeline: invalid step %q (must be one of collect, process, train, simulate, demo)", id)
	}
	return nil
}

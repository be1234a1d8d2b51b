package pipeline

import (
	"os"
	"sort"
)

// Artefacts are the on-disk outputs of the pipeline. Each field is a file
// path; empty paths are ignored by Check.
type Artefacts struct {
	EEGCSV       string `yaml:"eeg_csv"`
	FNIRSCSV     string `yaml:"fnirs_csv"`
	GameJSONL    string `yaml:"game_jsonl"`
	OCScoresCSV  string `yaml:"oc_scores_csv"`
	DatasetDirty string `yaml:"dataset_dirty"`
	DatasetClean string `yaml:"dataset_clean"`
	ModelDirty   string `yaml:"model_dirty"`
	ModelClean   string `yaml:"model_clean"`
	ResultsDirty string `yaml:"results_dirty"`
	ResultsClean string `yaml:"results_clean"`
}

// named returns the artefact paths keyed by their status name.
func (a Artefacts) named() map[string]string {
	return map[string]string{
		"eeg_csv":       a.EEGCSV,
		"fnirs_csv":     a.FNIRSCSV,
		"game_jsonl":    a.GameJSONL,
		"oc_scores_csv": a.OCScoresCSV,
		"dataset_dirty": a.DatasetDirty,
		"dataset_clean": a.DatasetClean,
		"model_dirty":   a.ModelDirty,
		"model_clean":   a.ModelClean,
		"results_dirty": a.ResultsDirty,
		"results_clean": a.ResultsClean,
	}
}

// Paths returns every configured artefact path, for watchers.
func (a Artefacts) Paths() []string {
	var out []string
	for _, p := range a.named() {
		if p != "" {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Status maps artefact names to whether the file exists on disk.
type Status map[string]bool

// Check stats every configured artefact.
func (a Artefacts) Check() Status {
	st := make(Status)
	for name, path := range a.named() {
		if path == "" {
			st[name] = false
			continue
		}
		_, err := os.Stat(path)
		st[name] = err == nil
	}
	return st
}

// stepArtefacts names the artefacts each step is expected to produce, used
// to summarize card readiness.
var stepArtefacts = map[string][]string{
	StepCollect:  {"game_jsonl"},
	StepProcess:  {"oc_scores_csv", "dataset_dirty", "dataset_clean"},
	StepTrain:    {"model_dirty", "model_clean"},
	StepSimulate: {"results_dirty", "results_clean"},
	StepDemo:     {"results_dirty", "results_clean"},
}

// StepReady reports whether every artefact of the given step exists.
func (s Status) StepReady(stepID string) bool {
	names, ok := stepArtefacts[stepID]
	if !ok {
		return false
	}
	for _, n := range names {
		if !s[n] {
			return false
		}
	}
	return true
}

package pipeline

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/neurodeck/pkg/metrics"
)

// RunRecord is one simulator episode as stored in a results file. The
// recorder has used a few field names over time; alternates are folded in
// after decoding.
type RunRecord struct {
	AliveTime    float64 `json:"alive_time"`
	Steps        float64 `json:"steps"`
	Reward       float64 `json:"reward"`
	TotalReward  float64 `json:"total_reward"`
	Route        float64 `json:"route_completion"`
	CrashVehicle bool    `json:"crash_vehicle"`
	OutOfRoad    bool    `json:"out_of_road"`
}

// Alive returns the episode's survival time, whichever field recorded it.
func (r RunRecord) Alive() float64 {
	if r.AliveTime != 0 {
		return r.AliveTime
	}
	return r.Steps
}

// TotalRewardValue returns the episode reward, whichever field recorded it.
func (r RunRecord) TotalRewardValue() float64 {
	if r.Reward != 0 {
		return r.Reward
	}
	return r.TotalReward
}

// Crash classifies the episode ending: "vehicle", "road" or "none".
func (r RunRecord) Crash() string {
	switch {
	case r.CrashVehicle:
		return "vehicle"
	case r.OutOfRoad:
		return "road"
	default:
		return "none"
	}
}

// Summary aggregates a batch of episodes for one model.
type Summary struct {
	Model    string
	Episodes int

	AvgAlive  float64
	AvgReward float64
	AvgRoute  float64

	StdAlive  float64
	StdReward float64
	StdRoute  float64

	Crashes int
}

// LoadResults reads a results file, accepting both the bare-list and the
// {"runs": [...]} layouts.
func LoadResults(path string) ([]RunRecord, error) {
	defer metrics.Timer(metrics.ResultsLoad)()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading results: %w", err)
	}
	var list []RunRecord
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Runs []RunRecord `json:"runs"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("pipeline: parsing results %s: %w", path, err)
	}
	return wrapped.Runs, nil
}

// Summarize computes batch statistics over a model's episodes.
func Summarize(model string, runs []RunRecord) Summary {
	s := Summary{Model: model, Episodes: len(runs)}
	if len(runs) == 0 {
		return s
	}
	alive := make([]float64, len(runs))
	reward := make([]float64, len(runs))
	route := make([]float64, len(runs))
	for i, r := range runs {
		alive[i] = r.Alive()
		reward[i] = r.TotalRewardValue()
		route[i] = r.Route
		if r.Crash() != "none" {
			s.Crashes++
		}
	}
	s.AvgAlive = stat.Mean(alive, nil)
	s.AvgReward = stat.Mean(reward, nil)
	s.AvgRoute = stat.Mean(route, nil)
	if len(runs) > 1 {
		s.StdAlive = stat.StdDev(alive, nil)
		s.StdReward = stat.StdDev(reward, nil)
		s.StdRoute = stat.StdDev(route, nil)
	}
	return s
}

// Compare loads and summarizes the dirty and clean results side by side.
// Missing files yield zero-episode summaries rather than errors, matching
// the "artefact not produced yet" state.
func Compare(dirtyPath, cleanPath string) (dirty, clean Summary) {
	dirty = Summary{Model: "dirty"}
	clean = Summary{Model: "clean"}
	if runs, err := LoadResults(dirtyPath); err == nil {
		dirty = Summarize("dirty", runs)
	}
	if runs, err := LoadResults(cleanPath); err == nil {
		clean = Summarize("clean", runs)
	}
	return dirty, clean
}

// Package config handles loading and saving neurodeck configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/neurodeck/config.yaml
//   - State:   ~/.local/state/neurodeck/ (run history database)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/neurodeck/pkg/pipeline"
)

// Device modes supported by the signal pipeline.
const (
	DeviceEEG   = "eeg"
	DeviceFNIRS = "fnirs"
)

// Game backends the simulator can drive.
const (
	BackendVelocity  = "velocity"
	BackendMetaDrive = "metadrive"
)

// PipelineConfig describes how to run pipeline steps and where their
// artefacts land.
type PipelineConfig struct {
	// Command is the argv prefix used to launch a step; the step id is
	// appended as the final argument.
	Command     []string           `yaml:"command,omitempty"`
	DataDir     string             `yaml:"data_dir,omitempty"`
	DeviceMode  string             `yaml:"device_mode,omitempty"`  // eeg, fnirs
	GameBackend string             `yaml:"game_backend,omitempty"` // velocity, metadrive
	Artefacts   pipeline.Artefacts `yaml:"artefacts,omitempty"`
}

// UIConfig holds dashboard preference settings.
type UIConfig struct {
	ReducedMotion bool     `yaml:"reduced_motion,omitempty"` // Skip animations, jump to end states
	FPS           int      `yaml:"fps,omitempty"`            // Frame rate cap (default 30)
	PeekOpacity   float64  `yaml:"peek_opacity,omitempty"`   // Dimming for the peeking card (0-1)
	Particles     *bool    `yaml:"particles,omitempty"`      // Background particle field
	Favorites     []string `yaml:"favorites,omitempty"`      // Starred step IDs
}

// IsFavorite reports whether a step is starred in the UI preferences.
func (c *Config) IsFavorite(stepID string) bool {
	for _, id := range c.UI.Favorites {
		if id == stepID {
			return true
		}
	}
	return false
}

// ToggleFavorite stars an unstarred step and unstars a starred one.
func (c *Config) ToggleFavorite(stepID string) {
	for i, id := range c.UI.Favorites {
		if id == stepID {
			c.UI.Favorites = append(c.UI.Favorites[:i], c.UI.Favorites[i+1:]...)
			return
		}
	}
	c.UI.Favorites = append(c.UI.Favorites, stepID)
}

// Config is the top-level configuration for neurodeck.
type Config struct {
	Pipeline    PipelineConfig `yaml:"pipeline,omitempty"`
	UI          UIConfig       `yaml:"ui,omitempty"`
	HistoryPath string         `yaml:"history_path,omitempty"` // Run history database
}

// DefaultConfig returns a Config with sensible defaults. Artefact paths
// are derived from the data directory.
func DefaultConfig() Config {
	cfg := Config{
		Pipeline: PipelineConfig{
			Command:     []string{"python", "-m", "neuro_pipeline"},
			DataDir:     "data",
			DeviceMode:  DeviceEEG,
			GameBackend: BackendVelocity,
		},
		UI: UIConfig{
			FPS:         30,
			PeekOpacity: 0.6,
		},
	}
	cfg.Pipeline.Artefacts = DefaultArtefacts(cfg.Pipeline.DataDir)
	return cfg
}

// DefaultArtefacts returns the conventional artefact layout under dataDir.
func DefaultArtefacts(dataDir string) pipeline.Artefacts {
	j := func(parts ...string) string {
		return filepath.Join(append([]string{dataDir}, parts...)...)
	}
	return pipeline.Artefacts{
		EEGCSV:       j("raw", "eeg.csv"),
		FNIRSCSV:     j("raw", "fnirs.csv"),
		GameJSONL:    j("raw", "game.jsonl"),
		OCScoresCSV:  j("processed", "oc_scores.csv"),
		DatasetDirty: j("processed", "dataset_dirty.npz"),
		DatasetClean: j("processed", "dataset_clean.npz"),
		ModelDirty:   j("models", "model_dirty.zip"),
		ModelClean:   j("models", "model_clean.zip"),
		ResultsDirty: j("results", "results_dirty.json"),
		ResultsClean: j("results", "results_clean.json"),
	}
}

// ConfigDir returns the XDG config directory for neurodeck.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "neurodeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "neurodeck")
}

// StateDir returns the XDG state directory for neurodeck.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "neurodeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "neurodeck")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// ResolvedHistoryPath returns the run history database path, defaulting
// to the XDG state directory.
func (c Config) ResolvedHistoryPath() string {
	if c.HistoryPath != "" {
		return expandHome(c.HistoryPath)
	}
	dir := StateDir()
	if dir == "" {
		return "history.db"
	}
	return filepath.Join(dir, "history.db")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Pipeline.DataDir = expandHome(cfg.Pipeline.DataDir)

	// A config that only sets data_dir still gets the conventional
	// artefact layout underneath it.
	if cfg.Pipeline.Artefacts == (pipeline.Artefacts{}) {
		cfg.Pipeline.Artefacts = DefaultArtefacts(cfg.Pipeline.DataDir)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks enum fields and numeric ranges.
func (c Config) Validate() error {
	switch c.Pipeline.DeviceMode {
	case "", DeviceEEG, DeviceFNIRS:
	default:
		return fmt.Errorf("invalid device_mode %q (want %s or %s)", c.Pipeline.DeviceMode, DeviceEEG, DeviceFNIRS)
	}
	switch c.Pipeline.GameBackend {
	case "", BackendVelocity, BackendMetaDrive:
	default:
		return fmt.Errorf("invalid game_backend %q (want %s or %s)", c.Pipeline.GameBackend, BackendVelocity, BackendMetaDrive)
	}
	if c.UI.PeekOpacity < 0 || c.UI.PeekOpacity > 1 {
		return fmt.Errorf("peek_opacity %v out of range [0,1]", c.UI.PeekOpacity)
	}
	if c.UI.FPS < 0 || c.UI.FPS > 120 {
		return fmt.Errorf("fps %d out of range [0,120]", c.UI.FPS)
	}
	return nil
}

// ParticlesEnabled reports whether the background particle field should
// render. Unset means enabled.
func (c Config) ParticlesEnabled() bool {
	if c.UI.Particles == nil {
		return true
	}
	return *c.UI.Particles
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

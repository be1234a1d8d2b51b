package ui

import (
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/neurodeck/pkg/config"
)

// configForm wraps a huh form editing the subset of settings that make
// sense to change from inside the dashboard.
type configForm struct {
	form *huh.Form

	deviceMode    string
	gameBackend   string
	reducedMotion bool
}

func newConfigForm(cfg config.Config) *configForm {
	f := &configForm{
		deviceMode:    cfg.Pipeline.DeviceMode,
		gameBackend:   cfg.Pipeline.GameBackend,
		reducedMotion: cfg.UI.ReducedMotion,
	}

	f.form = newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Device mode").
				Options(
					huh.NewOption("EEG", config.DeviceEEG),
					huh.NewOption("fNIRS", config.DeviceFNIRS),
				).
				Value(&f.deviceMode),
			huh.NewSelect[string]().
				Title("Game backend").
				Options(
					huh.NewOption("Velocity", config.BackendVelocity),
					huh.NewOption("MetaDrive", config.BackendMetaDrive),
				).
				Value(&f.gameBackend),
			huh.NewConfirm().
				Title("Reduced motion").
				Description("Skip animations, jump straight to end states").
				Value(&f.reducedMotion),
		),
	)

	return f
}

// newForm creates a form with appropriate settings based on TTY detection.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	return form
}

// Done reports whether the form has been submitted or aborted.
func (f *configForm) Done() bool {
	return f.form.State == huh.StateCompleted || f.form.State == huh.StateAborted
}

// Apply writes the form values back onto the config. Returns false when
// the form was aborted.
func (f *configForm) Apply(cfg *config.Config) bool {
	if f.form.State != huh.StateCompleted {
		return false
	}
	cfg.Pipeline.DeviceMode = f.deviceMode
	cfg.Pipeline.GameBackend = f.gameBackend
	cfg.UI.ReducedMotion = f.reducedMotion
	return true
}

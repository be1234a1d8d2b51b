package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/neurodeck/pkg/pipeline"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme bundles the dashboard's colors and pre-computed styles.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary lipgloss.AdaptiveColor
	Subtext lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor

	// Artefact / run states
	Ready   lipgloss.AdaptiveColor
	Missing lipgloss.AdaptiveColor
	Running lipgloss.AdaptiveColor
	Failed  lipgloss.AdaptiveColor

	// Per-step accent tints, also used by the particle field
	StepTints map[string]lipgloss.AdaptiveColor

	// Pre-computed styles, created once instead of per-frame
	Base        lipgloss.Style
	HeaderText  lipgloss.Style
	ConfigText  lipgloss.Style
	CardTitle   lipgloss.Style
	CardBody    lipgloss.Style
	CompactText lipgloss.Style
	BadgeReady  lipgloss.Style
	BadgeWait   lipgloss.Style
	BadgeRun    lipgloss.Style
	BadgeFail   lipgloss.Style
	PanelTitle  lipgloss.Style
	Dim         lipgloss.Style
	VeryDim     lipgloss.Style
	HelpKey     lipgloss.Style
	HelpText    lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary: lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Subtext: lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Muted:   lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Border:  lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},

		Ready:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Missing: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		Running: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Failed:  lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},

		StepTints: map[string]lipgloss.AdaptiveColor{
			pipeline.StepCollect:  {Light: "#006080", Dark: "#8BE9FD"}, // Cyan
			pipeline.StepProcess:  {Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
			pipeline.StepTrain:    {Light: "#B06800", Dark: "#FFB86C"}, // Orange
			pipeline.StepSimulate: {Light: "#007700", Dark: "#50FA7B"}, // Green
			pipeline.StepDemo:     {Light: "#CC0000", Dark: "#FF79C6"}, // Pink
		},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})
	t.HeaderText = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ConfigText = r.NewStyle().Foreground(t.Subtext)
	t.CardTitle = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.CardBody = t.Base
	t.CompactText = r.NewStyle().Foreground(t.Muted)
	t.BadgeReady = r.NewStyle().Foreground(t.Ready).Bold(true)
	t.BadgeWait = r.NewStyle().Foreground(t.Missing)
	t.BadgeRun = r.NewStyle().Foreground(t.Running).Bold(true)
	t.BadgeFail = r.NewStyle().Foreground(t.Failed).Bold(true)
	t.PanelTitle = r.NewStyle().Foreground(t.Primary).Bold(true).Underline(true)
	t.Dim = r.NewStyle().Foreground(t.Subtext)
	t.VeryDim = r.NewStyle().Foreground(t.Muted).Faint(true)
	t.HelpKey = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.HelpText = r.NewStyle().Foreground(t.Subtext)

	return t
}

// StepTint returns the accent color for a step, falling back to Primary.
func (t Theme) StepTint(stepID string) lipgloss.AdaptiveColor {
	if c, ok := t.StepTints[stepID]; ok {
		return c
	}
	return t.Primary
}

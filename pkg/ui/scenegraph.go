package ui

import (
	"fmt"

	"github.com/vanderheijden86/neurodeck/pkg/config"
	"github.com/vanderheijden86/neurodeck/pkg/pipeline"
	"github.com/vanderheijden86/neurodeck/pkg/scene"
)

// Element ids. Cards carry their step id so the animation engine can look
// them up directly; everything else is fixed.
const (
	idHeader  = "header"
	idConfig  = "config"
	idSteps   = "steps"
	idResults = "results"
)

func compactID(stepID string) string { return "compact-" + stepID }

// headerContent is the payload attached to the header element.
type headerContent struct {
	Title    string
	Subtitle string
}

// configContent is the payload attached to the config strip.
type configContent struct {
	DeviceMode  string
	GameBackend string
}

// cardState is the badge state shown in a card's chrome row.
type cardState int

const (
	cardStatePending cardState = iota
	cardStateReady
	cardStateRunning
	cardStateFailed
)

// cardContent is the payload attached to a step card.
type cardContent struct {
	Step     pipeline.Step
	State    cardState
	Favorite bool
	Detail   []string // expanded body lines, streamed run output last
}

// compactContent is the one-line summary shown inside a collapsed card.
// LastRun annotates it with the most recent recorded run, when one exists.
type compactContent struct {
	Line    string
	LastRun string
}

// panelContent is the payload attached to the results panel.
type panelContent struct {
	Title string
	Lines []string
}

// Card geometry in rows.
const (
	headerHeight  = 3
	configHeight  = 2
	cardHeight    = 5
	compactHeight = 2
	panelHeight   = 8
)

// BuildScene constructs the dashboard document: header, config strip, the
// step card list and the results panel. Ids are stable across rebuilds so
// an expanded card survives a re-render by lookup.
func BuildScene(width, height int, cfg config.Config, status pipeline.Status) *scene.Document {
	doc := scene.NewDocument("dashboard", float64(width), float64(height))
	root := doc.Root()

	header := doc.MustCreateElement(idHeader, scene.RoleHeader)
	header.SetBaseHeight(headerHeight)
	header.Payload = headerContent{
		Title:    "neurodeck",
		Subtitle: "operant conditioning pipeline",
	}
	doc.AppendChild(root, header)

	conf := doc.MustCreateElement(idConfig, scene.RoleConfig)
	conf.SetBaseHeight(configHeight)
	conf.Payload = configContent{
		DeviceMode:  cfg.Pipeline.DeviceMode,
		GameBackend: cfg.Pipeline.GameBackend,
	}
	doc.AppendChild(root, conf)

	list := doc.MustCreateElement(idSteps, scene.RoleList)
	doc.AppendChild(root, list)

	for _, step := range pipeline.Steps() {
		card := doc.MustCreateElement(step.ID, scene.RoleCard)
		card.SetBaseHeight(cardHeight)
		card.Payload = cardContent{
			Step:     step,
			State:    artefactState(step.ID, status),
			Favorite: cfg.IsFavorite(step.ID),
		}
		doc.AppendChild(list, card)

		compact := doc.MustCreateElement(compactID(step.ID), scene.RoleCompact)
		compact.SetBaseHeight(compactHeight)
		compact.Payload = compactContent{Line: compactLine(step, status)}
		doc.AppendChild(card, compact)
	}

	panel := doc.MustCreateElement(idResults, scene.RolePanel)
	panel.SetBaseHeight(panelHeight)
	panel.Payload = panelContent{Title: "results"}
	doc.AppendChild(root, panel)

	return doc
}

// compactLine summarizes a step's artefact state in one line.
func compactLine(step pipeline.Step, status pipeline.Status) string {
	if status.StepReady(step.ID) {
		return "✓ artefacts ready"
	}
	return "· waiting for artefacts"
}

// artefactState derives the badge state from artefact presence alone.
func artefactState(stepID string, status pipeline.Status) cardState {
	if status.StepReady(stepID) {
		return cardStateReady
	}
	return cardStatePending
}

// SetCardState overrides a card's badge state, e.g. while a run is in
// flight. Artefact-driven refreshes re-derive ready/pending but leave a
// running card alone.
func SetCardState(doc *scene.Document, stepID string, st cardState) {
	card := doc.ElementByID(stepID)
	if card == nil {
		return
	}
	if content, ok := card.Payload.(cardContent); ok {
		content.State = st
		card.Payload = content
	}
}

// SetFavorite updates a card's star marker.
func SetFavorite(doc *scene.Document, stepID string, fav bool) {
	card := doc.ElementByID(stepID)
	if card == nil {
		return
	}
	if content, ok := card.Payload.(cardContent); ok {
		content.Favorite = fav
		card.Payload = content
	}
}

// RefreshStatus updates card payloads after an artefact change without
// touching the tree shape. The expanded card, if any, keeps its geometry;
// only text changes.
func RefreshStatus(doc *scene.Document, status pipeline.Status) {
	for _, step := range pipeline.Steps() {
		if card := doc.ElementByID(step.ID); card != nil {
			if content, ok := card.Payload.(cardContent); ok && content.State != cardStateRunning {
				content.State = artefactState(step.ID, status)
				card.Payload = content
			}
		}
		if compact := doc.ElementByID(compactID(step.ID)); compact != nil {
			content, _ := compact.Payload.(compactContent)
			content.Line = compactLine(step, status)
			compact.Payload = content
		}
	}
}

// SetLastRun updates a collapsed card's run history annotation.
func SetLastRun(doc *scene.Document, stepID, text string) {
	compact := doc.ElementByID(compactID(stepID))
	if compact == nil {
		return
	}
	content, _ := compact.Payload.(compactContent)
	content.LastRun = text
	compact.Payload = content
}

// AppendResultLines appends extra rows below the comparison in the results
// panel.
func AppendResultLines(doc *scene.Document, lines ...string) {
	panel := doc.ElementByID(idResults)
	if panel == nil {
		return
	}
	content, ok := panel.Payload.(panelContent)
	if !ok {
		return
	}
	content.Lines = append(content.Lines, lines...)
	panel.Payload = content
}

// AppendCardDetail appends streamed run output lines to a card body,
// keeping at most keep lines.
func AppendCardDetail(doc *scene.Document, stepID string, keep int, lines ...string) {
	card := doc.ElementByID(stepID)
	if card == nil {
		return
	}
	content, ok := card.Payload.(cardContent)
	if !ok {
		return
	}
	content.Detail = append(content.Detail, lines...)
	if keep > 0 && len(content.Detail) > keep {
		content.Detail = content.Detail[len(content.Detail)-keep:]
	}
	card.Payload = content
}

// SetResults replaces the results panel body with a dirty/clean comparison.
func SetResults(doc *scene.Document, dirty, clean pipeline.Summary) {
	panel := doc.ElementByID(idResults)
	if panel == nil {
		return
	}
	panel.Payload = panelContent{
		Title: "results",
		Lines: comparisonLines(dirty, clean),
	}
}

// comparisonLines formats the dirty/clean summaries side by side.
func comparisonLines(dirty, clean pipeline.Summary) []string {
	if dirty.Episodes == 0 && clean.Episodes == 0 {
		return []string{"no simulation results yet"}
	}
	row := func(label string, d, c float64) string {
		return fmt.Sprintf("%-12s dirty %8.2f   clean %8.2f", label, d, c)
	}
	return []string{
		fmt.Sprintf("%-12s dirty %8d   clean %8d", "episodes", dirty.Episodes, clean.Episodes),
		row("avg alive", dirty.AvgAlive, clean.AvgAlive),
		row("avg reward", dirty.AvgReward, clean.AvgReward),
		row("avg route", dirty.AvgRoute, clean.AvgRoute),
		fmt.Sprintf("%-12s dirty %8d   clean %8d", "crashes", dirty.Crashes, clean.Crashes),
	}
}

package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/neurodeck/internal/datasource"
	"github.com/vanderheijden86/neurodeck/pkg/config"
	"github.com/vanderheijden86/neurodeck/pkg/debug"
	"github.com/vanderheijden86/neurodeck/pkg/export"
	"github.com/vanderheijden86/neurodeck/pkg/flip"
	"github.com/vanderheijden86/neurodeck/pkg/metrics"
	"github.com/vanderheijden86/neurodeck/pkg/pipeline"
	"github.com/vanderheijden86/neurodeck/pkg/scene"
	"github.com/vanderheijden86/neurodeck/pkg/watcher"
)

// How many streamed output lines an expanded card keeps.
const detailKeep = 12

// frameMsg drives the animation timeline.
type frameMsg time.Time

// artefactChangedMsg is sent when a watched artefact changes on disk.
type artefactChangedMsg struct{}

// transitionDoneMsg reports a finished expand or collapse.
type transitionDoneMsg struct {
	expand bool
	err    error
}

// jobOutputMsg carries one line of streamed step output.
type jobOutputMsg struct {
	job *pipeline.Job
	msg pipeline.Message
}

// jobDoneMsg reports a finished pipeline step run.
type jobDoneMsg struct {
	job *pipeline.Job
}

// Model is the dashboard's bubbletea model. The scene document and the
// animation engine hold all visual state; the model holds selection and
// mode flags and translates messages into engine calls.
type Model struct {
	cfg    config.Config
	theme  Theme
	steps  []pipeline.Step
	runner *pipeline.Runner

	doc    *scene.Document
	engine *flip.Engine

	history  *datasource.History
	watchers []*watcher.Watcher

	particles *particleField

	width, height int
	selected      int
	showHelp      bool
	helpVP        viewport.Model
	form          *configForm
	transitioning bool
	statusLine    string
	lastFrame     time.Time
	quitting      bool
}

// NewModel builds the dashboard model. history may be nil when the run
// database could not be opened; runs are then simply not recorded.
func NewModel(cfg config.Config, history *datasource.History) Model {
	width, height := 120, 40

	status := cfg.Pipeline.Artefacts.Check()
	doc := BuildScene(width, height, cfg, status)

	var opts []flip.Option
	if cfg.UI.ReducedMotion {
		opts = append(opts, flip.WithReducedMotion())
	}
	if cfg.UI.PeekOpacity > 0 {
		opts = append(opts, flip.WithPeekOpacity(cfg.UI.PeekOpacity))
	}

	m := Model{
		cfg:       cfg,
		theme:     DefaultTheme(lipgloss.DefaultRenderer()),
		steps:     pipeline.Steps(),
		runner:    pipeline.NewRunner(cfg.Pipeline.Command),
		doc:       doc,
		engine:    flip.NewEngine(doc, opts...),
		history:   history,
		width:     width,
		height:    height,
		lastFrame: time.Now(),
	}
	if cfg.ParticlesEnabled() {
		m.particles = newParticleField(width, height, 40)
	}

	for _, path := range cfg.Pipeline.Artefacts.Paths() {
		w, err := watcher.NewWatcher(path)
		if err != nil {
			debug.Log("watcher for %s: %v", path, err)
			continue
		}
		m.watchers = append(m.watchers, w)
	}

	m.refreshHistory()
	return m
}

// refreshHistory annotates each card with its most recent recorded run and
// is a no-op without a history store.
func (m *Model) refreshHistory() {
	if m.history == nil {
		return
	}
	for _, step := range m.steps {
		last, err := m.history.Last(step.ID)
		if err != nil || last == nil {
			continue
		}
		SetLastRun(m.doc, step.ID, fmt.Sprintf("last run %s, %s", last.Outcome, formatTimeRel(last.Started)))
	}
}

// fps returns the configured frame rate with a sane floor.
func (m Model) fps() int {
	if m.cfg.UI.FPS > 0 {
		return m.cfg.UI.FPS
	}
	return 30
}

func (m Model) frameTick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps()), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// watchChanges blocks on one watcher's change channel.
func watchChanges(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return artefactChangedMsg{}
	}
}

// waitJobOutput blocks for the next streamed line of a running step.
func waitJobOutput(job *pipeline.Job) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-job.Messages()
		if !ok {
			return jobDoneMsg{job: job}
		}
		return jobOutputMsg{job: job, msg: msg}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.frameTick()}
	for _, w := range m.watchers {
		if err := w.Start(); err != nil {
			debug.Log("starting watcher %s: %v", w.Path(), err)
			continue
		}
		cmds = append(cmds, watchChanges(w))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case frameMsg:
		now := time.Time(msg)
		dt := now.Sub(m.lastFrame)
		if dt < 0 || dt > time.Second {
			dt = time.Second / time.Duration(m.fps())
		}
		m.lastFrame = now
		m.doc.Step(dt)
		if m.particles != nil {
			m.particles.Step(dt)
		}
		if m.quitting {
			return m, nil
		}
		return m, m.frameTick()

	case artefactChangedMsg:
		RefreshStatus(m.doc, m.cfg.Pipeline.Artefacts.Check())
		m.reloadResults()
		// Re-arm every watcher; the channel is shared per watcher and
		// coalesced, so one command per event is enough.
		var cmds []tea.Cmd
		for _, w := range m.watchers {
			cmds = append(cmds, watchChanges(w))
		}
		return m, tea.Batch(cmds...)

	case transitionDoneMsg:
		m.transitioning = false
		if msg.err != nil && msg.err != flip.ErrBusy {
			m.statusLine = msg.err.Error()
		}
		return m, nil

	case jobOutputMsg:
		m.applyJobOutput(msg.job, msg.msg)
		return m, waitJobOutput(msg.job)

	case jobDoneMsg:
		return m.handleJobDone(msg.job)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	if msg.Width <= 0 || msg.Height <= 0 {
		return m, nil
	}
	m.width, m.height = msg.Width, msg.Height
	if m.showHelp {
		m.helpVP.Width = msg.Width
		m.helpVP.Height = msg.Height
		m.helpVP.SetContent(renderHelp(msg.Width))
	}
	// Resizing mid-expansion would need a re-measure pass; collapse
	// first keeps the geometry honest.
	if m.engine.Expanded() && !m.transitioning {
		m.transitioning = true
		engine := m.engine
		m.doc.SetViewport(float64(msg.Width), float64(msg.Height))
		return m, func() tea.Msg {
			return transitionDoneMsg{expand: false, err: engine.Collapse(context.Background())}
		}
	}
	m.doc.SetViewport(float64(msg.Width), float64(msg.Height))
	if m.particles != nil {
		m.particles.Resize(msg.Width, msg.Height)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		for _, w := range m.watchers {
			w.Stop()
		}
		if m.history != nil {
			m.history.Close()
		}
		return m, tea.Quit

	case "?":
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		m.helpVP = viewport.New(m.width, m.height)
		m.helpVP.SetContent(renderHelp(m.width))
		m.showHelp = true
		return m, nil
	}

	if m.showHelp {
		switch msg.String() {
		case "j", "k", "up", "down", "pgup", "pgdown", "d", "u":
			var cmd tea.Cmd
			m.helpVP, cmd = m.helpVP.Update(msg)
			return m, cmd
		}
		m.showHelp = false
		return m, nil
	}

	switch msg.String() {
	case "j", "down":
		if !m.engine.Expanded() && m.selected < len(m.steps)-1 {
			m.selected++
		}
		return m, nil

	case "k", "up":
		if !m.engine.Expanded() && m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "enter":
		return m.startExpand()

	case "esc":
		return m.startCollapse()

	case "r":
		return m.startRun()

	case "c":
		m.form = newConfigForm(m.cfg)
		return m, m.form.form.Init()

	case "y":
		return m.yankResults()

	case "s":
		return m.saveChart()

	case "f":
		return m.toggleFavorite()
	}

	return m, nil
}

func (m Model) startExpand() (tea.Model, tea.Cmd) {
	if m.transitioning || m.engine.Expanded() {
		return m, nil
	}
	m.transitioning = true
	m.statusLine = ""
	engine, stepID := m.engine, m.steps[m.selected].ID
	return m, func() tea.Msg {
		return transitionDoneMsg{expand: true, err: engine.Expand(context.Background(), stepID)}
	}
}

func (m Model) startCollapse() (tea.Model, tea.Cmd) {
	if m.transitioning || !m.engine.Expanded() {
		return m, nil
	}
	m.transitioning = true
	engine := m.engine
	return m, func() tea.Msg {
		return transitionDoneMsg{expand: false, err: engine.Collapse(context.Background())}
	}
}

func (m Model) startRun() (tea.Model, tea.Cmd) {
	step := m.steps[m.selected]
	job, err := m.runner.Run(context.Background(), step.ID)
	if err != nil {
		m.statusLine = err.Error()
		return m, nil
	}
	m.statusLine = "running " + step.ID
	AppendCardDetail(m.doc, step.ID, detailKeep, "$ "+step.ID+" started")
	SetCardState(m.doc, step.ID, cardStateRunning)
	return m, waitJobOutput(job)
}

// applyJobOutput folds one streamed line into the scene.
func (m *Model) applyJobOutput(job *pipeline.Job, msg pipeline.Message) {
	stepID := job.Step.ID

	switch ev := msg.Event.(type) {
	case *pipeline.Stats:
		AppendCardDetail(m.doc, stepID, detailKeep,
			fmt.Sprintf("%s: alive %.1f reward %.1f route %.2f", ev.Model, ev.AvgAlive, ev.AvgReward, ev.AvgRoute))
	case *pipeline.StepMarker:
		AppendCardDetail(m.doc, stepID, detailKeep, fmt.Sprintf("[%s] %s", ev.Status, ev.Name))
	case *pipeline.Run:
		AppendCardDetail(m.doc, stepID, detailKeep,
			fmt.Sprintf("%s #%d alive %.0f reward %.1f", ev.Model, ev.Idx, ev.Alive, ev.Reward))
	default:
		line := strings.TrimRight(msg.Raw, "\r\n")
		if line != "" {
			AppendCardDetail(m.doc, stepID, detailKeep, line)
		}
	}
}

func (m Model) handleJobDone(job *pipeline.Job) (tea.Model, tea.Cmd) {
	<-job.Done()
	stepID := job.Step.ID

	outcome := datasource.OutcomeOK
	if err := job.Err(); err != nil {
		outcome = datasource.OutcomeFailed
		m.statusLine = fmt.Sprintf("%s failed: %v", stepID, err)
		AppendCardDetail(m.doc, stepID, detailKeep, "✗ "+err.Error())
	} else {
		m.statusLine = fmt.Sprintf("%s finished in %s", stepID, formatDuration(job.Duration()))
		AppendCardDetail(m.doc, stepID, detailKeep, "✓ done in "+formatDuration(job.Duration()))
	}

	// Clear the running badge so the refresh below re-derives it.
	SetCardState(m.doc, stepID, cardStatePending)
	RefreshStatus(m.doc, m.cfg.Pipeline.Artefacts.Check())
	if outcome == datasource.OutcomeFailed {
		SetCardState(m.doc, stepID, cardStateFailed)
	}
	summary := m.reloadResults()

	if m.history != nil {
		if _, err := m.history.Record(datasource.RunEntry{
			Step:     stepID,
			Started:  job.Started,
			Duration: job.Duration(),
			Outcome:  outcome,
			Summary:  summary,
		}); err != nil {
			debug.Log("recording run: %v", err)
		}
		m.refreshHistory()
	}
	return m, nil
}

// reloadResults re-reads the simulation artefacts into the results panel
// and returns the clean summary when present.
func (m *Model) reloadResults() *pipeline.Summary {
	dirty, clean := pipeline.Compare(
		m.cfg.Pipeline.Artefacts.ResultsDirty,
		m.cfg.Pipeline.Artefacts.ResultsClean,
	)
	SetResults(m.doc, dirty, clean)
	m.appendRunHistory()
	if clean.Episodes == 0 {
		return nil
	}
	return &clean
}

// appendRunHistory adds the recorded simulate runs below the comparison.
func (m *Model) appendRunHistory() {
	if m.history == nil {
		return
	}
	recent, err := m.history.Recent(pipeline.StepSimulate, 3)
	if err != nil || len(recent) == 0 {
		return
	}
	total, err := m.history.Count(pipeline.StepSimulate)
	if err != nil {
		total = len(recent)
	}
	lines := []string{fmt.Sprintf("simulate runs on record: %d", total)}
	for _, r := range recent {
		lines = append(lines, fmt.Sprintf("  %s %s (%s)", r.Outcome, formatTimeRel(r.Started), formatDuration(r.Duration)))
	}
	AppendResultLines(m.doc, lines...)
}

// toggleFavorite stars or unstars the selected step and persists the
// preference.
func (m Model) toggleFavorite() (tea.Model, tea.Cmd) {
	step := m.steps[m.selected]
	m.cfg.ToggleFavorite(step.ID)
	SetFavorite(m.doc, step.ID, m.cfg.IsFavorite(step.ID))
	if err := config.Save(m.cfg); err != nil {
		m.statusLine = "saving config: " + err.Error()
	}
	return m, nil
}

func (m Model) yankResults() (tea.Model, tea.Cmd) {
	dirty, clean := pipeline.Compare(
		m.cfg.Pipeline.Artefacts.ResultsDirty,
		m.cfg.Pipeline.Artefacts.ResultsClean,
	)
	text := strings.Join(comparisonLines(dirty, clean), "\n")
	if err := clipboard.WriteAll(text); err != nil {
		m.statusLine = "clipboard: " + err.Error()
	} else {
		m.statusLine = "results copied"
	}
	return m, nil
}

// saveChart writes the comparison chart next to the simulation results.
func (m Model) saveChart() (tea.Model, tea.Cmd) {
	dirty, clean := pipeline.Compare(
		m.cfg.Pipeline.Artefacts.ResultsDirty,
		m.cfg.Pipeline.Artefacts.ResultsClean,
	)
	path := filepath.Join(filepath.Dir(m.cfg.Pipeline.Artefacts.ResultsDirty), "comparison.svg")
	if err := export.SaveChart(export.ChartOptions{Path: path, Dirty: dirty, Clean: clean}); err != nil {
		m.statusLine = "export: " + err.Error()
	} else {
		m.statusLine = "chart saved to " + path
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	fm, cmd := m.form.form.Update(msg)
	if f, ok := fm.(*huh.Form); ok {
		m.form.form = f
	}

	if m.form.Done() {
		if m.form.Apply(&m.cfg) {
			m.engine.SetReducedMotion(m.cfg.UI.ReducedMotion)
			if err := config.Save(m.cfg); err != nil {
				m.statusLine = "saving config: " + err.Error()
			} else {
				m.statusLine = "config saved"
			}
			// Config edits change the config strip text.
			if conf := m.doc.ElementByID(idConfig); conf != nil {
				conf.Payload = configContent{
					DeviceMode:  m.cfg.Pipeline.DeviceMode,
					GameBackend: m.cfg.Pipeline.GameBackend,
				}
			}
		}
		m.form = nil
	}
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	defer metrics.Timer(metrics.UIRender)()
	if m.form != nil {
		return m.form.form.View()
	}
	if m.showHelp {
		return m.helpVP.View()
	}

	c := newCanvas(m.width, m.height)
	if m.particles != nil {
		m.particles.Paint(c, &m.theme, m.engine)
	}
	paintScene(c, m.doc, &m.theme, m.steps[m.selected].ID)

	frame := c.String()
	return frame + "\n" + m.footer()
}

func (m Model) footer() string {
	var b strings.Builder
	pairs := []struct{ key, label string }{
		{"j/k", "move"},
		{"enter", "expand"},
		{"esc", "collapse"},
		{"r", "run"},
		{"c", "config"},
		{"?", "help"},
		{"q", "quit"},
	}
	for i, p := range pairs {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(m.theme.HelpKey.Render(p.key))
		b.WriteString(" ")
		b.WriteString(m.theme.HelpText.Render(p.label))
	}
	if m.statusLine != "" {
		b.WriteString("   ")
		b.WriteString(m.theme.Dim.Render(truncateCells(m.statusLine, m.width/2, "…")))
	}
	return b.String()
}

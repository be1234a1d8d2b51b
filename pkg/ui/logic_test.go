package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/neurodeck/pkg/config"
	"github.com/vanderheijden86/neurodeck/pkg/pipeline"
	"github.com/vanderheijden86/neurodeck/pkg/scene"
)

// White-box testing of dashboard logic

func testScene(t *testing.T) *scene.Document {
	t.Helper()
	return BuildScene(120, 40, config.DefaultConfig(), pipeline.Status{})
}

func TestBuildSceneShape(t *testing.T) {
	doc := testScene(t)

	for _, id := range []string{idHeader, idConfig, idSteps, idResults} {
		if doc.ElementByID(id) == nil {
			t.Errorf("missing element %q", id)
		}
	}

	list := doc.ElementByID(idSteps)
	cards := list.ChildrenByRole(scene.RoleCard)
	if len(cards) != len(pipeline.Steps()) {
		t.Fatalf("expected %d cards, got %d", len(pipeline.Steps()), len(cards))
	}

	for _, step := range pipeline.Steps() {
		card := doc.ElementByID(step.ID)
		if card == nil {
			t.Fatalf("card for %s missing", step.ID)
		}
		content, ok := card.Payload.(cardContent)
		if !ok {
			t.Fatalf("card %s has no cardContent payload", step.ID)
		}
		if content.Step.ID != step.ID {
			t.Errorf("card %s carries step %s", step.ID, content.Step.ID)
		}
		if doc.ElementByID(compactID(step.ID)) == nil {
			t.Errorf("compact for %s missing", step.ID)
		}
	}
}

func TestRefreshStatusUpdatesPayloads(t *testing.T) {
	doc := testScene(t)

	status := pipeline.Status{"game_jsonl": true}
	RefreshStatus(doc, status)

	card := doc.ElementByID(pipeline.StepCollect)
	if content := card.Payload.(cardContent); content.State != cardStateReady {
		t.Error("collect card should be ready when its artefact exists")
	}
	compact := doc.ElementByID(compactID(pipeline.StepCollect))
	if line := compact.Payload.(compactContent).Line; !strings.Contains(line, "ready") {
		t.Errorf("compact line should mention readiness, got %q", line)
	}

	other := doc.ElementByID(pipeline.StepTrain)
	if content := other.Payload.(cardContent); content.State != cardStatePending {
		t.Error("train card should not be ready")
	}
}

func TestAppendCardDetailKeepsTail(t *testing.T) {
	doc := testScene(t)

	for i := 0; i < 10; i++ {
		AppendCardDetail(doc, pipeline.StepTrain, 3, "line")
	}
	AppendCardDetail(doc, pipeline.StepTrain, 3, "newest")

	content := doc.ElementByID(pipeline.StepTrain).Payload.(cardContent)
	if len(content.Detail) != 3 {
		t.Fatalf("expected 3 kept lines, got %d", len(content.Detail))
	}
	if content.Detail[2] != "newest" {
		t.Errorf("expected newest line kept last, got %q", content.Detail[2])
	}

	// Unknown card ids are ignored.
	AppendCardDetail(doc, "nonexistent", 3, "x")
}

func TestComparisonLines(t *testing.T) {
	empty := comparisonLines(pipeline.Summary{}, pipeline.Summary{})
	if len(empty) != 1 || !strings.Contains(empty[0], "no simulation results") {
		t.Errorf("unexpected empty-state lines: %v", empty)
	}

	dirty := pipeline.Summary{Model: "dirty", Episodes: 10, AvgAlive: 120.5, Crashes: 4}
	clean := pipeline.Summary{Model: "clean", Episodes: 10, AvgAlive: 310.2, Crashes: 1}
	lines := comparisonLines(dirty, clean)
	if len(lines) != 5 {
		t.Fatalf("expected 5 comparison rows, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "10") {
		t.Errorf("episodes row should carry counts: %q", lines[0])
	}
	if !strings.Contains(lines[1], "120.50") || !strings.Contains(lines[1], "310.20") {
		t.Errorf("avg alive row should carry both values: %q", lines[1])
	}
}

func TestSetResultsPopulatesPanel(t *testing.T) {
	doc := testScene(t)

	SetResults(doc, pipeline.Summary{Episodes: 5}, pipeline.Summary{Episodes: 5})

	panel := doc.ElementByID(idResults)
	content := panel.Payload.(panelContent)
	if len(content.Lines) == 0 {
		t.Fatal("expected panel lines after SetResults")
	}
}

func TestCanvasTextClipsAndTruncates(t *testing.T) {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	c := newCanvas(10, 2)
	c.text(0, 0, 10, "short", &theme.Base)
	c.text(0, 1, 5, "a very long line", &theme.Base)

	row0 := rowRunes(c, 0)
	if !strings.HasPrefix(row0, "short") {
		t.Errorf("row 0 = %q", row0)
	}
	row1 := rowRunes(c, 1)
	if !strings.HasPrefix(row1, "a ve…") {
		t.Errorf("expected truncation with ellipsis, row 1 = %q", row1)
	}
}

func TestCanvasWideRunes(t *testing.T) {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	c := newCanvas(10, 1)
	c.text(0, 0, 10, "日本", &theme.Base)

	if c.cells[0][0].r != '日' {
		t.Errorf("cell 0 = %q", c.cells[0][0].r)
	}
	if c.cells[0][1].r != 0 || !c.cells[0][1].set {
		t.Error("expected shadow cell after wide rune")
	}
	if c.cells[0][2].r != '本' {
		t.Errorf("cell 2 = %q", c.cells[0][2].r)
	}
}

func TestCanvasClearOccludes(t *testing.T) {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	c := newCanvas(10, 3)
	c.text(0, 1, 10, "underneath", &theme.Base)
	c.clear(0, 0, 10, 3, &theme.Base)

	if row := rowRunes(c, 1); strings.TrimSpace(row) != "" {
		t.Errorf("expected cleared row, got %q", row)
	}
}

func TestOpacityStyleBands(t *testing.T) {
	theme := DefaultTheme(lipgloss.DefaultRenderer())

	if got := opacityStyle(&theme, &theme.CardTitle, 1.0); got != &theme.CardTitle {
		t.Error("full opacity should keep the base style")
	}
	if got := opacityStyle(&theme, &theme.CardTitle, 0.6); got != &theme.Dim {
		t.Error("peek opacity should map to the dim style")
	}
	if got := opacityStyle(&theme, &theme.CardTitle, 0.1); got != &theme.VeryDim {
		t.Error("low opacity should map to the faint style")
	}
}

func TestParticleFieldStepAndResize(t *testing.T) {
	f := newParticleField(80, 24, 10)
	if len(f.particles) != 10 {
		t.Fatalf("expected 10 particles, got %d", len(f.particles))
	}

	for i := 0; i < 100; i++ {
		f.Step(500 * time.Millisecond)
	}
	for _, p := range f.particles {
		if p.y < 0 || p.y > float64(f.h) {
			t.Errorf("particle out of bounds after stepping: y=%f", p.y)
		}
	}

	f.Resize(20, 10)
	for _, p := range f.particles {
		if p.x >= 20 || p.y >= 10 {
			t.Errorf("particle out of bounds after resize: (%f, %f)", p.x, p.y)
		}
	}
}

func TestInBox(t *testing.T) {
	b := scene.Rect{Left: 10, Top: 5, Width: 4, Height: 2}
	if !inBox(b, 10, 5) || !inBox(b, 13, 6) {
		t.Error("expected corners inside")
	}
	if inBox(b, 14, 5) || inBox(b, 10, 7) || inBox(b, 9, 5) {
		t.Error("expected outside points excluded")
	}
}

func TestStepTintFallback(t *testing.T) {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	if theme.StepTint(pipeline.StepTrain) == theme.Primary {
		t.Error("train should have its own tint")
	}
	if theme.StepTint("mystery") != theme.Primary {
		t.Error("unknown steps fall back to the primary tint")
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatDuration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("formatDuration = %q", got)
	}
	if got := formatDuration(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("formatDuration = %q", got)
	}
	if got := formatDuration(90 * time.Second); got != "1m30s" {
		t.Errorf("formatDuration = %q", got)
	}

	if got := truncateCells("hello", 10, "…"); got != "hello" {
		t.Errorf("truncateCells = %q", got)
	}
	if got := truncateCells("hello world", 5, "…"); got != "hell…" {
		t.Errorf("truncateCells = %q", got)
	}
	if got := truncateCells("anything", 0, "…"); got != "" {
		t.Errorf("truncateCells = %q", got)
	}

	if got := formatTimeRel(time.Time{}); got != "never" {
		t.Errorf("formatTimeRel zero = %q", got)
	}
	if got := formatTimeRel(time.Now().Add(-2 * time.Hour)); got != "2h ago" {
		t.Errorf("formatTimeRel = %q", got)
	}
}

func rowRunes(c *canvas, y int) string {
	var b strings.Builder
	for x := 0; x < c.w; x++ {
		cl := c.cells[y][x]
		switch {
		case !cl.set:
			b.WriteRune(' ')
		case cl.r == 0:
			// shadow cell
		default:
			b.WriteRune(cl.r)
		}
	}
	return b.String()
}

func TestRunStateDrivesBadge(t *testing.T) {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	doc := testScene(t)

	SetCardState(doc, pipeline.StepTrain, cardStateRunning)
	content := doc.ElementByID(pipeline.StepTrain).Payload.(cardContent)
	if badge, style := statusBadge(content, &theme); badge != "running" || style != &theme.BadgeRun {
		t.Errorf("in-flight badge = %q, want running", badge)
	}

	// Artefact refreshes leave an in-flight card alone.
	RefreshStatus(doc, pipeline.Status{})
	content = doc.ElementByID(pipeline.StepTrain).Payload.(cardContent)
	if content.State != cardStateRunning {
		t.Error("refresh should not clobber a running card")
	}

	SetCardState(doc, pipeline.StepTrain, cardStateFailed)
	content = doc.ElementByID(pipeline.StepTrain).Payload.(cardContent)
	if badge, style := statusBadge(content, &theme); badge != "failed" || style != &theme.BadgeFail {
		t.Errorf("post-failure badge = %q, want failed", badge)
	}

	// A failed badge lasts until the next artefact change re-derives it.
	RefreshStatus(doc, pipeline.Status{})
	content = doc.ElementByID(pipeline.StepTrain).Payload.(cardContent)
	if content.State != cardStatePending {
		t.Error("failed badge should clear on the next refresh")
	}
}

func TestSetFavoriteMarksCard(t *testing.T) {
	doc := testScene(t)

	SetFavorite(doc, pipeline.StepDemo, true)
	content := doc.ElementByID(pipeline.StepDemo).Payload.(cardContent)
	if !content.Favorite {
		t.Fatal("expected the demo card starred")
	}

	// Status refreshes keep the star.
	RefreshStatus(doc, pipeline.Status{})
	content = doc.ElementByID(pipeline.StepDemo).Payload.(cardContent)
	if !content.Favorite {
		t.Error("refresh should not clear a star")
	}

	SetFavorite(doc, pipeline.StepDemo, false)
	if content := doc.ElementByID(pipeline.StepDemo).Payload.(cardContent); content.Favorite {
		t.Error("expected the star removed")
	}

	// Unknown card ids are ignored.
	SetFavorite(doc, "nonexistent", true)
}

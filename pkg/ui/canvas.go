package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/neurodeck/pkg/metrics"
	"github.com/vanderheijden86/neurodeck/pkg/scene"
)

// cell is one terminal cell of the frame being composed. Styles are held
// by pointer so runs sharing a style can be grouped by identity when the
// frame is emitted.
type cell struct {
	r     rune
	style *lipgloss.Style
	set   bool
}

// canvas is a cell grid the scene is painted onto. One logical pixel of
// the scene maps to one terminal cell.
type canvas struct {
	w, h  int
	cells [][]cell
}

func newCanvas(w, h int) *canvas {
	cells := make([][]cell, h)
	for y := range cells {
		cells[y] = make([]cell, w)
	}
	return &canvas{w: w, h: h, cells: cells}
}

func (c *canvas) put(x, y int, r rune, style *lipgloss.Style) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = cell{r: r, style: style, set: true}
}

// text writes a string clipped to maxW cells. Wide runes occupy two cells.
func (c *canvas) text(x, y, maxW int, s string, style *lipgloss.Style) {
	if maxW <= 0 {
		return
	}
	s = truncateCells(s, maxW, "…")
	cx := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if cx+w > x+maxW {
			break
		}
		c.put(cx, y, r, style)
		if w == 2 {
			// Wide rune: blank the shadowed cell so stale content
			// cannot bleed through.
			c.put(cx+1, y, 0, style)
		}
		cx += w
	}
}

// clear fills a rectangle with spaces, occluding anything painted earlier.
func (c *canvas) clear(x, y, w, h int, style *lipgloss.Style) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			c.put(xx, yy, ' ', style)
		}
	}
}

// box draws a rounded border around a rectangle.
func (c *canvas) box(x, y, w, h int, style *lipgloss.Style) {
	if w < 2 || h < 2 {
		return
	}
	c.put(x, y, '╭', style)
	c.put(x+w-1, y, '╮', style)
	c.put(x, y+h-1, '╰', style)
	c.put(x+w-1, y+h-1, '╯', style)
	for xx := x + 1; xx < x+w-1; xx++ {
		c.put(xx, y, '─', style)
		c.put(xx, y+h-1, '─', style)
	}
	for yy := y + 1; yy < y+h-1; yy++ {
		c.put(x, yy, '│', style)
		c.put(x+w-1, yy, '│', style)
	}
}

// dim re-styles already painted cells in a rectangle, used by the fade
// overlay strip. Unpainted cells are left alone.
func (c *canvas) dim(x, y, w, h int, style *lipgloss.Style) {
	for yy := y; yy < y+h; yy++ {
		if yy < 0 || yy >= c.h {
			continue
		}
		for xx := x; xx < x+w; xx++ {
			if xx < 0 || xx >= c.w {
				continue
			}
			if c.cells[yy][xx].set {
				c.cells[yy][xx].style = style
			}
		}
	}
}

// String renders the grid to a frame. Runs of cells sharing a style are
// emitted in one Render call to keep escape sequences down.
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		var run []rune
		var runStyle *lipgloss.Style
		flush := func() {
			if len(run) > 0 {
				b.WriteString(runStyle.Render(string(run)))
				run = run[:0]
			}
		}
		for x := 0; x < c.w; x++ {
			cl := c.cells[y][x]
			if !cl.set {
				flush()
				b.WriteRune(' ')
				continue
			}
			if cl.r == 0 {
				continue // shadow of a wide rune
			}
			if cl.style != runStyle {
				flush()
				runStyle = cl.style
			}
			run = append(run, cl.r)
		}
		flush()
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// opacityStyle maps a resolved opacity onto a style. The terminal has no
// alpha channel, so opacity degrades to dim bands.
func opacityStyle(theme *Theme, base *lipgloss.Style, opacity float64) *lipgloss.Style {
	switch {
	case opacity >= 0.85:
		return base
	case opacity >= 0.45:
		return &theme.Dim
	default:
		return &theme.VeryDim
	}
}

// paintScene draws the resolved paint list onto the canvas.
func paintScene(c *canvas, doc *scene.Document, theme *Theme, selected string) {
	stop := metrics.Timer(metrics.SceneResolve)
	rendered := doc.Resolve()
	stop()
	for _, r := range rendered {
		paintElement(c, r, theme, selected)
	}
}

func paintElement(c *canvas, r scene.Rendered, theme *Theme, selected string) {
	x, y := int(r.Box.Left), int(r.Box.Top)
	w, h := int(r.Box.Width), int(r.Box.Height)

	switch r.El.Role() {
	case scene.RoleHeader:
		content, _ := r.El.Payload.(headerContent)
		c.clear(x, y, w, h, &theme.Base)
		c.text(x, y, w, content.Title, opacityStyle(theme, &theme.HeaderText, r.Opacity))
		c.text(x, y+1, w, content.Subtitle, opacityStyle(theme, &theme.Dim, r.Opacity))

	case scene.RoleConfig:
		content, _ := r.El.Payload.(configContent)
		c.clear(x, y, w, h, &theme.Base)
		line := "device: " + content.DeviceMode + "   backend: " + content.GameBackend
		c.text(x, y, w, line, opacityStyle(theme, &theme.ConfigText, r.Opacity))

	case scene.RoleCard:
		content, _ := r.El.Payload.(cardContent)
		border := &theme.Dim
		if r.El.ID() == selected {
			border = &theme.CardTitle
		}
		c.clear(x, y, w, h, &theme.Base)
		c.box(x, y, w, h, opacityStyle(theme, border, r.Opacity))
		title := content.Step.Title
		if content.Favorite {
			title = "★ " + title
		}
		c.text(x+2, y, w-4, " "+title+" ", opacityStyle(theme, &theme.CardTitle, r.Opacity))
		badge, badgeStyle := statusBadge(content, theme)
		c.text(x+w-2-runewidth.StringWidth(badge), y, w-4, badge, opacityStyle(theme, badgeStyle, r.Opacity))
		c.text(x+2, y+1, w-4, content.Step.Blurb, opacityStyle(theme, &theme.CardBody, r.Opacity))
		for i, line := range content.Detail {
			if y+2+i >= y+h-1 {
				break
			}
			c.text(x+2, y+2+i, w-4, line, opacityStyle(theme, &theme.CardBody, r.Opacity))
		}

	case scene.RoleCompact:
		content, _ := r.El.Payload.(compactContent)
		line := content.Line
		if content.LastRun != "" {
			line += "   " + content.LastRun
		}
		c.text(x+1, y+1, w-2, line, opacityStyle(theme, &theme.CompactText, r.Opacity))

	case scene.RolePanel:
		content, _ := r.El.Payload.(panelContent)
		c.clear(x, y, w, h, &theme.Base)
		c.box(x, y, w, h, opacityStyle(theme, &theme.Dim, r.Opacity))
		c.text(x+2, y, w-4, " "+content.Title+" ", opacityStyle(theme, &theme.PanelTitle, r.Opacity))
		for i, line := range content.Lines {
			if y+1+i >= y+h-1 {
				break
			}
			c.text(x+2, y+1+i, w-4, line, opacityStyle(theme, &theme.Base, r.Opacity))
		}

	case scene.RoleOverlay:
		c.dim(x, y, w, h, &theme.VeryDim)
	}
}

// statusBadge picks the chrome-row badge for a card.
func statusBadge(content cardContent, theme *Theme) (string, *lipgloss.Style) {
	switch content.State {
	case cardStateRunning:
		return "running", &theme.BadgeRun
	case cardStateFailed:
		return "failed", &theme.BadgeFail
	case cardStateReady:
		return "ready", &theme.BadgeReady
	default:
		return "pending", &theme.BadgeWait
	}
}

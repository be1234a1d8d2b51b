package ui

import (
	"math/rand"
	"time"

	"github.com/vanderheijden86/neurodeck/pkg/flip"
	"github.com/vanderheijden86/neurodeck/pkg/scene"
)

// particle is one glyph of the ambient background field.
type particle struct {
	x, y  float64
	vy    float64
	glyph rune
}

var particleGlyphs = []rune{'·', '∙', '˚', '.'}

// particleField drifts faint glyphs upward behind the dashboard. While a
// card is expanded the field takes that step's tint and avoids the
// expansion box so it never competes with the focused content.
type particleField struct {
	w, h      int
	particles []particle
	rng       *rand.Rand
}

func newParticleField(w, h, count int) *particleField {
	f := &particleField{
		w:   w,
		h:   h,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i := 0; i < count; i++ {
		f.particles = append(f.particles, f.spawn(true))
	}
	return f
}

func (f *particleField) spawn(anywhere bool) particle {
	y := float64(f.h)
	if anywhere {
		y = f.rng.Float64() * float64(f.h)
	}
	return particle{
		x:     f.rng.Float64() * float64(f.w),
		y:     y,
		vy:    -(0.5 + f.rng.Float64()*1.5), // rows per second, upward
		glyph: particleGlyphs[f.rng.Intn(len(particleGlyphs))],
	}
}

// Resize rescales the field to a new viewport.
func (f *particleField) Resize(w, h int) {
	f.w, f.h = w, h
	for i := range f.particles {
		if f.particles[i].x >= float64(w) || f.particles[i].y >= float64(h) {
			f.particles[i] = f.spawn(true)
		}
	}
}

// Step advances the drift. Particles leaving the top respawn at the bottom.
func (f *particleField) Step(dt time.Duration) {
	for i := range f.particles {
		f.particles[i].y += f.particles[i].vy * dt.Seconds()
		if f.particles[i].y < 0 {
			f.particles[i] = f.spawn(false)
		}
	}
}

// Paint draws the field onto the canvas as the bottom layer. The engine is
// the single source of truth for the expanded state; the field queries it
// rather than tracking its own copy.
func (f *particleField) Paint(c *canvas, theme *Theme, engine *flip.Engine) {
	tint := &theme.VeryDim
	var avoid bool
	var box scene.Rect

	if step, ok := engine.ExpandedStep(); ok {
		s := theme.Renderer.NewStyle().Foreground(theme.StepTint(step)).Faint(true)
		tint = &s
		if b, ok := engine.ExpansionBox(); ok {
			box, avoid = b, true
		}
	}

	for _, p := range f.particles {
		x, y := int(p.x), int(p.y)
		if avoid && inBox(box, x, y) {
			continue
		}
		c.put(x, y, p.glyph, tint)
	}
}

func inBox(b scene.Rect, x, y int) bool {
	fx, fy := float64(x), float64(y)
	return fx >= b.Left && fx < b.Right() && fy >= b.Top && fy < b.Bottom()
}

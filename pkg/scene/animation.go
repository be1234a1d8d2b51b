package scene

import (
	"math"
	"time"
)

// Easing is a cubic Bézier timing function with the usual CSS control
// points: (0,0), (X1,Y1), (X2,Y2), (1,1).
type Easing struct {
	X1, Y1, X2, Y2 float64
}

// Linear is the identity timing function.
var Linear = Easing{X1: 0, Y1: 0, X2: 1, Y2: 1}

// EaseOut is the shared deceleration curve used for expand/collapse
// choreography. It starts fast and settles gently.
var EaseOut = Easing{X1: 0.22, Y1: 1, X2: 0.36, Y2: 1}

func bezierComponent(t, p1, p2 float64) float64 {
	// Cubic Bézier with fixed endpoints 0 and 1.
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func bezierComponentDeriv(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
}

// At maps linear progress x in [0,1] to eased progress. Newton iteration
// with a bisection fallback, the standard approach for CSS timing curves.
func (e Easing) At(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	t := x
	for i := 0; i < 8; i++ {
		xt := bezierComponent(t, e.X1, e.X2) - x
		if math.Abs(xt) < 1e-7 {
			return bezierComponent(t, e.Y1, e.Y2)
		}
		d := bezierComponentDeriv(t, e.X1, e.X2)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= xt / d
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < 32; i++ {
		t = (lo + hi) / 2
		if bezierComponent(t, e.X1, e.X2) < x {
			lo = t
		} else {
			hi = t
		}
	}
	return bezierComponent(t, e.Y1, e.Y2)
}

// TrackTranslateY is the track name for vertical translation. Geometry
// tracks reuse the style property names (PropLeft, PropTop, ...).
const TrackTranslateY = "translateY"

// Track animates one numeric style property from From to To.
type Track struct {
	Prop     string
	From, To float64
}

// Options configure an animation.
type Options struct {
	Duration time.Duration
	Delay    time.Duration
	Easing   Easing
}

// Animation is a live, fill-forward animation on a single element. Once
// launched its end values keep overriding inline styles until Cancel.
type Animation struct {
	doc      *Document
	el       *Element
	tracks   []Track
	start    time.Duration
	duration time.Duration
	easing   Easing
	seq      uint64

	finished  bool
	cancelled bool
	done      chan struct{}
}

// Animate launches an animation on el. A zero duration completes
// immediately (used for reduced-motion mode) but still fills forward until
// cancelled.
func (d *Document) Animate(el *Element, tracks []Track, opts Options) *Animation {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tl.seq++
	a := &Animation{
		doc:      d,
		el:       el,
		tracks:   tracks,
		start:    d.tl.now + opts.Delay,
		duration: opts.Duration,
		easing:   opts.Easing,
		seq:      d.tl.seq,
		done:     make(chan struct{}),
	}
	if a.duration <= 0 && opts.Delay <= 0 {
		a.finished = true
		close(a.done)
	}
	el.anims = append(el.anims, a)
	d.tl.anims = append(d.tl.anims, a)
	return a
}

// Done returns a channel closed when the animation reaches its end time.
// Cancelling an unfinished animation also closes it.
func (a *Animation) Done() <-chan struct{} { return a.done }

// Finished reports whether the animation ran to completion.
func (a *Animation) Finished() bool {
	a.doc.mu.Lock()
	defer a.doc.mu.Unlock()
	return a.finished
}

// Cancel stops the animation and removes its style override. Inline styles
// become visible again for every property it was animating.
func (a *Animation) Cancel() {
	a.doc.mu.Lock()
	defer a.doc.mu.Unlock()
	a.cancelLocked()
}

func (a *Animation) cancelLocked() {
	if a.cancelled {
		return
	}
	a.cancelled = true
	if !a.finished {
		close(a.done)
	}
	for i, other := range a.el.anims {
		if other == a {
			a.el.anims = append(a.el.anims[:i], a.el.anims[i+1:]...)
			break
		}
	}
	a.doc.tl.remove(a)
}

// valueLocked returns the animation's current value for prop, if the
// animation carries that property and is applying (started or finished).
func (a *Animation) valueLocked(now time.Duration, prop string) (float64, bool) {
	var tr *Track
	for i := range a.tracks {
		if a.tracks[i].Prop == prop {
			tr = &a.tracks[i]
			break
		}
	}
	if tr == nil {
		return 0, false
	}
	if a.finished || now >= a.start+a.duration {
		return tr.To, true
	}
	if now < a.start {
		// Delay phase: no backwards fill.
		return 0, false
	}
	progress := float64(now-a.start) / float64(a.duration)
	eased := a.easing.At(progress)
	return tr.From + (tr.To-tr.From)*eased, true
}

type timeline struct {
	now   time.Duration
	seq   uint64
	anims []*Animation
}

func (t *timeline) step(dt time.Duration) {
	t.now += dt
	for _, a := range t.anims {
		if !a.finished && !a.cancelled && t.now >= a.start+a.duration {
			a.finished = true
			close(a.done)
		}
	}
}

func (t *timeline) remove(a *Animation) {
	for i, other := range t.anims {
		if other == a {
			t.anims = append(t.anims[:i], t.anims[i+1:]...)
			return
		}
	}
}

// animValueLocked resolves the effective animated value of prop on el, if
// any live animation is applying one. The most recently launched animation
// wins, matching the "last animation on top" compositing order.
func animValueLocked(el *Element, now time.Duration, prop string) (float64, bool) {
	var best *Animation
	var bestV float64
	for _, a := range el.anims {
		if a.cancelled {
			continue
		}
		if v, ok := a.valueLocked(now, prop); ok {
			if best == nil || a.seq > best.seq {
				best = a
				bestV = v
			}
		}
	}
	if best == nil {
		return 0, false
	}
	return bestV, true
}

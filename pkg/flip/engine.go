package flip

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/neurodeck/pkg/debug"
	"github.com/vanderheijden86/neurodeck/pkg/metrics"
	"github.com/vanderheijden86/neurodeck/pkg/scene"
)

// Engine drives expand/collapse transitions on one scene document. Methods
// are safe for concurrent use, but transitions are single-flight: a second
// Expand or Collapse while one is in flight returns ErrBusy rather than
// interleaving DOM mutations.
type Engine struct {
	doc *scene.Document

	// opMu is held for the whole duration of a transition.
	opMu sync.Mutex

	// stateMu guards state and the host-tunable knobs; state non-nil means
	// a card is expanded.
	stateMu sync.Mutex
	state   *expandState
	reduced bool
	peek    float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithReducedMotion collapses every animation to zero duration while
// keeping the full sequencing (freeze, settle, restore), for hosts honoring
// a reduced-motion preference.
func WithReducedMotion() Option {
	return func(e *Engine) { e.reduced = true }
}

// WithPeekOpacity overrides the settled opacity of the peek sibling.
// Values outside (0, 1] keep the default.
func WithPeekOpacity(o float64) Option {
	return func(e *Engine) {
		if o > 0 && o <= 1 {
			e.peek = o
		}
	}
}

// NewEngine creates an engine bound to doc.
func NewEngine(doc *scene.Document, opts ...Option) *Engine {
	e := &Engine{doc: doc, peek: PeekOpacity}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expanded reports whether a card is currently expanded.
func (e *Engine) Expanded() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state != nil
}

// ExpandedStep returns the id of the expanded card, if any.
func (e *Engine) ExpandedStep() (string, bool) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == nil {
		return "", false
	}
	return e.state.stepID, true
}

// ExpansionBox returns the expansion box of the current expansion, if any.
func (e *Engine) ExpansionBox() (scene.Rect, bool) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == nil {
		return scene.Rect{}, false
	}
	return e.state.box, true
}

func (e *Engine) snapshotState() *expandState {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

func (e *Engine) setState(st *expandState) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.state = st
}

// SetReducedMotion changes the reduced-motion preference. It takes effect
// on the next animation batch scheduled.
func (e *Engine) SetReducedMotion(reduced bool) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.reduced = reduced
}

// ReducedMotion reports the current reduced-motion preference.
func (e *Engine) ReducedMotion() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.reduced
}

func (e *Engine) dur(d time.Duration) time.Duration {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.reduced {
		return 0
	}
	return d
}

func (e *Engine) peekOpacity() float64 {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.peek
}

// participants are the elements a transition touches, located fresh by
// role/id on every call so the engine tolerates host re-renders between
// expand and collapse.
type participants struct {
	container *scene.Element
	list      *scene.Element
	header    *scene.Element
	config    *scene.Element
	panels    []*scene.Element
	cards     []*scene.Element
}

func (e *Engine) collectParts() participants {
	p := participants{container: e.doc.Root()}
	for _, c := range p.container.Children() {
		switch c.Role() {
		case scene.RoleList:
			if p.list == nil {
				p.list = c
			}
		case scene.RoleHeader:
			if p.header == nil {
				p.header = c
			}
		case scene.RoleConfig:
			if p.config == nil {
				p.config = c
			}
		case scene.RolePanel:
			p.panels = append(p.panels, c)
		}
	}
	if p.list != nil {
		p.cards = p.list.ChildrenByRole(scene.RoleCard)
	}
	return p
}

func compactOf(card *scene.Element) *scene.Element {
	if card == nil {
		return nil
	}
	if cc := card.ChildrenByRole(scene.RoleCompact); len(cc) > 0 {
		return cc[0]
	}
	return nil
}

// expansionBox computes the constrained target region: the 30%-70%
// horizontal band of the viewport, from the first card's original top down
// to the peek boundary. Both expand and collapse use this exact box.
func expansionBox(vw, vh, firstCardTop float64) scene.Rect {
	return scene.Rect{
		Left:   vw * boxLeftFrac,
		Top:    firstCardTop,
		Width:  vw * (boxRightFrac - boxLeftFrac),
		Height: vh*peekFrac - firstCardTop,
	}
}

// freeze converts an element from flow layout to absolute positioning
// pinned at its pre-freeze measured box. With the container locked to the
// viewport origin, measured viewport coordinates remain valid absolute
// offsets.
func freeze(el *scene.Element, r scene.Rect) {
	el.SetStyles(map[string]string{
		scene.PropPosition: "absolute",
		scene.PropLeft:     scene.Px(r.Left),
		scene.PropTop:      scene.Px(r.Top),
		scene.PropWidth:    scene.Px(r.Width),
		scene.PropHeight:   scene.Px(r.Height),
		scene.PropMargin:   scene.Px(0),
	})
}

// Expand transitions the card identified by stepID to the expansion box.
// It resolves once every animation has finished and final styles are
// settled. Unknown ids are a silent no-op; an expansion already in place or
// in flight returns ErrBusy.
func (e *Engine) Expand(ctx context.Context, stepID string) error {
	if !e.opMu.TryLock() {
		return ErrBusy
	}
	defer e.opMu.Unlock()
	if e.snapshotState() != nil {
		return ErrBusy
	}

	target := e.doc.ElementByID(stepID)
	if target == nil || target.Role() != scene.RoleCard {
		debug.Log("flip: expand target %q not found, no-op", stepID)
		return nil
	}
	defer metrics.Timer(metrics.ExpandTransition)()
	p := e.collectParts()
	vw, vh := e.doc.Viewport()

	st := &expandState{
		stepID:       stepID,
		measurements: make(map[string]scene.Rect),
		viewportW:    vw,
		viewportH:    vh,
		childStyles:  make(map[string]map[string]string),
		peekIdx:      -1,
	}

	// Measure everything before any mutation. These boxes are the single
	// source of geometry for the whole round trip.
	started := time.Now()
	st.measurements[p.container.ID()] = e.doc.BoundingRect(p.container)
	if p.list != nil {
		st.listID = p.list.ID()
		st.measurements[st.listID] = e.doc.BoundingRect(p.list)
	}
	if p.header != nil {
		st.headerID = p.header.ID()
		st.measurements[st.headerID] = e.doc.BoundingRect(p.header)
	}
	if p.config != nil {
		st.configID = p.config.ID()
		st.measurements[st.configID] = e.doc.BoundingRect(p.config)
	}
	targetIdx := -1
	for i, c := range p.cards {
		st.cardIDs = append(st.cardIDs, c.ID())
		st.measurements[c.ID()] = e.doc.BoundingRect(c)
		if c.ID() == stepID {
			targetIdx = i
		}
	}
	if targetIdx < 0 {
		// The id resolved to a card outside the list; treat as not found.
		return nil
	}
	if targetIdx+1 < len(p.cards) {
		st.peekIdx = targetIdx + 1
	}
	if compact := compactOf(target); compact != nil {
		st.compactID = compact.ID()
	}

	// Snapshot the inline styles this operation is about to overwrite.
	st.containerStyles = p.container.StyleSnapshot(containerProps...)
	if p.list != nil {
		st.childStyles[st.listID] = p.list.StyleSnapshot(listProps...)
	}
	for _, el := range []*scene.Element{p.header, p.config} {
		if el != nil {
			st.childStyles[el.ID()] = el.StyleSnapshot(childProps...)
		}
	}
	for _, c := range p.cards {
		st.childStyles[c.ID()] = c.StyleSnapshot(childProps...)
	}
	if st.compactID != "" {
		st.childStyles[st.compactID] = e.doc.ElementByID(st.compactID).StyleSnapshot(scene.PropOpacity)
	}

	// Hide orthogonal panels for the duration.
	for _, panel := range p.panels {
		st.hidden = append(st.hidden, hiddenPanel{id: panel.ID(), display: panel.Style(scene.PropDisplay)})
		panel.SetStyle(scene.PropDisplay, "none")
	}

	// Lock the container to the full viewport so the card has unconstrained
	// room to grow.
	p.container.SetStyles(map[string]string{
		scene.PropPosition: "fixed",
		scene.PropTop:      scene.Px(0),
		scene.PropLeft:     scene.Px(0),
		scene.PropWidth:    scene.Px(vw),
		scene.PropHeight:   scene.Px(vh),
		scene.PropPadding:  scene.Px(0),
		scene.PropMargin:   scene.Px(0),
		scene.PropMaxWidth: "none",
		scene.PropOverflow: "hidden",
	})

	// Freeze participants at their pre-lock coordinates and disable the
	// list's own stacking so absolute children are unaffected by gaps.
	if p.list != nil {
		freeze(p.list, st.measurements[st.listID])
		p.list.SetStyle(scene.PropDisplay, "block")
	}
	for _, el := range []*scene.Element{p.header, p.config} {
		if el != nil {
			freeze(el, st.measurements[el.ID()])
		}
	}
	for _, c := range p.cards {
		freeze(c, st.measurements[c.ID()])
	}

	st.box = expansionBox(vw, vh, st.measurements[st.cardIDs[0]].Top)

	moves, ok := e.buildMoves(st)
	if !ok {
		// Cannot happen: the target was located above and nothing has
		// removed it since we hold the transition lock.
		return nil
	}

	anims := make([]*scene.Animation, 0, len(moves))
	for _, m := range moves {
		anims = append(anims, e.doc.Animate(m.el, m.tracks, m.fwd))
	}
	if err := awaitAll(ctx, anims); err != nil {
		return err
	}

	// Cancel before settling: fill-forward animations would otherwise keep
	// overriding the inline writes below.
	for _, a := range anims {
		a.Cancel()
	}
	for _, m := range moves {
		m.el.SetStyles(m.settle)
	}

	st.overlay = e.createOverlay(vw, vh)
	e.setState(st)
	debug.LogTiming("flip.Expand", time.Since(started))
	return nil
}

// Collapse reverses the current expansion and restores every touched inline
// style bit-for-bit. With no expansion it is a no-op; if the expanded card
// can no longer be located the stale state is cleared without error.
func (e *Engine) Collapse(ctx context.Context) error {
	if !e.opMu.TryLock() {
		return ErrBusy
	}
	defer e.opMu.Unlock()
	st := e.snapshotState()
	if st == nil {
		return nil
	}

	moves, ok := e.buildMoves(st)
	if !ok {
		debug.Log("flip: collapse target %q vanished, clearing state", st.stepID)
		e.removeOverlay(st)
		e.setState(nil)
		return nil
	}
	defer metrics.Timer(metrics.CollapseTransition)()
	started := time.Now()

	// Re-derive the displaced styles deterministically from the stored
	// measurements and write them as static inline styles, so the reverse
	// animation starts from a well-defined state whatever expand's settle
	// step actually left behind.
	for _, m := range moves {
		m.el.SetStyles(m.settle)
	}

	anims := make([]*scene.Animation, 0, len(moves))
	for _, m := range moves {
		anims = append(anims, e.doc.Animate(m.el, reversed(m.tracks), m.rev))
	}
	if err := awaitAll(ctx, anims); err != nil {
		return err
	}
	for _, a := range anims {
		a.Cancel()
	}

	e.removeOverlay(st)

	// Full restoration: every snapshot value goes back exactly, including
	// empty strings for properties that had no inline value. The container
	// top/left that expand introduced are cleared explicitly since the
	// snapshot never held them.
	container := e.doc.Root()
	container.SetStyles(st.containerStyles)
	container.SetStyle(scene.PropTop, "")
	container.SetStyle(scene.PropLeft, "")
	for id, styles := range st.childStyles {
		if el := e.doc.ElementByID(id); el != nil {
			el.SetStyles(styles)
		}
	}
	for _, h := range st.hidden {
		if el := e.doc.ElementByID(h.id); el != nil {
			el.SetStyle(scene.PropDisplay, h.display)
		}
	}

	e.setState(nil)
	debug.LogTiming("flip.Collapse", time.Since(started))
	return nil
}

func (e *Engine) createOverlay(vw, vh float64) *scene.Element {
	ov := e.doc.ElementByID(overlayID)
	if ov == nil {
		ov, _ = e.doc.CreateElement(overlayID, scene.RoleOverlay)
	}
	ov.SetStyles(map[string]string{
		scene.PropPosition: "fixed",
		scene.PropLeft:     scene.Px(0),
		scene.PropTop:      scene.Px(vh * peekFrac),
		scene.PropWidth:    scene.Px(vw),
		scene.PropHeight:   scene.Px(vh * (1 - peekFrac)),
		"background":       "linear-gradient(to bottom, transparent, black)",
		"pointer-events":   "none",
	})
	e.doc.AppendChild(e.doc.Root(), ov)
	return ov
}

func (e *Engine) removeOverlay(st *expandState) {
	if st.overlay != nil {
		e.doc.Remove(st.overlay)
	} else if ov := e.doc.ElementByID(overlayID); ov != nil {
		e.doc.Remove(ov)
	}
}

// awaitAll blocks until every animation in the batch has finished.
func awaitAll(ctx context.Context, anims []*scene.Animation) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range anims {
		g.Go(func() error {
			select {
			case <-a.Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

// Package scene is the layout and animation substrate the dashboard renders
// through. It models a small DOM-like element tree: elements carry inline
// style maps (property -> string, empty string means "not set"), a flow
// layout stacks children vertically inside their parent, and absolutely
// positioned elements are pinned by left/top/width/height styles. Lengths
// are logical pixels; the terminal host maps one pixel to one cell.
//
// Coordinates are viewport-relative throughout. There is no scrolling and a
// single stacking context, so position:absolute and position:fixed resolve
// against the same origin.
//
// The animation scheduler has fill-forward semantics: while an animation is
// live (running, or finished and not yet cancelled) its values override
// inline styles during resolution. Callers that want inline style writes to
// take effect must cancel the animation first.
package scene

import (
	"fmt"
	"sync"
	"time"
)

// Role classifies an element for layout and rendering.
type Role int

const (
	RoleContainer Role = iota
	RoleHeader
	RoleConfig
	RoleList
	RoleCard
	RoleCompact
	RolePanel
	RoleOverlay
)

// Rect is an axis-aligned box in viewport coordinates.
type Rect struct {
	Left, Top, Width, Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Element is a node in the document tree. All accessors are safe for
// concurrent use; they lock the owning document.
type Element struct {
	doc      *Document
	id       string
	role     Role
	parent   *Element
	children []*Element

	// style holds inline styles only. Absent key == empty string == unset.
	style map[string]string

	// BaseHeight is the element's natural content height when laid out in
	// flow. Widths come from the parent; heights of containers are derived
	// from children.
	baseHeight float64

	// Payload is host data attached to the element (card titles, line
	// content). The scene never inspects it.
	Payload any

	anims []*Animation
}

// Document owns an element tree, its layout parameters and its timeline.
type Document struct {
	mu sync.Mutex

	viewportW float64
	viewportH float64

	root *Element
	byID map[string]*Element

	// Container layout parameters (intrinsic, before inline overrides).
	Padding  float64
	MaxWidth float64
	Gap      float64

	tl timeline
}

// NewDocument creates a document with an empty root container sized to the
// given viewport.
func NewDocument(id string, viewportW, viewportH float64) *Document {
	d := &Document{
		viewportW: viewportW,
		viewportH: viewportH,
		byID:      make(map[string]*Element),
		Padding:   2,
		MaxWidth:  120,
		Gap:       1,
	}
	d.root = &Element{doc: d, id: id, role: RoleContainer, style: map[string]string{}}
	d.byID[id] = d.root
	return d
}

// Root returns the root container element.
func (d *Document) Root() *Element { return d.root }

// Viewport returns the viewport size.
func (d *Document) Viewport() (w, h float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewportW, d.viewportH
}

// SetViewport resizes the viewport. Layout is recomputed on demand so this
// only records the new size.
func (d *Document) SetViewport(w, h float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewportW, d.viewportH = w, h
}

// CreateElement makes a detached element owned by this document. The id must
// be unique within the document.
func (d *Document) CreateElement(id string, role Role) (*Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byID[id]; exists {
		return nil, fmt.Errorf("scene: duplicate element id %q", id)
	}
	el := &Element{doc: d, id: id, role: role, style: map[string]string{}}
	d.byID[id] = el
	return el, nil
}

// MustCreateElement is CreateElement for build-time trees where a duplicate
// id is a programming error.
func (d *Document) MustCreateElement(id string, role Role) *Element {
	el, err := d.CreateElement(id, role)
	if err != nil {
		panic(err)
	}
	return el
}

// ElementByID returns the element with the given id, or nil.
func (d *Document) ElementByID(id string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byID[id]
}

// Remove detaches the element from its parent and forgets its id. Any live
// animations on the element are cancelled.
func (d *Document) Remove(el *Element) {
	if el == nil || el == d.root {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	live := append([]*Animation(nil), el.anims...)
	for _, a := range live {
		a.cancelLocked()
	}
	el.anims = nil
	if el.parent != nil {
		sib := el.parent.children
		for i, c := range sib {
			if c == el {
				el.parent.children = append(sib[:i], sib[i+1:]...)
				break
			}
		}
		el.parent = nil
	}
	delete(d.byID, el.id)
}

// AppendChild attaches child as the last child of parent.
func (d *Document) AppendChild(parent, child *Element) {
	if parent == nil || child == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if child.parent != nil {
		for i, c := range child.parent.children {
			if c == child {
				child.parent.children = append(child.parent.children[:i], child.parent.children[i+1:]...)
				break
			}
		}
	}
	child.parent = parent
	parent.children = append(parent.children, child)
}

// ID returns the element id.
func (e *Element) ID() string { return e.id }

// Role returns the element role.
func (e *Element) Role() Role { return e.role }

// Parent returns the parent element, or nil for detached elements and the
// root.
func (e *Element) Parent() *Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.parent
}

// Children returns a copy of the child list in tree order.
func (e *Element) Children() []*Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// ChildrenByRole returns children with the given role, in tree order.
func (e *Element) ChildrenByRole(role Role) []*Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var out []*Element
	for _, c := range e.children {
		if c.role == role {
			out = append(out, c)
		}
	}
	return out
}

// SetBaseHeight sets the element's natural flow height.
func (e *Element) SetBaseHeight(h float64) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.baseHeight = h
}

// BaseHeight returns the element's natural flow height.
func (e *Element) BaseHeight() float64 {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.baseHeight
}

// Style returns the inline style value for prop. Unset properties read as
// the empty string, matching the "no inline style" convention.
func (e *Element) Style(prop string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.style[prop]
}

// SetStyle writes an inline style. Setting the empty string removes the
// property entirely, so a snapshot/restore round trip reproduces the
// original map exactly.
func (e *Element) SetStyle(prop, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if value == "" {
		delete(e.style, prop)
	} else {
		e.style[prop] = value
	}
}

// SetStyles writes several inline styles at once.
func (e *Element) SetStyles(styles map[string]string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for prop, value := range styles {
		if value == "" {
			delete(e.style, prop)
		} else {
			e.style[prop] = value
		}
	}
}

// StyleSnapshot captures the current inline values of the given properties.
// Unset properties are recorded as empty strings so restoring the snapshot
// clears anything written in between.
func (e *Element) StyleSnapshot(props ...string) map[string]string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	snap := make(map[string]string, len(props))
	for _, p := range props {
		snap[p] = e.style[p]
	}
	return snap
}

// InlineStyles returns a copy of every inline style currently set. Intended
// for tests asserting restoration.
func (e *Element) InlineStyles() map[string]string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	out := make(map[string]string, len(e.style))
	for k, v := range e.style {
		out[k] = v
	}
	return out
}

// Step advances the document timeline, completing any animations whose time
// has elapsed.
func (d *Document) Step(dt time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tl.step(dt)
}

// Now returns the current timeline instant.
func (d *Document) Now() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tl.now
}

package scene

// Layout rules, deliberately small:
//
//   - The root container centers itself horizontally against its max-width,
//     applies padding, and stacks children vertically with the document gap.
//   - A list element stacks its children the same way unless its effective
//     display is "block", which disables the stacking algorithm (used while
//     frozen children are absolutely positioned).
//   - position:absolute / position:fixed pins an element at its
//     left/top/width/height styles, viewport-relative, out of flow.
//   - display:none removes an element and its subtree from layout and
//     paint; its bounding rect is zero.
//   - transform:translateY() and opacity affect the visual box and paint
//     only, never flow, which is what makes FLIP-style choreography cheap.
//
// Animated values override inline styles per the fill-forward contract in
// animation.go: position/size overrides apply to positioned elements,
// translateY and opacity everywhere.

func isPositioned(pos string) bool {
	return pos == "absolute" || pos == "fixed"
}

func (d *Document) styleLenLocked(el *Element, prop string, fallback float64) float64 {
	if v, ok := ParsePx(el.style[prop]); ok {
		return v
	}
	return fallback
}

// layoutLocked computes the base (pre-transform) box of every laid-out
// element. Returns nil entries for display:none subtrees.
func (d *Document) layoutLocked() map[*Element]Rect {
	boxes := make(map[*Element]Rect)
	if d.root.style[PropDisplay] == "none" {
		return boxes
	}
	var rootBox Rect
	if isPositioned(d.root.style[PropPosition]) {
		rootBox = Rect{
			Left:   d.styleLenLocked(d.root, PropLeft, 0),
			Top:    d.styleLenLocked(d.root, PropTop, 0),
			Width:  d.styleLenLocked(d.root, PropWidth, d.viewportW),
			Height: d.styleLenLocked(d.root, PropHeight, d.viewportH),
		}
	} else {
		maxW := d.styleLenLocked(d.root, PropMaxWidth, d.MaxWidth)
		w := d.viewportW
		if maxW > 0 && w > maxW {
			w = maxW
		}
		rootBox = Rect{Left: (d.viewportW - w) / 2, Top: 0, Width: w}
	}
	pad := d.styleLenLocked(d.root, PropPadding, d.Padding)
	contentH := d.layoutChildrenLocked(boxes, d.root, rootBox.Left+pad, rootBox.Top+pad, rootBox.Width-2*pad, d.Gap)
	if rootBox.Height == 0 && !isPositioned(d.root.style[PropPosition]) {
		rootBox.Height = contentH + 2*pad
	}
	boxes[d.root] = rootBox
	return boxes
}

// layoutChildrenLocked lays out the flow children of parent into the given
// content box and returns the total flow height.
func (d *Document) layoutChildrenLocked(boxes map[*Element]Rect, parent *Element, left, top, width, gap float64) float64 {
	cursor := top
	first := true
	for _, child := range parent.children {
		if child.style[PropDisplay] == "none" {
			continue
		}
		if isPositioned(child.style[PropPosition]) {
			box := Rect{
				Left:   d.styleLenLocked(child, PropLeft, 0),
				Top:    d.styleLenLocked(child, PropTop, 0),
				Width:  d.styleLenLocked(child, PropWidth, width),
				Height: d.styleLenLocked(child, PropHeight, child.baseHeight),
			}
			boxes[child] = box
			d.layoutElementContentLocked(boxes, child, box)
			continue
		}
		if !first {
			cursor += gap
		}
		first = false
		margin := d.styleLenLocked(child, PropMargin, 0)
		cursor += margin
		box := Rect{Left: left + margin, Top: cursor, Width: width - 2*margin}
		box.Height = d.flowHeightLocked(boxes, child, box)
		if v, ok := ParsePx(child.style[PropHeight]); ok {
			box.Height = v
		}
		boxes[child] = box
		cursor += box.Height + margin
	}
	return cursor - top
}

// flowHeightLocked lays out child content and returns the element's natural
// height: leaves use BaseHeight, lists and containers derive from children.
func (d *Document) flowHeightLocked(boxes map[*Element]Rect, el *Element, box Rect) float64 {
	switch el.role {
	case RoleList:
		gap := d.Gap
		if el.style[PropDisplay] == "block" {
			gap = 0
		}
		return d.layoutChildrenLocked(boxes, el, box.Left, box.Top, box.Width, gap)
	case RoleCard:
		// Cards have one row of chrome above their inner content.
		d.layoutChildrenLocked(boxes, el, box.Left+1, box.Top+1, box.Width-2, 0)
		return el.baseHeight
	default:
		if len(el.children) > 0 {
			d.layoutChildrenLocked(boxes, el, box.Left, box.Top, box.Width, 0)
		}
		return el.baseHeight
	}
}

// layoutElementContentLocked lays out the subtree of an absolutely
// positioned element inside its pinned box.
func (d *Document) layoutElementContentLocked(boxes map[*Element]Rect, el *Element, box Rect) {
	switch el.role {
	case RoleList:
		gap := d.Gap
		if el.style[PropDisplay] == "block" {
			gap = 0
		}
		d.layoutChildrenLocked(boxes, el, box.Left, box.Top, box.Width, gap)
	case RoleCard:
		d.layoutChildrenLocked(boxes, el, box.Left+1, box.Top+1, box.Width-2, 0)
	default:
		if len(el.children) > 0 {
			d.layoutChildrenLocked(boxes, el, box.Left, box.Top, box.Width, 0)
		}
	}
}

// visualBoxLocked applies animation overrides and transform to a base box.
func (d *Document) visualBoxLocked(el *Element, base Rect) Rect {
	now := d.tl.now
	box := base
	if isPositioned(el.style[PropPosition]) {
		if v, ok := animValueLocked(el, now, PropLeft); ok {
			box.Left = v
		}
		if v, ok := animValueLocked(el, now, PropTop); ok {
			box.Top = v
		}
		if v, ok := animValueLocked(el, now, PropWidth); ok {
			box.Width = v
		}
		if v, ok := animValueLocked(el, now, PropHeight); ok {
			box.Height = v
		}
	}
	if v, ok := animValueLocked(el, now, TrackTranslateY); ok {
		box.Top += v
	} else if v, ok := ParseTranslateY(el.style[PropTransform]); ok {
		box.Top += v
	}
	return box
}

func (d *Document) opacityLocked(el *Element) float64 {
	if v, ok := animValueLocked(el, d.tl.now, PropOpacity); ok {
		return v
	}
	if v, ok := ParseOpacity(el.style[PropOpacity]); ok {
		return v
	}
	return 1
}

// BoundingRect returns the element's laid-out box including transform,
// viewport-relative (getBoundingClientRect semantics). display:none
// elements measure as the zero rect.
func (d *Document) BoundingRect(el *Element) Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	boxes := d.layoutLocked()
	base, ok := boxes[el]
	if !ok {
		return Rect{}
	}
	return d.visualBoxLocked(el, base)
}

// Rendered is one paintable element with its resolved geometry. Opacity is
// the product of the element's own opacity and its ancestors'.
type Rendered struct {
	El      *Element
	Box     Rect
	Opacity float64
}

// Resolve returns the paint list in tree order (ancestors before
// descendants, overlay-style late children last). display:none subtrees and
// fully transparent elements are omitted.
func (d *Document) Resolve() []Rendered {
	d.mu.Lock()
	defer d.mu.Unlock()
	boxes := d.layoutLocked()
	var out []Rendered
	var walk func(el *Element, inherited float64)
	walk = func(el *Element, inherited float64) {
		base, ok := boxes[el]
		if !ok {
			return
		}
		op := inherited * d.opacityLocked(el)
		if op > 0.004 {
			out = append(out, Rendered{El: el, Box: d.visualBoxLocked(el, base), Opacity: op})
		}
		for _, c := range el.children {
			walk(c, op)
		}
	}
	walk(d.root, 1)
	return out
}

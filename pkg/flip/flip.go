// Package flip implements the card expand/collapse engine behind the
// dashboard: a FLIP (First-Last-Invert-Play) choreographer that transitions
// a clicked step card from its in-flow position to a viewport-filling panel
// and back, sliding siblings out of the way, leaving one "peek" sibling
// partially visible below the card, and restoring the exact pre-expansion
// inline styles afterward.
//
// One expansion can exist at a time. The engine is a two-state machine,
// idle or expanded, and the transition sequence is strict:
//
//	measure -> freeze -> animate -> cancel -> settle  (expand)
//	displace -> animate -> cancel -> restore          (collapse)
//
// Cancelling every animation before writing settle styles is load-bearing:
// the scene's animations fill forward, so inline writes made while they are
// live never become visible.
package flip

import (
	"errors"
	"time"

	"github.com/vanderheijden86/neurodeck/pkg/scene"
)

// ErrBusy is returned when an expand or collapse is requested while the
// engine is not idle: a transition is in flight, or expand is called while
// a card is already expanded.
var ErrBusy = errors.New("flip: transition already in progress")

// Timing and geometry of the choreography. Expand and collapse share these
// so both directions compute byte-identical boxes and offsets.
const (
	// ExpandDuration bounds every geometry animation in a batch.
	ExpandDuration = 500 * time.Millisecond

	// CompactFadeDuration fades the card's compact inner content out while
	// the card grows; it is shorter than the geometry animation because the
	// compact view is irrelevant once the card is full-size.
	CompactFadeDuration = 250 * time.Millisecond

	// CompactFadeInDelay and CompactFadeInDuration time the fade-in on
	// collapse so it does not visually overlap the card resize.
	CompactFadeInDelay    = 200 * time.Millisecond
	CompactFadeInDuration = 300 * time.Millisecond

	// The expansion box spans this horizontal band of the viewport, from
	// the first card's original top down to the peek boundary.
	boxLeftFrac  = 0.30
	boxRightFrac = 0.70

	// peekFrac is the viewport fraction where the peek sibling's original
	// top lands, and where the fade overlay sits.
	peekFrac = 0.90

	// PeekOpacity is the settled opacity of the peek sibling; visibly
	// dimmed but never hidden, signalling more content below.
	PeekOpacity = 0.6

	// offscreenMargin pads slide-out distances so elements fully clear the
	// viewport.
	offscreenMargin = 4.0
)

// overlayID is the id of the decorative fade overlay created at expand time
// and owned by the expand state.
const overlayID = "fade-overlay"

// containerProps are the container-level inline styles an expand mutates.
// Top and left are deliberately absent: expand introduces them and restore
// clears them explicitly.
var containerProps = []string{
	scene.PropPosition,
	scene.PropWidth,
	scene.PropHeight,
	scene.PropPadding,
	scene.PropMargin,
	scene.PropMaxWidth,
	scene.PropOverflow,
}

// childProps are the per-participant inline styles an expand mutates.
var childProps = []string{
	scene.PropPosition,
	scene.PropLeft,
	scene.PropTop,
	scene.PropWidth,
	scene.PropHeight,
	scene.PropMargin,
	scene.PropTransform,
	scene.PropOpacity,
}

// listProps additionally cover the card list's stacking mode.
var listProps = append([]string{scene.PropDisplay}, childProps...)

// hiddenPanel records a panel hidden for the duration of an expansion and
// the inline display value to put back.
type hiddenPanel struct {
	id      string
	display string
}

// expandState is everything a collapse needs to undo an expand. It exists
// only while a card is expanded; nil means the engine is idle.
type expandState struct {
	stepID string

	// Participant ids recorded at expand time. Elements are re-queried by
	// id on collapse rather than held as references, tolerating benign
	// host re-renders in between. Empty means the block was not rendered.
	listID    string
	headerID  string
	configID  string
	compactID string

	// measurements holds pre-freeze bounding boxes keyed by element id.
	// Never re-measured after freeze: layout has already changed by then.
	measurements map[string]scene.Rect

	// box is the expansion target computed once at expand time. Collapse
	// animates from this exact box.
	box scene.Rect

	// Viewport size at expand time; collapse reuses it so displaced
	// geometry is recomputed identically even if the host resized.
	viewportW, viewportH float64

	containerStyles map[string]string
	childStyles     map[string]map[string]string

	hidden []hiddenPanel

	// cardIDs is the ordered card list at expand time and peekIdx the
	// index of the peek sibling within it (-1 when the last card was
	// expanded).
	cardIDs []string
	peekIdx int

	overlay *scene.Element
}

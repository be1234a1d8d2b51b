package flip

import (
	"github.com/vanderheijden86/neurodeck/pkg/scene"
)

// move is one participant's share of the choreography: the forward (expand
// direction) animation tracks, the timing for each direction, and the
// inline styles that pin the element at the forward endpoints. Expand plays
// the tracks forward and settles with the styles; collapse writes the same
// styles as its start state and plays the tracks reversed, which is what
// makes the two directions byte-identical.
type move struct {
	el     *scene.Element
	tracks []scene.Track
	fwd    scene.Options
	rev    scene.Options
	settle map[string]string
}

func reversed(tracks []scene.Track) []scene.Track {
	out := make([]scene.Track, len(tracks))
	for i, t := range tracks {
		out[i] = scene.Track{Prop: t.Prop, From: t.To, To: t.From}
	}
	return out
}

// slideMove displaces a sibling by dy with a terminal opacity.
func (e *Engine) slideMove(el *scene.Element, dy, opacity float64) move {
	opts := scene.Options{Duration: e.dur(ExpandDuration), Easing: scene.EaseOut}
	return move{
		el: el,
		tracks: []scene.Track{
			{Prop: scene.TrackTranslateY, From: 0, To: dy},
			{Prop: scene.PropOpacity, From: 1, To: opacity},
		},
		fwd: opts,
		rev: opts,
		settle: map[string]string{
			scene.PropTransform: scene.TranslateY(dy),
			scene.PropOpacity:   scene.Opacity(opacity),
		},
	}
}

// buildMoves derives the full choreography from an expand state. Geometry
// comes exclusively from st.measurements plus the shared peek/box formulas,
// never from the live document, so expand settle and collapse start agree
// exactly. Participants are looked up fresh by id; missing optional ones
// are skipped, a missing target reports ok=false.
func (e *Engine) buildMoves(st *expandState) ([]move, bool) {
	target := e.doc.ElementByID(st.stepID)
	if target == nil || target.Role() != scene.RoleCard {
		return nil, false
	}

	targetIdx := -1
	for i, id := range st.cardIDs {
		if id == st.stepID {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return nil, false
	}

	geom := scene.Options{Duration: e.dur(ExpandDuration), Easing: scene.EaseOut}
	var moves []move

	// Target card: measured rect <-> expansion box.
	from := st.measurements[st.stepID]
	moves = append(moves, move{
		el: target,
		tracks: []scene.Track{
			{Prop: scene.PropLeft, From: from.Left, To: st.box.Left},
			{Prop: scene.PropTop, From: from.Top, To: st.box.Top},
			{Prop: scene.PropWidth, From: from.Width, To: st.box.Width},
			{Prop: scene.PropHeight, From: from.Height, To: st.box.Height},
		},
		fwd: geom,
		rev: geom,
		settle: map[string]string{
			scene.PropLeft:   scene.Px(st.box.Left),
			scene.PropTop:    scene.Px(st.box.Top),
			scene.PropWidth:  scene.Px(st.box.Width),
			scene.PropHeight: scene.Px(st.box.Height),
		},
	})

	// Header and config blocks slide up and out.
	for _, id := range []string{st.headerID, st.configID} {
		if id == "" {
			continue
		}
		el := e.doc.ElementByID(id)
		if el == nil {
			continue
		}
		m := st.measurements[id]
		moves = append(moves, e.slideMove(el, -(m.Bottom() + offscreenMargin), 0))
	}

	// Sibling cards: above the target slide up, the peek sibling docks at
	// the peek boundary, everything below slides fully down.
	for i, id := range st.cardIDs {
		if i == targetIdx {
			continue
		}
		el := e.doc.ElementByID(id)
		if el == nil {
			continue
		}
		m := st.measurements[id]
		switch {
		case i < targetIdx:
			moves = append(moves, e.slideMove(el, -(m.Bottom() + offscreenMargin), 0))
		case i == st.peekIdx:
			moves = append(moves, e.slideMove(el, st.viewportH*peekFrac-m.Top, e.peekOpacity()))
		default:
			moves = append(moves, e.slideMove(el, st.viewportH-m.Top+offscreenMargin, 0))
		}
	}

	// The target's compact inner content fades on its own clock: out fast
	// during expand, back in late during collapse.
	if st.compactID != "" {
		if compact := e.doc.ElementByID(st.compactID); compact != nil {
			moves = append(moves, move{
				el:     compact,
				tracks: []scene.Track{{Prop: scene.PropOpacity, From: 1, To: 0}},
				fwd:    scene.Options{Duration: e.dur(CompactFadeDuration), Easing: scene.EaseOut},
				rev: scene.Options{
					Duration: e.dur(CompactFadeInDuration),
					Delay:    e.dur(CompactFadeInDelay),
					Easing:   scene.EaseOut,
				},
				settle: map[string]string{scene.PropOpacity: scene.Opacity(0)},
			})
		}
	}

	return moves, true
}

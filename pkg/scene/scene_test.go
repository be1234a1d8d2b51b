package scene

import (
	"testing"
	"time"
)

func buildTree(t *testing.T) *Document {
	t.Helper()
	doc := NewDocument("root", 100, 50)
	list := doc.MustCreateElement("list", RoleList)
	doc.AppendChild(doc.Root(), list)
	for _, id := range []string{"a", "b", "c"} {
		card := doc.MustCreateElement(id, RoleCard)
		card.SetBaseHeight(4)
		doc.AppendChild(list, card)
	}
	return doc
}

func TestFlowLayoutStacksCards(t *testing.T) {
	doc := buildTree(t)

	a := doc.BoundingRect(doc.ElementByID("a"))
	b := doc.BoundingRect(doc.ElementByID("b"))
	c := doc.BoundingRect(doc.ElementByID("c"))

	if a.Top >= b.Top || b.Top >= c.Top {
		t.Fatalf("cards should stack downward: %v %v %v", a, b, c)
	}
	if got, want := b.Top-a.Bottom(), doc.Gap; got != want {
		t.Errorf("gap between cards = %v, want %v", got, want)
	}
	if a.Height != 4 {
		t.Errorf("card height = %v, want base height 4", a.Height)
	}
	if a.Left != doc.Padding {
		t.Errorf("card left = %v, want container padding %v", a.Left, doc.Padding)
	}
}

func TestMaxWidthCentersContainer(t *testing.T) {
	doc := buildTree(t)
	doc.MaxWidth = 60

	a := doc.BoundingRect(doc.ElementByID("a"))
	wantLeft := (100.0-60.0)/2 + doc.Padding
	if a.Left != wantLeft {
		t.Errorf("card left = %v, want %v", a.Left, wantLeft)
	}
	if a.Width != 60-2*doc.Padding {
		t.Errorf("card width = %v, want %v", a.Width, 60-2*doc.Padding)
	}
}

func TestAbsolutePositioningPinsElement(t *testing.T) {
	doc := buildTree(t)
	b := doc.ElementByID("b")
	b.SetStyles(map[string]string{
		PropPosition: "absolute",
		PropLeft:     Px(10),
		PropTop:      Px(20),
		PropWidth:    Px(30),
		PropHeight:   Px(5),
	})

	if got := doc.BoundingRect(b); got != (Rect{10, 20, 30, 5}) {
		t.Errorf("pinned rect = %+v", got)
	}

	// The absolute element no longer consumes flow space.
	a := doc.BoundingRect(doc.ElementByID("a"))
	c := doc.BoundingRect(doc.ElementByID("c"))
	if got, want := c.Top-a.Bottom(), doc.Gap; got != want {
		t.Errorf("flow skips absolute sibling: gap = %v, want %v", got, want)
	}
}

func TestTransformAffectsBoundingRectOnly(t *testing.T) {
	doc := buildTree(t)
	a := doc.ElementByID("a")
	base := doc.BoundingRect(a)

	a.SetStyle(PropTransform, TranslateY(7))
	moved := doc.BoundingRect(a)
	if moved.Top != base.Top+7 {
		t.Errorf("translated top = %v, want %v", moved.Top, base.Top+7)
	}

	// Siblings are unaffected: transform never reflows.
	b := doc.BoundingRect(doc.ElementByID("b"))
	if b.Top != base.Bottom()+doc.Gap {
		t.Errorf("sibling top = %v, want %v", b.Top, base.Bottom()+doc.Gap)
	}
}

func TestDisplayNoneMeasuresZero(t *testing.T) {
	doc := buildTree(t)
	b := doc.ElementByID("b")
	b.SetStyle(PropDisplay, "none")

	if got := doc.BoundingRect(b); got != (Rect{}) {
		t.Errorf("display:none rect = %+v, want zero", got)
	}
	for _, r := range doc.Resolve() {
		if r.El.ID() == "b" {
			t.Error("display:none element should not be painted")
		}
	}
}

func TestStyleSnapshotRestoresExactly(t *testing.T) {
	doc := buildTree(t)
	a := doc.ElementByID("a")
	a.SetStyle(PropMargin, "1px")

	snap := a.StyleSnapshot(PropMargin, PropTransform, PropOpacity)
	a.SetStyles(map[string]string{
		PropMargin:    "0px",
		PropTransform: TranslateY(-12),
		PropOpacity:   "0",
	})
	a.SetStyles(snap)

	want := map[string]string{PropMargin: "1px"}
	got := a.InlineStyles()
	if len(got) != len(want) || got[PropMargin] != "1px" {
		t.Errorf("restored styles = %v, want %v", got, want)
	}
}

func TestFillForwardOverridesInlineWrites(t *testing.T) {
	doc := buildTree(t)
	a := doc.ElementByID("a")
	a.SetStyles(map[string]string{
		PropPosition: "absolute",
		PropLeft:     Px(0),
		PropTop:      Px(0),
		PropWidth:    Px(10),
		PropHeight:   Px(4),
	})

	anim := doc.Animate(a, []Track{{Prop: PropTop, From: 0, To: 30}}, Options{
		Duration: 100 * time.Millisecond,
		Easing:   Linear,
	})
	doc.Step(200 * time.Millisecond)
	if !anim.Finished() {
		t.Fatal("animation should have finished")
	}

	// While the finished animation is live it shadows inline writes.
	a.SetStyle(PropTop, Px(5))
	if got := doc.BoundingRect(a).Top; got != 30 {
		t.Errorf("top with fill-forward animation = %v, want 30", got)
	}

	// Cancel drops the override, revealing the inline value.
	anim.Cancel()
	if got := doc.BoundingRect(a).Top; got != 5 {
		t.Errorf("top after cancel = %v, want 5", got)
	}
}

func TestAnimationInterpolatesWithEasing(t *testing.T) {
	doc := buildTree(t)
	a := doc.ElementByID("a")
	a.SetStyles(map[string]string{PropPosition: "absolute", PropLeft: Px(0), PropTop: Px(0), PropWidth: Px(10), PropHeight: Px(4)})

	doc.Animate(a, []Track{{Prop: PropTop, From: 0, To: 100}}, Options{
		Duration: 100 * time.Millisecond,
		Easing:   Linear,
	})
	doc.Step(50 * time.Millisecond)
	if got := doc.BoundingRect(a).Top; got < 49 || got > 51 {
		t.Errorf("midpoint top = %v, want ~50 with linear easing", got)
	}

	// Ease-out runs ahead of linear at the midpoint.
	b := doc.ElementByID("b")
	b.SetStyles(map[string]string{PropPosition: "absolute", PropLeft: Px(0), PropTop: Px(0), PropWidth: Px(10), PropHeight: Px(4)})
	doc.Animate(b, []Track{{Prop: PropTop, From: 0, To: 100}}, Options{
		Duration: 100 * time.Millisecond,
		Easing:   EaseOut,
	})
	doc.Step(50 * time.Millisecond)
	if got := doc.BoundingRect(b).Top; got <= 51 {
		t.Errorf("eased midpoint top = %v, want well past linear midpoint", got)
	}
}

func TestDelayedAnimationDoesNotFillBackwards(t *testing.T) {
	doc := buildTree(t)
	a := doc.ElementByID("a")
	a.SetStyle(PropOpacity, "0")

	doc.Animate(a, []Track{{Prop: PropOpacity, From: 0, To: 1}}, Options{
		Duration: 100 * time.Millisecond,
		Delay:    100 * time.Millisecond,
		Easing:   Linear,
	})

	// During the delay the inline opacity still shows.
	doc.Step(50 * time.Millisecond)
	for _, r := range doc.Resolve() {
		if r.El.ID() == "a" {
			t.Errorf("element should be invisible during delay, got opacity %v", r.Opacity)
		}
	}

	doc.Step(200 * time.Millisecond)
	found := false
	for _, r := range doc.Resolve() {
		if r.El.ID() == "a" {
			found = true
			if r.Opacity != 1 {
				t.Errorf("final opacity = %v, want 1", r.Opacity)
			}
		}
	}
	if !found {
		t.Error("element should be painted after the animation finishes")
	}
}

func TestZeroDurationAnimationCompletesImmediately(t *testing.T) {
	doc := buildTree(t)
	a := doc.ElementByID("a")

	anim := doc.Animate(a, []Track{{Prop: PropOpacity, From: 1, To: 0}}, Options{})
	select {
	case <-anim.Done():
	default:
		t.Fatal("zero-duration animation should complete at launch")
	}
}

func TestRemoveCancelsAnimations(t *testing.T) {
	doc := buildTree(t)
	a := doc.ElementByID("a")
	anim := doc.Animate(a, []Track{{Prop: PropOpacity, From: 1, To: 0}}, Options{
		Duration: time.Second,
		Easing:   Linear,
	})
	doc.Remove(a)

	select {
	case <-anim.Done():
	default:
		t.Fatal("removing an element should cancel and release its animations")
	}
	if doc.ElementByID("a") != nil {
		t.Error("removed element should be forgotten")
	}
}

func TestPxRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, 36, 48.5, 0.30001, -12.25} {
		got, ok := ParsePx(Px(v))
		if !ok || got != v {
			t.Errorf("ParsePx(Px(%v)) = %v, %v", v, got, ok)
		}
	}
	if _, ok := ParsePx(""); ok {
		t.Error("empty string should not parse as a length")
	}
}

func TestTranslateYRoundTrip(t *testing.T) {
	for _, v := range []float64{0, -33.5, 7} {
		got, ok := ParseTranslateY(TranslateY(v))
		if !ok || got != v {
			t.Errorf("ParseTranslateY(TranslateY(%v)) = %v, %v", v, got, ok)
		}
	}
	if v, ok := ParseTranslateY(""); !ok || v != 0 {
		t.Error("unset transform should parse as zero offset")
	}
}

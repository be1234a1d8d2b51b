package flip

// Property-based round-trip testing: for any dashboard shape, any viewport
// and any expanded card, expand followed by collapse leaves every inline
// style attribute exactly as it was and no extra elements behind.

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/neurodeck/pkg/scene"
)

func TestRoundTripIdentityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vw := rapid.Float64Range(40, 400).Draw(t, "vw")
		vh := rapid.Float64Range(20, 200).Draw(t, "vh")
		doc := scene.NewDocument("dashboard", vw, vh)

		if rapid.Bool().Draw(t, "header") {
			h := doc.MustCreateElement("header", scene.RoleHeader)
			h.SetBaseHeight(rapid.Float64Range(1, 6).Draw(t, "headerH"))
			doc.AppendChild(doc.Root(), h)
		}
		if rapid.Bool().Draw(t, "config") {
			c := doc.MustCreateElement("config", scene.RoleConfig)
			c.SetBaseHeight(rapid.Float64Range(1, 4).Draw(t, "configH"))
			doc.AppendChild(doc.Root(), c)
		}

		list := doc.MustCreateElement("steps", scene.RoleList)
		doc.AppendChild(doc.Root(), list)

		n := rapid.IntRange(1, 6).Draw(t, "cards")
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("step-%d", i)
			card := doc.MustCreateElement(id, scene.RoleCard)
			card.SetBaseHeight(rapid.Float64Range(2, 12).Draw(t, "cardH"))
			doc.AppendChild(list, card)

			// Some cards carry pre-existing inline styles that must come
			// back string-for-string.
			if rapid.Bool().Draw(t, "styled") {
				card.SetStyle(scene.PropMargin, scene.Px(rapid.Float64Range(0, 3).Draw(t, "margin")))
			}
			if rapid.Bool().Draw(t, "dimmed") {
				card.SetStyle(scene.PropOpacity, scene.Opacity(rapid.Float64Range(0.5, 1).Draw(t, "op")))
			}
			if rapid.Bool().Draw(t, "compact") {
				compact := doc.MustCreateElement(id+"-compact", scene.RoleCompact)
				compact.SetBaseHeight(1)
				doc.AppendChild(card, compact)
			}
		}
		if rapid.Bool().Draw(t, "results") {
			r := doc.MustCreateElement("results", scene.RolePanel)
			r.SetBaseHeight(4)
			doc.AppendChild(doc.Root(), r)
		}

		eng := NewEngine(doc, WithReducedMotion())
		before := allInlineStyles(doc)
		target := fmt.Sprintf("step-%d", rapid.IntRange(0, n-1).Draw(t, "target"))

		if err := eng.Expand(context.Background(), target); err != nil {
			t.Fatalf("Expand(%s): %v", target, err)
		}
		if !eng.Expanded() {
			t.Fatalf("expansion not recorded for %s", target)
		}
		if err := eng.Collapse(context.Background()); err != nil {
			t.Fatalf("Collapse: %v", err)
		}
		if eng.Expanded() {
			t.Fatal("engine should be idle after collapse")
		}

		after := allInlineStyles(doc)
		if len(after) != len(before) {
			t.Fatalf("element count changed: %d -> %d", len(before), len(after))
		}
		for id, w := range before {
			g := after[id]
			if len(w) != len(g) {
				t.Fatalf("element %q: style set %v, want %v", id, g, w)
			}
			for prop, wv := range w {
				if g[prop] != wv {
					t.Fatalf("element %q: style %q = %q, want %q", id, prop, g[prop], wv)
				}
			}
		}
	})
}

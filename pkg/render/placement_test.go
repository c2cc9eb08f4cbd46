package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
	"github.com/jwebster45206/room-engine/pkg/viewport"
)

const placementEpsilon = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < placementEpsilon
}

func TestPlaceItemContainFit(t *testing.T) {
	// A 200x100 source image into a 100x100 box: fit scale 0.5, the
	// 200x100 image becomes 100x50 centered vertically in the box.
	item := &room.Item{ID: "item_sign", X: 10, Y: 20, W: 100, H: 100}
	p := PlaceItem(item, viewport.Transform{Scale: 1}, 200, 100)

	x, y := p.Matrix.Apply(0, 0)
	if !almostEqual(x, 10) || !almostEqual(y, 45) {
		t.Errorf("top-left mapped to (%v, %v), want (10, 45)", x, y)
	}
	x, y = p.Matrix.Apply(200, 100)
	if !almostEqual(x, 110) || !almostEqual(y, 95) {
		t.Errorf("bottom-right mapped to (%v, %v), want (110, 95)", x, y)
	}
}

func TestPlaceItemViewportCompose(t *testing.T) {
	// Square image in a square box, viewport at 2x with a (100, 50) offset.
	item := &room.Item{ID: "item_statue", X: 10, Y: 10, W: 40, H: 40}
	vt := viewport.Transform{Scale: 2, OffsetX: 100, OffsetY: 50}
	p := PlaceItem(item, vt, 40, 40)

	x, y := p.Matrix.Apply(0, 0)
	if !almostEqual(x, 120) || !almostEqual(y, 70) {
		t.Errorf("top-left mapped to (%v, %v), want (120, 70)", x, y)
	}
}

func TestPlaceItemRotationAboutCenter(t *testing.T) {
	// A quarter turn keeps the box center fixed.
	item := &room.Item{ID: "item_dial", X: 0, Y: 0, W: 100, H: 100, Rotation: math.Pi / 2}
	p := PlaceItem(item, viewport.Transform{Scale: 1}, 100, 100)

	x, y := p.Matrix.Apply(50, 50)
	if !almostEqual(x, 50) || !almostEqual(y, 50) {
		t.Errorf("center moved to (%v, %v) under rotation", x, y)
	}

	// The source top-left corner lands at the bottom-left after a
	// counter-clockwise quarter turn of screen coordinates.
	x, y = p.Matrix.Apply(0, 0)
	if !almostEqual(x, 100) || !almostEqual(y, 0) {
		t.Errorf("corner mapped to (%v, %v), want (100, 0)", x, y)
	}
}

func TestPlaceItemShadowOffset(t *testing.T) {
	item := &room.Item{ID: "item_lamp", X: 0, Y: 0, W: 50, H: 50}
	vt := viewport.Transform{Scale: 2}
	p := PlaceItem(item, vt, 50, 50)

	ix, iy := p.Matrix.Apply(0, 0)
	sx, sy := p.ShadowMatrix.Apply(0, 0)
	if !almostEqual(sx-ix, shadowOffsetX*vt.Scale) || !almostEqual(sy-iy, shadowOffsetY*vt.Scale) {
		t.Errorf("shadow displaced by (%v, %v), want (%v, %v)",
			sx-ix, sy-iy, shadowOffsetX*vt.Scale, shadowOffsetY*vt.Scale)
	}
}

func TestPlaceItemOpacityDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opacity float64
		want    float64
	}{
		{"unset defaults to opaque", 0, 1},
		{"authored value kept", 0.4, 0.4},
		{"out of range clamps", 1.5, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item := &room.Item{ID: "item_ghost", W: 10, H: 10, Opacity: tc.opacity}
			p := PlaceItem(item, viewport.Transform{Scale: 1}, 10, 10)
			if p.Alpha != tc.want {
				t.Errorf("alpha = %v, want %v", p.Alpha, tc.want)
			}
		})
	}
}

func TestParseTint(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#ff8000", color.NRGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, true},
		{"#ff800080", color.NRGBA{R: 0xff, G: 0x80, B: 0x00, A: 0x80}, true},
		{" #102030 ", color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, true},
		{"", color.NRGBA{}, false},
		{"#xyz", color.NRGBA{}, false},
		{"#12345", color.NRGBA{}, false},
	}
	for _, tc := range tests {
		got, ok := parseTint(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseTint(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestVisibleItemsRespectsSceneState(t *testing.T) {
	layout := &room.Layout{
		Width: 100, Height: 100,
		Items: []room.Item{
			{ID: "item_shown", Key: "shown", W: 10, H: 10},
			{ID: "item_authored_hidden", Key: "authored_hidden", W: 10, H: 10, Hidden: true},
			{ID: "item_state_hidden", Key: "state_hidden", W: 10, H: 10},
		},
	}
	layout.ResolveOrder()

	state := progress.NewSceneState()
	state.HideItem("item_state_hidden")
	state.ShowItem("item_authored_hidden")

	f := testFrame()
	f.Layout = layout
	f.State = &state

	got := visibleItems(f)
	if len(got) != 2 {
		t.Fatalf("expected 2 visible items, got %d", len(got))
	}
	if got[0].ID != "item_shown" || got[1].ID != "item_authored_hidden" {
		t.Errorf("unexpected visible set: %s, %s", got[0].ID, got[1].ID)
	}
}

package viewport

import "github.com/jwebster45206/room-engine/pkg/room"

// HitTest resolves a layout-space point to a hotspot. Hotspots are
// scanned in authored order and the first containing rectangle wins.
// Both render backends resolve taps through this one routine; a second
// implementation diverging from it would be a correctness bug.
func HitTest(hotspots []room.Hotspot, x, y float64) *room.Hotspot {
	for i := range hotspots {
		h := &hotspots[i]
		r := Rect{X: h.X, Y: h.Y, W: h.W, H: h.H}
		if r.Contains(x, y) {
			return h
		}
	}
	return nil
}

// HitTestScreen resolves a pointer position in surface pixels. The
// caller must pass the same transform the renderer drew with; pointer
// coordinates are used directly against backing-store dimensions
// (device pixel ratio is already baked into backing-store sizing).
func HitTestScreen(t Transform, hotspots []room.Hotspot, screenX, screenY float64) *room.Hotspot {
	lx, ly := t.Invert(screenX, screenY)
	return HitTest(hotspots, lx, ly)
}

package viewport

import "math"

// FitMode selects how a logical layout is scaled onto a drawable surface.
type FitMode int

const (
	// FitContain letterboxes so the whole scene is visible (player view).
	FitContain FitMode = iota
	// FitCover center-crops so the surface is fully covered (author view).
	FitCover
)

// Rect is an axis-aligned rectangle in a single coordinate space.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies in [X, X+W] x [Y, Y+H].
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Transform maps layout units to drawable surface pixels: uniform scale
// plus a centering offset. The inverse is exact, which keeps hit-testing
// aligned with drawn geometry across all surface sizes.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// NewTransform computes the transform for a layout of (layoutW, layoutH)
// drawn onto a surface of (targetW, targetH) under the given fit mode.
// Degenerate sizes yield the identity transform.
func NewTransform(layoutW, layoutH, targetW, targetH float64, mode FitMode) Transform {
	if layoutW <= 0 || layoutH <= 0 || targetW <= 0 || targetH <= 0 {
		return Transform{Scale: 1}
	}
	sx := targetW / layoutW
	sy := targetH / layoutH

	var scale float64
	if mode == FitCover {
		scale = math.Max(sx, sy)
	} else {
		scale = math.Min(sx, sy)
	}

	return Transform{
		Scale:   scale,
		OffsetX: (targetW - layoutW*scale) / 2,
		OffsetY: (targetH - layoutH*scale) / 2,
	}
}

// Apply maps a layout point to surface pixels.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.OffsetX + x*t.Scale, t.OffsetY + y*t.Scale
}

// ApplyRect maps a layout rectangle to surface pixels.
func (t Transform) ApplyRect(r Rect) Rect {
	x, y := t.Apply(r.X, r.Y)
	return Rect{X: x, Y: y, W: r.W * t.Scale, H: r.H * t.Scale}
}

// Invert maps a surface point back to layout units.
func (t Transform) Invert(x, y float64) (float64, float64) {
	if t.Scale == 0 {
		return 0, 0
	}
	return (x - t.OffsetX) / t.Scale, (y - t.OffsetY) / t.Scale
}

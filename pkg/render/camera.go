package render

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/jwebster45206/room-engine/pkg/viewport"
)

const (
	cameraMaxZoom      = 3.0
	cameraSnapDuration = 0.25
)

// Camera layers player pinch-zoom and pan on top of the base viewport
// transform. Zoom is clamped between the fitted scale (1x) and
// cameraMaxZoom; releasing a gesture that left the layout edge inside
// the surface tweens the view back to a legal position.
type Camera struct {
	base viewport.Transform

	surfaceW, surfaceH float64
	layoutW, layoutH   float64

	zoom         float64
	panX, panY   float64
	snapX, snapY *gween.Tween
	snapZ        *gween.Tween
}

// NewCamera creates a camera at rest over the base transform.
func NewCamera(base viewport.Transform, surfaceW, surfaceH, layoutW, layoutH float64) *Camera {
	return &Camera{
		base:     base,
		surfaceW: surfaceW,
		surfaceH: surfaceH,
		layoutW:  layoutW,
		layoutH:  layoutH,
		zoom:     1,
	}
}

// SetBase replaces the base transform after a resize, preserving the
// player's zoom and pan where still legal.
func (c *Camera) SetBase(base viewport.Transform, surfaceW, surfaceH float64) {
	c.base = base
	c.surfaceW = surfaceW
	c.surfaceH = surfaceH
	c.clampPan()
}

// ZoomAt zooms by factor about the given surface point, so the pixel
// under the player's fingers stays put.
func (c *Camera) ZoomAt(factor, sx, sy float64) {
	c.cancelSnap()
	prev := c.zoom
	c.zoom = math.Max(1, math.Min(cameraMaxZoom, c.zoom*factor))
	if c.zoom == prev {
		return
	}
	ratio := c.zoom / prev
	c.panX = sx - ratio*(sx-c.panX)
	c.panY = sy - ratio*(sy-c.panY)
}

// Pan moves the view by a surface-pixel delta.
func (c *Camera) Pan(dx, dy float64) {
	c.cancelSnap()
	c.panX += dx
	c.panY += dy
}

// Release ends a gesture. If the view drifted past the layout edges a
// snap-back tween starts; Update advances it.
func (c *Camera) Release() {
	tx, ty := c.legalPan(c.panX, c.panY)
	tz := c.zoom
	if tz < 1 {
		tz = 1
	}
	if tx != c.panX {
		c.snapX = gween.New(float32(c.panX), float32(tx), cameraSnapDuration, ease.OutQuad)
	}
	if ty != c.panY {
		c.snapY = gween.New(float32(c.panY), float32(ty), cameraSnapDuration, ease.OutQuad)
	}
	if tz != c.zoom {
		c.snapZ = gween.New(float32(c.zoom), float32(tz), cameraSnapDuration, ease.OutQuad)
	}
}

// Update advances snap-back tweens by dt seconds. Returns true while the
// camera is still animating, which is a redraw trigger.
func (c *Camera) Update(dt float32) bool {
	animating := false
	if c.snapX != nil {
		v, done := c.snapX.Update(dt)
		c.panX = float64(v)
		if done {
			c.snapX = nil
		} else {
			animating = true
		}
	}
	if c.snapY != nil {
		v, done := c.snapY.Update(dt)
		c.panY = float64(v)
		if done {
			c.snapY = nil
		} else {
			animating = true
		}
	}
	if c.snapZ != nil {
		v, done := c.snapZ.Update(dt)
		c.zoom = float64(v)
		if done {
			c.snapZ = nil
		} else {
			animating = true
		}
	}
	return animating
}

// Transform returns the effective layout-to-surface transform with the
// player's zoom and pan composed over the base fit. Hit testing uses
// this same transform.
func (c *Camera) Transform() viewport.Transform {
	return viewport.Transform{
		Scale:   c.base.Scale * c.zoom,
		OffsetX: c.base.OffsetX*c.zoom + c.panX,
		OffsetY: c.base.OffsetY*c.zoom + c.panY,
	}
}

// Zoom returns the current zoom factor relative to the fitted view.
func (c *Camera) Zoom() float64 {
	return c.zoom
}

func (c *Camera) cancelSnap() {
	c.snapX = nil
	c.snapY = nil
	c.snapZ = nil
}

// legalPan clamps a pan so the scaled layout covers as much of the
// surface as it can. When the scaled layout is smaller than the surface
// on an axis the base transform's centering wins and pan returns to 0.
func (c *Camera) legalPan(px, py float64) (float64, float64) {
	t := viewport.Transform{
		Scale:   c.base.Scale * c.zoom,
		OffsetX: c.base.OffsetX * c.zoom,
		OffsetY: c.base.OffsetY * c.zoom,
	}
	w := c.layoutW * t.Scale
	h := c.layoutH * t.Scale

	px = clampAxis(px, t.OffsetX, w, c.surfaceW)
	py = clampAxis(py, t.OffsetY, h, c.surfaceH)
	return px, py
}

func clampAxis(pan, offset, scaled, surface float64) float64 {
	if scaled <= surface {
		return 0
	}
	// Left/top edge may not move right/down of the surface origin, and
	// the right/bottom edge may not move left/up of the surface end.
	min := surface - scaled - offset
	max := -offset
	return math.Max(min, math.Min(max, pan))
}

func (c *Camera) clampPan() {
	c.panX, c.panY = c.legalPan(c.panX, c.panY)
}

package render

import (
	"testing"

	"github.com/jwebster45206/room-engine/pkg/viewport"
)

func restCamera() *Camera {
	// 1000x1000 layout contain-fit into an 800x600 surface: scale 0.6,
	// centered horizontally with 100px bars left and right.
	base := viewport.NewTransform(1000, 1000, 800, 600, viewport.FitContain)
	return NewCamera(base, 800, 600, 1000, 1000)
}

func TestCameraAtRestMatchesBase(t *testing.T) {
	c := restCamera()
	got := c.Transform()
	want := viewport.NewTransform(1000, 1000, 800, 600, viewport.FitContain)
	if got != want {
		t.Errorf("rest transform = %+v, want %+v", got, want)
	}
}

func TestCameraZoomClamped(t *testing.T) {
	c := restCamera()

	c.ZoomAt(10, 400, 300)
	if c.Zoom() != cameraMaxZoom {
		t.Errorf("zoom = %v, want clamp at %v", c.Zoom(), cameraMaxZoom)
	}

	c.ZoomAt(0.01, 400, 300)
	if c.Zoom() != 1 {
		t.Errorf("zoom = %v, want clamp at 1", c.Zoom())
	}
}

func TestCameraZoomKeepsFocusPoint(t *testing.T) {
	c := restCamera()

	// The layout point under the surface focus must stay put across zoom.
	before := c.Transform()
	fx, fy := 400.0, 300.0
	lx, ly := before.Invert(fx, fy)

	c.ZoomAt(2, fx, fy)
	after := c.Transform()
	sx, sy := after.Apply(lx, ly)
	if !almostEqual(sx, fx) || !almostEqual(sy, fy) {
		t.Errorf("focus point drifted to (%v, %v), want (%v, %v)", sx, sy, fx, fy)
	}
}

func TestCameraSnapBackAfterPan(t *testing.T) {
	c := restCamera()
	c.ZoomAt(2, 400, 300)

	// Drag far off the edge and release.
	c.Pan(5000, 5000)
	c.Release()

	animating := true
	for i := 0; i < 100 && animating; i++ {
		animating = c.Update(0.05)
	}
	if animating {
		t.Fatal("snap-back tween never settled")
	}

	// The layout's left edge may not sit right of the surface origin.
	tr := c.Transform()
	x, _ := tr.Apply(0, 0)
	if x > placementEpsilon {
		t.Errorf("layout left edge at %v after snap-back, want <= 0", x)
	}
	// The right edge may not sit left of the surface end.
	x2, _ := tr.Apply(1000, 0)
	if x2 < 800-placementEpsilon {
		t.Errorf("layout right edge at %v after snap-back, want >= 800", x2)
	}
}

func TestCameraNoSnapWhenLegal(t *testing.T) {
	c := restCamera()
	c.ZoomAt(2, 400, 300)

	before := c.Transform()
	c.Release()
	if c.Update(0.05) {
		t.Error("legal view must not start a snap-back tween")
	}
	if got := c.Transform(); got != before {
		t.Errorf("transform moved from %+v to %+v without a gesture", before, got)
	}
}

func TestCameraPanAtRestSnapsHome(t *testing.T) {
	// Unzoomed, the scaled layout fits the surface on the x axis, so any
	// horizontal pan snaps back to the centered position.
	c := restCamera()
	c.Pan(50, 0)
	c.Release()

	for i := 0; i < 100 && c.Update(0.05); i++ {
	}
	got := c.Transform()
	want := viewport.NewTransform(1000, 1000, 800, 600, viewport.FitContain)
	if !almostEqual(got.OffsetX, want.OffsetX) || !almostEqual(got.OffsetY, want.OffsetY) {
		t.Errorf("offsets (%v, %v) after snap, want (%v, %v)",
			got.OffsetX, got.OffsetY, want.OffsetX, want.OffsetY)
	}
}

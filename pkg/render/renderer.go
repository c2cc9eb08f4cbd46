// Package render draws a room layout plus a team's scene state onto a
// drawable surface. Two interchangeable backends produce identical pixel
// placement: a retained ebiten scene graph (preferred) and a CPU
// immediate-mode fallback. A supervisor switches to the fallback when the
// primary fails at init or mid-frame, without losing scene state.
package render

import (
	"log/slog"
	"sync"

	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
	"github.com/jwebster45206/room-engine/pkg/viewport"
)

// Frame is everything a backend needs to draw one picture. Both backends
// receive identical frames, so placement differences are backend bugs.
type Frame struct {
	Layout     *room.Layout
	State      *progress.SceneState
	Transform  viewport.Transform
	AuthorMode bool
	Assets     *AssetCache
}

// Backend is one rendering implementation.
type Backend interface {
	// Init prepares the backend for a surface of the given pixel size.
	Init(width, height int) error
	// DrawFrame draws the frame. An error here is a backend failure,
	// not a scene problem; the supervisor reacts by switching backends.
	DrawFrame(f *Frame) error
	// Dispose releases backend resources.
	Dispose()
}

// Renderer is the public entry point: it owns the supervisor, the asset
// cache, and the current scene, and redraws on demand (state change,
// resize, asset load) rather than on a continuous loop.
type Renderer struct {
	mu sync.Mutex

	sup    *Supervisor
	assets *AssetCache
	logger *slog.Logger

	layout     *room.Layout
	state      *progress.SceneState
	fitMode    viewport.FitMode
	authorMode bool

	width, height int
	dirty         bool
}

// NewRenderer wires a renderer from a primary and fallback backend.
// Player views use FitContain; author views use FitCover.
func NewRenderer(primary, fallback Backend, assets *AssetCache, mode viewport.FitMode, logger *slog.Logger) *Renderer {
	r := &Renderer{
		sup:     NewSupervisor(primary, fallback, logger),
		assets:  assets,
		logger:  logger,
		fitMode: mode,
		dirty:   true,
	}
	// An asset resolving is a redraw trigger, not a render loop tick.
	assets.OnLoad(r.Invalidate)
	return r
}

// SetScene replaces the scene being drawn. In-flight asset loads for the
// previous scene are invalidated so stale completions cannot corrupt the
// new one.
func (r *Renderer) SetScene(l *room.Layout, state *progress.SceneState, authorMode bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layout = l
	r.state = state
	r.authorMode = authorMode
	r.assets.Invalidate()
	r.dirty = true
}

// UpdateState swaps in new progress state (after a session update) and
// schedules a redraw. Asset loads stay valid; the layout is unchanged.
func (r *Renderer) UpdateState(state *progress.SceneState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.dirty = true
}

// Resize records the new surface size and schedules a redraw.
func (r *Renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = width
	r.height = height
	r.dirty = true
	return r.sup.Init(width, height)
}

// Invalidate schedules a redraw on the next RenderFrame call.
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// Transform returns the layout-to-surface transform currently in effect.
// The hit tester must use exactly this transform.
func (r *Renderer) Transform() viewport.Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transformLocked()
}

func (r *Renderer) transformLocked() viewport.Transform {
	if r.layout == nil {
		return viewport.Transform{Scale: 1}
	}
	return viewport.NewTransform(r.layout.Width, r.layout.Height,
		float64(r.width), float64(r.height), r.fitMode)
}

// HitTest resolves a pointer position in surface pixels to a hotspot,
// skipping disabled hotspots. Both backends share this one routine.
func (r *Renderer) HitTest(screenX, screenY float64) *room.Hotspot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.layout == nil {
		return nil
	}
	h := viewport.HitTestScreen(r.transformLocked(), r.layout.Hotspots, screenX, screenY)
	if h == nil {
		return nil
	}
	if r.state != nil && !r.state.HotspotEnabled(h.ID) {
		return nil
	}
	return h
}

// RenderFrame draws the current scene if anything changed since the last
// call. Returns true when a frame was drawn.
func (r *Renderer) RenderFrame() (bool, error) {
	r.mu.Lock()
	if !r.dirty || r.layout == nil {
		r.mu.Unlock()
		return false, nil
	}
	f := &Frame{
		Layout:     r.layout,
		State:      r.state,
		Transform:  r.transformLocked(),
		AuthorMode: r.authorMode,
		Assets:     r.assets,
	}
	r.dirty = false
	r.mu.Unlock()

	if err := r.sup.Render(f); err != nil {
		// Leave dirty so the next call retries on the fallback.
		r.Invalidate()
		return false, err
	}
	return true, nil
}

// UsingFallback reports whether the supervisor has switched backends.
func (r *Renderer) UsingFallback() bool {
	return r.sup.UsingFallback()
}

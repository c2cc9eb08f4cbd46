package render

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
	"github.com/jwebster45206/room-engine/pkg/viewport"
)

// stubBackend counts calls and fails on command.
type stubBackend struct {
	initErr  error
	drawErr  error
	inits    int
	draws    int
	disposed int
}

func (s *stubBackend) Init(width, height int) error {
	s.inits++
	return s.initErr
}

func (s *stubBackend) DrawFrame(f *Frame) error {
	s.draws++
	return s.drawErr
}

func (s *stubBackend) Dispose() {
	s.disposed++
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testFrame() *Frame {
	return &Frame{
		Layout:    &room.Layout{Width: 100, Height: 100},
		Transform: viewport.Transform{Scale: 1},
		Assets:    NewAssetCache(nil, "", testLogger()),
	}
}

func TestSupervisorHealthyPrimary(t *testing.T) {
	primary := &stubBackend{}
	fallback := &stubBackend{}
	sup := NewSupervisor(primary, fallback, testLogger())

	if err := sup.Init(800, 600); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	if err := sup.Render(testFrame()); err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if sup.UsingFallback() {
		t.Error("expected primary to stay active")
	}
	if fallback.inits != 0 || fallback.draws != 0 {
		t.Errorf("fallback should be untouched, got %d inits %d draws", fallback.inits, fallback.draws)
	}
}

func TestSupervisorInitFailureDemotes(t *testing.T) {
	primary := &stubBackend{initErr: errors.New("no gpu")}
	fallback := &stubBackend{}
	sup := NewSupervisor(primary, fallback, testLogger())

	if err := sup.Init(800, 600); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	if !sup.UsingFallback() {
		t.Fatal("expected fallback after primary init failure")
	}
	if primary.disposed != 1 {
		t.Errorf("expected primary disposed once, got %d", primary.disposed)
	}
	if err := sup.Render(testFrame()); err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if fallback.draws != 1 {
		t.Errorf("expected fallback draw, got %d", fallback.draws)
	}
}

func TestSupervisorMidFrameFailureRedrawsSameFrame(t *testing.T) {
	primary := &stubBackend{drawErr: errors.New("device lost")}
	fallback := &stubBackend{}
	sup := NewSupervisor(primary, fallback, testLogger())

	if err := sup.Init(800, 600); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	// The failed frame is redrawn on the fallback in the same call.
	if err := sup.Render(testFrame()); err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	if !sup.UsingFallback() {
		t.Fatal("expected fallback after mid-frame failure")
	}
	if primary.draws != 1 {
		t.Errorf("expected one primary draw attempt, got %d", primary.draws)
	}
	if fallback.inits != 1 || fallback.draws != 1 {
		t.Errorf("expected fallback init+draw, got %d inits %d draws", fallback.inits, fallback.draws)
	}
}

func TestSupervisorDemotionIsPermanent(t *testing.T) {
	primary := &stubBackend{drawErr: errors.New("device lost")}
	fallback := &stubBackend{}
	sup := NewSupervisor(primary, fallback, testLogger())

	if err := sup.Init(800, 600); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	if err := sup.Render(testFrame()); err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}

	// Clearing the primary's error must not bring it back.
	primary.drawErr = nil
	for i := 0; i < 3; i++ {
		if err := sup.Render(testFrame()); err != nil {
			t.Fatalf("unexpected render error: %v", err)
		}
	}
	if primary.draws != 1 {
		t.Errorf("demoted primary drew again, got %d draws", primary.draws)
	}
	if fallback.draws != 4 {
		t.Errorf("expected 4 fallback draws, got %d", fallback.draws)
	}
}

func TestSupervisorFallbackInitFailure(t *testing.T) {
	primary := &stubBackend{initErr: errors.New("no gpu")}
	fallback := &stubBackend{initErr: errors.New("no memory")}
	sup := NewSupervisor(primary, fallback, testLogger())

	if err := sup.Init(800, 600); err == nil {
		t.Fatal("expected error when both backends fail to initialize")
	}
}

func TestRendererSceneStateSwitchDoesNotReinit(t *testing.T) {
	primary := &stubBackend{}
	fallback := &stubBackend{}
	assets := NewAssetCache(nil, "", testLogger())
	r := NewRenderer(primary, fallback, assets, viewport.FitContain, testLogger())

	if err := r.Resize(800, 600); err != nil {
		t.Fatalf("unexpected resize error: %v", err)
	}
	layout := &room.Layout{Width: 400, Height: 300}
	state := progress.NewSceneState()
	r.SetScene(layout, &state, false)

	drawn, err := r.RenderFrame()
	if err != nil || !drawn {
		t.Fatalf("expected first frame drawn, got drawn=%v err=%v", drawn, err)
	}

	// Nothing changed: no redraw.
	drawn, err = r.RenderFrame()
	if err != nil || drawn {
		t.Fatalf("expected clean frame skipped, got drawn=%v err=%v", drawn, err)
	}

	// A state update is a redraw trigger.
	next := progress.NewSceneState()
	r.UpdateState(&next)
	drawn, err = r.RenderFrame()
	if err != nil || !drawn {
		t.Fatalf("expected redraw after state update, got drawn=%v err=%v", drawn, err)
	}
	if primary.inits != 1 {
		t.Errorf("state updates must not reinitialize the backend, got %d inits", primary.inits)
	}
}

package render

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/jwebster45206/room-engine/pkg/room"
	"github.com/jwebster45206/room-engine/pkg/viewport"
)

func solidLoader(c color.NRGBA) LoadFunc {
	return func(ctx context.Context, url string) (image.Image, error) {
		img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				img.SetNRGBA(x, y, c)
			}
		}
		return img, nil
	}
}

func TestSoftwareBackendRequiresInit(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.DrawFrame(testFrame()); err == nil {
		t.Fatal("expected error drawing before init")
	}
	if err := b.Init(0, 100); err == nil {
		t.Fatal("expected error for zero-width surface")
	}
}

func TestSoftwareBackendPlaceholders(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(100, 100); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	layout := &room.Layout{
		Width: 100, Height: 100,
		BackgroundURL: "https://cdn.example.com/bg.png",
		Items: []room.Item{
			// Blank image URL fails immediately: error affordance box.
			{ID: "item_broken", Key: "broken", X: 10, Y: 10, W: 20, H: 20},
		},
	}
	layout.ResolveOrder()

	loader := newFakeLoader()
	loader.release = make(chan struct{}) // keep the background in flight
	defer close(loader.release)

	f := &Frame{
		Layout:    layout,
		Transform: viewport.Transform{Scale: 1},
		Assets:    NewAssetCache(loader.load, "", testLogger()),
	}
	if err := b.DrawFrame(f); err != nil {
		t.Fatalf("unexpected draw error: %v", err)
	}

	surface := b.Surface()

	// Loading background fills its rect with the loading placeholder.
	bgR, _, _, _ := surface.At(80, 80).RGBA()
	if uint8(bgR>>8) != 0x20 {
		t.Errorf("background pixel R = %#x, want loading placeholder 0x20", uint8(bgR>>8))
	}

	// The failed item box must be visibly distinct from the background.
	if surface.At(20, 20) == surface.At(80, 80) {
		t.Error("failed item box should differ from the background fill")
	}
}

func TestSoftwareBackendDrawsReadyItem(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(100, 100); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	red := color.NRGBA{R: 0xff, A: 0xff}
	cache := NewAssetCache(solidLoader(red), "", testLogger())
	loaded := make(chan struct{}, 1)
	cache.OnLoad(func() { loaded <- struct{}{} })

	cache.Get("https://cdn.example.com/item.png")
	<-loaded
	waitFor(t, func() bool { return cache.Get("https://cdn.example.com/item.png").State == AssetReady })

	layout := &room.Layout{
		Width: 100, Height: 100,
		Items: []room.Item{
			{ID: "item_gem", Key: "gem", ImageURL: "https://cdn.example.com/item.png", X: 40, Y: 40, W: 20, H: 20},
		},
	}
	layout.ResolveOrder()

	f := &Frame{
		Layout:    layout,
		Transform: viewport.Transform{Scale: 1},
		Assets:    cache,
	}
	if err := b.DrawFrame(f); err != nil {
		t.Fatalf("unexpected draw error: %v", err)
	}

	r, g, bl, _ := b.Surface().At(50, 50).RGBA()
	if uint8(r>>8) < 0xf0 || g != 0 || bl != 0 {
		t.Errorf("item center pixel = (%#x, %#x, %#x), want solid red",
			uint8(r>>8), uint8(g>>8), uint8(bl>>8))
	}

	// Outside the item the cleared surface stays black.
	r2, g2, b2, _ := b.Surface().At(5, 5).RGBA()
	if r2 != 0 || g2 != 0 || b2 != 0 {
		t.Errorf("background pixel = (%#x, %#x, %#x), want black", r2, g2, b2)
	}
}

func TestSoftwareBackendAuthorOutlines(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(100, 100); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	layout := &room.Layout{
		Width: 100, Height: 100,
		Hotspots: []room.Hotspot{
			{ID: "hs_door", Type: room.HotspotTrigger, X: 50, Y: 50, W: 30, H: 30},
		},
	}

	f := &Frame{
		Layout:     layout,
		Transform:  viewport.Transform{Scale: 1},
		AuthorMode: true,
		Assets:     NewAssetCache(nil, "", testLogger()),
	}
	if err := b.DrawFrame(f); err != nil {
		t.Fatalf("unexpected draw error: %v", err)
	}

	// Top edge of the outline.
	r, g, bl, _ := b.Surface().At(60, 50).RGBA()
	want := outlineColor()
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(bl>>8) != want.B {
		t.Errorf("outline pixel = (%#x, %#x, %#x), want (%#x, %#x, %#x)",
			uint8(r>>8), uint8(g>>8), uint8(bl>>8), want.R, want.G, want.B)
	}

	// Player mode draws no outlines.
	f.AuthorMode = false
	if err := b.DrawFrame(f); err != nil {
		t.Fatalf("unexpected draw error: %v", err)
	}
	r, g, bl, _ = b.Surface().At(60, 50).RGBA()
	if r != 0 || g != 0 || bl != 0 {
		t.Error("player mode must not draw hotspot outlines")
	}
}

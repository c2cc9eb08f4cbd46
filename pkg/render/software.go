package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/jwebster45206/room-engine/pkg/room"
	"github.com/jwebster45206/room-engine/pkg/viewport"
)

// SoftwareBackend is the CPU immediate-mode fallback. It draws every
// frame from scratch into an RGBA backing store using the exact same
// placements as the scene-graph backend.
type SoftwareBackend struct {
	dst *image.RGBA

	// silhouettes caches per-image black alpha masks for drop shadows.
	silhouettes map[image.Image]*image.RGBA
}

var _ Backend = (*SoftwareBackend)(nil)

// NewSoftwareBackend creates the CPU fallback backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{silhouettes: make(map[image.Image]*image.RGBA)}
}

func (b *SoftwareBackend) Init(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	b.dst = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

func (b *SoftwareBackend) Dispose() {
	b.dst = nil
	b.silhouettes = make(map[image.Image]*image.RGBA)
}

// Surface exposes the backing store for blitting or encoding.
func (b *SoftwareBackend) Surface() *image.RGBA {
	return b.dst
}

func (b *SoftwareBackend) DrawFrame(f *Frame) error {
	if b.dst == nil {
		return fmt.Errorf("software backend not initialized")
	}

	draw.Draw(b.dst, b.dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	b.drawBackground(f)

	for _, item := range visibleItems(f) {
		b.drawItem(f, &item)
	}

	if f.AuthorMode {
		for i := range f.Layout.Hotspots {
			b.drawHotspotOutline(f, &f.Layout.Hotspots[i])
		}
	}
	return nil
}

func (b *SoftwareBackend) drawBackground(f *Frame) {
	if f.Layout.BackgroundURL == "" {
		return
	}
	a := f.Assets.Get(f.Layout.BackgroundURL)
	r := f.Transform.ApplyRect(layoutRect(f.Layout))
	dr := image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H))

	switch a.State {
	case AssetReady:
		xdraw.ApproxBiLinear.Scale(b.dst, dr, a.Image, a.Image.Bounds(), draw.Over, nil)
	case AssetFailed:
		fillRect(b.dst, dr, color.NRGBA{R: 0x40, G: 0x10, B: 0x10, A: 0xff})
	default:
		fillRect(b.dst, dr, color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff})
	}
}

func (b *SoftwareBackend) drawItem(f *Frame, item *room.Item) {
	a := f.Assets.Get(item.ImageURL)

	if a.State != AssetReady {
		// Placeholder or error affordance in the item's screen box.
		r := f.Transform.ApplyRect(itemRect(item))
		dr := image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H))
		fillRect(b.dst, dr, placeholderColor(a.State))
		return
	}

	bounds := a.Image.Bounds()
	p := PlaceItem(item, f.Transform, bounds.Dx(), bounds.Dy())

	if sil := b.silhouette(a.Image); sil != nil {
		xdraw.ApproxBiLinear.Transform(b.dst, aff3(p.ShadowMatrix), sil, sil.Bounds(), draw.Over, nil)
	}
	xdraw.ApproxBiLinear.Transform(b.dst, aff3(p.Matrix), a.Image, bounds, draw.Over, nil)
}

func (b *SoftwareBackend) drawHotspotOutline(f *Frame, h *room.Hotspot) {
	r := f.Transform.ApplyRect(hotspotRect(h))
	dr := image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H))
	outline := outlineColor()
	strokeRect(b.dst, dr, outline)

	// Corner drag handles.
	for _, pt := range []image.Point{
		{dr.Min.X, dr.Min.Y}, {dr.Max.X, dr.Min.Y},
		{dr.Min.X, dr.Max.Y}, {dr.Max.X, dr.Max.Y},
	} {
		hr := image.Rect(pt.X-3, pt.Y-3, pt.X+3, pt.Y+3)
		fillRect(b.dst, hr, outline)
	}
}

// silhouette builds (and caches) the black drop-shadow mask for an image.
func (b *SoftwareBackend) silhouette(src image.Image) *image.RGBA {
	if sil, ok := b.silhouettes[src]; ok {
		return sil
	}
	bounds := src.Bounds()
	sil := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := src.At(x, y).RGBA()
			shadow := uint8(float64(a>>8) * shadowAlpha)
			sil.SetRGBA(x, y, color.RGBA{A: shadow})
		}
	}
	b.silhouettes[src] = sil
	return sil
}

func aff3(m Affine) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.NRGBA) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.NRGBA) {
	if r.Empty() {
		return
	}
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func layoutRect(l *room.Layout) viewport.Rect {
	return viewport.Rect{X: 0, Y: 0, W: l.Width, H: l.Height}
}

func itemRect(i *room.Item) viewport.Rect {
	return viewport.Rect{X: i.X, Y: i.Y, W: i.W, H: i.H}
}

func hotspotRect(h *room.Hotspot) viewport.Rect {
	return viewport.Rect{X: h.X, Y: h.Y, W: h.W, H: h.H}
}

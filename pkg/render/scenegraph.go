package render

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/jwebster45206/room-engine/pkg/room"
)

// SceneGraphBackend is the preferred GPU backend: a retained ebiten node
// tree with per-node transforms, rebuilt only when the layout changes.
// Any panic out of the GPU layer is converted into an error so the
// supervisor can demote to the software fallback.
type SceneGraphBackend struct {
	surface *ebiten.Image

	// textures caches ebiten uploads per decoded image.
	textures map[image.Image]*ebiten.Image

	layout *room.Layout
	nodes  []itemNode
}

var _ Backend = (*SceneGraphBackend)(nil)

// itemNode is one retained scene-graph entry.
type itemNode struct {
	item *room.Item
}

// NewSceneGraphBackend creates the GPU backend.
func NewSceneGraphBackend() *SceneGraphBackend {
	return &SceneGraphBackend{textures: make(map[image.Image]*ebiten.Image)}
}

func (b *SceneGraphBackend) Init(width, height int) (err error) {
	defer recoverToError(&err)
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	b.surface = ebiten.NewImage(width, height)
	return nil
}

func (b *SceneGraphBackend) Dispose() {
	if b.surface != nil {
		b.surface.Deallocate()
		b.surface = nil
	}
	for _, tex := range b.textures {
		tex.Deallocate()
	}
	b.textures = make(map[image.Image]*ebiten.Image)
	b.layout = nil
	b.nodes = nil
}

// Surface exposes the offscreen target; the host game blits it in Draw.
func (b *SceneGraphBackend) Surface() *ebiten.Image {
	return b.surface
}

func (b *SceneGraphBackend) DrawFrame(f *Frame) (err error) {
	defer recoverToError(&err)
	if b.surface == nil {
		return fmt.Errorf("scene graph backend not initialized")
	}

	b.rebuildIfNeeded(f)

	b.surface.Clear()
	b.drawBackground(f)

	for i := range b.nodes {
		item := b.nodes[i].item
		if f.State != nil && !f.State.ItemVisible(item.ID, item.Hidden) {
			continue
		}
		if f.State == nil && item.Hidden {
			continue
		}
		b.drawItem(f, item)
	}

	if f.AuthorMode {
		for i := range f.Layout.Hotspots {
			b.drawHotspotOutline(f, &f.Layout.Hotspots[i])
		}
	}
	return nil
}

// rebuildIfNeeded regenerates the retained node list when the layout
// identity changes. Stacking order is resolved once here.
func (b *SceneGraphBackend) rebuildIfNeeded(f *Frame) {
	if b.layout == f.Layout {
		return
	}
	b.layout = f.Layout
	ordered := f.Layout.OrderedItems()
	b.nodes = make([]itemNode, len(ordered))
	for i := range ordered {
		// OrderedItems copies; point nodes back at the layout's items so
		// author-mode edits are visible without a rebuild.
		b.nodes[i] = itemNode{item: f.Layout.ItemByID(ordered[i].ID)}
	}
}

func (b *SceneGraphBackend) drawBackground(f *Frame) {
	if f.Layout.BackgroundURL == "" {
		return
	}
	a := f.Assets.Get(f.Layout.BackgroundURL)
	r := f.Transform.ApplyRect(layoutRect(f.Layout))

	if a.State != AssetReady {
		c := placeholderColor(a.State)
		vector.DrawFilledRect(b.surface, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), c, false)
		return
	}

	tex := b.texture(a.Image)
	bounds := tex.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(r.W/float64(bounds.Dx()), r.H/float64(bounds.Dy()))
	op.GeoM.Translate(r.X, r.Y)
	b.surface.DrawImage(tex, op)
}

func (b *SceneGraphBackend) drawItem(f *Frame, item *room.Item) {
	a := f.Assets.Get(item.ImageURL)

	if a.State != AssetReady {
		r := f.Transform.ApplyRect(itemRect(item))
		vector.DrawFilledRect(b.surface, float32(r.X), float32(r.Y), float32(r.W), float32(r.H),
			placeholderColor(a.State), false)
		return
	}

	tex := b.texture(a.Image)
	bounds := tex.Bounds()
	p := PlaceItem(item, f.Transform, bounds.Dx(), bounds.Dy())

	// Drop shadow first: the same geometry shifted, drawn black.
	shadowOp := &ebiten.DrawImageOptions{}
	shadowOp.GeoM = geoM(p.ShadowMatrix)
	shadowOp.ColorScale.Scale(0, 0, 0, float32(shadowAlpha*p.Alpha))
	b.surface.DrawImage(tex, shadowOp)

	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM(p.Matrix)
	op.ColorScale.ScaleAlpha(float32(p.Alpha))
	if p.HasTint {
		op.ColorScale.Scale(
			float32(p.Tint.R)/255,
			float32(p.Tint.G)/255,
			float32(p.Tint.B)/255,
			float32(p.Tint.A)/255,
		)
	}
	b.surface.DrawImage(tex, op)
}

func (b *SceneGraphBackend) drawHotspotOutline(f *Frame, h *room.Hotspot) {
	r := f.Transform.ApplyRect(hotspotRect(h))
	outline := outlineColor()
	vector.StrokeRect(b.surface, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), 2, outline, false)

	// Corner drag handles.
	for _, pt := range [][2]float32{
		{float32(r.X), float32(r.Y)},
		{float32(r.X + r.W), float32(r.Y)},
		{float32(r.X), float32(r.Y + r.H)},
		{float32(r.X + r.W), float32(r.Y + r.H)},
	} {
		vector.DrawFilledRect(b.surface, pt[0]-3, pt[1]-3, 6, 6, outline, false)
	}
}

// texture uploads (and caches) a decoded image.
func (b *SceneGraphBackend) texture(img image.Image) *ebiten.Image {
	if tex, ok := b.textures[img]; ok {
		return tex
	}
	tex := ebiten.NewImageFromImage(img)
	b.textures[img] = tex
	return tex
}

func geoM(m Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(0, 1, m[2])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 0, m[1])
	g.SetElement(1, 1, m[3])
	g.SetElement(1, 2, m[5])
	return g
}

func recoverToError(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("render backend panic: %v", r)
	}
}

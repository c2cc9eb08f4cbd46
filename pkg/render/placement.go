package render

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/jwebster45206/room-engine/pkg/room"
	"github.com/jwebster45206/room-engine/pkg/viewport"
)

// Affine is a 2D affine matrix [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Affine [6]float64

var identityAffine = Affine{1, 0, 0, 1, 0, 0}

// Mul composes two affines: result = p * c (c applied first).
func (p Affine) Mul(c Affine) Affine {
	return Affine{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// Apply transforms a point.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// shadowOffset is the fixed drop-shadow displacement in layout units.
const (
	shadowOffsetX = 4.0
	shadowOffsetY = 4.0
	shadowAlpha   = 0.35
)

// ItemPlacement is the resolved drawing instruction for one item: the
// source-pixel-to-surface affine plus visual attributes. Both backends
// consume the same placement, which is what keeps their output aligned.
type ItemPlacement struct {
	Matrix       Affine
	ShadowMatrix Affine
	Alpha        float64
	Tint         color.NRGBA
	HasTint      bool
}

// PlaceItem computes where an item's source image of (imgW, imgH) pixels
// lands on the surface. The image is contain-fit into the item's box,
// then the item's uniform scale, skew, and rotation are applied about
// the box center, then the viewport transform maps into surface pixels.
func PlaceItem(item *room.Item, t viewport.Transform, imgW, imgH int) ItemPlacement {
	m := itemBoxAffine(item, imgW, imgH)

	// Viewport transform last: uniform scale plus centering offset.
	vp := Affine{t.Scale, 0, 0, t.Scale, t.OffsetX, t.OffsetY}
	matrix := vp.Mul(m)

	shadow := vp.Mul(Affine{1, 0, 0, 1, shadowOffsetX, shadowOffsetY}.Mul(m))

	alpha := item.Opacity
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}

	p := ItemPlacement{Matrix: matrix, ShadowMatrix: shadow, Alpha: alpha}
	if tint, ok := parseTint(item.Tint); ok {
		p.Tint = tint
		p.HasTint = true
	}
	return p
}

// itemBoxAffine maps source image pixels into layout units.
func itemBoxAffine(item *room.Item, imgW, imgH int) Affine {
	if imgW <= 0 || imgH <= 0 || item.W <= 0 || item.H <= 0 {
		return identityAffine
	}

	// Aspect-correct contain fit inside the item box, centered.
	fit := math.Min(item.W/float64(imgW), item.H/float64(imgH))
	fitW := float64(imgW) * fit
	fitH := float64(imgH) * fit
	inset := Affine{fit, 0, 0, fit, item.X + (item.W-fitW)/2, item.Y + (item.H-fitH)/2}

	scale := item.Scale
	if scale <= 0 {
		scale = 1
	}
	if scale == 1 && item.Rotation == 0 && item.SkewX == 0 && item.SkewY == 0 {
		return inset
	}

	// Scale, skew, and rotate about the item box center.
	cx := item.X + item.W/2
	cy := item.Y + item.H/2
	toOrigin := Affine{1, 0, 0, 1, -cx, -cy}
	back := Affine{1, 0, 0, 1, cx, cy}

	xf := Affine{scale, 0, 0, scale, 0, 0}
	if item.SkewX != 0 || item.SkewY != 0 {
		skew := Affine{1, math.Tan(item.SkewY), math.Tan(item.SkewX), 1, 0, 0}
		xf = skew.Mul(xf)
	}
	if item.Rotation != 0 {
		sin, cos := math.Sincos(item.Rotation)
		rot := Affine{cos, sin, -sin, cos, 0, 0}
		xf = rot.Mul(xf)
	}

	return back.Mul(xf).Mul(toOrigin).Mul(inset)
}

// parseTint parses an authored "#rrggbb" or "#rrggbbaa" tint.
func parseTint(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return color.NRGBA{}, false
	}
	c := color.NRGBA{A: 0xff}
	if len(s) == 8 {
		c.A = uint8(v)
		v >>= 8
	}
	c.B = uint8(v)
	c.G = uint8(v >> 8)
	c.R = uint8(v >> 16)
	return c, true
}

// placeholderColor is the fill drawn in an asset's box while it loads,
// or the error affordance when the load failed.
func placeholderColor(state AssetState) color.NRGBA {
	if state == AssetFailed {
		return color.NRGBA{R: 0x80, G: 0x20, B: 0x20, A: 0xa0}
	}
	return color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0x80}
}

// outlineColor is the author-mode hotspot outline color.
func outlineColor() color.NRGBA {
	return color.NRGBA{R: 0x00, G: 0xc8, B: 0xff, A: 0xff}
}

// visibleItems returns the frame's items in stacking order with
// scene-state visibility resolved.
func visibleItems(f *Frame) []room.Item {
	items := f.Layout.OrderedItems()
	out := items[:0]
	for i := range items {
		it := items[i]
		if f.State != nil && !f.State.ItemVisible(it.ID, it.Hidden) {
			continue
		}
		if f.State == nil && it.Hidden {
			continue
		}
		out = append(out, it)
	}
	return out
}

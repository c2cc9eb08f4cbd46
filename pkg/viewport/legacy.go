package viewport

import "github.com/jwebster45206/room-engine/pkg/room"

// Historical fixed-size preview canvas older layouts were authored
// against. Hotspots from that era carry preview-space geometry even when
// the layout's intrinsic size is larger.
const (
	LegacyPreviewW = 640.0
	LegacyPreviewH = 480.0
)

// NeedsLegacyNormalization detects preview-space hotspot geometry: every
// hotspot extent fits the preview canvas while the layout itself is
// larger. Layouts at or below preview size never need rescaling, and a
// single hotspot beyond the preview bounds proves the geometry is
// already in layout space.
func NeedsLegacyNormalization(l *room.Layout) bool {
	if l.Width <= LegacyPreviewW && l.Height <= LegacyPreviewH {
		return false
	}
	if len(l.Hotspots) == 0 {
		return false
	}
	for i := range l.Hotspots {
		h := &l.Hotspots[i]
		if h.X+h.W > LegacyPreviewW || h.Y+h.H > LegacyPreviewH {
			return false
		}
	}
	return true
}

// NormalizeLegacyHotspots rescales preview-space hotspots into true
// layout space in place. It must run once at layout load, before any
// rendering or hit-testing, so hit boxes never drift from drawn
// geometry. Returns true if a rescale was applied.
func NormalizeLegacyHotspots(l *room.Layout) bool {
	if !NeedsLegacyNormalization(l) {
		return false
	}
	sx := l.Width / LegacyPreviewW
	sy := l.Height / LegacyPreviewH
	for i := range l.Hotspots {
		h := &l.Hotspots[i]
		h.X *= sx
		h.Y *= sy
		h.W *= sx
		h.H *= sy
	}
	return true
}

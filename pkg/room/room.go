package room

import (
	"sort"

	"github.com/google/uuid"
)

// Room is a designer-authored escape room: a stage count and one layout
// per stage. The authored graph is read-only at runtime; all mutable
// state lives in progress.Progress.
type Room struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	// StageCount is the persisted stage total. Layouts may also embed a
	// TotalStages value; ResolveStageCount picks the first non-zero.
	StageCount int `json:"stage_count,omitempty"`

	Layouts []Layout `json:"layouts"`
}

// Layout is one authored scene: a background, an ordered item list and a
// hotspot list, all in layout units (the designer's logical canvas).
type Layout struct {
	ID         uuid.UUID `json:"id"`
	RoomID     uuid.UUID `json:"room_id"`
	StageIndex int       `json:"stage_index"`
	Name       string    `json:"name,omitempty"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	BackgroundURL      string `json:"background_url,omitempty"`
	BackgroundVideoURL string `json:"background_video_url,omitempty"`

	// TotalStages optionally embeds the room's stage total in scene data.
	TotalStages int `json:"total_stages,omitempty"`

	Items    []Item    `json:"items"`
	Hotspots []Hotspot `json:"hotspots"`
}

// Item is an authored item definition placed on a layout. Key is stable
// and room-unique; it is what enters a team's inventory.
type Item struct {
	ID       string  `json:"id"`
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	ImageURL string  `json:"image_url,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`

	// Order is the stacking index. Zero means "use array position",
	// resolved once at load time by ResolveOrder.
	Order int `json:"order,omitempty"`

	Opacity  float64 `json:"opacity,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	SkewX    float64 `json:"skew_x,omitempty"`
	SkewY    float64 `json:"skew_y,omitempty"`
	Tint     string  `json:"tint,omitempty"`

	// Hidden is the authored default; SceneState overrides win at runtime.
	Hidden bool `json:"hidden,omitempty"`
}

// ItemByID finds an item by id. Returns nil if absent.
func (l *Layout) ItemByID(id string) *Item {
	for i := range l.Items {
		if l.Items[i].ID == id {
			return &l.Items[i]
		}
	}
	return nil
}

// ItemByKey finds an item by inventory key. Returns nil if absent.
func (l *Layout) ItemByKey(key string) *Item {
	for i := range l.Items {
		if l.Items[i].Key == key {
			return &l.Items[i]
		}
	}
	return nil
}

// HotspotByID finds a hotspot by id. Returns nil if absent.
func (l *Layout) HotspotByID(id string) *Hotspot {
	for i := range l.Hotspots {
		if l.Hotspots[i].ID == id {
			return &l.Hotspots[i]
		}
	}
	return nil
}

// ResolveOrder assigns array position to items without an explicit
// stacking index. Call once after load, before OrderedItems is used.
func (l *Layout) ResolveOrder() {
	for i := range l.Items {
		if l.Items[i].Order == 0 {
			l.Items[i].Order = i + 1
		}
	}
}

// OrderedItems returns items in stacking order: ascending Order, array
// position breaking ties. The returned slice is a copy.
func (l *Layout) OrderedItems() []Item {
	out := make([]Item, len(l.Items))
	copy(out, l.Items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// LayoutForStage returns the layout for a 1-based stage index, or nil.
func (r *Room) LayoutForStage(stage int) *Layout {
	for i := range r.Layouts {
		if r.Layouts[i].StageIndex == stage {
			return &r.Layouts[i]
		}
	}
	return nil
}

// ResolveStageCount resolves the room's stage total: the first non-zero
// of the layout's embedded TotalStages and the persisted StageCount.
// Returns 0 when neither is authored.
func (r *Room) ResolveStageCount(l *Layout) int {
	if l != nil && l.TotalStages > 0 {
		return l.TotalStages
	}
	if r.StageCount > 0 {
		return r.StageCount
	}
	return 0
}

// OwnsItem reports whether the item id belongs to any layout of this room.
func (r *Room) OwnsItem(id string) bool {
	for i := range r.Layouts {
		if r.Layouts[i].ItemByID(id) != nil {
			return true
		}
	}
	return false
}

// OwnsHotspot reports whether the hotspot id belongs to any layout of
// this room.
func (r *Room) OwnsHotspot(id string) bool {
	for i := range r.Layouts {
		if r.Layouts[i].HotspotByID(id) != nil {
			return true
		}
	}
	return false
}

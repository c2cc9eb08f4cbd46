package progress

import "encoding/json"

// SceneState tracks per-scene visibility and enablement overrides.
// Each hidden/shown and disabled/enabled pair is mutually exclusive per id:
// the mutators below remove an id from the complementary set when adding it.
type SceneState struct {
	HiddenItemIDs      StringSet `json:"hidden_item_ids"`
	ShownItemIDs       StringSet `json:"shown_item_ids"`
	DisabledHotspotIDs StringSet `json:"disabled_hotspot_ids"`
	EnabledHotspotIDs  StringSet `json:"enabled_hotspot_ids"`
}

// NewSceneState creates an empty scene state.
func NewSceneState() SceneState {
	return SceneState{
		HiddenItemIDs:      StringSet{},
		ShownItemIDs:       StringSet{},
		DisabledHotspotIDs: StringSet{},
		EnabledHotspotIDs:  StringSet{},
	}
}

// ParseSceneState parses a serialized scene state. Malformed or empty
// input yields an empty state, never an error.
func ParseSceneState(raw string) SceneState {
	ss := NewSceneState()
	if raw == "" {
		return ss
	}
	var parsed SceneState
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return ss
	}
	return parsed.normalized()
}

// normalized fills nil sets so mutators are always safe to call.
func (ss SceneState) normalized() SceneState {
	if ss.HiddenItemIDs == nil {
		ss.HiddenItemIDs = StringSet{}
	}
	if ss.ShownItemIDs == nil {
		ss.ShownItemIDs = StringSet{}
	}
	if ss.DisabledHotspotIDs == nil {
		ss.DisabledHotspotIDs = StringSet{}
	}
	if ss.EnabledHotspotIDs == nil {
		ss.EnabledHotspotIDs = StringSet{}
	}
	return ss
}

// HideItem marks an item hidden and clears any shown override.
func (ss *SceneState) HideItem(id string) {
	ss.HiddenItemIDs.Add(id)
	ss.ShownItemIDs.Remove(id)
}

// ShowItem marks an item shown and clears any hidden override.
func (ss *SceneState) ShowItem(id string) {
	ss.ShownItemIDs.Add(id)
	ss.HiddenItemIDs.Remove(id)
}

// DisableHotspot marks a hotspot disabled and clears any enabled override.
func (ss *SceneState) DisableHotspot(id string) {
	ss.DisabledHotspotIDs.Add(id)
	ss.EnabledHotspotIDs.Remove(id)
}

// EnableHotspot marks a hotspot enabled and clears any disabled override.
func (ss *SceneState) EnableHotspot(id string) {
	ss.EnabledHotspotIDs.Add(id)
	ss.DisabledHotspotIDs.Remove(id)
}

// ItemVisible resolves an item's effective visibility given its authored
// default. Overrides win over the authored Hidden flag.
func (ss *SceneState) ItemVisible(id string, authoredHidden bool) bool {
	if ss.HiddenItemIDs.Has(id) {
		return false
	}
	if ss.ShownItemIDs.Has(id) {
		return true
	}
	return !authoredHidden
}

// HotspotEnabled resolves a hotspot's effective enablement.
// Hotspots are enabled unless overridden.
func (ss *SceneState) HotspotEnabled(id string) bool {
	if ss.DisabledHotspotIDs.Has(id) {
		return false
	}
	return true
}

// Clone returns a deep copy.
func (ss SceneState) Clone() SceneState {
	return SceneState{
		HiddenItemIDs:      ss.HiddenItemIDs.Clone(),
		ShownItemIDs:       ss.ShownItemIDs.Clone(),
		DisabledHotspotIDs: ss.DisabledHotspotIDs.Clone(),
		EnabledHotspotIDs:  ss.EnabledHotspotIDs.Clone(),
	}
}

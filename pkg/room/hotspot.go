package room

// HotspotType classifies what a tap on a hotspot means.
type HotspotType string

const (
	HotspotPickup  HotspotType = "pickup"
	HotspotUse     HotspotType = "use"
	HotspotTrigger HotspotType = "trigger"
	HotspotModal   HotspotType = "modal"
	HotspotCollect HotspotType = "collect"
)

// Valid reports whether t is a known hotspot type.
func (t HotspotType) Valid() bool {
	switch t {
	case HotspotPickup, HotspotUse, HotspotTrigger, HotspotModal, HotspotCollect:
		return true
	}
	return false
}

// Hotspot is an authored interactive region on a layout. Geometry is in
// layout units; legacy preview-space geometry is normalized at load time.
type Hotspot struct {
	ID   string      `json:"id"`
	Type HotspotType `json:"type"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`

	// TargetItemID names the item a pickup hotspot grants.
	TargetItemID string `json:"target_item_id,omitempty"`

	Meta HotspotMeta `json:"meta,omitempty"`
}

// HotspotMeta carries the hotspot's conditional effects and cues.
type HotspotMeta struct {
	UseEffect     *UseEffect     `json:"use_effect,omitempty"`
	TriggerEffect *TriggerEffect `json:"trigger_effect,omitempty"`

	// Sounds maps an action kind ("pickup", "use", "trigger") to a cue
	// returned to the acting client.
	Sounds map[string]SoundCue `json:"sounds,omitempty"`

	// ModalText is shown by modal hotspots; WidgetKind names which
	// self-contained mini-puzzle widget a widget hotspot opens
	// (keypad, wire, dial). Both are opaque to the engine.
	ModalText  string `json:"modal_text,omitempty"`
	WidgetKind string `json:"widget_kind,omitempty"`
}

// UseEffect describes the inventory/visibility/enablement mutations
// applied when an item is used on the hotspot.
type UseEffect struct {
	// RequiredItemID gates the effect on a single item; RequiresItemIDs
	// gates it on holding all listed items, the used one among them.
	RequiredItemID  string   `json:"required_item_id,omitempty"`
	RequiresItemIDs []string `json:"requires_item_ids,omitempty"`

	HideItemIDs       []string `json:"hide_item_ids,omitempty"`
	ShowItemIDs       []string `json:"show_item_ids,omitempty"`
	DisableHotspotIDs []string `json:"disable_hotspot_ids,omitempty"`
	EnableHotspotIDs  []string `json:"enable_hotspot_ids,omitempty"`

	// KeepItem turns off the default consume-on-use of the used item.
	KeepItem bool `json:"keep_item,omitempty"`
	// ConsumeItemKeys are removed from inventory in addition to the used
	// item; ConsumeRequirements additionally consumes every item that
	// satisfied the requirement gate.
	ConsumeItemKeys     []string `json:"consume_item_keys,omitempty"`
	ConsumeRequirements bool     `json:"consume_requirements,omitempty"`

	// GrantItemKeys are added to inventory without a pickup hotspot.
	GrantItemKeys []string `json:"grant_item_keys,omitempty"`
}

// TriggerEffect describes stage advancement for trigger hotspots (and
// for use hotspots falling back to trigger semantics).
type TriggerEffect struct {
	RequiresItemIDs []string `json:"requires_item_ids,omitempty"`

	// AdvanceBy defaults to 1 when neither it nor NextStageIndex is set.
	AdvanceBy      int `json:"advance_by,omitempty"`
	NextStageIndex int `json:"next_stage_index,omitempty"`

	// Complete forces run completion regardless of stage arithmetic.
	Complete bool `json:"complete,omitempty"`
}

// SoundCue is an audio payload attached to a hotspot action.
type SoundCue struct {
	URL    string  `json:"url"`
	Volume float64 `json:"volume,omitempty"`
}

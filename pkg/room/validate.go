package room

import (
	"fmt"
	"regexp"
	"strings"
)

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

// Validator performs strict author/test-mode validation of a room's
// interaction wiring. Player traffic does not run this; the processor
// only checks what it touches.
type Validator struct {
	errors []string
}

// Validate runs all strict checks and returns the collected problems.
// An empty result means the room is valid.
func Validate(r *Room) []string {
	v := &Validator{}
	v.validateRoom(r)
	return v.errors
}

func (v *Validator) validateRoom(r *Room) {
	if r.Name == "" {
		v.addError("room has no name")
	}
	if len(r.Layouts) == 0 {
		v.addError("room has no layouts")
	}

	seenKeys := make(map[string]string) // key -> item id
	seenStages := make(map[int]bool)

	for i := range r.Layouts {
		l := &r.Layouts[i]
		if l.StageIndex < 1 {
			v.addError(fmt.Sprintf("layout %s has stage index %d, must be >= 1", l.ID, l.StageIndex))
		}
		if seenStages[l.StageIndex] {
			v.addError(fmt.Sprintf("duplicate layout for stage %d", l.StageIndex))
		}
		seenStages[l.StageIndex] = true
		if l.Width <= 0 || l.Height <= 0 {
			v.addError(fmt.Sprintf("layout %s has non-positive size %gx%g", l.ID, l.Width, l.Height))
		}

		for j := range l.Items {
			item := &l.Items[j]
			v.validateIDFormat("item id", item.ID)
			v.validateIDFormat("item key", item.Key)
			if prev, ok := seenKeys[item.Key]; ok && prev != item.ID {
				v.addError(fmt.Sprintf("item key '%s' is shared by items %s and %s", item.Key, prev, item.ID))
			}
			seenKeys[item.Key] = item.ID
		}

		for j := range l.Hotspots {
			v.validateHotspot(r, l, &l.Hotspots[j])
		}
	}
}

func (v *Validator) validateHotspot(r *Room, l *Layout, h *Hotspot) {
	v.validateIDFormat("hotspot id", h.ID)
	if !h.Type.Valid() {
		v.addError(fmt.Sprintf("hotspot %s has unknown type '%s'", h.ID, h.Type))
	}
	if h.W <= 0 || h.H <= 0 {
		v.addError(fmt.Sprintf("hotspot %s has non-positive geometry %gx%g", h.ID, h.W, h.H))
	}

	if h.Type == HotspotPickup {
		if h.TargetItemID == "" {
			v.addError(fmt.Sprintf("pickup hotspot %s has no target item", h.ID))
		} else if !r.OwnsItem(h.TargetItemID) {
			v.addError(fmt.Sprintf("pickup hotspot %s targets item '%s' outside this room", h.ID, h.TargetItemID))
		}
	}

	if ue := h.Meta.UseEffect; ue != nil {
		v.validateItemRef(r, h.ID, "required item", ue.RequiredItemID)
		for _, id := range ue.RequiresItemIDs {
			v.validateItemRef(r, h.ID, "required item", id)
		}
		for _, id := range ue.HideItemIDs {
			v.validateItemRef(r, h.ID, "hide target", id)
		}
		for _, id := range ue.ShowItemIDs {
			v.validateItemRef(r, h.ID, "show target", id)
		}
		for _, id := range ue.DisableHotspotIDs {
			v.validateHotspotRef(r, h.ID, "disable target", id)
		}
		for _, id := range ue.EnableHotspotIDs {
			v.validateHotspotRef(r, h.ID, "enable target", id)
		}
	}

	if te := h.Meta.TriggerEffect; te != nil {
		for _, id := range te.RequiresItemIDs {
			v.validateItemRef(r, h.ID, "required item", id)
		}
		if te.AdvanceBy < 0 {
			v.addError(fmt.Sprintf("hotspot %s has negative advance_by %d", h.ID, te.AdvanceBy))
		}
		if te.NextStageIndex < 0 {
			v.addError(fmt.Sprintf("hotspot %s has negative next_stage_index %d", h.ID, te.NextStageIndex))
		}
	}
}

func (v *Validator) validateItemRef(r *Room, hotspotID, field, itemID string) {
	if itemID == "" {
		return
	}
	if !r.OwnsItem(itemID) {
		v.addError(fmt.Sprintf("hotspot %s %s '%s' does not belong to this room", hotspotID, field, itemID))
	}
}

func (v *Validator) validateHotspotRef(r *Room, hotspotID, field, refID string) {
	if refID == "" {
		return
	}
	if !r.OwnsHotspot(refID) {
		v.addError(fmt.Sprintf("hotspot %s %s '%s' does not belong to this room", hotspotID, field, refID))
	}
}

func (v *Validator) validateIDFormat(fieldName, id string) {
	if id == "" {
		v.addError(fmt.Sprintf("%s is empty", fieldName))
		return
	}
	if !validIDRegex.MatchString(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, msg)
}

// FormatErrors joins validation problems for CLI output.
func FormatErrors(errs []string) string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = "  - " + e
	}
	return strings.Join(out, "\n")
}

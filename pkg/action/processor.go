package action

import (
	"fmt"
	"time"

	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
)

// Action kinds accepted by the processor.
const (
	ActionPickup  = "pickup"
	ActionUse     = "use"
	ActionTrigger = "trigger"
)

// Request is a player intent against one hotspot.
type Request struct {
	Action    string `json:"action"`
	HotspotID string `json:"hotspot_id"`
	ItemKey   string `json:"item_key,omitempty"`
	Actor     string `json:"actor,omitempty"`
}

// Result is the outcome of a successfully applied action. Progress is a
// mutated copy; the caller persists it and broadcasts the events. A
// failed action returns an error and leaves the input aggregate untouched.
type Result struct {
	Progress  *progress.Progress
	Update    SessionUpdated
	Activity  []ActivityEntry
	Sound     *room.SoundCue
	Completed bool
}

// Processor validates player intents against the authored room graph and
// produces new progress state. It performs no I/O; persistence and
// broadcast are the caller's concern.
type Processor struct {
	// Strict upgrades soft no-ops (consuming an item the team does not
	// hold) into conflicts. Off for player traffic, on for author/test
	// tooling.
	Strict bool

	now func() time.Time
}

// NewProcessor creates a processor. Strict validation defaults off.
func NewProcessor(strict bool) *Processor {
	return &Processor{Strict: strict, now: time.Now}
}

// Apply validates and applies one action. All validation happens before
// any mutation; there are no partial writes.
func (pr *Processor) Apply(rm *room.Room, l *room.Layout, p *progress.Progress, req Request) (*Result, error) {
	if err := gate(p); err != nil {
		return nil, err
	}

	h := l.HotspotByID(req.HotspotID)
	if h == nil {
		return nil, NewError(KindNotFound, "hotspot not found").WithMeta("hotspot_id", req.HotspotID)
	}

	next := p.Clone()
	next.Normalize()

	var (
		res *Result
		err error
	)
	switch req.Action {
	case ActionPickup:
		res, err = pr.applyPickup(rm, l, next, h, req)
	case ActionUse:
		res, err = pr.applyUse(rm, l, next, h, req)
	case ActionTrigger:
		res, err = pr.applyTrigger(rm, l, next, h, nil, req)
	default:
		return nil, NewError(KindInvalidInput, fmt.Sprintf("unknown action '%s'", req.Action))
	}
	if err != nil {
		return nil, err
	}

	res.Progress = next
	res.Update = newSessionUpdated(l, next)
	if cue, ok := h.Meta.Sounds[req.Action]; ok {
		res.Sound = &cue
	}
	return res, nil
}

// gate enforces the run lifecycle before any action is considered.
func gate(p *progress.Progress) error {
	switch err := p.CanMutate(); err {
	case nil:
		return nil
	case progress.ErrNotStarted:
		return NewError(KindConflict, "run has not started")
	default:
		return NewError(KindConflict, "run has already ended").
			WithMeta("status", string(p.Status()))
	}
}

func (pr *Processor) applyPickup(rm *room.Room, l *room.Layout, p *progress.Progress, h *room.Hotspot, req Request) (*Result, error) {
	if h.Type != room.HotspotPickup {
		return nil, NewError(KindInvalidInput, "hotspot is not a pickup").
			WithMeta("hotspot_type", string(h.Type))
	}
	if h.TargetItemID == "" {
		return nil, NewError(KindNotFound, "pickup hotspot has no target item")
	}
	if !rm.OwnsItem(h.TargetItemID) {
		return nil, NewError(KindForbidden, "item belongs to another room").
			WithMeta("item_id", h.TargetItemID)
	}

	item := itemByID(rm, h.TargetItemID)
	if item == nil {
		return nil, NewError(KindNotFound, "item not found").
			WithMeta("item_id", h.TargetItemID)
	}

	// Picking up an already-held item is a no-op; the action still
	// succeeds so retries are safe.
	p.Inventory.Add(item.Key)

	return &Result{
		Activity: []ActivityEntry{
			newActivity(ActivityPickup, fmt.Sprintf("picked up %s", item.Name), req.Actor),
		},
	}, nil
}

func (pr *Processor) applyUse(rm *room.Room, l *room.Layout, p *progress.Progress, h *room.Hotspot, req Request) (*Result, error) {
	if req.ItemKey == "" {
		return nil, NewError(KindInvalidInput, "item_key is required for use actions")
	}
	if !p.Inventory.Has(req.ItemKey) {
		return nil, NewError(KindConflict, "item is not in the team inventory").
			WithMeta("item_key", req.ItemKey)
	}

	used := itemByKey(rm, req.ItemKey)
	if used == nil {
		return nil, NewError(KindNotFound, "item not found").
			WithMeta("item_key", req.ItemKey)
	}

	ue := h.Meta.UseEffect
	if ue == nil {
		// No use effect configured: fall through to trigger semantics,
		// with the used item consumed only if the trigger succeeds.
		return pr.applyTrigger(rm, l, p, h, used, req)
	}

	if err := checkUseRequirements(rm, p, ue, used); err != nil {
		return nil, err
	}

	// Strict mode promotes consuming an un-held key from a no-op to a
	// conflict. Checked before any mutation.
	if pr.Strict {
		for _, key := range ue.ConsumeItemKeys {
			if !p.Inventory.Has(key) {
				return nil, NewError(KindConflict, "cannot consume an item the team does not hold").
					WithMeta("item_key", key)
			}
		}
	}

	applyToggles(&p.SceneState, ue)

	if !ue.KeepItem {
		p.Inventory.Remove(used.Key)
	}
	for _, key := range ue.ConsumeItemKeys {
		p.Inventory.Remove(key)
	}
	if ue.ConsumeRequirements {
		for _, id := range requirementIDs(ue) {
			if item := itemByID(rm, id); item != nil {
				p.Inventory.Remove(item.Key)
			}
		}
	}

	var granted []string
	for _, key := range ue.GrantItemKeys {
		if p.Inventory.Add(key) {
			granted = append(granted, key)
		}
	}

	activity := []ActivityEntry{
		newActivity(ActivityUse, fmt.Sprintf("used %s", used.Name), req.Actor),
	}
	if len(granted) > 0 {
		entry := newActivity(ActivityLoot, "found something", req.Actor)
		entry.Meta = map[string]any{"item_keys": granted}
		activity = append(activity, entry)
	}

	return &Result{Activity: activity}, nil
}

// applyTrigger advances the stage machine. used is non-nil when the
// trigger came through a use-action fallback; that item is consumed only
// on success.
func (pr *Processor) applyTrigger(rm *room.Room, l *room.Layout, p *progress.Progress, h *room.Hotspot, used *room.Item, req Request) (*Result, error) {
	te := h.Meta.TriggerEffect
	if used == nil && h.Type != room.HotspotTrigger && te == nil {
		return nil, NewError(KindInvalidInput, "hotspot is not a trigger").
			WithMeta("hotspot_type", string(h.Type))
	}

	if te != nil && len(te.RequiresItemIDs) > 0 {
		var missing []string
		for _, id := range te.RequiresItemIDs {
			item := itemByID(rm, id)
			if item == nil || !p.Inventory.Has(item.Key) {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return nil, NewError(KindConflict, "required items are missing").
				WithMeta("missing_item_ids", missing)
		}
	}

	cur := p.CurrentStageIndex
	advanceBy := 1
	requestedNext := cur + advanceBy
	if te != nil {
		if te.AdvanceBy > 0 {
			advanceBy = te.AdvanceBy
			requestedNext = cur + advanceBy
		}
		if te.NextStageIndex > 0 {
			requestedNext = te.NextStageIndex
		}
	}

	stageCount := rm.ResolveStageCount(l)
	completed := (te != nil && te.Complete) || (stageCount > 0 && requestedNext > stageCount)

	// The stage the trigger fired on counts as solved either way.
	p.SolvedStages = p.SolvedStages.Insert(cur)

	if completed {
		// Settle on the last valid stage, even when the trigger fired
		// from an earlier stage with an explicit next index past the end.
		if stageCount > 0 && requestedNext > stageCount {
			requestedNext = stageCount
		}
		if requestedNext > p.CurrentStageIndex {
			p.CurrentStageIndex = requestedNext
		}
		p.Complete(pr.now())
	} else {
		if requestedNext < 1 {
			requestedNext = 1
		}
		p.CurrentStageIndex = requestedNext
	}

	if used != nil {
		p.Inventory.Remove(used.Key)
	}

	title := "solved a stage"
	if used != nil {
		title = fmt.Sprintf("used %s", used.Name)
	}
	activity := []ActivityEntry{newActivity(ActivityTrigger, title, req.Actor)}
	if completed {
		activity = append(activity, newActivity(ActivityComplete, "escaped the room", req.Actor))
	}

	return &Result{Activity: activity, Completed: completed}, nil
}

// checkUseRequirements enforces the required-item gate: the used item must
// satisfy the single or multi gate, and every gated item must be held.
func checkUseRequirements(rm *room.Room, p *progress.Progress, ue *room.UseEffect, used *room.Item) error {
	if ue.RequiredItemID != "" && used.ID != ue.RequiredItemID {
		return NewError(KindConflict, "that item doesn't work here").
			WithMeta("item_key", used.Key)
	}

	if len(ue.RequiresItemIDs) > 0 {
		match := false
		var missing []string
		for _, id := range ue.RequiresItemIDs {
			if id == used.ID {
				match = true
			}
			item := itemByID(rm, id)
			if item == nil || !p.Inventory.Has(item.Key) {
				missing = append(missing, id)
			}
		}
		if !match {
			return NewError(KindConflict, "that item doesn't work here").
				WithMeta("item_key", used.Key)
		}
		if len(missing) > 0 {
			return NewError(KindConflict, "required items are missing").
				WithMeta("missing_item_ids", missing)
		}
	}
	return nil
}

// applyToggles applies the effect's visibility/enablement sets. Each id
// lands in its target set and leaves the complementary one.
func applyToggles(ss *progress.SceneState, ue *room.UseEffect) {
	for _, id := range ue.HideItemIDs {
		ss.HideItem(id)
	}
	for _, id := range ue.ShowItemIDs {
		ss.ShowItem(id)
	}
	for _, id := range ue.DisableHotspotIDs {
		ss.DisableHotspot(id)
	}
	for _, id := range ue.EnableHotspotIDs {
		ss.EnableHotspot(id)
	}
}

func requirementIDs(ue *room.UseEffect) []string {
	if ue.RequiredItemID != "" {
		return append([]string{ue.RequiredItemID}, ue.RequiresItemIDs...)
	}
	return ue.RequiresItemIDs
}

func itemByID(rm *room.Room, id string) *room.Item {
	for i := range rm.Layouts {
		if item := rm.Layouts[i].ItemByID(id); item != nil {
			return item
		}
	}
	return nil
}

func itemByKey(rm *room.Room, key string) *room.Item {
	for i := range rm.Layouts {
		if item := rm.Layouts[i].ItemByKey(key); item != nil {
			return item
		}
	}
	return nil
}

package action

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
)

// SessionUpdated is broadcast to every team member after a successful
// action so their renderers redraw from the same state.
type SessionUpdated struct {
	TeamID            uuid.UUID           `json:"team_id"`
	RoomID            uuid.UUID           `json:"room_id"`
	Inventory         []string            `json:"inventory"`
	InventoryItems    []room.Item         `json:"inventory_items"`
	SceneState        progress.SceneState `json:"scene_state"`
	CurrentStageIndex int                 `json:"current_stage_index"`
	SolvedStages      progress.IntSet     `json:"solved_stages"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty"`
}

// ActivityType classifies an activity feed entry.
type ActivityType string

const (
	ActivityPickup   ActivityType = "pickup"
	ActivityUse      ActivityType = "use"
	ActivityLoot     ActivityType = "loot"
	ActivityTrigger  ActivityType = "trigger"
	ActivityComplete ActivityType = "complete"
)

// ActivityEntry is one line of the team's activity log.
type ActivityEntry struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      ActivityType   `json:"type"`
	Title     string         `json:"title"`
	Actor     string         `json:"actor,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

var titleCaser = cases.Title(language.English)

func newActivity(t ActivityType, title, actor string) ActivityEntry {
	return ActivityEntry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Type:      t,
		Title:     titleCaser.String(title),
		Actor:     actor,
	}
}

// newSessionUpdated builds the broadcast payload from the mutated
// aggregate, resolving inventory keys back to item definitions.
func newSessionUpdated(l *room.Layout, p *progress.Progress) SessionUpdated {
	keys := p.Inventory.Values()
	items := make([]room.Item, 0, len(keys))
	for _, k := range keys {
		if item := l.ItemByKey(k); item != nil {
			items = append(items, *item)
		}
	}
	return SessionUpdated{
		TeamID:            p.TeamID,
		RoomID:            p.RoomID,
		Inventory:         keys,
		InventoryItems:    items,
		SceneState:        p.SceneState,
		CurrentStageIndex: p.CurrentStageIndex,
		SolvedStages:      p.SolvedStages,
		CompletedAt:       p.CompletedAt,
	}
}

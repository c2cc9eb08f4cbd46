package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestProgress_Lifecycle(t *testing.T) {
	p := New(uuid.New(), uuid.New())

	if p.Status() != StatusNotStarted {
		t.Errorf("Expected not_started, got %s", p.Status())
	}
	if err := p.CanMutate(); err != ErrNotStarted {
		t.Errorf("Expected ErrNotStarted, got %v", err)
	}

	p.Start(time.Now())
	if p.Status() != StatusRunning {
		t.Errorf("Expected running, got %s", p.Status())
	}
	if err := p.CanMutate(); err != nil {
		t.Errorf("Running progress should be mutable, got %v", err)
	}

	started := *p.RunStartedAt
	p.Start(time.Now().Add(time.Hour))
	if !p.RunStartedAt.Equal(started) {
		t.Error("Start should be a no-op on a started run")
	}

	p.Complete(time.Now())
	if p.Status() != StatusCompleted {
		t.Errorf("Expected completed, got %s", p.Status())
	}
	if err := p.CanMutate(); err != ErrRunEnded {
		t.Errorf("Expected ErrRunEnded, got %v", err)
	}

	completed := *p.CompletedAt
	p.Complete(time.Now().Add(time.Hour))
	if !p.CompletedAt.Equal(completed) {
		t.Error("CompletedAt must be write-once")
	}
}

func TestProgress_FailedIsTerminal(t *testing.T) {
	p := New(uuid.New(), uuid.New())
	p.Start(time.Now())
	p.Fail(time.Now())

	if p.Status() != StatusFailed {
		t.Errorf("Expected failed, got %s", p.Status())
	}
	if err := p.CanMutate(); err != ErrRunEnded {
		t.Errorf("Expected ErrRunEnded, got %v", err)
	}
}

func TestSceneState_TogglePairsExclusive(t *testing.T) {
	ss := NewSceneState()

	ss.HideItem("statue")
	ss.ShowItem("statue")
	if ss.HiddenItemIDs.Has("statue") {
		t.Error("Shown item must leave the hidden set")
	}
	if !ss.ShownItemIDs.Has("statue") {
		t.Error("Expected statue in shown set")
	}

	ss.HideItem("statue")
	if ss.ShownItemIDs.Has("statue") {
		t.Error("Hidden item must leave the shown set")
	}

	ss.DisableHotspot("door")
	ss.EnableHotspot("door")
	if ss.DisabledHotspotIDs.Has("door") {
		t.Error("Enabled hotspot must leave the disabled set")
	}
	if !ss.EnabledHotspotIDs.Has("door") {
		t.Error("Expected door in enabled set")
	}
}

func TestSceneState_ItemVisible(t *testing.T) {
	ss := NewSceneState()

	if !ss.ItemVisible("statue", false) {
		t.Error("Item with no overrides should use its authored default")
	}
	if ss.ItemVisible("ghost", true) {
		t.Error("Authored-hidden item should be invisible without overrides")
	}

	ss.ShowItem("ghost")
	if !ss.ItemVisible("ghost", true) {
		t.Error("Shown override should beat the authored hidden flag")
	}

	ss.HideItem("statue")
	if ss.ItemVisible("statue", false) {
		t.Error("Hidden override should beat the authored default")
	}
}

func TestParseSceneState_Defensive(t *testing.T) {
	ss := ParseSceneState(`{"hidden_item_ids": ["statue"]}`)
	if !ss.HiddenItemIDs.Has("statue") {
		t.Error("Expected statue parsed into hidden set")
	}
	// Unset pairs must still be usable.
	ss.EnableHotspot("door")
	if !ss.EnabledHotspotIDs.Has("door") {
		t.Error("Partially parsed state should have usable sets")
	}

	bad := ParseSceneState(`{{{`)
	if bad.HiddenItemIDs == nil || bad.ShownItemIDs == nil {
		t.Error("Malformed payload should yield an empty, usable state")
	}
}

func TestProgress_CloneIsolation(t *testing.T) {
	p := New(uuid.New(), uuid.New())
	p.Start(time.Now())
	p.Inventory.Add("brass_key")
	p.SolvedStages = p.SolvedStages.Insert(1)

	cp := p.Clone()
	cp.Inventory.Add("lantern")
	cp.SceneState.HideItem("statue")
	cp.SolvedStages = cp.SolvedStages.Insert(2)

	if p.Inventory.Has("lantern") {
		t.Error("Clone inventory mutation leaked into original")
	}
	if p.SceneState.HiddenItemIDs.Has("statue") {
		t.Error("Clone scene state mutation leaked into original")
	}
	if p.SolvedStages.Has(2) {
		t.Error("Clone solved stages mutation leaked into original")
	}
}

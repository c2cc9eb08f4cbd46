package handlers

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/internal/storage"
	"github.com/jwebster45206/room-engine/pkg/action"
	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

// recordingNotifier captures broadcasts for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	updates []*action.Result
	resets  int
}

func (n *recordingNotifier) SessionUpdated(ctx context.Context, result *action.Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, result)
	return nil
}

func (n *recordingNotifier) ProgressReset(ctx context.Context, teamID, roomID uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets++
	return nil
}

func (n *recordingNotifier) updateCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.updates)
}

func (n *recordingNotifier) resetCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resets
}

// waitForUpdates polls for async fire-and-forget broadcasts.
func (n *recordingNotifier) waitForUpdates(count int) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if n.updateCount() >= count {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// testRoom authors a one-stage room with a pickup hotspot and a trigger
// that completes the run.
func testRoom() *room.Room {
	roomID := uuid.New()
	return &room.Room{
		ID:         roomID,
		Name:       "The Vault",
		StageCount: 1,
		Layouts: []room.Layout{
			{
				ID:         uuid.New(),
				RoomID:     roomID,
				StageIndex: 1,
				Width:      1920,
				Height:     1080,
				Items: []room.Item{
					{ID: "item_keycard", Key: "keycard", Name: "Keycard", X: 10, Y: 10, W: 50, H: 50},
				},
				Hotspots: []room.Hotspot{
					{ID: "hs_desk", Type: room.HotspotPickup, X: 10, Y: 10, W: 50, H: 50, TargetItemID: "item_keycard"},
					{ID: "hs_vault_door", Type: room.HotspotTrigger, X: 200, Y: 10, W: 100, H: 200,
						Meta: room.HotspotMeta{
							TriggerEffect: &room.TriggerEffect{
								RequiresItemIDs: []string{"item_keycard"},
								Complete:        true,
							},
						}},
				},
			},
		},
	}
}

// startedRun seeds storage with a room and a running progress.
func startedRun(s *storage.MockStorage, rm *room.Room) *progress.Progress {
	s.AddRoom(rm)
	p := progress.New(uuid.New(), rm.ID)
	p.Start(time.Now().UTC())
	_ = s.SaveProgress(context.Background(), p)
	return p
}

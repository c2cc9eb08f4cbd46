// Package events fans successful action results out to every connected
// team member: a Redis pub/sub channel per (team, room) session carries
// payloads across API instances, and a websocket hub delivers them to
// clients connected to this instance.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/room-engine/pkg/action"
	"github.com/jwebster45206/room-engine/pkg/room"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSessionUpdated EventType = "session.updated"
	EventTypeRunCompleted   EventType = "run.completed"
	EventTypeRunFailed      EventType = "run.failed"
	EventTypeProgressReset  EventType = "progress.reset"
)

// Event is the wire envelope published to a session channel.
type Event struct {
	Type     EventType              `json:"type"`
	TeamID   string                 `json:"team_id"`
	RoomID   string                 `json:"room_id"`
	Update   *action.SessionUpdated `json:"update,omitempty"`
	Activity []action.ActivityEntry `json:"activity,omitempty"`
	Sound    *room.SoundCue         `json:"sound,omitempty"`
}

// Notifier publishes session events. Handlers call it fire-and-forget;
// a failed broadcast never fails the action that caused it.
type Notifier interface {
	SessionUpdated(ctx context.Context, result *action.Result) error
	ProgressReset(ctx context.Context, teamID, roomID uuid.UUID) error
}

// ChannelFor names the pub/sub channel for one team's run of one room.
func ChannelFor(teamID, roomID uuid.UUID) string {
	return fmt.Sprintf("room-events:%s:%s", teamID, roomID)
}

// Broadcaster publishes events to Redis Pub/Sub for cross-instance
// websocket distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// Ensure Broadcaster implements Notifier interface
var _ Notifier = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// SessionUpdated publishes the post-action state snapshot, plus the
// run.completed event when the action finished the room.
func (b *Broadcaster) SessionUpdated(ctx context.Context, result *action.Result) error {
	update := result.Update
	event := Event{
		Type:     EventTypeSessionUpdated,
		TeamID:   update.TeamID.String(),
		RoomID:   update.RoomID.String(),
		Update:   &update,
		Activity: result.Activity,
		Sound:    result.Sound,
	}
	if err := b.publish(ctx, update.TeamID, update.RoomID, event); err != nil {
		return err
	}

	if result.Completed {
		done := Event{
			Type:   EventTypeRunCompleted,
			TeamID: update.TeamID.String(),
			RoomID: update.RoomID.String(),
			Update: &update,
		}
		return b.publish(ctx, update.TeamID, update.RoomID, done)
	}
	return nil
}

// ProgressReset tells clients their run was deleted.
func (b *Broadcaster) ProgressReset(ctx context.Context, teamID, roomID uuid.UUID) error {
	event := Event{
		Type:   EventTypeProgressReset,
		TeamID: teamID.String(),
		RoomID: roomID.String(),
	}
	return b.publish(ctx, teamID, roomID, event)
}

// publish marshals and publishes an event to the session channel.
func (b *Broadcaster) publish(ctx context.Context, teamID, roomID uuid.UUID, event Event) error {
	channel := ChannelFor(teamID, roomID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}

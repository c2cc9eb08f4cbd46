package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
)

// progressTTL keeps abandoned runs from accumulating forever. Every
// write refreshes it, so an active team never expires mid-run.
const progressTTL = 24 * time.Hour

// casRetries bounds how often UpdateProgress re-reads after losing a
// write race before giving up with ErrRevisionConflict.
const casRetries = 5

// RedisStorage implements the Storage interface using Redis for team
// progress and filesystem for authored rooms
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	rooms  *roomStore
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. strict controls
// whether rooms that fail author validation are dropped at load.
func NewRedisStorage(redisURL string, dataDir string, strict bool, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client: rdb,
		logger: logger,
		rooms:  newRoomStore(dataDir, strict, logger),
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Progress operations (Redis-backed)

func progressKey(teamID, roomID uuid.UUID) string {
	return "progress:" + teamID.String() + ":" + roomID.String()
}

func (r *RedisStorage) SaveProgress(ctx context.Context, p *progress.Progress) error {
	p.UpdatedAt = time.Now()

	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("Failed to marshal progress", "team_id", p.TeamID, "room_id", p.RoomID, "error", err)
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	key := progressKey(p.TeamID, p.RoomID)
	cmd := r.client.Set(ctx, key, string(data), progressTTL)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save progress", "team_id", p.TeamID, "room_id", p.RoomID, "error", err)
		return fmt.Errorf("failed to save progress: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadProgress(ctx context.Context, teamID, roomID uuid.UUID) (*progress.Progress, error) {
	key := progressKey(teamID, roomID)
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load progress", "team_id", teamID, "room_id", roomID, "error", err)
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		return nil, nil
	}

	var p progress.Progress
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		r.logger.Error("Failed to unmarshal progress", "team_id", teamID, "room_id", roomID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}

	p.Normalize()
	return &p, nil
}

// UpdateProgress applies fn under WATCH/MULTI. The revision field is a
// belt-and-braces check on top of the key watch: a concurrent write
// aborts the transaction and the whole read-modify-write is retried.
func (r *RedisStorage) UpdateProgress(ctx context.Context, teamID, roomID uuid.UUID, fn func(*progress.Progress) error) (*progress.Progress, error) {
	key := progressKey(teamID, roomID)
	var updated *progress.Progress

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("failed to load progress: %w", err)
		}
		if err == redis.Nil || data == "" {
			return fmt.Errorf("progress not found for team %s room %s", teamID, roomID)
		}

		var p progress.Progress
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return fmt.Errorf("failed to unmarshal progress: %w", err)
		}
		p.Normalize()

		if err := fn(&p); err != nil {
			return err
		}

		p.Revision++
		p.UpdatedAt = time.Now()
		out, err := json.Marshal(&p)
		if err != nil {
			return fmt.Errorf("failed to marshal progress: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(out), progressTTL)
			return nil
		})
		if err == nil {
			updated = &p
		}
		return err
	}

	for i := 0; i < casRetries; i++ {
		err := r.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if err == redis.TxFailedErr {
			r.logger.Debug("Progress write lost a race, retrying",
				"team_id", teamID, "room_id", roomID, "attempt", i+1)
			continue
		}
		return nil, err
	}

	r.logger.Warn("Progress update exhausted retries", "team_id", teamID, "room_id", roomID)
	return nil, ErrRevisionConflict
}

func (r *RedisStorage) DeleteProgress(ctx context.Context, teamID, roomID uuid.UUID) error {
	key := progressKey(teamID, roomID)
	cmd := r.client.Del(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete progress", "team_id", teamID, "room_id", roomID, "error", err)
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

// Room operations (filesystem-backed)

func (r *RedisStorage) ListRooms(ctx context.Context) (map[string]string, error) {
	return r.rooms.List(ctx)
}

func (r *RedisStorage) GetRoom(ctx context.Context, id uuid.UUID) (*room.Room, error) {
	return r.rooms.Get(ctx, id)
}

// Client exposes the underlying Redis client for pub/sub wiring.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

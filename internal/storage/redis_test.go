package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/pkg/progress"
)

func setupTestStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewRedisStorage(mr.Addr(), t.TempDir(), false, logger)
	return s, mr
}

func newTestProgress() *progress.Progress {
	p := progress.New(uuid.New(), uuid.New())
	p.Start(time.Now())
	return p
}

func TestRedisStorage_ProgressRoundTrip(t *testing.T) {
	s, mr := setupTestStorage(t)
	defer mr.Close()
	defer s.Close()

	ctx := context.Background()
	p := newTestProgress()
	p.Inventory.Add("brass_key")

	if err := s.SaveProgress(ctx, p); err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}

	loaded, err := s.LoadProgress(ctx, p.TeamID, p.RoomID)
	if err != nil {
		t.Fatalf("Failed to load progress: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected progress, got nil")
	}
	if loaded.TeamID != p.TeamID || loaded.RoomID != p.RoomID {
		t.Errorf("Loaded wrong progress: team %s room %s", loaded.TeamID, loaded.RoomID)
	}
	if !loaded.Inventory.Has("brass_key") {
		t.Error("Inventory did not survive the round trip")
	}
	if loaded.Status() != progress.StatusRunning {
		t.Errorf("Status = %s, want %s", loaded.Status(), progress.StatusRunning)
	}
}

func TestRedisStorage_LoadProgressNotFound(t *testing.T) {
	s, mr := setupTestStorage(t)
	defer mr.Close()
	defer s.Close()

	loaded, err := s.LoadProgress(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for missing progress")
	}
}

func TestRedisStorage_SaveSetsTTL(t *testing.T) {
	s, mr := setupTestStorage(t)
	defer mr.Close()
	defer s.Close()

	p := newTestProgress()
	if err := s.SaveProgress(context.Background(), p); err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}

	key := progressKey(p.TeamID, p.RoomID)
	if ttl := mr.TTL(key); ttl != progressTTL {
		t.Errorf("TTL = %v, want %v", ttl, progressTTL)
	}
}

func TestRedisStorage_DeleteProgress(t *testing.T) {
	s, mr := setupTestStorage(t)
	defer mr.Close()
	defer s.Close()

	ctx := context.Background()
	p := newTestProgress()
	if err := s.SaveProgress(ctx, p); err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}
	if err := s.DeleteProgress(ctx, p.TeamID, p.RoomID); err != nil {
		t.Fatalf("Failed to delete progress: %v", err)
	}

	loaded, err := s.LoadProgress(ctx, p.TeamID, p.RoomID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil after delete")
	}
}

func TestRedisStorage_UpdateProgress(t *testing.T) {
	s, mr := setupTestStorage(t)
	defer mr.Close()
	defer s.Close()

	ctx := context.Background()
	p := newTestProgress()
	if err := s.SaveProgress(ctx, p); err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}

	updated, err := s.UpdateProgress(ctx, p.TeamID, p.RoomID, func(cur *progress.Progress) error {
		cur.Inventory.Add("crowbar")
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to update progress: %v", err)
	}
	if !updated.Inventory.Has("crowbar") {
		t.Error("Mutation did not apply")
	}
	if updated.Revision != p.Revision+1 {
		t.Errorf("Revision = %d, want %d", updated.Revision, p.Revision+1)
	}

	loaded, err := s.LoadProgress(ctx, p.TeamID, p.RoomID)
	if err != nil {
		t.Fatalf("Failed to reload progress: %v", err)
	}
	if !loaded.Inventory.Has("crowbar") {
		t.Error("Update was not persisted")
	}
}

func TestRedisStorage_UpdateProgressNotFound(t *testing.T) {
	s, mr := setupTestStorage(t)
	defer mr.Close()
	defer s.Close()

	_, err := s.UpdateProgress(context.Background(), uuid.New(), uuid.New(), func(cur *progress.Progress) error {
		return nil
	})
	if err == nil {
		t.Fatal("Expected error for missing progress")
	}
}

func TestRedisStorage_UpdateProgressCallbackError(t *testing.T) {
	s, mr := setupTestStorage(t)
	defer mr.Close()
	defer s.Close()

	ctx := context.Background()
	p := newTestProgress()
	if err := s.SaveProgress(ctx, p); err != nil {
		t.Fatalf("Failed to save progress: %v", err)
	}

	sentinel := errors.New("rejected")
	_, err := s.UpdateProgress(ctx, p.TeamID, p.RoomID, func(cur *progress.Progress) error {
		cur.Inventory.Add("should_not_persist")
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected callback error, got %v", err)
	}

	loaded, err := s.LoadProgress(ctx, p.TeamID, p.RoomID)
	if err != nil {
		t.Fatalf("Failed to reload progress: %v", err)
	}
	if loaded.Inventory.Has("should_not_persist") {
		t.Error("Rejected mutation must not persist")
	}
	if loaded.Revision != p.Revision {
		t.Errorf("Revision = %d, want unchanged %d", loaded.Revision, p.Revision)
	}
}

package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
)

// ErrRevisionConflict is returned when a progress write lost the race
// against a concurrent update and retries were exhausted.
var ErrRevisionConflict = errors.New("progress revision conflict")

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for progress persistence and authored
// room content. Progress is Redis-backed and mutable; rooms are
// filesystem-backed and read-only at runtime.
type Storage interface {
	HealthChecker
	Closer

	// SaveProgress persists a team's progress for a room.
	SaveProgress(ctx context.Context, p *progress.Progress) error

	// LoadProgress retrieves a team's progress for a room.
	// Returns nil if no progress exists.
	LoadProgress(ctx context.Context, teamID, roomID uuid.UUID) (*progress.Progress, error)

	// UpdateProgress applies fn to the current progress under optimistic
	// concurrency control and persists the result. fn runs on a clone;
	// a lost race re-reads and re-applies. Returns the stored progress.
	UpdateProgress(ctx context.Context, teamID, roomID uuid.UUID, fn func(*progress.Progress) error) (*progress.Progress, error)

	// DeleteProgress removes a team's progress for a room.
	DeleteProgress(ctx context.Context, teamID, roomID uuid.UUID) error

	// ListRooms returns available room names keyed by room ID.
	ListRooms(ctx context.Context) (map[string]string, error)

	// GetRoom retrieves an authored room by ID.
	// Returns nil if the room doesn't exist.
	GetRoom(ctx context.Context, id uuid.UUID) (*room.Room, error)
}

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	progress  map[string]*progress.Progress
	rooms     map[uuid.UUID]*room.Room
	pingError error

	// SaveError and UpdateError force failures for error-path tests.
	SaveError   error
	UpdateError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		progress: make(map[string]*progress.Progress),
		rooms:    make(map[uuid.UUID]*room.Room),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// AddRoom registers an authored room
func (m *MockStorage) AddRoom(rm *room.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[rm.ID] = rm
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveProgress(ctx context.Context, p *progress.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	p.UpdatedAt = time.Now()
	m.progress[progressKey(p.TeamID, p.RoomID)] = p.Clone()
	return nil
}

func (m *MockStorage) LoadProgress(ctx context.Context, teamID, roomID uuid.UUID) (*progress.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[progressKey(teamID, roomID)]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (m *MockStorage) UpdateProgress(ctx context.Context, teamID, roomID uuid.UUID, fn func(*progress.Progress) error) (*progress.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	stored, ok := m.progress[progressKey(teamID, roomID)]
	if !ok {
		return nil, fmt.Errorf("progress not found for team %s room %s", teamID, roomID)
	}
	p := stored.Clone()
	if err := fn(p); err != nil {
		return nil, err
	}
	p.Revision++
	p.UpdatedAt = time.Now()
	m.progress[progressKey(teamID, roomID)] = p.Clone()
	return p, nil
}

func (m *MockStorage) DeleteProgress(ctx context.Context, teamID, roomID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.progress, progressKey(teamID, roomID))
	return nil
}

func (m *MockStorage) ListRooms(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rooms := make(map[string]string, len(m.rooms))
	for id, rm := range m.rooms {
		rooms[id.String()] = rm.Name
	}
	return rooms, nil
}

func (m *MockStorage) GetRoom(ctx context.Context, id uuid.UUID) (*room.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[id], nil
}

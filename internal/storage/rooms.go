package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/pkg/room"
	"github.com/jwebster45206/room-engine/pkg/viewport"
)

// roomStore loads authored rooms from dataDir/rooms and caches them by
// ID. Rooms are normalized once at load: stacking order resolved and
// legacy preview-resolution hotspots rescaled to layout units. Author
// validation runs strict only when asked; player traffic serves rooms
// with authoring errors and logs them.
type roomStore struct {
	dataDir string
	strict  bool
	logger  *slog.Logger

	mu     sync.RWMutex
	byID   map[uuid.UUID]*room.Room
	loaded bool
}

func newRoomStore(dataDir string, strict bool, logger *slog.Logger) *roomStore {
	return &roomStore{
		dataDir: dataDir,
		strict:  strict,
		logger:  logger,
		byID:    make(map[uuid.UUID]*room.Room),
	}
}

func (s *roomStore) List(ctx context.Context) (map[string]string, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make(map[string]string, len(s.byID))
	for id, rm := range s.byID {
		rooms[id.String()] = rm.Name
	}
	return rooms, nil
}

func (s *roomStore) Get(ctx context.Context, id uuid.UUID) (*room.Room, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id], nil
}

func (s *roomStore) ensureLoaded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	roomsDir := filepath.Join(s.dataDir, "rooms")
	err := filepath.WalkDir(roomsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Failed to read room file", "path", path, "error", err)
			return nil
		}

		var rm room.Room
		if err := json.Unmarshal(file, &rm); err != nil {
			s.logger.Warn("Failed to unmarshal room file", "path", path, "error", err)
			return nil
		}

		if errs := room.Validate(&rm); len(errs) > 0 {
			if s.strict {
				s.logger.Warn("Room failed validation, skipping",
					"path", path, "errors", room.FormatErrors(errs))
				return nil
			}
			s.logger.Warn("Room has authoring errors",
				"path", path, "errors", room.FormatErrors(errs))
		}

		normalizeRoom(&rm, s.logger)
		s.byID[rm.ID] = &rm
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to walk rooms directory", "error", err)
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	s.loaded = true
	s.logger.Info("Rooms loaded", "count", len(s.byID), "dir", roomsDir)
	return nil
}

// normalizeRoom applies the one-time load fixups so runtime code never
// sees raw authored data.
func normalizeRoom(rm *room.Room, logger *slog.Logger) {
	for i := range rm.Layouts {
		l := &rm.Layouts[i]
		l.ResolveOrder()
		if viewport.NormalizeLegacyHotspots(l) {
			logger.Debug("Rescaled legacy preview hotspots",
				"room_id", rm.ID, "layout_id", l.ID)
		}
	}
}

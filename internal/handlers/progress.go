package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/internal/events"
	"github.com/jwebster45206/room-engine/internal/storage"
	"github.com/jwebster45206/room-engine/pkg/progress"
)

// CreateProgressRequest starts a team's run of a room.
type CreateProgressRequest struct {
	TeamID uuid.UUID `json:"team_id"`
	RoomID uuid.UUID `json:"room_id"`
}

type ProgressHandler struct {
	storage  storage.Storage
	notifier events.Notifier
	logger   *slog.Logger
}

func NewProgressHandler(s storage.Storage, n events.Notifier, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		storage:  s,
		notifier: n,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for progress operations
// Routes:
// POST /v1/progress                    - Start a run
// GET /v1/progress/{teamId}/{roomId}   - Read a team's progress
// DELETE /v1/progress/{teamId}/{roomId} - Delete a run (admin/test)
func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)

	case http.MethodGet, http.MethodDelete:
		teamID, roomID, ok := parseProgressPath(r.URL.Path)
		if !ok {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid progress path, want /v1/progress/{teamId}/{roomId}")
			return
		}
		if r.Method == http.MethodGet {
			h.handleRead(w, r, teamID, roomID)
		} else {
			h.handleDelete(w, r, teamID, roomID)
		}

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *ProgressHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid progress request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TeamID == uuid.Nil || req.RoomID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "team_id and room_id are required")
		return
	}

	rm, err := h.storage.GetRoom(r.Context(), req.RoomID)
	if err != nil {
		h.logger.Error("Failed to load room", "room_id", req.RoomID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load room")
		return
	}
	if rm == nil {
		writeError(w, h.logger, http.StatusNotFound, "Room not found")
		return
	}

	existing, err := h.storage.LoadProgress(r.Context(), req.TeamID, req.RoomID)
	if err != nil {
		h.logger.Error("Failed to load progress", "team_id", req.TeamID, "room_id", req.RoomID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load progress")
		return
	}
	if existing != nil {
		writeError(w, h.logger, http.StatusConflict, "A run already exists for this team and room")
		return
	}

	p := progress.New(req.TeamID, req.RoomID)
	p.Start(time.Now().UTC())
	if err := h.storage.SaveProgress(r.Context(), p); err != nil {
		h.logger.Error("Failed to save progress", "team_id", req.TeamID, "room_id", req.RoomID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save progress")
		return
	}

	h.logger.Info("Run started", "team_id", req.TeamID, "room_id", req.RoomID)
	writeJSON(w, h.logger, http.StatusCreated, p)
}

func (h *ProgressHandler) handleRead(w http.ResponseWriter, r *http.Request, teamID, roomID uuid.UUID) {
	p, err := h.storage.LoadProgress(r.Context(), teamID, roomID)
	if err != nil {
		h.logger.Error("Failed to load progress", "team_id", teamID, "room_id", roomID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load progress")
		return
	}
	if p == nil {
		writeError(w, h.logger, http.StatusNotFound, "Progress not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

func (h *ProgressHandler) handleDelete(w http.ResponseWriter, r *http.Request, teamID, roomID uuid.UUID) {
	if err := h.storage.DeleteProgress(r.Context(), teamID, roomID); err != nil {
		h.logger.Error("Failed to delete progress", "team_id", teamID, "room_id", roomID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete progress")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.notifier.ProgressReset(ctx, teamID, roomID); err != nil {
			h.logger.Warn("Failed to broadcast progress reset",
				"team_id", teamID, "room_id", roomID, "error", err)
		}
	}()

	h.logger.Info("Run deleted", "team_id", teamID, "room_id", roomID)
	w.WriteHeader(http.StatusNoContent)
}

// parseProgressPath extracts IDs from /v1/progress/{teamId}/{roomId}.
func parseProgressPath(path string) (uuid.UUID, uuid.UUID, bool) {
	path = strings.Trim(strings.TrimPrefix(path, "/v1/progress"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		return uuid.Nil, uuid.Nil, false
	}
	teamID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	roomID, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return teamID, roomID, true
}

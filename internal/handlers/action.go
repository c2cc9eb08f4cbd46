package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/internal/events"
	"github.com/jwebster45206/room-engine/internal/storage"
	"github.com/jwebster45206/room-engine/pkg/action"
	"github.com/jwebster45206/room-engine/pkg/progress"
	"github.com/jwebster45206/room-engine/pkg/room"
)

// ActionRequest is the wire form of a player intent.
type ActionRequest struct {
	action.Request
	TeamID uuid.UUID `json:"team_id"`
}

// ActionResponse echoes the post-action state to the acting client; the
// rest of the team gets the same snapshot over the websocket.
type ActionResponse struct {
	Progress  *progress.Progress     `json:"progress"`
	Update    action.SessionUpdated  `json:"update"`
	Activity  []action.ActivityEntry `json:"activity,omitempty"`
	Sound     *room.SoundCue         `json:"sound,omitempty"`
	Completed bool                   `json:"completed"`
}

type ActionHandler struct {
	storage   storage.Storage
	processor *action.Processor
	notifier  events.Notifier
	logger    *slog.Logger
}

func NewActionHandler(s storage.Storage, p *action.Processor, n events.Notifier, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{
		storage:   s,
		processor: p,
		notifier:  n,
		logger:    logger,
	}
}

// ServeHTTP handles POST /v1/rooms/{roomId}/action
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	roomID, ok := parseActionPath(r.URL.Path)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid room ID format")
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid action request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TeamID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, "team_id is required")
		return
	}

	rm, err := h.storage.GetRoom(r.Context(), roomID)
	if err != nil {
		h.logger.Error("Failed to load room", "room_id", roomID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load room")
		return
	}
	if rm == nil {
		writeError(w, h.logger, http.StatusNotFound, "Room not found")
		return
	}

	var result *action.Result
	stored, err := h.storage.UpdateProgress(r.Context(), req.TeamID, roomID, func(p *progress.Progress) error {
		layout := rm.LayoutForStage(p.CurrentStageIndex)
		if layout == nil {
			return action.NewError(action.KindInternal, "no layout for current stage")
		}
		res, err := h.processor.Apply(rm, layout, p, req.Request)
		if err != nil {
			return err
		}
		result = res
		*p = *res.Progress
		return nil
	})
	if err != nil {
		h.respondError(w, req, roomID, err)
		return
	}

	// Fire-and-forget: a failed broadcast never fails the action.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.notifier.SessionUpdated(ctx, result); err != nil {
			h.logger.Warn("Failed to broadcast session update",
				"team_id", req.TeamID, "room_id", roomID, "error", err)
		}
	}()

	h.logger.Info("Action applied",
		"team_id", req.TeamID,
		"room_id", roomID,
		"action", req.Action,
		"hotspot_id", req.HotspotID,
		"completed", result.Completed)

	writeJSON(w, h.logger, http.StatusOK, ActionResponse{
		Progress:  stored,
		Update:    result.Update,
		Activity:  result.Activity,
		Sound:     result.Sound,
		Completed: result.Completed,
	})
}

func (h *ActionHandler) respondError(w http.ResponseWriter, req ActionRequest, roomID uuid.UUID, err error) {
	var actionErr *action.Error
	switch {
	case errors.As(err, &actionErr):
		h.logger.Warn("Action rejected",
			"team_id", req.TeamID,
			"room_id", roomID,
			"action", req.Action,
			"hotspot_id", req.HotspotID,
			"kind", actionErr.Kind,
			"error", actionErr.Message)
		writeError(w, h.logger, actionErr.Kind.HTTPStatus(), actionErr.Message)
	case errors.Is(err, storage.ErrRevisionConflict):
		writeError(w, h.logger, http.StatusConflict, "Progress was updated concurrently, retry")
	case strings.Contains(err.Error(), "progress not found"):
		writeError(w, h.logger, http.StatusNotFound, "No run in progress for this team and room")
	default:
		h.logger.Error("Failed to apply action",
			"team_id", req.TeamID, "room_id", roomID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to apply action")
	}
}

// parseActionPath extracts the room ID from /v1/rooms/{roomId}/action.
func parseActionPath(path string) (uuid.UUID, bool) {
	path = strings.TrimPrefix(path, "/v1/rooms/")
	path = strings.TrimSuffix(path, "/action")
	id, err := uuid.Parse(strings.Trim(path, "/"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

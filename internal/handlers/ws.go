package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/room-engine/internal/events"
	"github.com/jwebster45206/room-engine/internal/storage"
	"github.com/jwebster45206/room-engine/pkg/action"
)

type WSHandler struct {
	storage  storage.Storage
	hub      *events.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(s storage.Storage, hub *events.Hub, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		storage: s,
		hub:     hub,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Clients are served from arbitrary origins (venue kiosks,
			// phones on the room's wifi).
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /v1/ws?team_id=...&room_id=...
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(r.URL.Query().Get("team_id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "team_id query parameter is required")
		return
	}
	roomID, err := uuid.Parse(r.URL.Query().Get("room_id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "room_id query parameter is required")
		return
	}

	// Snapshot before upgrading so a failed load is still a clean HTTP error.
	p, err := h.storage.LoadProgress(r.Context(), teamID, roomID)
	if err != nil {
		h.logger.Error("Failed to load progress for websocket attach",
			"team_id", teamID, "room_id", roomID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load progress")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}

	channel := events.ChannelFor(teamID, roomID)
	client := h.hub.Register(channel, conn)
	h.logger.Info("Websocket client attached", "team_id", teamID, "room_id", roomID)

	// Late joiners get the current state immediately instead of waiting
	// for the next teammate action.
	if p != nil {
		update := action.SessionUpdated{
			TeamID:            p.TeamID,
			RoomID:            p.RoomID,
			Inventory:         p.Inventory.Values(),
			SceneState:        p.SceneState,
			CurrentStageIndex: p.CurrentStageIndex,
			SolvedStages:      p.SolvedStages,
			CompletedAt:       p.CompletedAt,
		}
		event := events.Event{
			Type:   events.EventTypeSessionUpdated,
			TeamID: teamID.String(),
			RoomID: roomID.String(),
			Update: &update,
		}
		if data, err := json.Marshal(event); err == nil {
			client.Send(data)
		}
	}
}

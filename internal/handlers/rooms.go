package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/room-engine/internal/storage"
)

type RoomsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewRoomsHandler(s storage.Storage, logger *slog.Logger) *RoomsHandler {
	return &RoomsHandler{
		storage: s,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for authored room content
// Routes:
// GET /v1/rooms      - List rooms (name by ID)
// GET /v1/rooms/{id} - Read one room
func (h *RoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/rooms"), "/")
	if path == "" {
		h.handleList(w, r)
		return
	}

	id, err := uuid.Parse(path)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid room ID format")
		return
	}
	h.handleRead(w, r, id)
}

func (h *RoomsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.storage.ListRooms(r.Context())
	if err != nil {
		h.logger.Error("Failed to list rooms", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list rooms")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, rooms)
}

func (h *RoomsHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	rm, err := h.storage.GetRoom(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load room", "room_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load room")
		return
	}
	if rm == nil {
		writeError(w, h.logger, http.StatusNotFound, "Room not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, rm)
}

// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/otomarket/chat-platform/internal/middleware"
	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/service"
	"github.com/otomarket/chat-platform/pkg/logger"
)

// RoomHandler handles room endpoints.
type RoomHandler struct {
	rooms      *service.RoomService
	escalation *service.EscalationService
	logger     *logger.Logger
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(rooms *service.RoomService, esc *service.EscalationService, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:      rooms,
		escalation: esc,
		logger:     log,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateUserID(req.PeerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room := &model.Room{
		ID:        uuid.Must(uuid.NewV7()).String(),
		User1ID:   userID,
		User2ID:   req.PeerID,
		CarID:     req.CarID,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.rooms.Create(ctx, room); err != nil {
		h.logger.Error("failed to create room", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	resp, err := h.rooms.List(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list rooms", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/rooms/:id
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.rooms.Get(ctx, roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !canView(room, r) {
		writeError(w, http.StatusForbidden, "not a participant")
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// Escalate handles POST /api/v1/rooms/:id/escalate
func (h *RoomHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.escalation.Escalate(ctx, roomID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"escalated": true})
}

// Resolve handles POST /api/v1/rooms/:id/resolve
func (h *RoomHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")
	staffID := middleware.GetUserID(ctx)

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	notice, err := h.escalation.Resolve(ctx, roomID, staffID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SendMessageResponse{Message: notice})
}

// canView reports whether the caller may read the room: participants and
// staff only.
func canView(room *model.Room, r *http.Request) bool {
	ctx := r.Context()
	return room.IsParticipant(middleware.GetUserID(ctx)) || middleware.IsStaff(ctx)
}

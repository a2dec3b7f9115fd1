package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/otomarket/chat-platform/internal/assist"
	"github.com/otomarket/chat-platform/internal/listing"
	"github.com/otomarket/chat-platform/internal/middleware"
	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/normalize"
	"github.com/otomarket/chat-platform/internal/service"
	"github.com/otomarket/chat-platform/pkg/logger"
)

// AssistHandler drafts staff replies. Staff-only; the route guards on role.
type AssistHandler struct {
	messages *service.MessageService
	listings listing.Resolver
	provider assist.Provider
	logger   *logger.Logger
}

// NewAssistHandler creates a new assist handler. provider may be nil when no
// API key is configured; the endpoint then reports the feature as disabled.
func NewAssistHandler(messages *service.MessageService, listings listing.Resolver, provider assist.Provider, log *logger.Logger) *AssistHandler {
	return &AssistHandler{
		messages: messages,
		listings: listings,
		provider: provider,
		logger:   log,
	}
}

// SuggestResponse carries one drafted reply.
type SuggestResponse struct {
	Suggestion string `json:"suggestion"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
}

// Suggest handles POST /api/v1/rooms/:id/suggest
func (h *AssistHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")
	staffID := middleware.GetUserID(ctx)

	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "reply suggestions are not configured")
		return
	}
	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.messages.Room(ctx, roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	history, err := h.messages.History(ctx, roomID)
	if err != nil {
		h.logger.Error("failed to load history for suggestion", "error", err, "room_id", roomID)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	display := normalize.History(history)
	suggestion, err := h.provider.Suggest(ctx, &assist.Request{
		History:  display,
		StaffID:  staffID,
		CarTitle: h.carTitle(r, room, display),
	})
	if err != nil {
		h.logger.Error("suggestion failed", "error", err, "room_id", roomID, "provider", h.provider.Name())
		writeError(w, http.StatusBadGateway, "suggestion provider failed")
		return
	}

	writeJSON(w, http.StatusOK, SuggestResponse{
		Suggestion: suggestion.Text,
		Provider:   h.provider.Name(),
		Model:      suggestion.Model,
	})
}

// carTitle finds the listing under discussion: a title already shared in the
// conversation wins, then the catalog lookup for the room's listing.
func (h *AssistHandler) carTitle(r *http.Request, room *model.Room, display []model.Display) string {
	for i := len(display) - 1; i >= 0; i-- {
		if display[i].CarInfo != nil && display[i].CarInfo.Title != "" {
			return display[i].CarInfo.Title
		}
	}
	if room.CarID == "" {
		return ""
	}
	car, err := h.listings.Resolve(r.Context(), room.CarID)
	if err != nil {
		return ""
	}
	return car.Title
}

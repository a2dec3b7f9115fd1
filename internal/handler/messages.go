package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/otomarket/chat-platform/internal/middleware"
	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/normalize"
	"github.com/otomarket/chat-platform/internal/service"
	"github.com/otomarket/chat-platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	messages *service.MessageService
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(messages *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		logger:   log,
	}
}

// List handles GET /api/v1/rooms/:id/messages. Messages come back in the
// normalized display form, oldest first.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.messages.Room(ctx, roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !canView(room, r) {
		writeError(w, http.StatusForbidden, "not a participant")
		return
	}

	history, err := h.messages.History(ctx, roomID)
	if err != nil {
		h.logger.Error("failed to list messages", "error", err, "room_id", roomID)
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	display := normalize.History(history)
	writeJSON(w, http.StatusOK, model.ListMessagesResponse{
		Messages: display,
		Total:    len(display),
	})
}

// Send handles POST /api/v1/rooms/:id/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageBody(req.Body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ReplyToID != "" {
		if err := middleware.ValidateMessageID(req.ReplyToID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	msg, err := h.messages.Send(ctx, service.SendInput{
		RoomID:    roomID,
		SenderID:  middleware.GetUserID(ctx),
		Staff:     middleware.IsStaff(ctx),
		Body:      req.Body,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.SendMessageResponse{Message: msg})
}

// MarkRead handles POST /api/v1/rooms/:id/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")
	userID := middleware.GetUserID(ctx)

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.messages.Room(ctx, roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !room.IsParticipant(userID) {
		writeError(w, http.StatusForbidden, "not a participant")
		return
	}

	updated, err := h.messages.MarkRead(ctx, roomID, userID)
	if err != nil {
		h.logger.Error("failed to mark read", "error", err, "room_id", roomID)
		writeError(w, http.StatusInternalServerError, "failed to mark read")
		return
	}

	writeJSON(w, http.StatusOK, model.MarkReadResponse{Updated: updated})
}

// Delete handles DELETE /api/v1/rooms/:id/messages/:messageID. Senders may
// soft-delete their own messages.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	messageID := chi.URLParam(r, "messageID")

	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.messages.DeleteOwn(ctx, messageID, middleware.GetUserID(ctx)); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

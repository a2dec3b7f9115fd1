package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/otomarket/chat-platform/internal/middleware"
	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/internal/service"
	"github.com/otomarket/chat-platform/pkg/logger"
)

// UploadHandler handles file-message endpoints.
type UploadHandler struct {
	messages *service.MessageService
	maxSize  int64
	logger   *logger.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(messages *service.MessageService, maxSize int64, log *logger.Logger) *UploadHandler {
	return &UploadHandler{
		messages: messages,
		maxSize:  maxSize,
		logger:   log,
	}
}

// Send handles POST /api/v1/rooms/:id/files with a multipart "file" part and
// an optional "body" caption.
func (h *UploadHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid or oversized multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	caption := r.FormValue("body")
	if err := middleware.ValidateMessageBody(caption); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.messages.SendFile(ctx, service.SendInput{
		RoomID:   roomID,
		SenderID: middleware.GetUserID(ctx),
		Staff:    middleware.IsStaff(ctx),
		Body:     caption,
	}, header.Filename, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.SendMessageResponse{Message: msg})
}

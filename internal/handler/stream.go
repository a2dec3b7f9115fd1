package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/otomarket/chat-platform/internal/middleware"
	"github.com/otomarket/chat-platform/internal/service"
	"github.com/otomarket/chat-platform/pkg/logger"
	"github.com/otomarket/chat-platform/pkg/metrics"
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	messages *service.MessageService
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(messages *service.MessageService, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		messages: messages,
		logger:   log,
	}
}

// ReplayCompleteEvent marks the end of the history replay; everything after
// it arrived live.
type ReplayCompleteEvent struct {
	MessageCount int    `json:"message_count"`
	PendingCar   string `json:"pending_car,omitempty"`
}

// HeartbeatEvent keeps idle connections alive.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// Stream handles GET /api/v1/rooms/:id/stream. The connection first replays
// the room's normalized history, then pushes live messages as they arrive.
// Replay and live phases can overlap on the server side; events are
// de-duplicated by message ID before they reach the wire.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")
	userID := middleware.GetUserID(ctx)
	staff := middleware.IsStaff(ctx)

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

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sess := service.NewSession(userID, staff, h.messages, h.logger)
	defer sess.Close()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"room_id": roomID,
	})

	if err := sess.Activate(ctx, roomID); err != nil {
		h.logger.Error("failed to activate room", "error", err, "room_id", roomID)
		sendSSEEvent(w, flusher, "error", map[string]string{
			"code":    "replay_error",
			"message": "failed to load history",
		})
		return
	}

	// Replay. The session's live feed is already open, so anything arriving
	// during this loop shows up on Events(); the sent set keeps overlap off
	// the wire.
	sent := make(map[string]struct{})
	replay := sess.Messages()
	for _, d := range replay {
		select {
		case <-ctx.Done():
			return
		default:
		}
		sendSSEEvent(w, flusher, "message", d)
		sent[d.ID] = struct{}{}
	}

	sendSSEEvent(w, flusher, "replay_complete", &ReplayCompleteEvent{
		MessageCount: len(replay),
		PendingCar:   sess.PendingCar(),
	})

	h.logger.Info("message replay complete",
		"room_id", roomID,
		"messages_replayed", len(replay),
	)

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("SSE client disconnected", "room_id", roomID)
			return

		case d := <-sess.Events():
			if _, dup := sent[d.ID]; dup {
				continue
			}
			sent[d.ID] = struct{}{}
			sendSSEEvent(w, flusher, "message", d)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &HeartbeatEvent{
				Timestamp: time.Now().UTC(),
			})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/otomarket/chat-platform/internal/service"
	"github.com/otomarket/chat-platform/internal/store"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, "room already resolved")
	case errors.Is(err, service.ErrRoomResolved):
		writeError(w, http.StatusConflict, "room is resolved and read-only")
	case errors.Is(err, service.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "not allowed to post in this room")
	case errors.Is(err, service.ErrSelfMessage):
		writeError(w, http.StatusBadRequest, "cannot message yourself")
	case errors.Is(err, service.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "message is empty")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

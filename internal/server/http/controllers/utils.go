package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rzbill/blinkhub/internal/datastore"
	chatsvc "github.com/rzbill/blinkhub/internal/services/chat"
	motionsvc "github.com/rzbill/blinkhub/internal/services/motion"
	settingsvc "github.com/rzbill/blinkhub/internal/services/settings"
	pebblestore "github.com/rzbill/blinkhub/internal/storage/pebble"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeNoContent writes a 204 No Content response.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeCreated writes a 201 Created response with a JSON body.
func writeCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeBody decodes a bounded JSON body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// allowMethods writes 405 and returns false when r.Method is not listed.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// writeServiceError maps service and store errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var readErr *datastore.StoreReadError
	var writeErr *datastore.StoreWriteError
	switch {
	case errors.Is(err, settingsvc.ErrNotFound),
		errors.Is(err, chatsvc.ErrNotConfigured),
		errors.Is(err, motionsvc.ErrNotConfigured):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, settingsvc.ErrInvalidKey),
		errors.Is(err, settingsvc.ErrInvalidFilter),
		errors.Is(err, chatsvc.ErrInvalidTarget),
		errors.Is(err, motionsvc.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatsvc.ErrNotConnected):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chatsvc.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, pebblestore.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	case errors.As(err, &readErr):
		writeError(w, http.StatusInternalServerError, "store read failed")
	case errors.As(err, &writeErr):
		writeError(w, http.StatusInternalServerError, "store write failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

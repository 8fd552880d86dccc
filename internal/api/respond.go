// Package api holds the REST adapters around the collaboration core and the
// helpers they share.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vasu1712/scenyx-collab/internal/storage"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// StatusFor maps the storage error taxonomy to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// DecodeBody reads a JSON request body into v.
func DecodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return storage.Validationf("invalid request body")
	}
	return nil
}

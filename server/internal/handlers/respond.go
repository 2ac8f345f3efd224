package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/maynagashev/redactvault/server/internal/services"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any, op string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[%s] Failed to encode response: %v", op, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidCredentials):
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
	case errors.Is(err, services.ErrEntryNotFound):
		http.Error(w, "Entry not found", http.StatusNotFound)
	case errors.Is(err, services.ErrEntryReverted):
		http.Error(w, "Entry has been reverted", http.StatusConflict)
	case errors.Is(err, services.ErrAlreadyReverted):
		http.Error(w, "Entry is already reverted", http.StatusConflict)
	case errors.Is(err, services.ErrUsernameTaken):
		http.Error(w, "Username already taken", http.StatusConflict)
	case errors.Is(err, services.ErrRestoreFailed):
		log.Printf("[%s] Upstream restore failed: %v", op, err)
		http.Error(w, "Original message could not be restored", http.StatusBadGateway)
	default:
		log.Printf("[%s] Internal error: %v", op, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Package handlers contains HTTP request handlers for the Beacon AI API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/beaconai/beacon-server/internal/beacon"
)

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the error taxonomy onto HTTP statuses. All
// anonymous authentication failures collapse into one 401 with a fixed
// message so responses cannot be used to enumerate Case IDs or report ids.
// Internal errors are never forwarded verbatim.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, beacon.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, beacon.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, "Report already submitted")
	case errors.Is(err, beacon.ErrSessionClosed):
		respondError(w, http.StatusBadRequest, "Session is closed")
	case errors.Is(err, beacon.ErrQuotaExceeded):
		respondError(w, http.StatusRequestEntityTooLarge, "Evidence upload limit exceeded")
	case errors.Is(err, beacon.ErrRewriteUnavailable):
		respondError(w, http.StatusServiceUnavailable, "Update could not be published, try again later")
	case errors.Is(err, beacon.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON parses a JSON request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

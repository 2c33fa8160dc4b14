// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/rosterops/shiftcast/internal/logging"
	"github.com/rosterops/shiftcast/internal/models"
)

// respondJSON writes the envelope with the given status code. Encoding
// failures are logged; headers are already sent at that point so the
// client sees a truncated body rather than a second status line.
func respondJSON(w http.ResponseWriter, status int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("failed to encode API response")
	}
}

// respondData writes a success envelope around the payload.
func respondData(w http.ResponseWriter, status int, data interface{}, started time.Time, cached bool) {
	respondJSON(w, status, models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(started).Milliseconds(),
			Cached:      cached,
		},
	})
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, status, models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// decodeJSON decodes a request body, rejecting unknown fields so typos
// in client payloads surface as 400s instead of silent defaults.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

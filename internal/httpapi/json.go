// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package httpapi

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 16 // credentials payloads are tiny

// decodeJSON reads the request body into dst. Returns false after
// writing a 400 response if the body is not valid JSON.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// writeJSON encodes v with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response encode failed", "error", err)
	}
}

// writeInternalError writes the generic failure response. Details stay
// in the logs; callers only learn that the request did not succeed.
func (s *Server) writeInternalError(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

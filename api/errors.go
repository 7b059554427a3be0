package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vrcbridge/vrcbridge/session"
)

// maxBodySize bounds every JSON request body this API accepts.
const maxBodySize = 16 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeUnauthenticated is the structured 401 for authenticated endpoints
// hit without a usable session. The message is generic on purpose;
// upstream error bodies are never echoed.
func writeUnauthenticated(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "Authentication required")
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotInitialized), errors.Is(err, session.ErrNotFound):
		writeUnauthenticated(w)
	case errors.Is(err, session.ErrConnection):
		writeError(w, http.StatusBadGateway, "Upstream record source unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads and decodes a bounded JSON body, writing a 400 on
// failure. The bool reports whether the caller should continue.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return v, false
	}
	return v, true
}

// sanitizeUpstreamStatus maps an upstream status to the generic message
// returned to clients. Raw upstream bodies are never forwarded on error.
func sanitizeUpstreamStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Authentication required"
	case status == http.StatusForbidden:
		return "Access denied"
	case status == http.StatusNotFound:
		return "Resource not found"
	case status == http.StatusTooManyRequests:
		return "Rate limit exceeded"
	case status >= 500:
		return "Internal server error"
	default:
		return "Request could not be processed"
	}
}

package api

import (
	"net/http"
	"strconv"
)

// Ping handles GET /api/ping.
func (a *API) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PingResponse{Message: "pong"})
}

// SystemStatus handles GET /api/status. It reports whether a usable
// session is held; failures degrade to "not authenticated" so the serving
// process stays reachable either way.
func (a *API) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := "not authenticated"
	if rec, err := a.holder.Current(); err == nil && rec.Usable() {
		status = "ok"
	}
	writeJSON(w, http.StatusOK, SystemStatusResponse{Status: status})
}

// ListEvents handles GET /system/events?n=.
func (a *API) ListEvents(w http.ResponseWriter, r *http.Request) {
	if a.events == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			writeError(w, http.StatusBadRequest, "n must be between 1 and 500")
			return
		}
		n = parsed
	}
	events, err := a.events.Recent(n)
	if err != nil {
		a.logger.Error("listing events", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

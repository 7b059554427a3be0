package api

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Upstream ID conventions. Requests that don't match never reach the
// upstream.
var (
	userIDPattern  = regexp.MustCompile(`^usr_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	worldIDPattern = regexp.MustCompile(`^wrld_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	groupIDPattern = regexp.MustCompile(`^grp_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

const (
	maxSearchResults = 100
	maxSearchOffset  = 10000
)

// GetUser handles GET /api/users/{userID}.
func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if !userIDPattern.MatchString(id) {
		writeError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	a.forward(w, r, "/users/"+id, nil)
}

// GetWorld handles GET /api/worlds/{worldID}.
func (a *API) GetWorld(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "worldID")
	if !worldIDPattern.MatchString(id) {
		writeError(w, http.StatusBadRequest, "Invalid world ID format")
		return
	}
	a.forward(w, r, "/worlds/"+id, nil)
}

// GetGroup handles GET /api/groups/{groupID}.
func (a *API) GetGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")
	if !groupIDPattern.MatchString(id) {
		writeError(w, http.StatusBadRequest, "Invalid group ID format")
		return
	}
	a.forward(w, r, "/groups/"+id, nil)
}

// SearchUsers handles GET /api/search/users?query=&n=&offset=.
func (a *API) SearchUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	query := url.Values{"search": {q}}

	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Count must be positive")
			return
		}
		if n > maxSearchResults {
			n = maxSearchResults
		}
		query.Set("n", strconv.Itoa(n))
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 || offset > maxSearchOffset {
			writeError(w, http.StatusBadRequest, "Invalid offset")
			return
		}
		query.Set("offset", strconv.Itoa(offset))
	}
	a.forward(w, r, "/users", query)
}

// forward performs the authenticated pass-through. The session holder is a
// capability check: absence of a usable record degrades to a structured
// 401 and never escalates past the handler boundary.
func (a *API) forward(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	rec, err := a.holder.Current()
	if err != nil || !rec.Usable() {
		a.audit.log(AuditProxyUnauthenticated, r, path)
		writeUnauthenticated(w)
		return
	}
	a.logger.Debug("forwarding upstream", "path", path, "session", cookieFingerprint(rec.Cookie))

	status, body, err := a.client.Fetch(r.Context(), path, query, rec.Cookie)
	if err != nil {
		a.logger.Warn("upstream request failed", "path", path, "err", err)
		writeError(w, http.StatusBadGateway, "Upstream API unavailable")
		return
	}
	if status != http.StatusOK {
		// Upstream error bodies are never relayed verbatim.
		writeError(w, status, sanitizeUpstreamStatus(status))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

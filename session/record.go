// Package session manages the durable upstream session record: persistence
// (local file or remote fetch), validation against the upstream, and the
// process-wide holder that request handlers read it from.
package session

import (
	"regexp"
	"time"
)

// maxAge is the local retention window for a session record. A record older
// than this is treated as expired regardless of whether the upstream would
// still accept its cookie.
const maxAge = 30 * 24 * time.Hour

// cookiePattern matches the upstream's session cookie naming convention.
var cookiePattern = regexp.MustCompile(`^authcookie_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Record is the durable credential unit for one upstream session.
type Record struct {
	// ManualUsername is the login identifier supplied by the operator.
	ManualUsername string `json:"manualUsername"`
	// DisplayName is the upstream profile display name.
	DisplayName string `json:"displayName"`
	// UserID is the upstream-assigned user identifier.
	UserID string `json:"user_id"`
	// AuthHeader is the base64 Basic-auth material, retained for
	// potential re-authentication.
	AuthHeader string `json:"auth"`
	// Cookie is the bearer-equivalent session token sent on every
	// proxied call.
	Cookie string `json:"auth_cookie"`
	// CreatedAt is stamped by the store at save time, UTC.
	CreatedAt time.Time `json:"created_at"`
}

// Usable reports whether the record carries a well-formed session cookie.
// A record with an empty or malformed cookie is never usable.
func (r Record) Usable() bool {
	return r.Cookie != "" && cookiePattern.MatchString(r.Cookie)
}

// Expired reports whether the record has outlived the local retention
// window relative to now.
func (r Record) Expired(now time.Time) bool {
	if r.CreatedAt.IsZero() {
		return true
	}
	return now.Sub(r.CreatedAt) > maxAge
}

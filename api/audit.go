package api

import (
	"encoding/hex"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/sha3"

	"github.com/vrcbridge/vrcbridge/eventlog"
)

// AuditEvent identifies a security-relevant action.
type AuditEvent string

const (
	AuditCredentialsSubmitted AuditEvent = "credentials_submitted"
	AuditCredentialsConsumed  AuditEvent = "credentials_consumed"
	AuditCodeSubmitted        AuditEvent = "2fa_code_submitted"
	AuditCodeConsumed         AuditEvent = "2fa_code_consumed"
	AuditStatusUpdated        AuditEvent = "status_updated"
	AuditRateLimited          AuditEvent = "rate_limited"
	AuditSessionRecheck       AuditEvent = "session_recheck"
	AuditProxyUnauthenticated AuditEvent = "proxy_unauthenticated"
)

// auditLogger writes structured audit entries to slog and mirrors them
// into the persistent event log when one is attached.
type auditLogger struct {
	logger *slog.Logger
	events *eventlog.Store
}

func newAuditLogger(logger *slog.Logger, events *eventlog.Store) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
		events: events,
	}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, detail string) {
	ip := clientIP(r)
	al.logger.Info("audit",
		slog.String("event", string(event)),
		slog.String("client_ip", ip),
		slog.String("detail", detail),
	)
	if al.events != nil {
		// Event log writes are best-effort; a full disk must not take
		// the rendezvous endpoints down.
		_ = al.events.Append(string(event), detail, ip)
	}
}

// cookieFingerprint returns a short stable identifier for a session cookie
// that is safe for logs. The raw cookie never appears in log output.
func cookieFingerprint(cookie string) string {
	sum := sha3.Sum256([]byte(cookie))
	return hex.EncodeToString(sum[:8])
}

package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vrcbridge/vrcbridge/session"
	"github.com/vrcbridge/vrcbridge/upstream"
)

// VerifyFunc checks a freshly issued cookie against the upstream.
type VerifyFunc func(ctx context.Context, cookie string) bool

// Handshake drives one login attempt against the upstream. It is created
// fresh per attempt and never retries on its own; re-invocation is an
// operator or supervisor decision.
type Handshake struct {
	client *upstream.Client
	source Source
	verify VerifyFunc
	logger *slog.Logger
}

// New assembles a handshake driver.
func New(client *upstream.Client, source Source, verify VerifyFunc, logger *slog.Logger) *Handshake {
	return &Handshake{
		client: client,
		source: source,
		verify: verify,
		logger: logger.With("component", "handshake"),
	}
}

// Run executes the full exchange and returns the assembled session record
// with CreatedAt left unset; the store stamps it at save time. Every
// failure path publishes a terminal IDLE status with the reason before
// returning, so a polling operator UI observes the outcome.
func (h *Handshake) Run(ctx context.Context) (session.Record, error) {
	creds, err := h.source.Credentials(ctx)
	if err != nil {
		return h.fail(fmt.Errorf("acquiring credentials: %w", err))
	}
	h.logger.Info("credentials received", "username", creds.Username)

	basic := upstream.BasicAuth(creds.Username, creds.Password)
	outcome, err := h.client.Login(ctx, basic)
	if err != nil {
		return h.fail(err)
	}
	profile := outcome.Profile

	if outcome.TwoFactorRequired() {
		family, ok := upstream.PickFamily(outcome.Pending)
		if !ok {
			return h.fail(fmt.Errorf("unsupported factor set %v: %w", outcome.Pending, upstream.ErrTwoFactorRejected))
		}
		h.logger.Info("second factor required", "family", string(family))

		code, err := h.source.TwoFactorCode(ctx, family)
		if err != nil {
			return h.fail(fmt.Errorf("acquiring 2FA code: %w", err))
		}
		if err := h.client.VerifyTwoFactor(ctx, family, code); err != nil {
			return h.fail(err)
		}
		// The pre-2FA profile may belong to a rotated session.
		profile, err = h.client.CurrentUser(ctx)
		if err != nil {
			return h.fail(err)
		}
	}

	cookie, ok := h.client.SessionCookie()
	if !ok {
		return h.fail(ErrCookieMissing)
	}
	if !h.verify(ctx, cookie) {
		return h.fail(ErrCookieInvalid)
	}

	h.source.PublishStatus(ConnectedPatch(profile.DisplayName, profile.ID))
	h.logger.Info("connected", "display_name", profile.DisplayName, "user_id", profile.ID)

	return session.Record{
		ManualUsername: creds.Username,
		DisplayName:    profile.DisplayName,
		UserID:         profile.ID,
		AuthHeader:     basic,
		Cookie:         cookie,
	}, nil
}

func (h *Handshake) fail(err error) (session.Record, error) {
	msg := failureReason(err)
	h.source.PublishStatus(IdlePatch(msg))
	h.logger.Error("handshake failed", "reason", msg, "err", err)
	return session.Record{}, err
}

// failureReason maps a failure to the short operator-facing message.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, upstream.ErrLoginRejected):
		return "login rejected"
	case errors.Is(err, upstream.ErrTwoFactorRejected):
		return "2FA rejected"
	case errors.Is(err, ErrCookieMissing):
		return "cookie missing"
	case errors.Is(err, ErrCookieInvalid):
		return "cookie invalid"
	default:
		return err.Error()
	}
}

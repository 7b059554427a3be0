package handshake

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrcbridge/vrcbridge/upstream"
)

const testCookie = "authcookie_12345678-1234-1234-1234-123456789abc"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockUpstream emulates the upstream login surface: the profile endpoint
// that doubles as the credential exchange, the 2FA verification endpoint,
// and the session check.
type mockUpstream struct {
	mu        sync.Mutex
	offered   []string
	validCode string
	verified  bool
	basicAuth string
}

func (m *mockUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/user", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if auth := r.Header.Get("Authorization"); auth != "" {
			if auth != "Basic "+m.basicAuth {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "auth", Value: testCookie})
			if len(m.offered) > 0 && !m.verified {
				json.NewEncoder(w).Encode(map[string]any{"requiresTwoFactorAuth": m.offered})
				return
			}
		} else if len(m.offered) > 0 && !m.verified {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id":          "usr_12345678-1234-1234-1234-123456789abc",
			"displayName": "Operator",
		})
	})
	verify := func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		var body struct {
			Code string `json:"code"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		ok := body.Code == m.validCode
		if ok {
			m.verified = true
		}
		json.NewEncoder(w).Encode(map[string]bool{"verified": ok})
	}
	mux.HandleFunc("POST /auth/twofactorauth/verify", verify)
	mux.HandleFunc("POST /auth/twofactorauth/emailotp/verify", verify)
	mux.HandleFunc("GET /auth", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	return mux
}

func alwaysValid(context.Context, string) bool { return true }

func newTestHandshake(t *testing.T, m *mockUpstream, source Source, verify VerifyFunc) *Handshake {
	t.Helper()
	srv := httptest.NewServer(m.handler())
	t.Cleanup(srv.Close)

	client, err := upstream.New(srv.URL, "vrcbridge-test/1.0")
	require.NoError(t, err)
	return New(client, source, verify, discardLogger())
}

func TestHandshakeWithoutTwoFactor(t *testing.T) {
	m := &mockUpstream{basicAuth: upstream.BasicAuth("operator", "hunter2")}
	ch := NewChannel()
	ch.SubmitCredentials("operator", "hunter2")

	hs := newTestHandshake(t, m, NewChannelSource(ch), alwaysValid)
	rec, err := hs.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "operator", rec.ManualUsername)
	assert.Equal(t, "Operator", rec.DisplayName)
	assert.Equal(t, "usr_12345678-1234-1234-1234-123456789abc", rec.UserID)
	assert.Equal(t, upstream.BasicAuth("operator", "hunter2"), rec.AuthHeader)
	assert.Equal(t, testCookie, rec.Cookie)
	assert.True(t, rec.CreatedAt.IsZero(), "CreatedAt is the store's to stamp")

	st := ch.Status()
	assert.Equal(t, StateConnected, st.State)
	assert.Equal(t, "Operator", st.DisplayName)
	assert.Equal(t, "usr_12345678-1234-1234-1234-123456789abc", st.UserID)
}

func TestHandshakeWithTOTP(t *testing.T) {
	m := &mockUpstream{
		basicAuth: upstream.BasicAuth("operator", "hunter2"),
		offered:   []string{"otp"},
		validCode: "123456",
	}
	ch := NewChannel()
	ch.SubmitCredentials("operator", "hunter2")
	assert.Equal(t, StateGotCredentials, ch.Status().State)

	hs := newTestHandshake(t, m, NewChannelSource(ch), alwaysValid)

	done := make(chan error, 1)
	go func() {
		_, err := hs.Run(context.Background())
		done <- err
	}()

	waitForState(t, ch, StateNeed2FA)
	ch.Submit2FACode("123456")
	assert.Equal(t, StateGot2FA, ch.Status().State)

	require.NoError(t, <-done)
	assert.Equal(t, StateConnected, ch.Status().State)
}

func TestHandshakeWrongCode(t *testing.T) {
	m := &mockUpstream{
		basicAuth: upstream.BasicAuth("operator", "hunter2"),
		offered:   []string{"otp"},
		validCode: "123456",
	}
	ch := NewChannel()
	ch.SubmitCredentials("operator", "hunter2")

	hs := newTestHandshake(t, m, NewChannelSource(ch), alwaysValid)

	done := make(chan error, 1)
	go func() {
		_, err := hs.Run(context.Background())
		done <- err
	}()

	waitForState(t, ch, StateNeed2FA)
	ch.Submit2FACode("999999")

	err := <-done
	require.ErrorIs(t, err, upstream.ErrTwoFactorRejected)

	st := ch.Status()
	assert.Equal(t, StateIdle, st.State, "failure is terminal IDLE")
	assert.Equal(t, "2FA rejected", st.LastError)
}

func TestHandshakeLoginRejected(t *testing.T) {
	m := &mockUpstream{basicAuth: upstream.BasicAuth("operator", "correct")}
	ch := NewChannel()
	ch.SubmitCredentials("operator", "wrong-password")

	hs := newTestHandshake(t, m, NewChannelSource(ch), alwaysValid)
	_, err := hs.Run(context.Background())
	require.ErrorIs(t, err, upstream.ErrLoginRejected)

	st := ch.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, "login rejected", st.LastError)
}

func TestHandshakeCookieInvalid(t *testing.T) {
	m := &mockUpstream{basicAuth: upstream.BasicAuth("operator", "hunter2")}
	ch := NewChannel()
	ch.SubmitCredentials("operator", "hunter2")

	neverValid := func(context.Context, string) bool { return false }
	hs := newTestHandshake(t, m, NewChannelSource(ch), neverValid)

	_, err := hs.Run(context.Background())
	require.ErrorIs(t, err, ErrCookieInvalid)
	assert.Equal(t, "cookie invalid", ch.Status().LastError)
}

func TestHandshakeCredentialTimeout(t *testing.T) {
	m := &mockUpstream{basicAuth: upstream.BasicAuth("operator", "hunter2")}
	ch := NewChannel()

	source := NewChannelSource(ch)
	source.CredentialWait = 50 * time.Millisecond

	hs := newTestHandshake(t, m, source, alwaysValid)
	_, err := hs.Run(context.Background())
	require.ErrorIs(t, err, ErrTimeout)

	st := ch.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, "timeout", st.LastError)
}

func waitForState(t *testing.T, ch *Channel, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if ch.Status().State == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("channel never reached state %s (stuck at %s)", want, ch.Status().State)
}

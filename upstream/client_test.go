package upstream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "authcookie_12345678-1234-1234-1234-123456789abc"

func TestPickFamily(t *testing.T) {
	tests := []struct {
		name    string
		offered []string
		want    TwoFactorFamily
		ok      bool
	}{
		{"totp only", []string{"otp"}, FamilyOTP, true},
		{"email only", []string{"emailOtp"}, FamilyEmailOTP, true},
		{"totp wins over email", []string{"emailOtp", "otp"}, FamilyOTP, true},
		{"unknown families", []string{"sms", "hardwareKey"}, "", false},
		{"empty", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickFamily(tt.offered)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBasicAuth(t *testing.T) {
	got := BasicAuth("operator", "hunter2")
	decoded, err := base64.StdEncoding.DecodeString(got)
	require.NoError(t, err)
	assert.Equal(t, "operator:hunter2", string(decoded))
}

func TestBasicAuthNormalizesUsername(t *testing.T) {
	// "é" composed vs "e" + combining acute: same visible name, same
	// material.
	composed := BasicAuth("ren\u00e9", "pw")
	decomposed := BasicAuth("rene\u0301", "pw")
	assert.Equal(t, composed, decomposed)
}

func TestVerifyPath(t *testing.T) {
	assert.Equal(t, "/auth/twofactorauth/verify", FamilyOTP.verifyPath())
	assert.Equal(t, "/auth/twofactorauth/emailotp/verify", FamilyEmailOTP.verifyPath())
}

func TestLoginWithoutTwoFactor(t *testing.T) {
	material := BasicAuth("operator", "hunter2")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/user", r.URL.Path)
		require.Equal(t, "Basic "+material, r.Header.Get("Authorization"))
		require.Equal(t, "vrcbridge-test/1.0", r.Header.Get("User-Agent"))

		http.SetCookie(w, &http.Cookie{Name: "auth", Value: testCookie})
		json.NewEncoder(w).Encode(map[string]string{
			"id":          "usr_12345678-1234-1234-1234-123456789abc",
			"displayName": "Operator",
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL, "vrcbridge-test/1.0")
	require.NoError(t, err)

	outcome, err := c.Login(context.Background(), material)
	require.NoError(t, err)
	assert.False(t, outcome.TwoFactorRequired())
	assert.Equal(t, "Operator", outcome.Profile.DisplayName)

	cookie, ok := c.SessionCookie()
	require.True(t, ok, "jar holds the session cookie after login")
	assert.Equal(t, testCookie, cookie)
}

func TestLoginRequiresTwoFactor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"requiresTwoFactorAuth": []string{"emailOtp"},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL, "vrcbridge-test/1.0")
	require.NoError(t, err)

	outcome, err := c.Login(context.Background(), BasicAuth("operator", "hunter2"))
	require.NoError(t, err)
	assert.True(t, outcome.TwoFactorRequired())
	assert.Equal(t, []string{"emailOtp"}, outcome.Pending)
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "vrcbridge-test/1.0")
	require.NoError(t, err)

	_, err = c.Login(context.Background(), BasicAuth("operator", "wrong"))
	assert.ErrorIs(t, err, ErrLoginRejected)
}

func TestVerifyTwoFactor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/twofactorauth/verify", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"), "cookie authenticates, not Basic auth")

		var body struct {
			Code string `json:"code"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]bool{"verified": body.Code == "123456"})
	}))
	defer srv.Close()

	c, err := New(srv.URL, "vrcbridge-test/1.0")
	require.NoError(t, err)

	require.NoError(t, c.VerifyTwoFactor(context.Background(), FamilyOTP, "123456"))

	err = c.VerifyTwoFactor(context.Background(), FamilyOTP, "999999")
	assert.ErrorIs(t, err, ErrTwoFactorRejected, "verified:false on a 200 is still a rejection")
}

func TestVerifyTwoFactorUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "vrcbridge-test/1.0")
	require.NoError(t, err)
	err = c.VerifyTwoFactor(context.Background(), FamilyEmailOTP, "123456")
	assert.ErrorIs(t, err, ErrTwoFactorRejected)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/usr_1", r.URL.Path)
		require.Equal(t, "tupper", r.URL.Query().Get("search"))
		c, err := r.Cookie(SessionCookieName)
		require.NoError(t, err)
		require.Equal(t, testCookie, c.Value)

		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"detail":"short and stout"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "vrcbridge-test/1.0")
	require.NoError(t, err)

	status, body, err := c.Fetch(context.Background(), "/users/usr_1",
		url.Values{"search": {"tupper"}}, testCookie)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, status, "status passes through raw for the caller to sanitize")
	assert.JSONEq(t, `{"detail":"short and stout"}`, string(body))
}

func TestSessionCookieAbsent(t *testing.T) {
	c, err := New("http://127.0.0.1:1", "vrcbridge-test/1.0")
	require.NoError(t, err)
	_, ok := c.SessionCookie()
	assert.False(t, ok)
}

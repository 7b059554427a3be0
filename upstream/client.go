// Package upstream is the HTTP client for the VRChat authentication and
// data endpoints. It carries the fixed client identifier header on every
// call and accumulates upstream cookies in a jar during login.
package upstream

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/text/unicode/norm"
)

// SessionCookieName is the upstream's canonical session cookie.
const SessionCookieName = "auth"

// ErrLoginRejected is returned when the upstream refuses the supplied
// credentials.
var ErrLoginRejected = errors.New("login rejected")

// ErrTwoFactorRejected is returned when the upstream refuses the supplied
// one-time code.
var ErrTwoFactorRejected = errors.New("2FA rejected")

// TwoFactorFamily identifies a second-factor mechanism offered upstream.
type TwoFactorFamily string

const (
	FamilyOTP      TwoFactorFamily = "otp"
	FamilyEmailOTP TwoFactorFamily = "emailOtp"
)

// verifyPath returns the upstream verification endpoint for the family.
func (f TwoFactorFamily) verifyPath() string {
	if f == FamilyEmailOTP {
		return "/auth/twofactorauth/emailotp/verify"
	}
	return "/auth/twofactorauth/verify"
}

// PickFamily selects the factor family to drive from the upstream's offered
// set. OTP takes precedence over email OTP when both are offered. The
// second return is false when no supported family is present.
func PickFamily(offered []string) (TwoFactorFamily, bool) {
	for _, want := range []TwoFactorFamily{FamilyOTP, FamilyEmailOTP} {
		for _, f := range offered {
			if f == string(want) {
				return want, true
			}
		}
	}
	return "", false
}

// Profile is the subset of the upstream user document the gateway keeps.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// LoginOutcome is the result of a credential exchange. When the upstream
// demands a second factor, Pending lists the offered families and Profile
// is not yet trustworthy.
type LoginOutcome struct {
	Profile Profile
	Pending []string
}

// TwoFactorRequired reports whether the exchange is blocked on a code.
func (o LoginOutcome) TwoFactorRequired() bool {
	return len(o.Pending) > 0
}

// Client talks to the upstream API. One Client serves one login attempt;
// its cookie jar accumulates the session cookie issued upstream.
type Client struct {
	base      string
	userAgent string
	http      *http.Client
	jar       *cookiejar.Jar
}

// New builds a Client against the given API base.
func New(apiBase, userAgent string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Client{
		base:      apiBase,
		userAgent: userAgent,
		jar:       jar,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// BasicAuth returns the base64 Basic-auth material for the credential pair.
// The username is NFC-normalized first so the same visible name always
// produces the same material.
func BasicAuth(username, password string) string {
	username = norm.NFC.String(username)
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// Login attempts the credential exchange: an authenticated GET of the user
// profile with Basic-auth material. A non-success response is
// ErrLoginRejected.
func (c *Client) Login(ctx context.Context, basicAuth string) (LoginOutcome, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/user", nil)
	if err != nil {
		return LoginOutcome{}, err
	}
	req.Header.Set("Authorization", "Basic "+basicAuth)

	resp, err := c.http.Do(req)
	if err != nil {
		return LoginOutcome{}, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LoginOutcome{}, fmt.Errorf("upstream returned %d: %w", resp.StatusCode, ErrLoginRejected)
	}

	var body struct {
		Profile
		RequiresTwoFactorAuth []string `json:"requiresTwoFactorAuth"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return LoginOutcome{}, fmt.Errorf("decoding login response: %w", err)
	}
	return LoginOutcome{Profile: body.Profile, Pending: body.RequiresTwoFactorAuth}, nil
}

// VerifyTwoFactor submits a one-time code to the family's verification
// endpoint. The upstream session cookie from the login call authenticates
// the request; no Authorization header is sent. A non-success status or a
// verified:false body is ErrTwoFactorRejected.
func (c *Client) VerifyTwoFactor(ctx context.Context, family TwoFactorFamily, code string) error {
	payload, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return fmt.Errorf("encoding 2FA payload: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, family.verifyPath(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("2FA request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned %d: %w", resp.StatusCode, ErrTwoFactorRejected)
	}
	var body struct {
		Verified bool `json:"verified"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return fmt.Errorf("decoding 2FA response: %w", err)
	}
	if !body.Verified {
		return ErrTwoFactorRejected
	}
	return nil
}

// CurrentUser re-fetches the authenticated profile using the accumulated
// cookies. The handshake calls this after 2FA since the session may have
// rotated and the pre-2FA profile is not trusted.
func (c *Client) CurrentUser(ctx context.Context) (Profile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/user", nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("upstream returned %d fetching profile: %w", resp.StatusCode, ErrLoginRejected)
	}
	var p Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decoding profile: %w", err)
	}
	return p, nil
}

// SessionCookie scans the jar for the upstream's canonical session cookie.
func (c *Client) SessionCookie() (string, bool) {
	u, err := url.Parse(c.base)
	if err != nil {
		return "", false
	}
	for _, ck := range c.jar.Cookies(u) {
		if ck.Name == SessionCookieName {
			return ck.Value, true
		}
	}
	return "", false
}

// Fetch performs an authenticated GET with an explicit session cookie,
// used by the pass-through handlers. The raw status and body are returned
// for the caller to sanitize.
func (c *Client) Fetch(ctx context.Context, path string, query url.Values, cookie string) (int, []byte, error) {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building upstream request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("reading upstream response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Validator confirms that a session cookie is still accepted upstream.
type Validator struct {
	base      string
	userAgent string
	client    *http.Client
}

// NewValidator returns a Validator against the given upstream API base.
func NewValidator(apiBase, userAgent string) *Validator {
	return &Validator{
		base:      apiBase,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify issues a lightweight authenticated check against the upstream
// session endpoint. It is a boolean predicate: any transport error, non-2xx
// status, or malformed body is invalid, never an error to the caller.
func (v *Validator) Verify(ctx context.Context, cookie string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.base+"/auth", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", v.userAgent)
	req.AddCookie(&http.Cookie{Name: "auth", Value: cookie})

	resp, err := v.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var body struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return false
	}
	return body.OK
}

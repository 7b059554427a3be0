package handshake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vrcbridge/vrcbridge/upstream"
)

// RemoteSource polls the rendezvous endpoints of a separately running
// auth-mode server. The driver and that server share no memory; every
// exchange goes over HTTP, which lets either side restart independently.
type RemoteSource struct {
	base string
	http *http.Client

	CredentialWait time.Duration
	CodeWait       time.Duration
}

var _ Source = (*RemoteSource)(nil)

// NewRemoteSource returns a source polling the given gateway base URL
// (for example "http://localhost:8080").
func NewRemoteSource(baseURL string) *RemoteSource {
	return &RemoteSource{
		base: baseURL + "/webhook/auth",
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *RemoteSource) Credentials(ctx context.Context) (Credentials, error) {
	s.PublishStatus(StatePatch(StateNeedCredentials))
	wait := s.CredentialWait
	if wait <= 0 {
		wait = credentialWait
	}
	return pollFor(ctx, wait, func() (Credentials, bool) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := s.getJSON(ctx, "/login", &body); err != nil {
			return Credentials{}, false
		}
		if body.Username == "" && body.Password == "" {
			return Credentials{}, false
		}
		return Credentials{Username: body.Username, Password: body.Password}, true
	})
}

func (s *RemoteSource) TwoFactorCode(ctx context.Context, _ upstream.TwoFactorFamily) (string, error) {
	s.PublishStatus(StatePatch(StateNeed2FA))
	wait := s.CodeWait
	if wait <= 0 {
		wait = codeWait
	}
	return pollFor(ctx, wait, func() (string, bool) {
		var body struct {
			Code string `json:"code"`
		}
		if err := s.getJSON(ctx, "/2fa", &body); err != nil {
			return "", false
		}
		return body.Code, body.Code != ""
	})
}

// PublishStatus posts a merge-update. Publication is best-effort: a
// transport failure here must not abort the handshake itself.
func (s *RemoteSource) PublishStatus(p StatusPatch) {
	payload := map[string]any{}
	if p.State != nil {
		payload["status"] = *p.State
	}
	if p.LastError != nil {
		payload["last_error"] = *p.LastError
	}
	if p.DisplayName != nil {
		payload["display_name"] = *p.DisplayName
	}
	if p.UserID != nil {
		payload["user_id"] = *p.UserID
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	resp, err := s.http.Post(s.base+"/status", "application/json", bytes.NewReader(data))
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (s *RemoteSource) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rendezvous endpoint returned %d", resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(out)
}

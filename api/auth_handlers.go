package api

import (
	"net/http"

	"github.com/vrcbridge/vrcbridge/handshake"
)

// GetStatus handles GET /webhook/auth/status.
func (a *API) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := a.channel.Status()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:      string(st.State),
		LastError:   st.LastError,
		DisplayName: st.DisplayName,
		UserID:      st.UserID,
	})
}

// GetShortStatus handles GET /webhook/auth/status/short.
func (a *API) GetShortStatus(w http.ResponseWriter, r *http.Request) {
	st := a.channel.Status()
	writeJSON(w, http.StatusOK, ShortStatusResponse{
		Status:    string(st.State),
		LastError: st.LastError,
	})
}

// GetConnected handles GET /webhook/auth/connected. It returns the user
// identity once the handshake has resolved, else an empty object.
func (a *API) GetConnected(w http.ResponseWriter, r *http.Request) {
	if st, ok := a.channel.Connected(); ok {
		writeJSON(w, http.StatusOK, ConnectedResponse{
			DisplayName: st.DisplayName,
			UserID:      st.UserID,
		})
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// SubmitCredentials handles POST /webhook/auth/login: the operator-facing
// producer side of the rendezvous.
func (a *API) SubmitCredentials(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SubmitCredentialsRequest](w, r)
	if !ok {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	a.channel.SubmitCredentials(req.Username, req.Password)
	a.audit.log(AuditCredentialsSubmitted, r, req.Username)
	writeJSON(w, http.StatusOK, AckResponse{Message: "Credentials received"})
}

// TakeCredentials handles GET /webhook/auth/login: the driver-facing
// consumer side. The pending pair is returned at most once.
func (a *API) TakeCredentials(w http.ResponseWriter, r *http.Request) {
	creds, ok := a.channel.TakeCredentials()
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	a.audit.log(AuditCredentialsConsumed, r, creds.Username)
	writeJSON(w, http.StatusOK, PendingCredentialsResponse{
		Username: creds.Username,
		Password: creds.Password,
	})
}

// SubmitCode handles POST /webhook/auth/2fa.
func (a *API) SubmitCode(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SubmitCodeRequest](w, r)
	if !ok {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	a.channel.Submit2FACode(req.Code)
	a.audit.log(AuditCodeSubmitted, r, "")
	writeJSON(w, http.StatusOK, AckResponse{Message: "2FA code received"})
}

// TakeCode handles GET /webhook/auth/2fa, consume-once.
func (a *API) TakeCode(w http.ResponseWriter, r *http.Request) {
	code, ok := a.channel.Take2FACode()
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	a.audit.log(AuditCodeConsumed, r, "")
	writeJSON(w, http.StatusOK, PendingCodeResponse{Code: code})
}

// UpdateStatus handles POST /webhook/auth/status: a merge-update from the
// handshake driver. Only fields present in the body change.
func (a *API) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[UpdateStatusRequest](w, r)
	if !ok {
		return
	}
	patch := handshake.StatusPatch{
		LastError:   req.LastError,
		DisplayName: req.DisplayName,
		UserID:      req.UserID,
	}
	if req.Status != nil {
		s := handshake.State(*req.Status)
		patch.State = &s
	}
	a.channel.Publish(patch)
	detail := ""
	if req.Status != nil {
		detail = *req.Status
	}
	a.audit.log(AuditStatusUpdated, r, detail)
	writeJSON(w, http.StatusOK, AckResponse{Message: "Status updated"})
}

package api

// StatusResponse is returned from GET /webhook/auth/status.
type StatusResponse struct {
	Status      string `json:"status"`
	LastError   string `json:"last_error,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// ShortStatusResponse is returned from GET /webhook/auth/status/short.
type ShortStatusResponse struct {
	Status    string `json:"status"`
	LastError string `json:"last_error,omitempty"`
}

// ConnectedResponse is returned from GET /webhook/auth/connected when the
// handshake has resolved. Otherwise the endpoint returns an empty object.
type ConnectedResponse struct {
	DisplayName string `json:"display_name"`
	UserID      string `json:"user_id"`
}

// SubmitCredentialsRequest is the JSON body for POST /webhook/auth/login.
type SubmitCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PendingCredentialsResponse is returned from GET /webhook/auth/login when
// an unconsumed pair is pending.
type PendingCredentialsResponse struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SubmitCodeRequest is the JSON body for POST /webhook/auth/2fa.
type SubmitCodeRequest struct {
	Code string `json:"code"`
}

// PendingCodeResponse is returned from GET /webhook/auth/2fa when an
// unconsumed code is pending.
type PendingCodeResponse struct {
	Code string `json:"code"`
}

// UpdateStatusRequest is the JSON body for POST /webhook/auth/status.
// Absent fields leave the current value unchanged.
type UpdateStatusRequest struct {
	Status      *string `json:"status"`
	LastError   *string `json:"last_error"`
	DisplayName *string `json:"display_name"`
	UserID      *string `json:"user_id"`
}

// AckResponse acknowledges a rendezvous submission.
type AckResponse struct {
	Message string `json:"message"`
}

// PingResponse is returned from GET /api/ping.
type PingResponse struct {
	Message string `json:"message"`
}

// SystemStatusResponse is returned from GET /api/status.
type SystemStatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Package handshake drives the interactive upstream login exchange,
// including the optional second factor, and provides the rendezvous channel
// that lets an external operator supply credentials to a headless driver.
package handshake

import "errors"

// State is the position of one login attempt.
type State string

const (
	StateIdle            State = "IDLE"
	StateNeedCredentials State = "NEED_CREDENTIALS"
	StateGotCredentials  State = "GOT_CREDENTIALS"
	StateNeed2FA         State = "NEED_2FA"
	StateGot2FA          State = "GOT_2FA"
	StateConnected       State = "CONNECTED"
)

// ErrCookieMissing: the upstream never issued a session cookie.
var ErrCookieMissing = errors.New("cookie missing")

// ErrCookieInvalid: the freshly issued cookie failed validation.
var ErrCookieInvalid = errors.New("cookie invalid")

// ErrTimeout: a bounded credential or code wait expired. Distinct from a
// rejection; the operator simply never answered.
var ErrTimeout = errors.New("timeout")

// Status is the externally observable snapshot of a login attempt.
type Status struct {
	State       State  `json:"status"`
	LastError   string `json:"last_error,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// StatusPatch is a merge-update: only non-nil fields are applied.
type StatusPatch struct {
	State       *State
	LastError   *string
	DisplayName *string
	UserID      *string
}

func patchState(s State) *State    { return &s }
func patchString(v string) *string { return &v }

// IdlePatch is the terminal patch published on a failed attempt.
func IdlePatch(reason string) StatusPatch {
	return StatusPatch{State: patchState(StateIdle), LastError: patchString(reason)}
}

// ConnectedPatch is published once the attempt resolves.
func ConnectedPatch(displayName, userID string) StatusPatch {
	return StatusPatch{
		State:       patchState(StateConnected),
		LastError:   patchString(""),
		DisplayName: patchString(displayName),
		UserID:      patchString(userID),
	}
}

// StatePatch publishes a bare state transition.
func StatePatch(s State) StatusPatch {
	return StatusPatch{State: patchState(s)}
}

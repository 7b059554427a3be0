package handshake

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Credentials is an operator-supplied username/password pair.
type Credentials struct {
	Username string
	Password string
}

// Channel is the rendezvous between the login driver and the operator-facing
// HTTP surface. All operations serialize under one mutex so transitions are
// atomic; every critical section is short and never blocks on I/O.
//
// The pending password is held in a memguard enclave until consumed, so the
// plaintext never sits in ordinary heap memory while the driver polls.
type Channel struct {
	mu       sync.Mutex
	status   Status
	username string
	password *memguard.Enclave
	code     string
}

// NewChannel returns an idle channel.
func NewChannel() *Channel {
	return &Channel{status: Status{State: StateIdle}}
}

// Status returns a read-only snapshot.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Publish merge-updates the status: only fields set in the patch change.
func (c *Channel) Publish(p StatusPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(p)
}

func (c *Channel) apply(p StatusPatch) {
	if p.State != nil {
		c.status.State = *p.State
	}
	if p.LastError != nil {
		c.status.LastError = *p.LastError
	}
	if p.DisplayName != nil {
		c.status.DisplayName = *p.DisplayName
	}
	if p.UserID != nil {
		c.status.UserID = *p.UserID
	}
}

// SubmitCredentials stores the pair and transitions to GOT_CREDENTIALS. An
// unconsumed prior pair is overwritten.
func (c *Channel) SubmitCredentials(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.password = memguard.NewEnclave([]byte(password))
	c.apply(StatusPatch{State: patchState(StateGotCredentials), LastError: patchString("")})
}

// TakeCredentials returns and clears the pending pair. A second call before
// a new submission reports false.
func (c *Channel) TakeCredentials() (Credentials, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.password == nil {
		return Credentials{}, false
	}
	buf, err := c.password.Open()
	if err != nil {
		c.username = ""
		c.password = nil
		return Credentials{}, false
	}
	creds := Credentials{Username: c.username, Password: buf.String()}
	buf.Destroy()
	c.username = ""
	c.password = nil
	return creds, true
}

// Submit2FACode stores the one-time code and transitions to GOT_2FA.
func (c *Channel) Submit2FACode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code = code
	c.apply(StatusPatch{State: patchState(StateGot2FA), LastError: patchString("")})
}

// Take2FACode returns and clears the pending code exactly once.
func (c *Channel) Take2FACode() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.code == "" {
		return "", false
	}
	code := c.code
	c.code = ""
	return code, true
}

// Connected returns the identity snapshot when the attempt has resolved,
// or false otherwise.
func (c *Channel) Connected() (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.State != StateConnected {
		return Status{}, false
	}
	return c.status, true
}

package handshake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelStartsIdle(t *testing.T) {
	ch := NewChannel()
	st := ch.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Empty(t, st.LastError)
}

func TestChannelCredentialsConsumeOnce(t *testing.T) {
	ch := NewChannel()

	_, ok := ch.TakeCredentials()
	assert.False(t, ok, "nothing pending before a submission")

	ch.SubmitCredentials("operator", "hunter2")
	assert.Equal(t, StateGotCredentials, ch.Status().State)

	creds, ok := ch.TakeCredentials()
	require.True(t, ok)
	assert.Equal(t, "operator", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)

	_, ok = ch.TakeCredentials()
	assert.False(t, ok, "second take before a new submission is empty")
}

func TestChannelCredentialsOverwrite(t *testing.T) {
	ch := NewChannel()
	ch.SubmitCredentials("first", "pw1")
	ch.SubmitCredentials("second", "pw2")

	creds, ok := ch.TakeCredentials()
	require.True(t, ok)
	assert.Equal(t, "second", creds.Username, "unconsumed pair is overwritten")
	assert.Equal(t, "pw2", creds.Password)
}

func TestChannelCodeConsumeOnce(t *testing.T) {
	ch := NewChannel()

	_, ok := ch.Take2FACode()
	assert.False(t, ok)

	ch.Submit2FACode("123456")
	assert.Equal(t, StateGot2FA, ch.Status().State)

	code, ok := ch.Take2FACode()
	require.True(t, ok)
	assert.Equal(t, "123456", code)

	_, ok = ch.Take2FACode()
	assert.False(t, ok)
}

func TestChannelPublishMergesFields(t *testing.T) {
	ch := NewChannel()
	ch.Publish(ConnectedPatch("Operator", "usr_1"))

	st := ch.Status()
	assert.Equal(t, StateConnected, st.State)
	assert.Equal(t, "Operator", st.DisplayName)
	assert.Equal(t, "usr_1", st.UserID)

	// A patch with only an error set leaves identity fields untouched.
	ch.Publish(StatusPatch{LastError: patchString("boom")})
	st = ch.Status()
	assert.Equal(t, StateConnected, st.State)
	assert.Equal(t, "boom", st.LastError)
	assert.Equal(t, "Operator", st.DisplayName)
}

func TestChannelSubmitClearsLastError(t *testing.T) {
	ch := NewChannel()
	ch.Publish(IdlePatch("login rejected"))
	require.Equal(t, "login rejected", ch.Status().LastError)

	ch.SubmitCredentials("operator", "pw")
	assert.Empty(t, ch.Status().LastError, "a fresh submission clears the stale error")
}

func TestChannelConnected(t *testing.T) {
	ch := NewChannel()

	_, ok := ch.Connected()
	assert.False(t, ok)

	ch.Publish(ConnectedPatch("Operator", "usr_1"))
	st, ok := ch.Connected()
	require.True(t, ok)
	assert.Equal(t, "Operator", st.DisplayName)
	assert.Equal(t, "usr_1", st.UserID)
}

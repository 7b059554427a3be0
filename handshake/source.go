package handshake

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/vrcbridge/vrcbridge/upstream"
)

const (
	// pollInterval is the fixed consumer-side polling step. Login is
	// human-paced, so bounded latency beats a notify mechanism here.
	pollInterval = 1 * time.Second
	// credentialWait bounds how long the driver waits for the operator
	// to supply the username/password pair.
	credentialWait = 5 * time.Minute
	// codeWait bounds the one-time code wait. Codes expire quickly, so
	// the window is shorter than the credential wait.
	codeWait = 2 * time.Minute
)

// Source supplies operator input to the login driver and receives status
// publications. Exactly one implementation is active per deployment.
type Source interface {
	Credentials(ctx context.Context) (Credentials, error)
	TwoFactorCode(ctx context.Context, family upstream.TwoFactorFamily) (string, error)
	PublishStatus(p StatusPatch)
}

// pollFor retries take on a fixed step until it yields a value, the wait
// expires (ErrTimeout), or ctx is cancelled.
func pollFor[T any](ctx context.Context, wait time.Duration, take func() (T, bool)) (T, error) {
	var zero T
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	if v, ok := take(); ok {
		return v, nil
	}
	for {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-ticker.C:
			if v, ok := take(); ok {
				return v, nil
			}
			if time.Now().After(deadline) {
				return zero, ErrTimeout
			}
		}
	}
}

// ChannelSource polls an in-process rendezvous channel. Used when the
// auth-mode server and the login driver share a process.
type ChannelSource struct {
	ch *Channel

	// CredentialWait and CodeWait override the default bounds when
	// non-zero.
	CredentialWait time.Duration
	CodeWait       time.Duration
}

// NewChannelSource returns a source over the given channel.
func NewChannelSource(ch *Channel) *ChannelSource {
	return &ChannelSource{ch: ch}
}

func (s *ChannelSource) credentialWait() time.Duration {
	if s.CredentialWait > 0 {
		return s.CredentialWait
	}
	return credentialWait
}

func (s *ChannelSource) codeWait() time.Duration {
	if s.CodeWait > 0 {
		return s.CodeWait
	}
	return codeWait
}

func (s *ChannelSource) Credentials(ctx context.Context) (Credentials, error) {
	s.ch.Publish(StatePatch(StateNeedCredentials))
	return pollFor(ctx, s.credentialWait(), s.ch.TakeCredentials)
}

func (s *ChannelSource) TwoFactorCode(ctx context.Context, _ upstream.TwoFactorFamily) (string, error) {
	s.ch.Publish(StatePatch(StateNeed2FA))
	return pollFor(ctx, s.codeWait(), s.ch.Take2FACode)
}

func (s *ChannelSource) PublishStatus(p StatusPatch) {
	s.ch.Publish(p)
}

// TerminalSource prompts the operator on the controlling terminal. The
// password is read without echo.
type TerminalSource struct {
	in *bufio.Reader
}

// NewTerminalSource returns a source reading from stdin.
func NewTerminalSource() *TerminalSource {
	return &TerminalSource{in: bufio.NewReader(os.Stdin)}
}

func (s *TerminalSource) Credentials(ctx context.Context) (Credentials, error) {
	fmt.Print("Username: ")
	username, err := s.in.ReadString('\n')
	if err != nil {
		return Credentials{}, fmt.Errorf("reading username: %w", err)
	}

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return Credentials{}, fmt.Errorf("reading password: %w", err)
	}
	return Credentials{
		Username: strings.TrimSpace(username),
		Password: string(raw),
	}, nil
}

func (s *TerminalSource) TwoFactorCode(ctx context.Context, family upstream.TwoFactorFamily) (string, error) {
	switch family {
	case upstream.FamilyEmailOTP:
		fmt.Print("2FA code (email): ")
	default:
		fmt.Print("2FA code (TOTP): ")
	}
	code, err := s.in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading 2FA code: %w", err)
	}
	return strings.TrimSpace(code), nil
}

func (s *TerminalSource) PublishStatus(StatusPatch) {}

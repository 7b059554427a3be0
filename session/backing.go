package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Backing is the persisted representation of a session record. Exactly one
// backing is active per process; callers go through Store and stay
// backing-agnostic.
type Backing interface {
	Load(ctx context.Context) (Record, error)
}

// writableBacking is implemented by backings with a local representation
// that can be rewritten.
type writableBacking interface {
	Backing
	Save(rec Record) (Record, error)
}

// LocalBacking stores the record as a JSON file on disk.
type LocalBacking struct {
	Path string
}

var _ writableBacking = (*LocalBacking)(nil)

// Load reads and parses the record file. A missing or unparsable file is
// ErrNotFound.
func (b *LocalBacking) Load(ctx context.Context) (Record, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", b.Path, ErrNotFound)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%s: malformed record: %w", b.Path, ErrNotFound)
	}
	return rec, nil
}

// Save writes the full record, creating parent directories as needed. The
// CreatedAt stamp is set here; callers must not pre-stamp it.
func (b *LocalBacking) Save(rec Record) (Record, error) {
	rec.CreatedAt = time.Now().UTC()
	if dir := filepath.Dir(b.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return Record{}, fmt.Errorf("creating token directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return Record{}, fmt.Errorf("encoding session record: %w", err)
	}
	if err := os.WriteFile(b.Path, data, 0o600); err != nil {
		return Record{}, fmt.Errorf("writing session record: %w", err)
	}
	return rec, nil
}

// remoteFetchTimeout bounds the single GET against the distant record
// source.
const remoteFetchTimeout = 5 * time.Second

// RemoteBacking fetches the record from a distant HTTP source. The source
// of truth is managed externally; there is no Save in this mode.
type RemoteBacking struct {
	URL    string
	Client *http.Client
}

func (b *RemoteBacking) httpClient() *http.Client {
	if b.Client != nil {
		return b.Client
	}
	return &http.Client{Timeout: remoteFetchTimeout}
}

// Load performs one GET against the distant source. Any transport error,
// non-2xx status, or malformed body surfaces as ErrConnection, never a
// partial record.
func (b *RemoteBacking) Load(ctx context.Context) (Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL, nil)
	if err != nil {
		return Record{}, fmt.Errorf("building record fetch request: %w", err)
	}
	resp, err := b.httpClient().Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("fetching distant record: %w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Record{}, fmt.Errorf("distant record source returned %d: %w", resp.StatusCode, ErrConnection)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Record{}, fmt.Errorf("reading distant record: %w: %v", ErrConnection, err)
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("parsing distant record: %w: %v", ErrConnection, err)
	}
	return rec, nil
}

// Store owns the persisted representation of the current session record.
type Store struct {
	backing Backing
}

// NewStore returns a Store over the given backing.
func NewStore(b Backing) *Store {
	return &Store{backing: b}
}

// Load returns the persisted record, or ErrNotFound / ErrConnection.
func (s *Store) Load(ctx context.Context) (Record, error) {
	return s.backing.Load(ctx)
}

// Save persists the record and returns it with CreatedAt stamped. Remote
// backings are read-only and return ErrReadOnlyBacking.
func (s *Store) Save(rec Record) (Record, error) {
	w, ok := s.backing.(writableBacking)
	if !ok {
		return Record{}, ErrReadOnlyBacking
	}
	return w.Save(rec)
}

// Writable reports whether Save is supported by the active backing.
func (s *Store) Writable() bool {
	_, ok := s.backing.(writableBacking)
	return ok
}

// IsNotFound reports whether err means no usable persisted record exists.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

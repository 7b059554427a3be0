package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Holder is the process-wide carrier of the current session record. The
// record is immutable once initialized; readers get a copy and need no
// lock beyond the happens-before of a completed Initialize. A restart is
// required to pick up a new record.
type Holder struct {
	store *Store

	mu  sync.Mutex
	rec *Record
}

// NewHolder returns an uninitialized Holder over the given store.
func NewHolder(store *Store) *Holder {
	return &Holder{store: store}
}

// Initialize loads the record from the store. A failed attempt is not
// cached: callers that catch and log may retry. Once an attempt succeeds,
// later calls are no-ops.
func (h *Holder) Initialize(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rec != nil {
		return nil
	}
	rec, err := h.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading session record: %w", err)
	}
	if !rec.Usable() {
		return fmt.Errorf("loaded record has no usable cookie: %w", ErrNotFound)
	}
	if rec.Expired(time.Now().UTC()) {
		return fmt.Errorf("loaded record is past the retention window: %w", ErrNotFound)
	}
	h.rec = &rec
	return nil
}

// Current returns a copy of the active record, or ErrNotInitialized.
// Request handlers treat this as a capability check: an error means "not
// authenticated", never a fatal condition.
func (h *Holder) Current() (Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rec == nil {
		return Record{}, ErrNotInitialized
	}
	return *h.rec, nil
}

// Ready reports whether a record is held.
func (h *Holder) Ready() bool {
	_, err := h.Current()
	return err == nil
}

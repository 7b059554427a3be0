// Package eventlog provides a BBolt-backed append-only log of
// security-relevant gateway events.
package eventlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var bucketEvents = []byte("events")

// Event is one logged occurrence.
type Event struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Store is the persistent event log.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the event database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing event log: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// keyTimeFormat is RFC3339 with a fixed-width fractional second. RFC3339Nano
// trims trailing zeros, which breaks lexicographic key ordering.
const keyTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Append records an event. The key is the timestamp plus a UUID so keys
// sort chronologically and never collide.
func (s *Store) Append(kind, detail, clientIP string) error {
	ev := Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Detail:    detail,
		ClientIP:  clientIP,
		CreatedAt: time.Now().UTC().Format(keyTimeFormat),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		key := []byte(ev.CreatedAt + ":" + ev.ID)
		return b.Put(key, data)
	})
}

// Recent returns up to n events, newest first.
func (s *Store) Recent(n int) ([]Event, error) {
	if n <= 0 {
		n = 50
	}
	var events []Event
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Last(); k != nil && len(events) < n; k, v = c.Prev() {
			var ev Event
			if err := json.Unmarshal(v, &ev); err != nil {
				continue
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

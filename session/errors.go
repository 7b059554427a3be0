package session

import "errors"

// ErrNotFound is returned when no persisted session record exists, or the
// stored bytes cannot be parsed as a record.
var ErrNotFound = errors.New("session record not found")

// ErrConnection is returned when the remote record source cannot be reached
// or answers with a non-success status.
var ErrConnection = errors.New("session record fetch failed")

// ErrNotInitialized is returned by Holder.Current before a successful
// Initialize.
var ErrNotInitialized = errors.New("session holder not initialized")

// ErrReadOnlyBacking is returned by Store.Save when the active backing has
// no local representation to write (remote mode).
var ErrReadOnlyBacking = errors.New("session backing is read-only")

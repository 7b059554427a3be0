package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolderCurrentBeforeInitialize(t *testing.T) {
	store := NewStore(&LocalBacking{Path: filepath.Join(t.TempDir(), "absent.json")})
	holder := NewHolder(store)

	_, err := holder.Current()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.False(t, holder.Ready())
}

func TestHolderInitializeRetriesAfterFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.json")
	store := NewStore(&LocalBacking{Path: path})
	holder := NewHolder(store)
	ctx := context.Background()

	// First attempt fails: no record yet. The failure is not cached.
	require.Error(t, holder.Initialize(ctx))

	_, err := store.Save(testRecord())
	require.NoError(t, err)

	require.NoError(t, holder.Initialize(ctx))
	rec, err := holder.Current()
	require.NoError(t, err)
	assert.Equal(t, testCookie, rec.Cookie)
	assert.True(t, holder.Ready())
}

func TestHolderInitializeIdempotentAfterSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.json")
	store := NewStore(&LocalBacking{Path: path})
	_, err := store.Save(testRecord())
	require.NoError(t, err)

	holder := NewHolder(store)
	ctx := context.Background()
	require.NoError(t, holder.Initialize(ctx))
	first, err := holder.Current()
	require.NoError(t, err)

	// Re-initialization after success is a no-op, even if the file
	// changes underneath.
	changed := testRecord()
	changed.DisplayName = "Someone Else"
	_, err = store.Save(changed)
	require.NoError(t, err)

	require.NoError(t, holder.Initialize(ctx))
	second, err := holder.Current()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHolderRejectsUnusableRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.json")
	store := NewStore(&LocalBacking{Path: path})

	rec := testRecord()
	rec.Cookie = "not-a-cookie"
	_, err := store.Save(rec)
	require.NoError(t, err)

	holder := NewHolder(store)
	err = holder.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

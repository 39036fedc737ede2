package postgres

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MikhailRaia/shortlinks/internal/model"
	"github.com/MikhailRaia/shortlinks/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStorage connects to TEST_DATABASE_DSN and empties the tables.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	ctx := context.Background()
	s, err := NewStorage(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.pool.Exec(ctx, "TRUNCATE links, users")
	require.NoError(t, err)
	return s
}

func TestStorage_LinkLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	ok, err := s.Reserve(ctx, model.ShortLink{ID: "abc12", Destination: "https://example.com", Owner: "alice"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Reserve(ctx, model.ShortLink{ID: "abc12", Destination: "https://other.com", Owner: "bob"})
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := s.FindByDestination(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "abc12", found.ID)

	_, err = s.UpdateDestination(ctx, "abc12", "https://new.com", "bob")
	assert.ErrorIs(t, err, storage.ErrForbidden)

	updated, err := s.UpdateDestination(ctx, "abc12", "https://new.com", "alice")
	require.NoError(t, err)
	assert.Equal(t, "https://new.com", updated.Destination)

	assert.ErrorIs(t, s.Remove(ctx, "missing", "alice"), storage.ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, "abc12", "bob"), storage.ErrForbidden)
	require.NoError(t, s.Remove(ctx, "abc12", "alice"))

	_, err = s.Get(ctx, "abc12")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_ReserveExclusive(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Reserve(ctx, model.ShortLink{ID: "race", Destination: "https://example.com", Owner: "alice"})
			if err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestStorage_ClearAndUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for _, l := range []model.ShortLink{
		{ID: "a1", Destination: "https://a.com", Owner: "alice"},
		{ID: "b1", Destination: "https://b.com", Owner: "bob"},
	} {
		_, err := s.Reserve(ctx, l)
		require.NoError(t, err)
	}

	n, err := s.Clear(ctx, "alice", storage.ClearOwned)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	links, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "b1", links[0].ID)

	require.NoError(t, s.CreateUser(ctx, model.User{Username: "alice", PasswordHash: "h"}))
	assert.ErrorIs(t, s.CreateUser(ctx, model.User{Username: "alice", PasswordHash: "h"}), storage.ErrUserExists)
	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, "nobody", "h"), storage.ErrNoUser)
}

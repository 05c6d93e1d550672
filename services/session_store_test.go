package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, time.Hour), mr
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestSessionStore(t)

	missing, err := store.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, missing)

	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, &AttemptSession{UserID: 1, QCMID: 2, StartedAt: started}))
	assert.True(t, mr.Exists("attempt:1:2"))
	assert.Equal(t, time.Hour, mr.TTL("attempt:1:2"))

	got, err := store.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, started.Equal(got.StartedAt))

	require.NoError(t, store.Delete(ctx, 1, 2))
	got, err = store.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestSessionStore(t)

	require.NoError(t, store.Save(ctx, &AttemptSession{UserID: 3, QCMID: 4, StartedAt: time.Now()}))
	mr.FastForward(2 * time.Hour)

	got, err := store.Get(ctx, 3, 4)
	require.NoError(t, err)
	assert.Nil(t, got)
}

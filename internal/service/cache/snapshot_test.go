package cache

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnapshotStore(t *testing.T) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	store, err := NewSnapshotStore(SnapshotConfig{Host: mr.Host(), Port: port, Key: "test:snapshot"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	store, mr := newTestSnapshotStore(t)
	ctx := context.Background()

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap, "missing key is not an error")

	producedAt := time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)
	payload := []byte(`{"last_updated":"2025-06-01T12:00:00+08:00","total_pools":0,"gacha_data":[{"name":"A&B <祈愿>"}]}`)
	require.NoError(t, store.Save(ctx, payload, producedAt, 5*time.Minute))

	assert.True(t, mr.Exists("test:snapshot"))
	assert.Equal(t, 5*time.Minute, mr.TTL("test:snapshot"))

	snap, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, string(payload), string(snap.Payload))
	assert.True(t, producedAt.Equal(snap.ProducedAt))
	assert.True(t, store.IsConnected(ctx))
}

func TestSnapshotStoreExpires(t *testing.T) {
	store, mr := newTestSnapshotStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []byte(`{}`), time.Now(), time.Minute))
	mr.FastForward(2 * time.Minute)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotStoreCorruptValue(t *testing.T) {
	store, mr := newTestSnapshotStore(t)
	require.NoError(t, mr.Set("test:snapshot", "not json"))

	_, err := store.Load(context.Background())
	require.Error(t, err)

	var cacheErr *errors.CacheError
	require.True(t, stderrors.As(err, &cacheErr))
	assert.Equal(t, "get", cacheErr.Operation)
}

func TestNewSnapshotStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host := mr.Host()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	mr.Close()

	_, err = NewSnapshotStore(SnapshotConfig{Host: host, Port: port}, nil)
	require.Error(t, err)

	var cacheErr *errors.CacheError
	assert.True(t, stderrors.As(err, &cacheErr))
}

func TestResultCacheWithRedisSnapshots(t *testing.T) {
	store, _ := newTestSnapshotStore(t)
	clock := newTestClock()

	first, err := NewResultCache(&fakeRefresher{}, 5*time.Minute, nil).
		WithClock(clock.Now).WithSnapshots(store).Get(context.Background())
	require.NoError(t, err)

	refresher := &fakeRefresher{}
	entry, err := NewResultCache(refresher, 5*time.Minute, nil).
		WithClock(clock.Now).WithSnapshots(store).Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, string(first.Payload), string(entry.Payload))
	assert.Equal(t, int32(0), refresher.calls.Load())
}

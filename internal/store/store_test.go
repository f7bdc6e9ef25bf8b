package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwoglom/tconnectsync-sub000/internal/store"
)

func newTestKV(t *testing.T) (*store.RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return store.NewRedisKV(client), mr
}

func TestRedisKV_GetSet(t *testing.T) {
	kv, _ := newTestKV(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrMiss)

	require.NoError(t, kv.Set(ctx, "k", "v", 0))
	val, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestRedisKV_TTL(t *testing.T) {
	kv, mr := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestHighWater_Roundtrip(t *testing.T) {
	kv, _ := newTestKV(t)
	ctx := context.Background()

	_, err := store.LoadHighWater(ctx, kv, "sn1")
	assert.ErrorIs(t, err, store.ErrMiss)

	hw := &store.HighWater{
		LastActivity: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		MaxSeqNum:    987654,
	}
	require.NoError(t, store.SaveHighWater(ctx, kv, "sn1", hw))

	loaded, err := store.LoadHighWater(ctx, kv, "sn1")
	require.NoError(t, err)
	assert.True(t, loaded.LastActivity.Equal(hw.LastActivity))
	assert.Equal(t, hw.MaxSeqNum, loaded.MaxSeqNum)

	// per-device keys do not collide
	_, err = store.LoadHighWater(ctx, kv, "sn2")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestHighWater_CorruptValue(t *testing.T) {
	kv, mr := newTestKV(t)
	mr.Set("tconnectsync:device:sn1:highwater", "{not json")

	_, err := store.LoadHighWater(context.Background(), kv, "sn1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrMiss)
}

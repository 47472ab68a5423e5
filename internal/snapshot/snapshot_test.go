package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "v"))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	require.NoError(t, m.Delete(ctx, "k", "missing"))
	require.Equal(t, 0, m.Len())
}

type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			n++
			delete(f.data, k)
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisPrefixesKeysAndAppliesTTL(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newRedis(fake, time.Hour)

	require.NoError(t, store.Set(ctx, "abc:resumeData", "{}"))
	require.Equal(t, "{}", fake.data["resume-wizard:abc:resumeData"])
	require.Equal(t, time.Hour, fake.ttls["resume-wizard:abc:resumeData"])

	v, ok, err := store.Get(ctx, "abc:resumeData")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "{}", v)

	require.NoError(t, store.Delete(ctx, "abc:resumeData"))
	_, ok, err = store.Get(ctx, "abc:resumeData")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisDefaultTTL(t *testing.T) {
	store := newRedis(newFakeRedis(), 0)
	require.Equal(t, DefaultTTL, store.ttl)
}

func TestRedisGetPropagatesErrors(t *testing.T) {
	fake := newFakeRedis()
	fake.failGet = errors.New("connection refused")
	store := newRedis(fake, time.Minute)

	_, _, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

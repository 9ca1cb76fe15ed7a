package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name string `json:"name"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = client.Close()
		SetClient(nil)
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			dest.Name = "ada"
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, UserKey("u1"), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "ada", first.Name)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("user:u1"))
	assert.Equal(t, UserTTL, mr.TTL("user:u1"))

	var second cachedThing
	require.NoError(t, Aside(ctx, UserKey("u1"), &second, UserTTL, fetch(&second)))
	assert.Equal(t, "ada", second.Name)
	assert.Equal(t, 1, calls, "second read must be served from cache")

	InvalidateUser(ctx, "u1")
	assert.False(t, mr.Exists("user:u1"))
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := withMiniredis(t)
	boom := errors.New("boom")

	var dest cachedThing
	err := Aside(context.Background(), UserKey("u2"), &dest, UserTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("user:u2"))
}

func TestAside_CorruptEntryRefetched(t *testing.T) {
	mr := withMiniredis(t)
	require.NoError(t, mr.Set("user:u3", "{not json"))

	var dest cachedThing
	err := Aside(context.Background(), UserKey("u3"), &dest, time.Minute, func() error {
		dest.Name = "fresh"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", dest.Name)

	stored, err := mr.Get("user:u3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"fresh"}`, stored)
}

func TestAside_NoClient(t *testing.T) {
	SetClient(nil)

	var dest cachedThing
	err := Aside(context.Background(), UserKey("u4"), &dest, UserTTL, func() error {
		dest.Name = "direct"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", dest.Name)

	// no-op without a client
	InvalidateUser(context.Background(), "u4")
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { SetClient(nil) })

	c := InitRedis(mr.Addr())
	require.NotNil(t, c)
	assert.Same(t, c, GetClient())

	assert.Nil(t, InitRedis(""))
	assert.Nil(t, GetClient())

	assert.Nil(t, InitRedis("redis://%zz"))
}

package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/quiethours/scheduler/internal/identity"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	email string
	err   error
	calls int
}

func (p *countingProvider) Authenticate(_ context.Context, token string) (string, error) {
	return token, nil
}

func (p *countingProvider) ResolveEmail(_ context.Context, _ string) (string, error) {
	p.calls++
	return p.email, p.err
}

type mapCache struct {
	data    map[string]string
	getErr  error
	setErr  error
	setKeys []string
}

func (c *mapCache) Get(_ context.Context, key string) *redis.StringCmd {
	if c.getErr != nil {
		return redis.NewStringResult("", c.getErr)
	}
	v, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if c.setErr != nil {
		return redis.NewStatusResult("", c.setErr)
	}
	c.data[key] = value.(string)
	c.setKeys = append(c.setKeys, key)
	return redis.NewStatusResult("OK", nil)
}

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("miss resolves and fills the cache", func(t *testing.T) {
		next := &countingProvider{email: "one@example.com"}
		cache := &mapCache{data: map[string]string{}}
		p := identity.NewCachedProvider(next, cache, time.Minute)

		email, err := p.ResolveEmail(ctx, "owner-1")
		require.NoError(t, err)
		require.Equal(t, "one@example.com", email)
		require.Equal(t, 1, next.calls)
		require.Equal(t, []string{"identity:email:owner-1"}, cache.setKeys)

		email, err = p.ResolveEmail(ctx, "owner-1")
		require.NoError(t, err)
		require.Equal(t, "one@example.com", email)
		require.Equal(t, 1, next.calls)
	})

	t.Run("cache errors fall through to the provider", func(t *testing.T) {
		next := &countingProvider{email: "one@example.com"}
		cache := &mapCache{data: map[string]string{}, getErr: errors.New("redis down"), setErr: errors.New("redis down")}
		p := identity.NewCachedProvider(next, cache, time.Minute)

		email, err := p.ResolveEmail(ctx, "owner-1")
		require.NoError(t, err)
		require.Equal(t, "one@example.com", email)
		require.Equal(t, 1, next.calls)
	})

	t.Run("provider errors are returned", func(t *testing.T) {
		next := &countingProvider{err: errors.New("unknown owner")}
		cache := &mapCache{data: map[string]string{}}
		p := identity.NewCachedProvider(next, cache, time.Minute)

		_, err := p.ResolveEmail(ctx, "owner-1")
		require.Error(t, err)
		require.Empty(t, cache.setKeys)
	})

	t.Run("authentication is never cached", func(t *testing.T) {
		next := &countingProvider{}
		cache := &mapCache{data: map[string]string{}}
		p := identity.NewCachedProvider(next, cache, time.Minute)

		ownerID, err := p.Authenticate(ctx, "some-token")
		require.NoError(t, err)
		require.Equal(t, "some-token", ownerID)
		require.Empty(t, cache.setKeys)
	})
}

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const emailKeyPrefix = "identity:email:"

// Cache is the subset of redis commands the cached provider needs.
// *redis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedProvider caches email resolution in redis. Token authentication is
// never cached. Cache failures degrade to the wrapped provider.
type CachedProvider struct {
	next  Provider
	cache Cache
	ttl   time.Duration
}

func NewCachedProvider(next Provider, cache Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl}
}

func (p *CachedProvider) Authenticate(ctx context.Context, token string) (string, error) {
	return p.next.Authenticate(ctx, token)
}

func (p *CachedProvider) ResolveEmail(ctx context.Context, ownerID string) (string, error) {
	key := emailKeyPrefix + ownerID
	email, err := p.cache.Get(ctx, key).Result()
	if err == nil && email != "" {
		return email, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Warnf("identity cache read failed: %v", err)
	}

	email, err = p.next.ResolveEmail(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if err := p.cache.Set(ctx, key, email, p.ttl).Err(); err != nil {
		log.Warnf("identity cache write failed: %v", err)
	}
	return email, nil
}

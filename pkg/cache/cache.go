// Package cache is the optional read-through entity cache. It is never required
// for correctness: every failure degrades to a datastore read.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	"github.com/angelmondragon/orderdesk-backend/pkg/redis"
)

// Kind names a cached entity type and doubles as its key segment.
type Kind string

const (
	KindUser    Kind = "user"
	KindAddress Kind = "address"
	KindProduct Kind = "product"
)

// Store is the key/value surface the cache needs; *redis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	EntityKey(kind, id string) string
}

// Cache fronts entity point lookups. A nil *Cache is a valid, disabled cache.
type Cache struct {
	store Store
	ttls  map[Kind]time.Duration
	logg  *logger.Logger
}

func New(store Store, ttls map[Kind]time.Duration, logg *logger.Logger) *Cache {
	if store == nil {
		return nil
	}
	return &Cache{store: store, ttls: ttls, logg: logg}
}

// Key returns the storage key for an entity.
func (c *Cache) Key(kind Kind, id uuid.UUID) string {
	if c == nil {
		return ""
	}
	return c.store.EntityKey(string(kind), id.String())
}

// Invalidate deletes the cached entries for ids. Errors are logged, never returned.
func (c *Cache) Invalidate(ctx context.Context, kind Kind, ids ...uuid.UUID) {
	if c == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.Key(kind, id))
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.warn(ctx, kind, "cache.invalidate_failed", err)
	}
}

// Fetch returns the cached entity or calls load and populates the cache with its result.
func Fetch[T any](ctx context.Context, c *Cache, kind Kind, id uuid.UUID, load func(context.Context) (*T, error)) (*T, error) {
	if c == nil {
		return load(ctx)
	}
	key := c.Key(kind, id)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return &cached, nil
		} else {
			c.warn(ctx, kind, "cache.decode_failed", jsonErr)
		}
	case !redis.IsMiss(err):
		c.warn(ctx, kind, "cache.get_failed", err)
	}

	entity, err := load(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(entity)
	if err != nil {
		c.warn(ctx, kind, "cache.encode_failed", err)
		return entity, nil
	}
	if err := c.store.Set(ctx, key, string(payload), c.ttls[kind]); err != nil {
		c.warn(ctx, kind, "cache.set_failed", err)
	}
	return entity, nil
}

func (c *Cache) warn(ctx context.Context, kind Kind, msg string, err error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{"cache_kind": string(kind), "error": err.Error()})
	c.logg.Warn(ctx, msg)
}

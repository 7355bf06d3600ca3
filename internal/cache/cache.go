// Package cache is the read-through result cache in front of the query
// engine. Entries are short-lived JSON blobs; any catalog mutation wipes
// every derived result rather than tracking which pages a book appears on.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/has99an/gtl-marketplace-search/pkg/errors"

	"github.com/has99an/gtl-marketplace-search/internal/store"
)

// DefaultTTL bounds staleness for cached results that survive between
// invalidations.
const DefaultTTL = 2 * time.Minute

// Cache stores serialized query results with a fixed TTL.
type Cache struct {
	store store.Adapter
	ttl   time.Duration
}

// New creates a result cache. A non-positive ttl falls back to DefaultTTL.
func New(s store.Adapter, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: s, ttl: ttl}
}

// Get loads a cached value into target. It reports whether the key was
// present; store failures degrade to a miss so the cache never takes down a
// read path.
func (c *Cache) Get(ctx context.Context, key string, target any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			missTotal.WithLabelValues("error").Inc()
			return false
		}
		missTotal.WithLabelValues("absent").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		missTotal.WithLabelValues("decode").Inc()
		return false
	}
	hitTotal.Inc()
	return true
}

// Set stores a value under the cache TTL. Failures are returned but callers
// treat them as non-fatal.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	if err := c.store.Set(ctx, key, string(data), c.ttl); err != nil {
		return fmt.Errorf("set cache value: %w", err)
	}
	return nil
}

// InvalidateItem wipes every cached result a change to the given book could
// have affected: all listing pages, all search pages, the stats blob, and
// the book's own detail entry.
func (c *Cache) InvalidateItem(ctx context.Context, isbn string) error {
	if err := c.store.DeletePattern(ctx, pagePattern); err != nil {
		return fmt.Errorf("invalidate pages: %w", err)
	}
	if err := c.store.DeletePattern(ctx, searchPattern); err != nil {
		return fmt.Errorf("invalidate searches: %w", err)
	}
	if err := c.store.Delete(ctx, statsKey, EntryKey(isbn)); err != nil {
		return fmt.Errorf("invalidate stats and entry: %w", err)
	}
	invalidationTotal.Inc()
	return nil
}

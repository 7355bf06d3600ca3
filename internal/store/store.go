// Package store defines the contract over the shared key-value store that
// backs every index structure in this service. No component above talks to
// the Redis client directly; everything goes through Adapter so tests can
// substitute miniredis and the storage engine stays swappable.
package store

import (
	"context"
	"time"
)

// Adapter is the storage contract for the catalog index structures: plain
// string records, membership sets with intersection, sorted sets for ranked
// pagination, and pattern-based bulk deletion for cache invalidation.
//
// Implementations must map "key absent" to pkg/errors.ErrNotFound and wrap
// transient failures (timeouts, lost connections) with
// pkg/errors.ErrUnavailable so callers can tell the two apart.
type Adapter interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// GetMany fetches all keys in a single round-trip. Missing keys are
	// silently skipped; the result preserves the order of the found values.
	GetMany(ctx context.Context, keys ...string) ([]string, error)
	// Set stores a value. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching the glob pattern.
	DeletePattern(ctx context.Context, pattern string) error

	SetAdd(ctx context.Context, key string, members ...string) error
	SetRemove(ctx context.Context, key string, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	SetCard(ctx context.Context, key string) (int64, error)
	// SetIntersect returns the members common to all given sets. If any set
	// is empty or absent the result is empty.
	SetIntersect(ctx context.Context, keys ...string) ([]string, error)

	// SortedSetAdd inserts or updates a member with the given score.
	SortedSetAdd(ctx context.Context, key string, score float64, member string) error
	SortedSetRemove(ctx context.Context, key string, member string) error
	// SortedSetRange returns members ordered by score (ties by member) for
	// the rank window [start, stop], inclusive, optionally descending.
	SortedSetRange(ctx context.Context, key string, start, stop int64, descending bool) ([]string, error)
	SortedSetCard(ctx context.Context, key string) (int64, error)

	// Ping verifies connectivity; used by health checks.
	Ping(ctx context.Context) error
}

package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/umkm-report/umkm-report/internal/sales"
)

const cacheVersionKey = "umkm:analytics:version"

// Cache stores record sets in Redis under versioned keys. Bumping the version
// orphans every key written under the previous one.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising it when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	if c == nil || c.client == nil {
		return strings.Join(parts, ":"), nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	joined := strings.Join(parts, ":")
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

var (
	// ErrCacheUnavailable wraps Redis failures that happened before the loader ran.
	ErrCacheUnavailable = errors.New("analytics: cache unavailable")
	// ErrCacheWrite wraps a failed write of freshly loaded records. The
	// records are still returned alongside it.
	ErrCacheWrite = errors.New("analytics: cache write failed")
)

// Records returns the record set cached under key, calling load on a miss.
// The boolean reports a cache hit. When storing the loaded set fails the
// records come back together with an ErrCacheWrite error.
func (c *Cache) Records(ctx context.Context, key string, load func(context.Context) ([]sales.TransactionRecord, error)) ([]sales.TransactionRecord, bool, error) {
	if load == nil {
		return nil, false, errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		recs, err := load(ctx)
		return recs, false, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var recs []sales.TransactionRecord
		if err := json.Unmarshal(payload, &recs); err == nil {
			return recs, true, nil
		}
		// corrupt entry, reload below
	case !errors.Is(err, redis.Nil):
		return nil, false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	recs, err := load(ctx)
	if err != nil {
		return nil, false, err
	}
	if recs == nil {
		recs = []sales.TransactionRecord{}
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return recs, false, fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return recs, false, fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	return recs, false, nil
}

// Bump increments the shared version. Every process builds keys from the
// same Redis counter, so the bump is visible everywhere at once.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func keyRecords(q sales.Query) string {
	return strings.Join([]string{"analytics", "records", q.CacheKey()}, ":")
}

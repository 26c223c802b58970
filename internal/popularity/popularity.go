// Package popularity provides read access to listing view counters.
// Counters are incremented elsewhere; readers here never mutate them and
// treat a missing counter as zero.
package popularity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces view counters in Redis.
const KeyPrefix = "maru:views:"

// ErrMalformedCounter is returned when a stored counter is not a
// non-negative integer.
var ErrMalformedCounter = errors.New("malformed view counter")

// Reader reads view counters.
type Reader interface {
	// PopularityOf returns the view count for one listing, 0 if absent.
	PopularityOf(ctx context.Context, listingID string) (int64, error)

	// Snapshot returns the counts for ids in one read. Absent counters are
	// omitted and read as zero.
	Snapshot(ctx context.Context, listingIDs []string) (map[string]int64, error)
}

// Key returns the Redis key holding the counter for listingID.
func Key(listingID string) string {
	return KeyPrefix + listingID
}

// RedisReader reads counters stored as integer strings in Redis.
type RedisReader struct {
	client *redis.Client
}

// NewRedisReader creates a reader over client.
func NewRedisReader(client *redis.Client) *RedisReader {
	return &RedisReader{client: client}
}

// PopularityOf returns the counter for listingID.
func (r *RedisReader) PopularityOf(ctx context.Context, listingID string) (int64, error) {
	val, err := r.client.Get(ctx, Key(listingID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read view counter: %w", err)
	}
	return parseCounter(listingID, val)
}

// Snapshot reads every counter with a single MGET.
func (r *RedisReader) Snapshot(ctx context.Context, listingIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(listingIDs))
	for i, id := range listingIDs {
		keys[i] = Key(id)
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read view counters: %w", err)
	}

	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s has type %T", ErrMalformedCounter, listingIDs[i], v)
		}
		n, err := parseCounter(listingIDs[i], s)
		if err != nil {
			return nil, err
		}
		out[listingIDs[i]] = n
	}
	return out, nil
}

func parseCounter(listingID, raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s = %q", ErrMalformedCounter, listingID, raw)
	}
	return n, nil
}

// InMemoryCounter is a counter store for tests and local development.
// Thread-safe via RWMutex.
type InMemoryCounter struct {
	mu     sync.RWMutex
	counts map[string]int64
}

// NewInMemoryCounter creates an empty counter store.
func NewInMemoryCounter() *InMemoryCounter {
	return &InMemoryCounter{counts: make(map[string]int64)}
}

// Increment adds delta to the counter of listingID and returns the new value.
func (c *InMemoryCounter) Increment(listingID string, delta int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[listingID] += delta
	return c.counts[listingID]
}

// PopularityOf returns the counter for listingID.
func (c *InMemoryCounter) PopularityOf(ctx context.Context, listingID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[listingID], nil
}

// Snapshot copies the counters for listingIDs under a single read lock.
func (c *InMemoryCounter) Snapshot(ctx context.Context, listingIDs []string) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int64, len(listingIDs))
	for _, id := range listingIDs {
		if n, ok := c.counts[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

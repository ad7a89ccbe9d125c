package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	PostKeyPrefix = "post:%d"
)

const (
	// PostTTL bounds how long a post row is cached. Posts are immutable, so
	// the TTL only limits memory use.
	PostTTL = 30 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// and stores the result with ttl. Cache failures never fail the read.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	// Misses, Redis errors and undecodable entries all fall through to fetch.
	if raw, err := client.Get(ctx, key).Bytes(); err == nil {
		if json.Unmarshal(raw, dest) == nil {
			return nil
		}
	}

	if err := fetch(); err != nil {
		return err
	}

	if b, err := json.Marshal(dest); err == nil {
		_ = client.Set(ctx, key, b, ttl).Err()
	}
	return nil
}

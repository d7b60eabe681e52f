// Package analytics records terminal lifecycle outcomes into Redis as
// time-bucketed counters with a retention TTL. Best-effort only: failures
// are logged by the Recorder and never affect the tracker.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
)

// DefaultRetention is how long outcome buckets are kept.
const DefaultRetention = 7 * 24 * time.Hour

type RedisSink struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisSink(client *redis.Client, retention time.Duration) *RedisSink {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisSink{client: client, retention: retention}
}

// Write increments the minute bucket for one terminal outcome.
func (s *RedisSink) Write(ctx context.Context, kind domain.Kind, status domain.Status, at time.Time) error {
	key := buildKey(kind, status, at)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.retention)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}

	return nil
}

func buildKey(kind domain.Kind, status domain.Status, t time.Time) string {
	return fmt.Sprintf("lifecycle:%s:%s:%s", kind, status, t.UTC().Format("200601021504"))
}

// Ping verifies the Redis connection, for health checks.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

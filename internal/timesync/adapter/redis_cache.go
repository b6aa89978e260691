package adapter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	redisclient "github.com/aelexs/timesync/internal/redis"
	"github.com/aelexs/timesync/internal/timesync/app"
)

// scanBatch is the COUNT hint per SCAN page.
const scanBatch = 200

// Compile-time check: CacheInvalidator satisfies app.CacheInvalidator.
var _ app.CacheInvalidator = (*CacheInvalidator)(nil)

// CacheInvalidator deletes date-keyed entries from the shared Redis cache.
type CacheInvalidator struct {
	cmd redisclient.Cmdable
}

// NewCacheInvalidator creates a CacheInvalidator that uses cmd for Redis operations.
func NewCacheInvalidator(cmd redisclient.Cmdable) *CacheInvalidator {
	return &CacheInvalidator{cmd: cmd}
}

// InvalidatePattern deletes every key matching the glob pattern. Keys are
// walked with SCAN so large keyspaces are not blocked; deletion is per page.
func (c *CacheInvalidator) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	ctx, span := tracer.Start(ctx, "redis.cache.invalidate")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", "SCAN+DEL"),
		attribute.String("cache.pattern", pattern),
	)

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.cmd.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return deleted, fmt.Errorf("scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.cmd.Del(ctx, keys...).Result()
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return deleted, fmt.Errorf("delete keys for %q: %w", pattern, err)
			}
			deleted += int(n)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	span.SetAttributes(attribute.Int("cache.deleted", deleted))
	return deleted, nil
}

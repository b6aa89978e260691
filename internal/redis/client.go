// Package redis owns the go-redis dependency. Other packages talk to Redis
// through Cmdable so the client library stays confined here.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aelexs/timesync/internal/domain"
)

// Cmdable is the command surface adapters use.
type Cmdable = redis.Cmdable

// Config holds the connection parameters for the shared cache instance that
// stores date-keyed entries.
type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration // applied to dial, read and write
}

// Client wraps a go-redis client. RDB is the handle passed to adapters.
type Client struct {
	RDB *redis.Client
}

// NewClient creates a client. No connection is made until first use.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.RedisTimeout
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	return &Client{RDB: rdb}
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.RDB.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.RDB.Close()
}

package redis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/collette-backend/pkg/config"
	"github.com/angelmondragon/collette-backend/pkg/logger"
)

const keyNamespace = "col"

var errNotConnected = errors.New("redis: client not connected")

// delIfEquals removes KEYS[1] only while it still holds ARGV[1].
var delIfEquals = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type backend interface {
	redis.Scripter
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Pinger is the readiness surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KeyStore is what request replay, low-stock windows and the scheduler lease
// need from redis: namespaced keys with set-if-absent semantics.
type KeyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Key(scope, id string) string
}

// Client is the shared redis connection.
type Client struct {
	backend backend
	closer  func() error
}

// New connects using cfg and fails fast when the server does not answer.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_addr", opts.Addr), "redis connection established")
	}
	return &Client{backend: raw, closer: raw.Close}, nil
}

// options prefers COLLETTE_REDIS_URL; discrete settings fill whatever the
// URL leaves unset.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address == "":
		return nil, errors.New("redis url or address is required")
	}
	opts.DB = cmp.Or(opts.DB, cfg.DB)
	opts.PoolSize = cmp.Or(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = cmp.Or(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = cmp.Or(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = cmp.Or(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = cmp.Or(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.backend == nil {
		return "", errNotConnected
	}
	return c.backend.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.backend == nil {
		return false, errNotConnected
	}
	return c.backend.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.backend == nil {
		return errNotConnected
	}
	return c.backend.Del(ctx, keys...).Err()
}

// DelIfEquals deletes key only when its value is still value. It reports
// whether a key was removed.
func (c *Client) DelIfEquals(ctx context.Context, key, value string) (bool, error) {
	if c.backend == nil {
		return false, errNotConnected
	}
	removed, err := delIfEquals.Run(ctx, c.backend, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// Key joins scope and id under the service namespace, skipping blanks.
func (c *Client) Key(scope, id string) string {
	parts := []string{keyNamespace}
	for _, part := range []string{scope, id} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ":")
}

func (c *Client) Ping(ctx context.Context) error {
	if c.backend == nil {
		return errNotConnected
	}
	return c.backend.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

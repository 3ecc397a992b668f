package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Network  string `json:"network"` // "tcp" or "unix" for socket path
}

// Client wraps the go-redis client used as the L2 cache layer for
// directory lookups (guild names, owners, user tags).
type Client struct {
	client *redis.Client
}

var ctx = context.Background()

func New(cfg Config) (*Client, error) {
	// Use a Unix socket for local Redis when the addr is a path.
	network := "tcp"
	if cfg.Network != "" {
		network = cfg.Network
	}
	if len(cfg.Addr) > 0 && cfg.Addr[0] == '/' {
		network = "unix"
	}

	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Network:      network,
		PoolSize:     100,
		MinIdleConns: 20,
		MaxRetries:   3,
		PoolTimeout:  4 * time.Second,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	rdb := redis.NewClient(opts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{client: rdb}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping() error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Set(key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

func (c *Client) Get(key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *Client) Del(key string) error {
	return c.client.Del(ctx, key).Err()
}

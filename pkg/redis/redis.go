// Package redis connects to the Redis instance that backs rate limiting and
// access-token sessions.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/simorq_scheduler/config"
)

const (
	clientName  = "simorq-scheduler"
	pingTimeout = 5 * time.Second
)

var errNoAddr = errors.New("redis: addr is empty")

// Connect opens a client for the redis config section and pings it. A server
// that does not answer within the ping timeout or before ctx ends is an error.
func Connect(ctx context.Context, c config.RedisConfig) (*goredis.Client, error) {
	return open(ctx, FromCentralConfig(c))
}

func open(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, errNoAddr
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		ClientName:   clientName,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout(),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

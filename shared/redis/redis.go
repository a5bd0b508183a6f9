package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the shared redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Retries  int
	Delay    time.Duration
}

// Connect opens a client and waits until the server answers PING
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = time.Second
	}

	var err error
	for i := 0; i < retries; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("redis %s unreachable after %d attempts: %w", opts.Addr, retries, err)
}

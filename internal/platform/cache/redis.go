package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// New creates a Redis client and verifies the connection. name is reported
// through CLIENT SETNAME.
func New(ctx context.Context, addr, name string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		ClientName: name,
	})

	if err := Ping(client)(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Ping returns a readiness check bounded by a short timeout.
func Ping(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("platform/cache: ping: %w", err)
		}
		return nil
	}
}

package redis

import (
	"context"
	"fmt"

	redisclient "github.com/redis/go-redis/v9"

	"julianmorley.ca/con-plar/storefront/pkg/global"
)

func NewClient(cfg global.Config) *redisclient.Client {
	return redisclient.NewClient(&redisclient.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
		Protocol: 2,
	})
}

// Connect creates a client and verifies the server answers.
func Connect(ctx context.Context, cfg global.Config) (*redisclient.Client, error) {
	client := NewClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.RedisAddress, err)
	}
	return client, nil
}

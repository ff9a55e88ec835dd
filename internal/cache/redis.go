package cache

import (
	"context"
	"fmt"

	"smartreminder/internal/config"
	"smartreminder/internal/logger"

	"github.com/redis/go-redis/v9"
)

// New connects to Redis and verifies the connection. Redis is optional for
// the service; callers decide whether a failure here is fatal.
func New(ctx context.Context) (*redis.Client, error) {
	host, port, password := config.RedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Get().Info("Redis connection successful")
	return client, nil
}

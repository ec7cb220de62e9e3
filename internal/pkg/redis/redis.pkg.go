package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/pkg/logger"

	_redis "github.com/redis/go-redis/v9"
)

func Setup(ctx context.Context, config *Config) (*Client, error) {
	clientCtx, cancel := context.WithCancel(ctx)

	r := &Client{
		cancel: cancel,
		ctx:    clientCtx,
		config: config,
	}

	if err := r.connect(); err != nil {
		cancel()
		logger.Error.Println(err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	go r.reconnectHandler()

	return r, nil
}

func (r *Client) connect() error {
	client := _redis.NewClient(&_redis.Options{
		Addr:     r.config.Addr(),
		Username: r.config.Username,
		Password: r.config.Password,
		PoolSize: r.config.PoolSize,
	})

	if err := client.Ping(r.ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	if r.Client != nil {
		_ = r.Client.Close()
	}
	r.Client = client
	return nil
}

func (r *Client) reconnectHandler() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			logger.Info.Println("Redis reconnect handler shutting down...")
			return
		case <-ticker.C:
			err := r.Client.Ping(r.ctx).Err()
			if err == nil || r.ctx.Err() != nil {
				continue
			}
			logger.Warning.Printf("Redis connection lost: %v. Attempting to reconnect...", err)

			for attempt := 1; r.ctx.Err() == nil; attempt++ {
				logger.Warning.Printf("Redis reconnect attempt #%d...", attempt)
				if err = r.connect(); err == nil {
					logger.Info.Println("Reconnected to Redis.")
					break
				}
				logger.Warning.Printf("Redis reconnect attempt failed: %v", err)

				select {
				case <-r.ctx.Done():
				case <-time.After(time.Duration(attempt) * time.Second):
				}
			}
		}
	}
}

// Close gracefully shuts down the redis connection.
func (r *Client) Close() error {
	r.cancel()
	return r.Client.Close()
}

func (r *Client) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Set stores a JSON encoded value with an expiration time.
func (r *Client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err = r.Client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Get retrieves the value of a key. A missing key yields "" and no error.
func (r *Client) Get(ctx context.Context, key string) (string, error) {
	result, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, NilType) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return result, nil
}

// Del deletes a key.
func (r *Client) Del(ctx context.Context, key string) error {
	err := r.Client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Expire sets a timeout on a key.
func (r *Client) Expire(ctx context.Context, key string, expiration time.Duration) error {
	err := r.Client.Expire(ctx, key, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set expiration on key %s: %w", key, err)
	}
	return nil
}

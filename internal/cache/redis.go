package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/spacebooking/config"
	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client      *redis.Client
	packagesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, packagesTTL time.Duration) *RedisCache {
	return NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		packagesTTL,
	)
}

func NewRedisCacheFromClient(client *redis.Client, packagesTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, packagesTTL: packagesTTL}
}

// Client exposes the connection for the rate limiter store.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetPackages returns nil, nil on a cache miss.
func (c *RedisCache) GetPackages(ctx context.Context) ([]domain.Package, error) {
	data, err := c.client.Get(ctx, packagesKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached packages: %w", err)
	}

	var packages []domain.Package
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, fmt.Errorf("decode cached packages: %w", err)
	}
	return packages, nil
}

func (c *RedisCache) SetPackages(ctx context.Context, packages []domain.Package) error {
	payload, err := json.Marshal(packages)
	if err != nil {
		return fmt.Errorf("encode packages: %w", err)
	}
	return c.client.Set(ctx, packagesKey(), payload, c.packagesTTL).Err()
}

func (c *RedisCache) InvalidatePackages(ctx context.Context) error {
	return c.client.Del(ctx, packagesKey()).Err()
}

// NotificationSeen reports whether a payment notification with this id and status was applied.
func (c *RedisCache) NotificationSeen(ctx context.Context, externalID, status string) (bool, error) {
	n, err := c.client.Exists(ctx, notificationKey(externalID, status)).Result()
	if err != nil {
		return false, fmt.Errorf("check notification: %w", err)
	}
	return n > 0, nil
}

func (c *RedisCache) RememberNotification(ctx context.Context, externalID, status string, ttl time.Duration) error {
	return c.client.Set(ctx, notificationKey(externalID, status), "1", ttl).Err()
}

func packagesKey() string {
	return "cache:packages"
}

func notificationKey(externalID, status string) string {
	return fmt.Sprintf("dedupe:payment:%s:%s", externalID, status)
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campus/docgen/internal/domain/document"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "docgen:signature:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisSignatureCache stores each session as a Redis hash of asset id to
// inlined image, so instances behind a load balancer share sessions.
type RedisSignatureCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSignatureCache connects to Redis and verifies the connection
func NewRedisSignatureCache(cfg RedisConfig, keyPrefix string, ttl time.Duration) (*RedisSignatureCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSignatureCacheWithClient(client, keyPrefix, ttl), nil
}

// NewRedisSignatureCacheWithClient wraps an existing client
func NewRedisSignatureCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSignatureCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisSignatureCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisSignatureCache) key(sessionID string) string {
	return c.keyPrefix + sessionID
}

// Get implements document.SignatureCache
func (c *RedisSignatureCache) Get(ctx context.Context, sessionID, assetID string) (document.InlinedImage, bool, error) {
	raw, err := c.client.HGet(ctx, c.key(sessionID), assetID).Bytes()
	if errors.Is(err, redis.Nil) {
		return document.InlinedImage{}, false, nil
	}
	if err != nil {
		return document.InlinedImage{}, false, fmt.Errorf("failed to read signature cache: %w", err)
	}

	var img document.InlinedImage
	if err := json.Unmarshal(raw, &img); err != nil {
		return document.InlinedImage{}, false, fmt.Errorf("failed to decode cached signature: %w", err)
	}
	return img, true, nil
}

// Set implements document.SignatureCache
func (c *RedisSignatureCache) Set(ctx context.Context, sessionID, assetID string, img document.InlinedImage) error {
	raw, err := json.Marshal(img)
	if err != nil {
		return fmt.Errorf("failed to encode signature: %w", err)
	}

	key := c.key(sessionID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, assetID, raw)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write signature cache: %w", err)
	}
	return nil
}

// Clear implements document.SignatureCache
func (c *RedisSignatureCache) Clear(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, c.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear signature cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisSignatureCache) Close() error {
	return c.client.Close()
}

var _ document.SignatureCache = (*RedisSignatureCache)(nil)

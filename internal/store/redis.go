package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/restopos/api/internal/cart"
)

// DefaultCartTTL is how long an idle cart survives in Redis.
const DefaultCartTTL = 12 * time.Hour

const cartKeyPrefix = "cart:"

// RedisCarts is a cart.Repository backed by Redis. Each cart is one JSON
// value with a sliding TTL.
type RedisCarts struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCarts creates a repository. A non-positive ttl uses DefaultCartTTL.
func NewRedisCarts(client *redis.Client, ttl time.Duration) *RedisCarts {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisCarts{client: client, ttl: ttl}
}

// ConnectRedis parses url, connects and pings.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisCarts) Load(ctx context.Context, cartID string) (*cart.Cart, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+cartID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", cartID, err)
	}
	return &c, nil
}

func (r *RedisCarts) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", c.ID, err)
	}
	if err := r.client.Set(ctx, cartKeyPrefix+c.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (r *RedisCarts) Delete(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+cartID).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

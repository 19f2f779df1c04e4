package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/bookstore/internal/core/domain"
)

const (
	sessionKeyPrefix  = "session:"
	cartKeySuffix     = ":cart"
	chargeLockPrefix  = "charge:"
	chargeLockTTL     = 30 * time.Second
	customerIDField   = "customer_id"
	createdAtField    = "created_at"
	defaultSessionTTL = 14 * 24 * time.Hour
)

var addToCartScript = redis.NewScript(`
local key = KEYS[1]
local field = ARGV[1]
local quantity = tonumber(ARGV[2])
local stock = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local current = tonumber(redis.call('HGET', key, field) or '0')
local total = current + quantity
if total > stock then
	return {0, total}
end

redis.call('HSET', key, field, total)
redis.call('EXPIRE', key, ttl)
return {1, total}
`)

type RedisAdapter struct {
	client     *redis.Client
	sessionTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, sessionTTL time.Duration) *RedisAdapter {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &RedisAdapter{client: client, sessionTTL: sessionTTL}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func cartKey(sessionID string) string {
	return sessionKeyPrefix + sessionID + cartKeySuffix
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisAdapter) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	key := sessionKey(id)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, createdAtField, time.Now().Unix())
	pipe.Expire(ctx, key, r.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return id, nil
}

func (r *RedisAdapter) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	pipe := r.client.Pipeline()
	exists := pipe.Expire(ctx, sessionKey(sessionID), r.sessionTTL)
	pipe.Expire(ctx, cartKey(sessionID), r.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("touch session: %w", err)
	}

	return exists.Val(), nil
}

func (r *RedisAdapter) CustomerID(ctx context.Context, sessionID string) (int64, bool, error) {
	v, err := r.client.HGet(ctx, sessionKey(sessionID), customerIDField).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get session customer: %w", err)
	}

	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

func (r *RedisAdapter) SetCustomerID(ctx context.Context, sessionID string, customerID int64) error {
	key := sessionKey(sessionID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, customerIDField, customerID)
	pipe.Expire(ctx, key, r.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set session customer: %w", err)
	}
	return nil
}

func (r *RedisAdapter) ClearCustomerID(ctx context.Context, sessionID string) error {
	return r.client.HDel(ctx, sessionKey(sessionID), customerIDField).Err()
}

func (r *RedisAdapter) Cart(ctx context.Context, sessionID string) (domain.Cart, error) {
	fields, err := r.client.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart := make(domain.Cart, len(fields))
	for k, v := range fields {
		bookID, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			continue
		}
		cart[bookID] = qty
	}

	return cart, nil
}

func (r *RedisAdapter) AddToCart(ctx context.Context, sessionID string, bookID int64, quantity, stock int) (int, bool, error) {
	key := cartKey(sessionID)
	ttl := int64(r.sessionTTL / time.Second)

	result, err := addToCartScript.Run(ctx, r.client, []string{key},
		strconv.FormatInt(bookID, 10), quantity, stock, ttl).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("add to cart: %w", err)
	}
	if len(result) != 2 {
		return 0, false, fmt.Errorf("add to cart: unexpected script reply %v", result)
	}

	return int(result[1]), result[0] == 1, nil
}

func (r *RedisAdapter) SetCartItem(ctx context.Context, sessionID string, bookID int64, quantity int) error {
	key := cartKey(sessionID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.FormatInt(bookID, 10), quantity)
	pipe.Expire(ctx, key, r.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set cart item: %w", err)
	}
	return nil
}

func (r *RedisAdapter) RemoveCartItem(ctx context.Context, sessionID string, bookID int64) error {
	return r.client.HDel(ctx, cartKey(sessionID), strconv.FormatInt(bookID, 10)).Err()
}

func (r *RedisAdapter) ClearCart(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKey(sessionID)).Err()
}

func (r *RedisAdapter) AcquireChargeLock(ctx context.Context, orderID int64) (bool, error) {
	key := chargeLockPrefix + strconv.FormatInt(orderID, 10)

	ok, err := r.client.SetNX(ctx, key, 1, chargeLockTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseChargeLock(ctx context.Context, orderID int64) error {
	return r.client.Del(ctx, chargeLockPrefix+strconv.FormatInt(orderID, 10)).Err()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ==================== Redis 存储 ====================

// RedisStore 基于远程 Redis 服务的存储
// 持久化级别由 Redis 服务自身的配置决定,TTL 由 Redis 原生支持
type RedisStore struct {
	client  *redis.Client
	options Options
}

// NewRedisStore 创建 Redis 存储实例
func NewRedisStore(client *redis.Client, options Options) *RedisStore {
	return &RedisStore{
		client:  client,
		options: options,
	}
}

// Put 写入键值,覆盖已有记录
func (store *RedisStore) Put(ctx context.Context, key, value string) error {
	if err := store.client.Set(ctx, store.options.namespacedKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Get 读取键值
// redis.Nil 归一化为 ErrKeyNotFound,其余错误视为后端故障
func (store *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := store.client.Get(ctx, store.options.namespacedKey(key)).Result()

	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}

	if err != nil {
		return "", fmt.Errorf("%w: get: %v", ErrStoreUnavailable, err)
	}

	return value, nil
}

// PutWithTTL 仅在键不存在时写入
// SETNX 保证检查与写入的原子性,到期后由 Redis 自动删除
func (store *RedisStore) PutWithTTL(
	ctx context.Context,
	key, value string,
	ttl time.Duration,
) (bool, error) {
	inserted, err := store.client.SetNX(ctx, store.options.namespacedKey(key), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: setnx: %v", ErrStoreUnavailable, err)
	}

	return inserted, nil
}

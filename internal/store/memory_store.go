package store

import (
	"context"
	"sync"
	"time"
)

// ==================== 内存存储 ====================

// memoryEntry 单条内存记录
// expiresAt 为零值时表示永不过期
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore 基于进程内映射的易失性存储
// 读写锁保证并发读写安全,进程退出后数据丢失
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	options Options
	// timeProvider 时间源提供者,便于测试时注入 mock 时间
	timeProvider func() time.Time
}

// NewMemoryStore 创建内存存储实例
func NewMemoryStore(options Options) *MemoryStore {
	return &MemoryStore{
		entries:      make(map[string]memoryEntry),
		options:      options,
		timeProvider: time.Now,
	}
}

// Put 写入键值,覆盖已有记录
func (store *MemoryStore) Put(ctx context.Context, key, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.entries[store.options.namespacedKey(key)] = memoryEntry{value: value}
	return nil
}

// Get 读取键值
// 惰性清理:读到已过期的记录时当场删除并返回不存在
func (store *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	namespacedKey := store.options.namespacedKey(key)

	store.mu.RLock()
	entry, exists := store.entries[namespacedKey]
	store.mu.RUnlock()

	if !exists {
		return "", ErrKeyNotFound
	}

	if store.isExpired(entry) {
		store.evict(namespacedKey)
		return "", ErrKeyNotFound
	}

	return entry.value, nil
}

// PutWithTTL 仅在键不存在(或已过期)时写入
func (store *MemoryStore) PutWithTTL(
	ctx context.Context,
	key, value string,
	ttl time.Duration,
) (bool, error) {
	namespacedKey := store.options.namespacedKey(key)

	store.mu.Lock()
	defer store.mu.Unlock()

	if existing, exists := store.entries[namespacedKey]; exists && !store.isExpired(existing) {
		return false, nil
	}

	store.entries[namespacedKey] = memoryEntry{
		value:     value,
		expiresAt: store.timeProvider().Add(ttl),
	}

	return true, nil
}

// ==================== 私有方法 ====================

// isExpired 判断记录是否已过期
func (store *MemoryStore) isExpired(entry memoryEntry) bool {
	if entry.expiresAt.IsZero() {
		return false
	}
	return !store.timeProvider().Before(entry.expiresAt)
}

// evict 删除指定键
// 删除前二次确认过期状态,避免覆盖并发写入的新值
func (store *MemoryStore) evict(namespacedKey string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if entry, exists := store.entries[namespacedKey]; exists && store.isExpired(entry) {
		delete(store.entries, namespacedKey)
	}
}

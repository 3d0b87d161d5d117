package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== 测试辅助 ====================

// testBackend 测试中可操作的后端句柄
// setClock 注入时间源,让过期行为无需真实等待
type testBackend struct {
	store    Store
	setClock func(now time.Time)
}

// newTestBackends 构建参与契约测试的全部后端
// Redis 后端依赖外部进程,其行为由客户端命令语义保证,不纳入本地契约测试
func newTestBackends(t *testing.T, options Options) map[string]testBackend {
	t.Helper()

	memoryStore := NewMemoryStore(options)

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "store.db"), options)
	require.NoError(t, err)
	t.Cleanup(func() { fileStore.Close() })

	return map[string]testBackend{
		"memory": {
			store:    memoryStore,
			setClock: func(now time.Time) { memoryStore.timeProvider = func() time.Time { return now } },
		},
		"file": {
			store:    fileStore,
			setClock: func(now time.Time) { fileStore.timeProvider = func() time.Time { return now } },
		},
	}
}

// ==================== 契约测试 ====================

// TestStoreRoundtrip 写入后可读回原值
func TestStoreRoundtrip(t *testing.T) {
	for name, backend := range newTestBackends(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, backend.store.Put(ctx, "msg-1|title", "部署完成"))
			require.NoError(t, backend.store.Put(ctx, "msg-1|content", "全部节点已更新"))

			title, err := backend.store.Get(ctx, "msg-1|title")
			require.NoError(t, err)
			assert.Equal(t, "部署完成", title)

			content, err := backend.store.Get(ctx, "msg-1|content")
			require.NoError(t, err)
			assert.Equal(t, "全部节点已更新", content)
		})
	}
}

// TestStoreGetAbsentKey 读取从未写入的键返回 ErrKeyNotFound
func TestStoreGetAbsentKey(t *testing.T) {
	for name, backend := range newTestBackends(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			_, err := backend.store.Get(context.Background(), "never-written")
			assert.ErrorIs(t, err, ErrKeyNotFound)
		})
	}
}

// TestStorePutOverwrites Put 无条件覆盖已有值
func TestStorePutOverwrites(t *testing.T) {
	for name, backend := range newTestBackends(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, backend.store.Put(ctx, "key", "old"))
			require.NoError(t, backend.store.Put(ctx, "key", "new"))

			value, err := backend.store.Get(ctx, "key")
			require.NoError(t, err)
			assert.Equal(t, "new", value)
		})
	}
}

// TestStorePutEmptyValue 空字符串是合法值,与键不存在可区分
func TestStorePutEmptyValue(t *testing.T) {
	for name, backend := range newTestBackends(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, backend.store.Put(ctx, "empty", ""))

			value, err := backend.store.Get(ctx, "empty")
			require.NoError(t, err)
			assert.Empty(t, value)
		})
	}
}

// TestStorePutWithTTLSetIfAbsent 键已存在时条件写入不生效
func TestStorePutWithTTLSetIfAbsent(t *testing.T) {
	for name, backend := range newTestBackends(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			inserted, err := backend.store.PutWithTTL(ctx, "key", "first", time.Hour)
			require.NoError(t, err)
			assert.True(t, inserted)

			inserted, err = backend.store.PutWithTTL(ctx, "key", "second", time.Hour)
			require.NoError(t, err)
			assert.False(t, inserted, "已存在的键不应被条件写入覆盖")

			value, err := backend.store.Get(ctx, "key")
			require.NoError(t, err)
			assert.Equal(t, "first", value)
		})
	}
}

// TestStoreTTLExpiry 过期后读取行为与从未写入完全一致
func TestStoreTTLExpiry(t *testing.T) {
	for name, backend := range newTestBackends(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			baseTime := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

			backend.setClock(baseTime)

			inserted, err := backend.store.PutWithTTL(ctx, "ephemeral", "value", time.Hour)
			require.NoError(t, err)
			require.True(t, inserted)

			// 有效期内可读
			backend.setClock(baseTime.Add(30 * time.Minute))
			value, err := backend.store.Get(ctx, "ephemeral")
			require.NoError(t, err)
			assert.Equal(t, "value", value)

			// 过期后不可读
			backend.setClock(baseTime.Add(2 * time.Hour))
			_, err = backend.store.Get(ctx, "ephemeral")
			assert.ErrorIs(t, err, ErrKeyNotFound)
		})
	}
}

// TestStoreTTLExpiredKeyReusable 过期键可被条件写入重新占用
func TestStoreTTLExpiredKeyReusable(t *testing.T) {
	for name, backend := range newTestBackends(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			baseTime := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

			backend.setClock(baseTime)
			inserted, err := backend.store.PutWithTTL(ctx, "key", "old", time.Hour)
			require.NoError(t, err)
			require.True(t, inserted)

			backend.setClock(baseTime.Add(2 * time.Hour))
			inserted, err = backend.store.PutWithTTL(ctx, "key", "new", time.Hour)
			require.NoError(t, err)
			assert.True(t, inserted, "过期键应视同不存在")

			value, err := backend.store.Get(ctx, "key")
			require.NoError(t, err)
			assert.Equal(t, "new", value)
		})
	}
}

// TestStoreNamespaceIsolation 不同命名空间的同名键互不可见
func TestStoreNamespaceIsolation(t *testing.T) {
	ctx := context.Background()

	first := NewMemoryStore(Options{Namespace: "svc-a"})
	second := NewMemoryStore(Options{Namespace: "svc-b"})

	require.NoError(t, first.Put(ctx, "key", "value-a"))

	_, err := second.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

// ==================== 文件存储专项测试 ====================

// TestFileStorePersistsAcrossReopen 重新打开同一文件后数据仍在
func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	filePath := filepath.Join(t.TempDir(), "persist.db")

	first, err := NewFileStore(filePath, Options{})
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "durable", "survives restart"))
	require.NoError(t, first.Close())

	second, err := NewFileStore(filePath, Options{})
	require.NoError(t, err)
	defer second.Close()

	value, err := second.Get(ctx, "durable")
	require.NoError(t, err)
	assert.Equal(t, "survives restart", value)
}

// TestFileStoreClosedReturnsUnavailable 连接关闭后的故障与键不存在可区分
func TestFileStoreClosedReturnsUnavailable(t *testing.T) {
	ctx := context.Background()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "closed.db"), Options{})
	require.NoError(t, err)
	require.NoError(t, fileStore.Close())

	_, err = fileStore.Get(ctx, "any")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, errors.Is(err, ErrKeyNotFound))
}

// ==================== 命名空间拼接测试 ====================

func TestNamespacedKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "key", Options{}.namespacedKey("key"))
	assert.Equal(t, "notify:key", Options{Namespace: "notify"}.namespacedKey("key"))
}

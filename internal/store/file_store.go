package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ==================== 建表语句 ====================

// createContentTableSQL 内容键值表
// expires_at 为 0 表示永不过期,单位 Unix 秒
const createContentTableSQL = `
	CREATE TABLE IF NOT EXISTS content_entries (
		k          TEXT PRIMARY KEY,
		v          TEXT NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	)
`

// ==================== 文件存储 ====================

// FileStore 基于单个 SQLite 文件的持久化存储
// 每次写入在调用内同步提交,不依赖进程退出时的落盘钩子
// SQLite 内部串行化提交,互不相关的读取不受写入阻塞(WAL 模式)
type FileStore struct {
	db      *sql.DB
	options Options
	// timeProvider 时间源提供者,便于测试时注入 mock 时间
	timeProvider func() time.Time
}

// NewFileStore 创建文件存储实例并初始化表结构
func NewFileStore(filePath string, options Options) (*FileStore, error) {
	db, err := sql.Open("sqlite", filePath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, filePath, err)
	}

	if _, err := db.Exec(createContentTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", ErrStoreUnavailable, err)
	}

	return &FileStore{
		db:           db,
		options:      options,
		timeProvider: time.Now,
	}, nil
}

// Put 写入键值,覆盖已有记录
// 自动提交模式下语句返回即完成持久化
func (store *FileStore) Put(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO content_entries (k, v, expires_at) VALUES (?, ?, 0)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v, expires_at = 0
	`

	if _, err := store.db.ExecContext(ctx, query, store.options.namespacedKey(key), value); err != nil {
		return fmt.Errorf("%w: put: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Get 读取键值
// 已过期的记录视同不存在
func (store *FileStore) Get(ctx context.Context, key string) (string, error) {
	query := `
		SELECT v FROM content_entries
		WHERE k = ? AND (expires_at = 0 OR expires_at > ?)
	`

	var value string
	err := store.db.QueryRowContext(
		ctx,
		query,
		store.options.namespacedKey(key),
		store.currentTimestamp(),
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}

	if err != nil {
		return "", fmt.Errorf("%w: get: %v", ErrStoreUnavailable, err)
	}

	return value, nil
}

// PutWithTTL 仅在键不存在(或已过期)时写入
func (store *FileStore) PutWithTTL(
	ctx context.Context,
	key, value string,
	ttl time.Duration,
) (bool, error) {
	// 先清理同键的过期残留,使条件插入语义与 Redis SETNX 一致
	if err := store.purgeExpired(ctx, key); err != nil {
		return false, err
	}

	query := `INSERT INTO content_entries (k, v, expires_at) VALUES (?, ?, ?) ON CONFLICT(k) DO NOTHING`
	expiresAt := store.timeProvider().Add(ttl).Unix()

	result, err := store.db.ExecContext(ctx, query, store.options.namespacedKey(key), value, expiresAt)
	if err != nil {
		return false, fmt.Errorf("%w: put with ttl: %v", ErrStoreUnavailable, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrStoreUnavailable, err)
	}

	return inserted > 0, nil
}

// Close 关闭数据库连接
func (store *FileStore) Close() error {
	return store.db.Close()
}

// ==================== 私有方法 ====================

// purgeExpired 删除指定键的过期记录
func (store *FileStore) purgeExpired(ctx context.Context, key string) error {
	query := `DELETE FROM content_entries WHERE k = ? AND expires_at != 0 AND expires_at <= ?`

	_, err := store.db.ExecContext(ctx, query, store.options.namespacedKey(key), store.currentTimestamp())
	if err != nil {
		return fmt.Errorf("%w: purge expired: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// currentTimestamp 获取当前 Unix 秒时间戳
func (store *FileStore) currentTimestamp() int64 {
	return store.timeProvider().Unix()
}

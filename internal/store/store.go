// Package store 提供键值内容存储的统一抽象
// 支持内存、本地文件、Redis 三种可互换的后端实现,调用方对具体后端无感知
package store

import (
	"context"
	"errors"
	"time"
)

// ==================== 错误定义 ====================

var (
	// ErrKeyNotFound 键不存在或已过期
	// 属于正常的预期结果,不代表后端故障
	ErrKeyNotFound = errors.New("key not found")

	// ErrStoreUnavailable 后端连接或 I/O 故障
	// 与键不存在严格区分,调用方可通过 errors.Is 判断
	ErrStoreUnavailable = errors.New("store backend unavailable")
)

// ==================== 接口定义 ====================

// Store 定义键值内容存储能力
// 三种后端实现行为一致,后端选择在启动时由配置一次性确定
type Store interface {
	// Put 写入键值,无条件覆盖已有值
	// 返回前按后端的持久化级别完成提交(文件后端每次写入同步落盘)
	Put(ctx context.Context, key, value string) error

	// Get 读取键值
	// 键从未写入或已过期时返回 ErrKeyNotFound;后端故障返回可区分的存储错误
	Get(ctx context.Context, key string) (string, error)

	// PutWithTTL 仅在键不存在时写入,并在 ttl 后自动失效
	// 返回 false 表示键已存在(写入未发生),用于防止延长碰撞键的生命周期
	// 过期后 Get 的行为与从未写入完全一致
	PutWithTTL(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// ==================== 配置定义 ====================

// Options 后端通用配置
type Options struct {
	Namespace string // 键前缀,用于隔离不同服务的数据
}

// namespacedKey 拼接命名空间前缀
func (options Options) namespacedKey(key string) string {
	if options.Namespace == "" {
		return key
	}
	return options.Namespace + ":" + key
}

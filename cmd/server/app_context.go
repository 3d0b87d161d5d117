package main

import (
	"log"

	"notify-relay/internal/config"
	"notify-relay/internal/relay"
	"notify-relay/internal/store"
	"notify-relay/internal/wecom"

	redis "github.com/redis/go-redis/v9"
)

// AppContext 应用运行时上下文
// 聚合所有运行期依赖,统一管理生命周期
// 存储后端在此处一次性选定,进程存续期间不可变更
type AppContext struct {
	Config       config.Config
	RedisClient  *redis.Client
	FileStore    *store.FileStore
	ContentStore store.Store
	Pusher       wecom.Pusher
	RelayService *relay.Service
}

// Close 释放应用上下文持有的所有资源
// 按照依赖关系倒序释放,避免资源泄漏
func (context *AppContext) Close() {
	context.closeFileStore()
	context.closeRedisClient()
}

// closeFileStore 关闭文件存储
func (context *AppContext) closeFileStore() {
	if context.FileStore != nil {
		if err := context.FileStore.Close(); err != nil {
			log.Printf("[AppContext] 文件存储关闭失败: %v", err)
		}
	}
}

// closeRedisClient 关闭 Redis 客户端
func (context *AppContext) closeRedisClient() {
	if context.RedisClient != nil {
		if err := context.RedisClient.Close(); err != nil {
			log.Printf("[AppContext] Redis 客户端关闭失败: %v", err)
		}
	}
}

//
// 应用初始化器
//

// ApplicationInitializer 应用初始化器
// 负责构建完整的应用运行上下文
type ApplicationInitializer struct {
	configuration config.Config
	redisClient   *redis.Client
	fileStore     *store.FileStore
}

// NewApplicationInitializer 创建应用初始化器实例
func NewApplicationInitializer(configuration config.Config) *ApplicationInitializer {
	return &ApplicationInitializer{
		configuration: configuration,
	}
}

// Initialize 初始化应用上下文
// 按照依赖关系依次初始化各个组件
func (initializer *ApplicationInitializer) Initialize() *AppContext {
	contentStore := initializer.createContentStore()
	pusher := initializer.createPusher()
	relayService := initializer.createRelayService(contentStore, pusher)

	return &AppContext{
		Config:       initializer.configuration,
		RedisClient:  initializer.redisClient,
		FileStore:    initializer.fileStore,
		ContentStore: contentStore,
		Pusher:       pusher,
		RelayService: relayService,
	}
}

// createContentStore 创建内容存储
// 选择顺序:Redis 启用 → Redis;文件路径配置 → 本地文件;否则内存
func (initializer *ApplicationInitializer) createContentStore() store.Store {
	options := store.Options{
		Namespace: initializer.configuration.Storage.Namespace,
	}

	if initializer.configuration.Storage.Redis.Enabled {
		return initializer.createRedisStore(options)
	}

	if initializer.configuration.Storage.FilePath != "" {
		return initializer.createFileStore(options)
	}

	log.Println("[Initializer] 内容存储使用进程内内存后端")
	return store.NewMemoryStore(options)
}

// createRedisStore 创建 Redis 存储后端
func (initializer *ApplicationInitializer) createRedisStore(options store.Options) store.Store {
	initializer.redisClient = redis.NewClient(&redis.Options{
		Addr:     initializer.configuration.Storage.Redis.Addr(),
		Password: initializer.configuration.Storage.Redis.Password,
	})

	log.Printf("[Initializer] 内容存储使用 Redis 后端: %s", initializer.configuration.Storage.Redis.Addr())
	return store.NewRedisStore(initializer.redisClient, options)
}

// createFileStore 创建本地文件存储后端
// 打开失败属于不可恢复的启动错误,直接终止进程
func (initializer *ApplicationInitializer) createFileStore(options store.Options) store.Store {
	fileStore, err := store.NewFileStore(initializer.configuration.Storage.FilePath, options)
	if err != nil {
		log.Fatalf("[Initializer] 文件存储初始化失败: %v", err)
	}

	initializer.fileStore = fileStore
	log.Printf("[Initializer] 内容存储使用本地文件后端: %s", initializer.configuration.Storage.FilePath)
	return fileStore
}

// createPusher 创建企业微信推送客户端
func (initializer *ApplicationInitializer) createPusher() wecom.Pusher {
	return wecom.NewClient(
		initializer.configuration.WeCom.CorpID,
		initializer.configuration.WeCom.AgentID,
		initializer.configuration.WeCom.AgentSecret,
		initializer.configuration.App.RequestTimeout,
	)
}

// createRelayService 创建中转编排服务
func (initializer *ApplicationInitializer) createRelayService(
	contentStore store.Store,
	pusher wecom.Pusher,
) *relay.Service {
	return relay.NewService(contentStore, pusher, relay.Options{
		BaseURL:     initializer.configuration.App.BaseURL,
		TokenLength: initializer.configuration.App.TokenLength,
		Retention:   initializer.configuration.Storage.Retention,
	})
}

//
// 外部调用接口
//

// InitAppContext 初始化应用上下文
func InitAppContext(configuration config.Config) *AppContext {
	initializer := NewApplicationInitializer(configuration)
	return initializer.Initialize()
}

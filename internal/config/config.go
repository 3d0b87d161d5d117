package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认配置常量
const (
	// 应用默认配置
	DefaultHTTPAddress    = ":8080"
	DefaultBaseURL        = "http://127.0.0.1:8080"
	DefaultRequestTimeout = 5 * time.Second
	DefaultTokenLength    = 16

	// 存储默认配置
	DefaultNamespace = "notify"
	DefaultRedisHost = "127.0.0.1"
	DefaultRedisPort = 6379
)

// App 应用全局配置
type App struct {
	Addr           string        `yaml:"Addr"`           // HTTP 监听地址
	BaseURL        string        `yaml:"BaseURL"`        // 回看链接基础地址
	RequestTimeout time.Duration `yaml:"RequestTimeout"` // 推送调用超时
	TokenLength    int           `yaml:"TokenLength"`    // 内容标识符长度
}

// Redis 远程键值服务配置
type Redis struct {
	Enabled  bool   `yaml:"Enabled"`  // 是否启用远程 Redis 后端
	Host     string `yaml:"Host"`     // Redis 主机
	Port     int    `yaml:"Port"`     // Redis 端口
	Password string `yaml:"Password"` // Redis 密码,可选
}

// Addr 拼接 Redis 连接地址
func (redis Redis) Addr() string {
	return fmt.Sprintf("%s:%d", redis.Host, redis.Port)
}

// Storage 存储配置
// 后端选择:Redis.Enabled → Redis;否则 FilePath 非空 → 本地文件;否则内存
type Storage struct {
	Redis     Redis         `yaml:"Redis"`     // 远程 Redis 配置
	FilePath  string        `yaml:"FilePath"`  // 本地文件后端路径,空则使用内存后端
	Namespace string        `yaml:"Namespace"` // 键前缀
	Retention time.Duration `yaml:"Retention"` // 内容保留时长,0 表示永久保留
}

// WeCom 企业微信应用配置
type WeCom struct {
	CorpID      string `yaml:"CorpID"`      // 企业ID
	AgentID     int    `yaml:"AgentID"`     // 应用ID
	AgentSecret string `yaml:"AgentSecret"` // 应用密钥
}

// Config 应用完整配置
type Config struct {
	App     App     `yaml:"App"`
	Storage Storage `yaml:"Storage"`
	WeCom   WeCom   `yaml:"WeCom"`
}

// MustLoad 加载 YAML 配置文件
// 加载失败时直接 panic(用于应用启动阶段)
func MustLoad(configPath string) Config {
	fileContent, err := os.ReadFile(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to read config file: %v", err))
	}

	var config Config
	if err := yaml.Unmarshal(fileContent, &config); err != nil {
		panic(fmt.Sprintf("failed to unmarshal config: %v", err))
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}

	return config
}

// Validate 校验配置并设置默认值
// 企业微信凭据缺失属于不可恢复的启动错误
func (config *Config) Validate() error {
	config.applyAppDefaults()
	config.applyStorageDefaults()

	return config.validateWeCom()
}

// applyAppDefaults 填充应用默认值
func (config *Config) applyAppDefaults() {
	if config.App.Addr == "" {
		config.App.Addr = DefaultHTTPAddress
	}

	if config.App.BaseURL == "" {
		config.App.BaseURL = DefaultBaseURL
	}

	if config.App.RequestTimeout <= 0 {
		config.App.RequestTimeout = DefaultRequestTimeout
	}

	if config.App.TokenLength <= 0 {
		config.App.TokenLength = DefaultTokenLength
	}
}

// applyStorageDefaults 填充存储默认值
func (config *Config) applyStorageDefaults() {
	if config.Storage.Namespace == "" {
		config.Storage.Namespace = DefaultNamespace
	}

	if config.Storage.Redis.Host == "" {
		config.Storage.Redis.Host = DefaultRedisHost
	}

	if config.Storage.Redis.Port <= 0 {
		config.Storage.Redis.Port = DefaultRedisPort
	}
}

// validateWeCom 校验企业微信凭据
func (config *Config) validateWeCom() error {
	if config.WeCom.CorpID == "" {
		return fmt.Errorf("WeCom.CorpID is required")
	}

	if config.WeCom.AgentID <= 0 {
		return fmt.Errorf("WeCom.AgentID is required")
	}

	if config.WeCom.AgentSecret == "" {
		return fmt.Errorf("WeCom.AgentSecret is required")
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile 写出临时配置文件
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

// TestMustLoadFullConfig 完整配置文件加载
func TestMustLoadFullConfig(t *testing.T) {
	configPath := writeConfigFile(t, `
App:
  Addr: ":9090"
  BaseURL: "https://notify.example.com"
  RequestTimeout: 3s
  TokenLength: 24
Storage:
  Redis:
    Enabled: true
    Host: "redis.internal"
    Port: 6380
    Password: "secret"
  Namespace: "prod"
  Retention: 72h
WeCom:
  CorpID: "corp-1"
  AgentID: 1000002
  AgentSecret: "agent-secret"
`)

	config := MustLoad(configPath)

	assert.Equal(t, ":9090", config.App.Addr)
	assert.Equal(t, "https://notify.example.com", config.App.BaseURL)
	assert.Equal(t, 3*time.Second, config.App.RequestTimeout)
	assert.Equal(t, 24, config.App.TokenLength)

	assert.True(t, config.Storage.Redis.Enabled)
	assert.Equal(t, "redis.internal:6380", config.Storage.Redis.Addr())
	assert.Equal(t, "secret", config.Storage.Redis.Password)
	assert.Equal(t, "prod", config.Storage.Namespace)
	assert.Equal(t, 72*time.Hour, config.Storage.Retention)

	assert.Equal(t, "corp-1", config.WeCom.CorpID)
	assert.Equal(t, 1000002, config.WeCom.AgentID)
	assert.Equal(t, "agent-secret", config.WeCom.AgentSecret)
}

// TestMustLoadAppliesDefaults 仅提供凭据时其余字段填充默认值
func TestMustLoadAppliesDefaults(t *testing.T) {
	configPath := writeConfigFile(t, `
WeCom:
  CorpID: "corp-1"
  AgentID: 1
  AgentSecret: "s"
`)

	config := MustLoad(configPath)

	assert.Equal(t, DefaultHTTPAddress, config.App.Addr)
	assert.Equal(t, DefaultBaseURL, config.App.BaseURL)
	assert.Equal(t, DefaultRequestTimeout, config.App.RequestTimeout)
	assert.Equal(t, DefaultTokenLength, config.App.TokenLength)

	assert.Equal(t, DefaultNamespace, config.Storage.Namespace)
	assert.Equal(t, "127.0.0.1:6379", config.Storage.Redis.Addr())
	assert.False(t, config.Storage.Redis.Enabled)
	assert.Empty(t, config.Storage.FilePath)
	assert.Zero(t, config.Storage.Retention)
}

// TestMustLoadMissingFile 配置文件不存在时 panic
func TestMustLoadMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "absent.yaml"))
	})
}

// TestMustLoadInvalidYAML 配置文件格式错误时 panic
func TestMustLoadInvalidYAML(t *testing.T) {
	configPath := writeConfigFile(t, "App: [not a mapping")

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

// TestValidateRequiresWeComCredentials 企业微信凭据缺失属于启动错误
func TestValidateRequiresWeComCredentials(t *testing.T) {
	testCases := []struct {
		name  string
		wecom WeCom
	}{
		{name: "missing corp id", wecom: WeCom{AgentID: 1, AgentSecret: "s"}},
		{name: "missing agent id", wecom: WeCom{CorpID: "c", AgentSecret: "s"}},
		{name: "missing agent secret", wecom: WeCom{CorpID: "c", AgentID: 1}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			config := Config{WeCom: testCase.wecom}
			assert.Error(t, config.Validate())
		})
	}
}

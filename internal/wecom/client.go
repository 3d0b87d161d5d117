// Package wecom 提供企业微信应用消息推送能力
// 封装 gettoken 与 message/send 两个接口,对上层暴露统一的文本卡片发送入口
package wecom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ==================== 常量定义 ====================

const (
	// DefaultAPIBase 企业微信开放接口地址
	DefaultAPIBase = "https://qyapi.weixin.qq.com"

	gettokenPath    = "/cgi-bin/gettoken"
	messageSendPath = "/cgi-bin/message/send"

	msgTypeTextCard = "textcard"

	// tokenExpiryMargin 令牌提前刷新余量
	// 官方令牌有效期 7200 秒,提前一段时间刷新避免边界失效
	tokenExpiryMargin = 5 * time.Minute

	// 企业微信错误码
	errCodeOK                 = 0
	errCodeInvalidCredential  = 40014 // access_token 不合法
	errCodeCredentialExpired  = 42001 // access_token 已过期
	defaultTextCardButtonText = "详情"
)

// ==================== 错误定义 ====================

var (
	// ErrTokenFetchFailed 获取访问令牌失败
	ErrTokenFetchFailed = errors.New("failed to fetch wecom access token")

	// ErrSendFailed 消息投递失败(网络故障或非零错误码)
	ErrSendFailed = errors.New("wecom message send failed")
)

// ==================== 接口定义 ====================

// TextCard 文本卡片消息
// 推送载荷无法携带完整正文,description 截断展示,url 指向完整内容页
type TextCard struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ToUser      string `json:"-"`
	URL         string `json:"url"`
	ButtonText  string `json:"btntxt,omitempty"`
}

// Pusher 消息推送器接口
// 无状态适配器:给定卡片内容返回成功或失败,不重试、不记账
type Pusher interface {
	PushTextCard(ctx context.Context, card TextCard) error
}

// ==================== 客户端实现 ====================

// Client 企业微信推送客户端
// 缓存访问令牌直至过期,令牌失效时在单次调用内刷新重发一次
type Client struct {
	corpID     string
	agentID    int
	corpSecret string
	apiBase    string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient 创建企业微信客户端实例
func NewClient(corpID string, agentID int, corpSecret string, timeout time.Duration) *Client {
	return &Client{
		corpID:     corpID,
		agentID:    agentID,
		corpSecret: corpSecret,
		apiBase:    DefaultAPIBase,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetAPIBase 覆盖接口地址(测试用)
func (client *Client) SetAPIBase(apiBase string) {
	client.apiBase = apiBase
}

// PushTextCard 推送文本卡片消息
// errcode 为 0 视为成功;令牌失效错误码触发一次强制刷新后重发
func (client *Client) PushTextCard(ctx context.Context, card TextCard) error {
	errCode, err := client.sendOnce(ctx, card, false)
	if err != nil {
		return err
	}

	if errCode == errCodeOK {
		return nil
	}

	if !isTokenExpiredCode(errCode) {
		return fmt.Errorf("%w: errcode=%d", ErrSendFailed, errCode)
	}

	log.Printf("[WeCom] 访问令牌失效(errcode=%d),刷新后重发", errCode)

	errCode, err = client.sendOnce(ctx, card, true)
	if err != nil {
		return err
	}

	if errCode != errCodeOK {
		return fmt.Errorf("%w: errcode=%d", ErrSendFailed, errCode)
	}

	return nil
}

// ==================== 私有方法：消息发送 ====================

// sendPayload 消息发送请求体
type sendPayload struct {
	ToUser   string   `json:"touser"`
	MsgType  string   `json:"msgtype"`
	AgentID  int      `json:"agentid"`
	TextCard TextCard `json:"textcard"`
}

// sendResponse 消息发送响应体
type sendResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// sendOnce 执行一次消息发送
// forceRefresh 为 true 时跳过令牌缓存
func (client *Client) sendOnce(ctx context.Context, card TextCard, forceRefresh bool) (int, error) {
	accessToken, err := client.getAccessToken(ctx, forceRefresh)
	if err != nil {
		return 0, err
	}

	if card.ButtonText == "" {
		card.ButtonText = defaultTextCardButtonText
	}

	payload := sendPayload{
		ToUser:   card.ToUser,
		MsgType:  msgTypeTextCard,
		AgentID:  client.agentID,
		TextCard: card,
	}

	sendURL := client.apiBase + messageSendPath + "?access_token=" + url.QueryEscape(accessToken)

	var response sendResponse
	if err := client.postJSON(ctx, sendURL, payload, &response); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if response.ErrCode != errCodeOK {
		log.Printf("[WeCom] 发送返回非零错误码: errcode=%d, errmsg=%s", response.ErrCode, response.ErrMsg)
	}

	return response.ErrCode, nil
}

// isTokenExpiredCode 判断错误码是否为令牌失效类错误
func isTokenExpiredCode(errCode int) bool {
	return errCode == errCodeInvalidCredential || errCode == errCodeCredentialExpired
}

// ==================== 私有方法：令牌管理 ====================

// tokenResponse 令牌接口响应体
type tokenResponse struct {
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// getAccessToken 获取访问令牌
// 缓存未过期时直接返回,否则同步刷新;互斥锁避免并发重复刷新
func (client *Client) getAccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if !forceRefresh && client.accessToken != "" && time.Now().Before(client.tokenExpiry) {
		return client.accessToken, nil
	}

	tokenURL := fmt.Sprintf(
		"%s%s?corpid=%s&corpsecret=%s",
		client.apiBase,
		gettokenPath,
		url.QueryEscape(client.corpID),
		url.QueryEscape(client.corpSecret),
	)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenFetchFailed, err)
	}

	httpResponse, err := client.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenFetchFailed, err)
	}
	defer httpResponse.Body.Close()

	var response tokenResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrTokenFetchFailed, err)
	}

	if response.ErrCode != errCodeOK || response.AccessToken == "" {
		return "", fmt.Errorf("%w: errcode=%d, errmsg=%s", ErrTokenFetchFailed, response.ErrCode, response.ErrMsg)
	}

	client.accessToken = response.AccessToken
	client.tokenExpiry = time.Now().Add(time.Duration(response.ExpiresIn)*time.Second - tokenExpiryMargin)

	return client.accessToken, nil
}

// ==================== 私有方法：HTTP 辅助 ====================

// postJSON 发送 JSON POST 请求并解析响应
func (client *Client) postJSON(ctx context.Context, requestURL string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	httpResponse, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(httpResponse.Body)
		return fmt.Errorf("unexpected status %d: %s", httpResponse.StatusCode, string(responseBody))
	}

	if err := json.NewDecoder(httpResponse.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

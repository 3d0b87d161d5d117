// Package relay 实现通知中转的核心编排逻辑
// 接收 (标题, 内容, 收件人) 三元组,推送企业微信卡片并按标识符暂存完整内容
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"notify-relay/internal/store"
	"notify-relay/internal/token"
	"notify-relay/internal/wecom"
)

// ==================== 常量定义 ====================

const (
	// retrievePathSegment 内容回看路径段
	// 完整回看地址形如 {baseURL}/wechat/{id}
	retrievePathSegment = "/wechat/"

	// 存储键后缀:一条内容记录拆为标题、正文两个独立键值对
	keySuffixTitle   = "|title"
	keySuffixContent = "|content"

	mailAddressSeparator = "@"
)

// ==================== 错误定义 ====================

var (
	// ErrMissingField 必填字段缺失
	// 校验失败立即返回,不触达推送适配器和存储
	ErrMissingField = errors.New("missing required field")

	// ErrRecordNotFound 内容记录不存在
	// 标题或正文任一键缺失(或过期)即视为整体不存在,绝不返回半条记录
	ErrRecordNotFound = errors.New("content record not found")
)

// ==================== 配置与构造 ====================

// Options 编排服务配置
type Options struct {
	BaseURL     string        // 回看链接的基础地址
	TokenLength int           // 标识符长度
	Retention   time.Duration // 内容保留时长,0 表示永不过期
}

// Service 通知中转编排服务
// 仅依赖 Store 与 Pusher 两个能力接口,对具体后端和推送实现无感知
type Service struct {
	store   store.Store
	pusher  wecom.Pusher
	options Options
}

// NewService 创建编排服务实例
func NewService(contentStore store.Store, pusher wecom.Pusher, options Options) *Service {
	if options.TokenLength <= 0 {
		options.TokenLength = token.DefaultLength
	}

	return &Service{
		store:   contentStore,
		pusher:  pusher,
		options: options,
	}
}

// ==================== 中转入口 ====================

// Relay 执行一次通知中转,返回生成的内容标识符
// 流程:校验 → 生成标识符 → 推送卡片 → 推送成功后写入存储
// 推送与写入之间无原子性保证,写入失败仅记录日志(链接将 404,消息已送达)
func (service *Service) Relay(ctx context.Context, title, content, recipient string) (string, error) {
	if err := validateFields(title, content, recipient); err != nil {
		return "", err
	}

	id := token.Generate(service.options.TokenLength)
	retrieveURL := service.buildRetrieveURL(id)

	card := wecom.TextCard{
		Title:       title,
		Description: content,
		ToUser:      recipient,
		URL:         retrieveURL,
	}

	if err := service.pusher.PushTextCard(ctx, card); err != nil {
		return "", err
	}

	service.saveContent(ctx, id, title, content)
	log.Printf("[Relay] %s|%s|%s", id, title, content)

	return id, nil
}

// RelayMail 从邮件回调载荷中提取三元组后走相同的中转流程
// subject → 标题,body-plain → 内容,收件地址 @ 前的本地部分 → 收件人
func (service *Service) RelayMail(ctx context.Context, subject, bodyPlain, recipient string) (string, error) {
	localPart, _, _ := strings.Cut(recipient, mailAddressSeparator)
	return service.Relay(ctx, subject, bodyPlain, localPart)
}

// Retrieve 按标识符读取内容记录
// 标题与正文两个键都存在才构成有效记录
func (service *Service) Retrieve(ctx context.Context, id string) (string, string, error) {
	title, err := service.store.Get(ctx, id+keySuffixTitle)
	if err != nil {
		return "", "", normalizeGetError(err)
	}

	content, err := service.store.Get(ctx, id+keySuffixContent)
	if err != nil {
		return "", "", normalizeGetError(err)
	}

	return title, content, nil
}

// ==================== 私有方法 ====================

// validateFields 校验三元组的必填字段
func validateFields(title, content, recipient string) error {
	if title == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}

	if content == "" {
		return fmt.Errorf("%w: content", ErrMissingField)
	}

	if recipient == "" {
		return fmt.Errorf("%w: recipient", ErrMissingField)
	}

	return nil
}

// buildRetrieveURL 拼接内容回看地址
func (service *Service) buildRetrieveURL(id string) string {
	return strings.TrimSuffix(service.options.BaseURL, "/") + retrievePathSegment + id
}

// saveContent 将标题与正文写入存储
// 配置了保留时长时采用条件写入,避免延长碰撞键的生命周期;
// 存储故障按尽力而为处理,只记日志不向上传播
func (service *Service) saveContent(ctx context.Context, id, title, content string) {
	service.saveEntry(ctx, id+keySuffixTitle, title)
	service.saveEntry(ctx, id+keySuffixContent, content)
}

// saveEntry 写入单个键值
func (service *Service) saveEntry(ctx context.Context, key, value string) {
	if service.options.Retention <= 0 {
		if err := service.store.Put(ctx, key, value); err != nil {
			log.Printf("[Relay] 存储写入失败(消息已送达,链接将失效): key=%s, err=%v", key, err)
		}
		return
	}

	inserted, err := service.store.PutWithTTL(ctx, key, value, service.options.Retention)
	if err != nil {
		log.Printf("[Relay] 存储写入失败(消息已送达,链接将失效): key=%s, err=%v", key, err)
		return
	}

	if !inserted {
		log.Printf("[Relay] 标识符碰撞,保留已有记录: key=%s", key)
	}
}

// normalizeGetError 归一化读取错误
// 键不存在映射为记录不存在,其余错误原样向上传播以便区分后端故障
func normalizeGetError(err error) error {
	if errors.Is(err, store.ErrKeyNotFound) {
		return ErrRecordNotFound
	}
	return err
}

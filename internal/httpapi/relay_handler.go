// Package httpapi 提供通知中转的 HTTP 处理器
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"

	"notify-relay/internal/relay"
)

// ==================== 常量定义 ====================

const (
	// 响应体常量:纯文本协议,无结构化错误载荷
	responseOK   = "ok"
	responseFail = "fail"

	// 表单字段名:直接中转入口
	fieldTitle   = "title"
	fieldContent = "content"
	fieldUser    = "user"

	// 表单字段名:邮件回调入口(Mailgun 风格)
	fieldSubject   = "subject"
	fieldBodyPlain = "body-plain"
	fieldRecipient = "recipient"
)

// ==================== 接口定义 ====================

// Service 中转服务接口
// 由 relay.Service 实现,接口化便于处理器单测
type Service interface {
	Relay(ctx context.Context, title, content, recipient string) (string, error)
	RelayMail(ctx context.Context, subject, bodyPlain, recipient string) (string, error)
	Retrieve(ctx context.Context, id string) (string, string, error)
}

// ==================== 中转处理器 ====================

// relayCall 从表单提取字段并调用服务的函数签名
type relayCall func(ctx context.Context, request *http.Request, service Service) (string, error)

// RelayHandler 通知中转处理器
// 两个入口共用同一处理器结构,仅字段提取方式不同
type RelayHandler struct {
	service Service
	name    string
	call    relayCall
}

// NewRelayHandler 创建直接中转处理器
// 处理 POST /wechat,表单字段 title/content/user
func NewRelayHandler(service Service) *RelayHandler {
	return &RelayHandler{
		service: service,
		name:    "Relay",
		call: func(ctx context.Context, request *http.Request, service Service) (string, error) {
			return service.Relay(
				ctx,
				request.PostFormValue(fieldTitle),
				request.PostFormValue(fieldContent),
				request.PostFormValue(fieldUser),
			)
		},
	}
}

// NewMailRelayHandler 创建邮件回调中转处理器
// 处理 POST /mail2wechat,表单字段 subject/body-plain/recipient
func NewMailRelayHandler(service Service) *RelayHandler {
	return &RelayHandler{
		service: service,
		name:    "MailRelay",
		call: func(ctx context.Context, request *http.Request, service Service) (string, error) {
			return service.RelayMail(
				ctx,
				request.PostFormValue(fieldSubject),
				request.PostFormValue(fieldBodyPlain),
				request.PostFormValue(fieldRecipient),
			)
		},
	}
}

// ServeHTTP 实现 http.Handler 接口
// 响应契约:成功返回 "ok",任何失败返回 "fail",均为纯文本
func (handler *RelayHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writePlainText(writer, http.StatusMethodNotAllowed, responseFail)
		return
	}

	if err := request.ParseForm(); err != nil {
		log.Printf("[%s] 表单解析失败: %v", handler.name, err)
		writePlainText(writer, http.StatusOK, responseFail)
		return
	}

	id, err := handler.call(request.Context(), request, handler.service)
	if err != nil {
		handler.logFailure(err)
		writePlainText(writer, http.StatusOK, responseFail)
		return
	}

	log.Printf("[%s] 中转完成: id=%s", handler.name, id)
	writePlainText(writer, http.StatusOK, responseOK)
}

// logFailure 按失败类型记录日志
// 校验失败与投递失败分开记录,便于排查
func (handler *RelayHandler) logFailure(err error) {
	if errors.Is(err, relay.ErrMissingField) {
		log.Printf("[%s] 请求校验失败: %v", handler.name, err)
		return
	}

	log.Printf("[%s] 推送投递失败: %v", handler.name, err)
}

// ==================== 辅助函数 ====================

// writePlainText 写出纯文本响应
func writePlainText(writer http.ResponseWriter, statusCode int, body string) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(statusCode)
	_, _ = writer.Write([]byte(body))
}

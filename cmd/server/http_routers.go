package main

import (
	"errors"
	"io"
	"log"
	"net/http"

	"notify-relay/internal/assets"
	"notify-relay/internal/httpapi"
	"notify-relay/internal/relay"

	"github.com/gin-gonic/gin"
)

//
// 接口定义
//

// TemplateExecutor 模板执行器接口
// 用于渲染 HTML 模板
type TemplateExecutor interface {
	Execute(writer io.Writer, data interface{}) error
}

//
// 中间件
//

// corsMiddleware 跨域资源共享中间件
// 允许所有来源访问,便于前端开发和集成
// 生产环境建议根据需求配置白名单
func corsMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		context.Header("Access-Control-Allow-Origin", "*")
		context.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		context.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if context.Request.Method == "OPTIONS" {
			context.AbortWithStatus(http.StatusNoContent)
			return
		}

		context.Next()
	}
}

//
// 处理器 - 内容回看页面
//

// detailPageData 内容详情页模板数据
type detailPageData struct {
	Title   string
	Content string
}

// PageHandler 内容回看页面处理器
type PageHandler struct {
	service httpapi.Service
}

// NewPageHandler 创建页面处理器实例
func NewPageHandler(service httpapi.Service) *PageHandler {
	return &PageHandler{service: service}
}

// handleDetailPage 渲染内容详情页
// 记录不存在与标识符猜测不可区分,统一返回错误页
func (handler *PageHandler) handleDetailPage(context *gin.Context) {
	id := context.Param("id")

	title, content, err := handler.service.Retrieve(context.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, relay.ErrRecordNotFound) {
			log.Printf("[PageHandler] 存储读取失败: %v", err)
		}

		handler.renderTemplate(context, http.StatusNotFound, assets.ErrorTpl, nil)
		return
	}

	handler.renderTemplate(context, http.StatusOK, assets.DetailTpl, detailPageData{
		Title:   title,
		Content: content,
	})
}

// renderTemplate 渲染 HTML 模板的通用方法
// 集中处理模板错误,避免在每个页面处理器中重复代码
func (handler *PageHandler) renderTemplate(
	context *gin.Context,
	statusCode int,
	template TemplateExecutor,
	data interface{},
) {
	context.Header("Content-Type", "text/html; charset=utf-8")
	context.Status(statusCode)

	if err := template.Execute(context.Writer, data); err != nil {
		log.Printf("[PageHandler] 模板渲染失败: %v", err)
		context.String(http.StatusInternalServerError, "页面渲染失败")
	}
}

//
// 路由构建主函数
//

// BuildGinRouter 构建 Gin 路由器
// 集中管理所有 HTTP 路由:中转入口、邮件回调入口、内容回看页
func BuildGinRouter(app *AppContext) *gin.Engine {
	router := gin.Default()

	// 应用全局中间件
	router.Use(corsMiddleware())

	pageHandler := NewPageHandler(app.RelayService)

	router.POST("/wechat", gin.WrapH(httpapi.NewRelayHandler(app.RelayService)))
	router.POST("/mail2wechat", gin.WrapH(httpapi.NewMailRelayHandler(app.RelayService)))
	router.GET("/wechat/:id", pageHandler.handleDetailPage)

	return router
}

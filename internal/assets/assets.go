package assets

import (
	"embed"
	"html/template"
)

//go:embed webui/*
var WebFS embed.FS

// 预解析模板，按需扩展
var (
	DetailTpl = template.Must(template.ParseFS(WebFS, "webui/wechat.html"))
	ErrorTpl  = template.Must(template.ParseFS(WebFS, "webui/error.html"))
)

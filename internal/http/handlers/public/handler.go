package public

import "github.com/redactor-pro/license-api/internal/provider"

// Handler 公开接口处理器入口
// 说明：该处理器承载桌面客户端与 Ko-fi 回调使用的对外 API。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

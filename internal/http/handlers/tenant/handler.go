package tenant

import "github.com/tixgate/internal/provider"

// Handler 主办方（租户）接口处理器入口
// 说明：所有接口均经过租户 JWT 与角色鉴权，主办方 ID 只取自令牌。
type Handler struct {
	*provider.Container
}

// New 创建租户处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

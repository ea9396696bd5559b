package public

import (
	handlershared "github.com/tixgate/internal/http/handlers/shared"
	"github.com/tixgate/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 公开接口处理器入口
// 说明：该处理器仅用于无需租户令牌的接口（支付回调、健康检查）。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

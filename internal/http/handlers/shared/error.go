package shared

import (
	"github.com/tixgate/internal/http/response"
	"github.com/tixgate/internal/i18n"
	"github.com/tixgate/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString(requestIDKey); id != "" {
		return logger.SW(requestIDKey, id)
	}
	return logger.S()
}

// RespondError 按请求语言返回错误文案；带原始错误时记录日志，5xx 记为 error 级别。
func RespondError(c *gin.Context, code int, key string, err error) {
	appErr := response.NewAppError(code, key, i18n.T(i18n.ResolveLocale(c), key), err)
	if err != nil {
		log := RequestLog(c).With(
			"code", appErr.Code,
			"key", appErr.Key,
			"path", c.FullPath(),
			"error", err,
		)
		if appErr.Internal() {
			log.Errorw("handler_error")
		} else {
			log.Warnw("handler_rejected")
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}

package shared

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// ContextUint 读取中间件写入的数字标识，缺失、非法或为 0 时返回 false。
func ContextUint(c *gin.Context, key string) (uint, bool) {
	if c == nil {
		return 0, false
	}
	value, exists := c.Get(key)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		if v < 0 {
			return 0, false
		}
	case int64:
		if v < 0 {
			return 0, false
		}
	case float64:
		if v < 0 {
			return 0, false
		}
	}
	id, err := cast.ToUintE(value)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

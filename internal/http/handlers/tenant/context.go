package tenant

import (
	"strconv"
	"strings"

	handlershared "github.com/tixgate/internal/http/handlers/shared"
	"github.com/tixgate/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 租户中间件写入的上下文键
const (
	ContextOrganizerID = "organizer_id"
	ContextMemberID    = "member_id"
	ContextMemberRole  = "member_role"
)

func getOrganizerID(c *gin.Context) (uint, bool) {
	organizerID, ok := handlershared.ContextUint(c, ContextOrganizerID)
	if !ok {
		respondError(c, response.CodeUnauthorized, "error.token_invalid", nil)
		return 0, false
	}
	return organizerID, true
}

func parseIDParam(c *gin.Context, invalidKey string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return uint(id), true
}

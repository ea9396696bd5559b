package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tixgate/internal/authz"
	"github.com/tixgate/internal/config"
	handlershared "github.com/tixgate/internal/http/handlers/shared"
	tenanthandlers "github.com/tixgate/internal/http/handlers/tenant"
	"github.com/tixgate/internal/http/response"
	"github.com/tixgate/internal/i18n"
	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey       = "request_id"
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 64
)

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
		"X-Locale",
	}
)

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件；预检请求直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	origins := orDefault(cfg.AllowedOrigins, []string{"*"})
	static := map[string]string{
		"Access-Control-Allow-Methods": strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		"Access-Control-Allow-Headers": strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	if cfg.AllowCredentials {
		static["Access-Control-Allow-Credentials"] = "true"
	}
	if cfg.MaxAge > 0 {
		static["Access-Control-Max-Age"] = strconv.Itoa(cfg.MaxAge)
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		if allowed := resolveAllowedOrigin(c.GetHeader("Origin"), origins, cfg.AllowCredentials); allowed != "" {
			header.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				header.Add("Vary", "Origin")
			}
		}
		for key, value := range static {
			header.Set(key, value)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// resolveAllowedOrigin 携带凭证时通配符回显请求来源
func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		if allowed != "*" {
			continue
		}
		if allowCredentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 沿用上游 X-Request-ID，缺失或不合法时生成新值
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}

// LoggerMiddleware 请求日志；5xx 记 error，4xx 记 warn
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if organizerID, ok := handlershared.ContextUint(c, tenanthandlers.ContextOrganizerID); ok {
			fields = append(fields, "organizer_id", organizerID)
		}
		switch {
		case len(c.Errors) > 0 || status >= http.StatusInternalServerError:
			sugar.Errorw("request", append(fields, "errors", c.Errors.String())...)
		case status >= http.StatusBadRequest:
			sugar.Warnw("request", fields...)
		default:
			sugar.Infow("request", fields...)
		}
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}

// TenantJWTAuthMiddleware 主办方 ID、成员与角色只取自令牌
func TenantJWTAuthMiddleware(secretKey string, authService *service.TenantAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch {
		case strings.TrimSpace(secretKey) == "":
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		case authService == nil:
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "error.auth_header_missing")
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}
		claims, err := authService.ParseJWT(token)
		if err != nil {
			logger.Debugw("tenant_jwt_rejected", "request_id", getRequestID(c), "error", err)
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		c.Set(tenanthandlers.ContextOrganizerID, claims.OrganizerID)
		c.Set(tenanthandlers.ContextMemberID, claims.MemberID)
		c.Set(tenanthandlers.ContextMemberRole, claims.Role)
		c.Next()
	}
}

// TenantRBACMiddleware 按路由模板与方法校验成员角色
func TenantRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("tenant_rbac_service_unavailable")
			abortUnauthorized(c, "error.authz_unavailable")
			return
		}
		role := strings.TrimSpace(c.GetString(tenanthandlers.ContextMemberRole))
		if role == "" {
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		resource := c.FullPath()
		if resource == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceRole(role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("tenant_rbac_enforce_failed",
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("tenant_rbac_permission_denied",
				"organizer_id", c.GetUint(tenanthandlers.ContextOrganizerID),
				"role", role,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}

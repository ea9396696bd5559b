package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tixgate/internal/authz"
	"github.com/tixgate/internal/cache"
	"github.com/tixgate/internal/config"
	publichandlers "github.com/tixgate/internal/http/handlers/public"
	tenanthandlers "github.com/tixgate/internal/http/handlers/tenant"
	"github.com/tixgate/internal/http/response"
	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/provider"

	"github.com/gin-gonic/gin"
)

const tenantRoutePrefix = "/api/v1/"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按公开/租户分组）
	publicHandler := publichandlers.New(c)
	tenantHandler := tenanthandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "tg"
	}
	callbackRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:payment_callback", redisPrefix),
		WindowSeconds: cfg.Security.CallbackRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CallbackRateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", publicHandler.Healthz)

	apiV1 := r.Group("/api/v1")
	{
		// 支付回调（无令牌，依靠提供方签名与路径中的租户凭证验签）
		callback := RateLimitMiddleware(cache.Client(), callbackRule, KeyByIP)
		apiV1.POST("/payments/callback/:provider_id/:organizer_id", callback, publicHandler.PaymentCallback)
		apiV1.GET("/payments/callback/:provider_id/:organizer_id", callback, publicHandler.PaymentCallback)

		// 租户接口
		tenant := apiV1.Group("")
		tenant.Use(TenantJWTAuthMiddleware(cfg.JWT.SecretKey, c.TenantAuthService))
		{
			tenant.GET("/authz/me", func(ctx *gin.Context) {
				respondTenantPermissions(ctx, r, c.AuthzService)
			})

			authorized := tenant.Group("")
			authorized.Use(TenantRBACMiddleware(c.AuthzService))
			{
				// 支付
				authorized.POST("/payments/initiate", tenantHandler.InitiatePayment)
				authorized.GET("/payments", tenantHandler.ListPayments)
				authorized.GET("/payments/:id/status", tenantHandler.GetPaymentStatus)

				// 支付提供方
				authorized.GET("/payment-providers/available", tenantHandler.ListAvailableProviders)
				authorized.GET("/payment-providers", tenantHandler.ListProviderConfigs)
				authorized.POST("/payment-providers", tenantHandler.CreateProviderConfig)
				authorized.GET("/payment-providers/:id", tenantHandler.GetProviderConfig)
				authorized.PUT("/payment-providers/:id", tenantHandler.UpdateProviderConfig)
				authorized.POST("/payment-providers/:id/default", tenantHandler.SetDefaultProviderConfig)
				authorized.DELETE("/payment-providers/:id", tenantHandler.DeleteProviderConfig)
			}
		}
	}

	return r
}

type tenantPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func respondTenantPermissions(c *gin.Context, r *gin.Engine, authzService *authz.Service) {
	role, _ := c.Get(tenanthandlers.ContextMemberRole)
	roleName, _ := role.(string)

	allowed := make([]tenantPermissionCatalogItem, 0)
	for _, item := range buildTenantPermissionCatalog(r) {
		ok, err := authzService.EnforceRole(roleName, item.Object, item.Method)
		if err != nil {
			logger.Warnw("tenant_permission_catalog_enforce_failed", "role", roleName, "error", err)
			continue
		}
		if ok {
			allowed = append(allowed, item)
		}
	}
	response.Success(c, gin.H{
		"organizer_id": c.GetUint(tenanthandlers.ContextOrganizerID),
		"member_id":    c.GetUint(tenanthandlers.ContextMemberID),
		"role":         roleName,
		"permissions":  allowed,
	})
}

// buildTenantPermissionCatalog 从已注册路由生成租户权限目录
func buildTenantPermissionCatalog(r *gin.Engine) []tenantPermissionCatalogItem {
	if r == nil {
		return []tenantPermissionCatalogItem{}
	}
	routes := r.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]tenantPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, tenantRoutePrefix) {
			continue
		}
		if strings.HasPrefix(item.Path, "/api/v1/payments/callback/") || item.Path == "/api/v1/authz/me" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, tenantPermissionCatalogItem{
			Module:     deriveTenantPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveTenantPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	return strings.Split(normalized, "/")[0]
}

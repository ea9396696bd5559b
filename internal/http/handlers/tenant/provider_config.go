package tenant

import (
	"fmt"
	"time"

	"github.com/tixgate/internal/cache"
	"github.com/tixgate/internal/http/response"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/payment"
	"github.com/tixgate/internal/service"

	"github.com/gin-gonic/gin"
)

const providerConfigsCacheTTL = 60 * time.Second

func providerConfigsCacheKey(organizerID uint) string {
	return fmt.Sprintf("tenant:%d:provider_configs", organizerID)
}

// invalidateProviderConfigs 配置变更后清除租户列表缓存
func invalidateProviderConfigs(c *gin.Context, organizerID uint) {
	if err := cache.Del(c.Request.Context(), providerConfigsCacheKey(organizerID)); err != nil {
		requestLog(c).Warnw("tenant_provider_configs_cache_invalidate_failed", "organizer_id", organizerID, "error", err)
	}
}

// CreateProviderConfigRequest 接入支付提供方请求
type CreateProviderConfigRequest struct {
	ProviderID  string                 `json:"provider_id" binding:"required"`
	DisplayName string                 `json:"display_name"`
	Credentials map[string]interface{} `json:"credentials" binding:"required"`
	Settings    map[string]interface{} `json:"settings"`
	IsActive    *bool                  `json:"is_active"`
	IsDefault   bool                   `json:"is_default"`
}

// UpdateProviderConfigRequest 更新提供方配置请求，未传字段保持不变
type UpdateProviderConfigRequest struct {
	DisplayName *string                `json:"display_name"`
	Credentials map[string]interface{} `json:"credentials"`
	Settings    map[string]interface{} `json:"settings"`
	IsActive    *bool                  `json:"is_active"`
	IsDefault   *bool                  `json:"is_default"`
}

// ListAvailableProviders 平台已注册的支付提供方
func (h *Handler) ListAvailableProviders(c *gin.Context) {
	response.Success(c, h.PaymentGatewayService.AvailableProviders())
}

// ListProviderConfigs 租户已接入的支付提供方
func (h *Handler) ListProviderConfigs(c *gin.Context) {
	organizerID, ok := getOrganizerID(c)
	if !ok {
		return
	}
	cacheKey := providerConfigsCacheKey(organizerID)
	var cached []models.PaymentProviderConfig
	if hit, err := cache.GetJSON(c.Request.Context(), cacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}
	configs, err := h.ProviderConfigService.ListProviderConfigs(organizerID)
	if err != nil {
		respondWithMappedError(c, err, providerConfigErrorRules, response.CodeInternal, "error.provider_config_fetch_failed")
		return
	}
	_ = cache.SetJSON(c.Request.Context(), cacheKey, configs, providerConfigsCacheTTL)
	response.Success(c, configs)
}

// GetProviderConfig 单个配置详情，跨租户按不存在处理
func (h *Handler) GetProviderConfig(c *gin.Context) {
	organizerID, ok := getOrganizerID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "error.provider_config_invalid")
	if !ok {
		return
	}
	cfg, err := h.ProviderConfigService.GetProviderConfig(organizerID, id)
	if err != nil {
		respondWithMappedError(c, err, providerConfigErrorRules, response.CodeInternal, "error.provider_config_fetch_failed")
		return
	}
	response.Success(c, cfg)
}

// CreateProviderConfig 接入支付提供方（凭证加密存储）
func (h *Handler) CreateProviderConfig(c *gin.Context) {
	organizerID, ok := getOrganizerID(c)
	if !ok {
		return
	}
	var req CreateProviderConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	cfg, err := h.ProviderConfigService.CreateProviderConfig(service.CreateProviderConfigInput{
		OrganizerID: organizerID,
		ProviderID:  req.ProviderID,
		DisplayName: req.DisplayName,
		Credentials: payment.Credentials(req.Credentials),
		Settings:    models.JSON(req.Settings),
		IsActive:    req.IsActive,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		respondProviderConfigError(c, err)
		return
	}
	requestLog(c).Infow("tenant_provider_config_created",
		"organizer_id", organizerID,
		"provider_config_id", cfg.ID,
		"provider_id", cfg.ProviderID,
	)
	invalidateProviderConfigs(c, organizerID)
	response.Success(c, cfg)
}

// UpdateProviderConfig 更新提供方配置
func (h *Handler) UpdateProviderConfig(c *gin.Context) {
	organizerID, ok := getOrganizerID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "error.provider_config_invalid")
	if !ok {
		return
	}
	var req UpdateProviderConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	input := service.UpdateProviderConfigInput{
		OrganizerID: organizerID,
		ID:          id,
		DisplayName: req.DisplayName,
		IsActive:    req.IsActive,
		IsDefault:   req.IsDefault,
	}
	if req.Credentials != nil {
		input.Credentials = payment.Credentials(req.Credentials)
	}
	if req.Settings != nil {
		input.Settings = models.JSON(req.Settings)
	}
	cfg, err := h.ProviderConfigService.UpdateProviderConfig(input)
	if err != nil {
		respondProviderConfigError(c, err)
		return
	}
	requestLog(c).Infow("tenant_provider_config_updated",
		"organizer_id", organizerID,
		"provider_config_id", cfg.ID,
		"credentials_rotated", req.Credentials != nil,
	)
	invalidateProviderConfigs(c, organizerID)
	response.Success(c, cfg)
}

// SetDefaultProviderConfig 设为默认提供方
func (h *Handler) SetDefaultProviderConfig(c *gin.Context) {
	organizerID, ok := getOrganizerID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "error.provider_config_invalid")
	if !ok {
		return
	}
	cfg, err := h.ProviderConfigService.SetDefaultProviderConfig(organizerID, id)
	if err != nil {
		respondProviderConfigError(c, err)
		return
	}
	invalidateProviderConfigs(c, organizerID)
	response.Success(c, cfg)
}

// DeleteProviderConfig 停用提供方配置（软删除）
func (h *Handler) DeleteProviderConfig(c *gin.Context) {
	organizerID, ok := getOrganizerID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "error.provider_config_invalid")
	if !ok {
		return
	}
	if err := h.ProviderConfigService.RemoveProviderConfig(organizerID, id); err != nil {
		respondProviderConfigError(c, err)
		return
	}
	invalidateProviderConfigs(c, organizerID)
	response.Success(c, gin.H{"deleted": true})
}

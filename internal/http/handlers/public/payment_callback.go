package public

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/payment"
	"github.com/tixgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

const maxCallbackBodyBytes = 64 << 10

var errCallbackBodyTooLarge = errors.New("callback body too large")

// callbackFailureEvent 回调失败原因到日志事件的映射
type callbackFailureEvent struct {
	target error
	event  string
}

var callbackFailureEvents = []callbackFailureEvent{
	{target: service.ErrInvalidSignature, event: "payment_callback_signature_invalid"},
	{target: service.ErrPaymentNotFound, event: "payment_callback_payment_not_found"},
	{target: service.ErrProviderConfigNotFound, event: "payment_callback_config_not_found"},
	{target: service.ErrPaymentProviderNotSupported, event: "payment_callback_provider_not_supported"},
	{target: service.ErrPaymentCallbackInvalid, event: "payment_callback_payload_invalid"},
	{target: service.ErrPaymentCallbackBusy, event: "payment_callback_busy"},
	{target: service.ErrCredentialDecryptFailed, event: "payment_callback_credential_decrypt_failed"},
}

// PaymentCallback 接收支付提供方异步通知
// 路径中的 provider_id / organizer_id 决定使用哪个租户的凭证验签，响应不回显任何错误细节。
func (h *Handler) PaymentCallback(c *gin.Context) {
	log := requestLog(c)
	providerID := strings.ToLower(strings.TrimSpace(c.Param("provider_id")))
	organizerID, err := strconv.ParseUint(strings.TrimSpace(c.Param("organizer_id")), 10, 64)
	if providerID == "" || err != nil || organizerID == 0 {
		log.Warnw("payment_callback_route_invalid",
			"provider_id", providerID,
			"organizer_id", c.Param("organizer_id"),
			"client_ip", c.ClientIP(),
		)
		respondCallback(c, false)
		return
	}
	log = log.With("provider_id", providerID, "organizer_id", organizerID)
	if h == nil || h.Container == nil || h.PaymentGatewayService == nil {
		log.Errorw("payment_callback_service_unavailable")
		respondCallback(c, false)
		return
	}
	if h.Registry != nil && !h.Registry.HasProvider(providerID) {
		log.Warnw("payment_callback_provider_unknown", "client_ip", c.ClientIP())
		respondCallback(c, false)
		return
	}

	cb, err := readCallbackPayload(c)
	if err != nil {
		log.Warnw("payment_callback_payload_unreadable", "client_ip", c.ClientIP(), "error", err)
		respondCallback(c, false)
		return
	}
	log.Infow("payment_callback_received",
		"method", c.Request.Method,
		"client_ip", c.ClientIP(),
		"content_type", strings.TrimSpace(c.ContentType()),
		"form", logger.Redact(cb.Flatten()),
	)

	result, err := h.PaymentGatewayService.HandleProviderCallback(c.Request.Context(), service.ProviderCallbackInput{
		ProviderID:  providerID,
		OrganizerID: uint(organizerID),
		Callback:    cb,
	})
	if err != nil {
		logCallbackFailure(c, err)
		respondCallback(c, false)
		return
	}
	log.Infow("payment_callback_handled",
		"payment_id", result.Payment.ID,
		"status", result.Payment.Status,
		"previous_status", result.PreviousStatus,
		"applied", result.Applied,
		"replayed", result.Replayed,
	)
	respondCallback(c, true)
}

func respondCallback(c *gin.Context, success bool) {
	c.JSON(http.StatusOK, gin.H{"success": success})
}

func logCallbackFailure(c *gin.Context, err error) {
	log := requestLog(c).With(
		"provider_id", strings.ToLower(strings.TrimSpace(c.Param("provider_id"))),
		"organizer_id", c.Param("organizer_id"),
		"client_ip", c.ClientIP(),
	)
	for _, item := range callbackFailureEvents {
		if errors.Is(err, item.target) {
			log.Warnw(item.event, "error", err)
			return
		}
	}
	log.Errorw("payment_callback_failed", "error", err)
}

// readCallbackPayload 读取表单或 JSON 回调；查询参数仅补充表单中不存在的字段
func readCallbackPayload(c *gin.Context) (payment.Callback, error) {
	var body []byte
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBodyBytes+1))
		if err != nil {
			return payment.Callback{}, err
		}
		if len(raw) > maxCallbackBodyBytes {
			return payment.Callback{}, errCallbackBodyTooLarge
		}
		body = raw
	}

	form := url.Values{}
	trimmed := strings.TrimSpace(string(body))
	switch {
	case trimmed == "":
	case strings.Contains(c.ContentType(), "json") || strings.HasPrefix(trimmed, "{"):
		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			return payment.Callback{}, err
		}
		for key, value := range payload {
			form.Set(key, callbackValueString(value))
		}
	default:
		parsed, err := url.ParseQuery(trimmed)
		if err != nil {
			return payment.Callback{}, err
		}
		form = parsed
	}
	for key, values := range c.Request.URL.Query() {
		if _, exists := form[key]; !exists {
			form[key] = values
		}
	}
	return payment.Callback{Form: form, Body: body}, nil
}

func callbackValueString(value interface{}) string {
	switch value.(type) {
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		return cast.ToString(value)
	}
}

package tenant

import (
	"strings"
	"time"

	handlershared "github.com/tixgate/internal/http/handlers/shared"
	"github.com/tixgate/internal/http/response"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/repository"
	"github.com/tixgate/internal/service"

	"github.com/gin-gonic/gin"
)

// InitiatePaymentRequest 发起支付请求
type InitiatePaymentRequest struct {
	OrganizerID         uint                   `json:"organizer_id"`
	ResourceType        string                 `json:"resource_type" binding:"required"`
	ResourceID          string                 `json:"resource_id" binding:"required"`
	Amount              models.Money           `json:"amount"`
	Currency            string                 `json:"currency"`
	Description         string                 `json:"description"`
	ItemName            string                 `json:"item_name"`
	PreferredProviderID string                 `json:"preferred_provider_id"`
	PaymentMethod       string                 `json:"payment_method"`
	ReturnURL           string                 `json:"return_url"`
	Metadata            map[string]interface{} `json:"metadata"`
}

// InitiatePaymentResponse 发起支付响应
type InitiatePaymentResponse struct {
	PaymentID       uint              `json:"payment_id"`
	MerchantTradeNo string            `json:"merchant_trade_no"`
	Status          string            `json:"status"`
	ProviderID      string            `json:"provider_id"`
	Amount          models.Money      `json:"amount"`
	Currency        string            `json:"currency"`
	RedirectURL     string            `json:"redirect_url,omitempty"`
	FormAction      string            `json:"form_action,omitempty"`
	FormParams      map[string]string `json:"form_params,omitempty"`
	ClientSecret    string            `json:"client_secret,omitempty"`
}

// InitiatePayment 为活动报名等资源发起支付
func (h *Handler) InitiatePayment(c *gin.Context) {
	organizerID, ok := getOrganizerID(c)
	if !ok {
		return
	}

	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.OrganizerID != 0 && req.OrganizerID != organizerID {
		requestLog(c).Warnw("tenant_payment_initiate_tenant_mismatch",
			"organizer_id", organizerID,
			"body_organizer_id", req.OrganizerID,
		)
		respondError(c, response.CodeForbidden, "error.tenant_mismatch", nil)
		return
	}

	result, err := h.PaymentGatewayService.InitiatePayment(c.Request.Context(), service.InitiatePaymentInput{
		OrganizerID:         organizerID,
		ResourceType:        req.ResourceType,
		ResourceID:          req.ResourceID,
		Amount:              req.Amount,
		Currency:            req.Currency,
		Description:         req.Description,
		ItemName:            req.ItemName,
		PreferredProviderID: req.PreferredProviderID,
		PaymentMethod:       req.PaymentMethod,
		ReturnURL:           req.ReturnURL,
		ClientIP:            c.ClientIP(),
		Metadata:            models.JSON(req.Metadata),
	})
	if err != nil {
		respondPaymentInitiateError(c, err)
		return
	}

	pay := result.Payment
	response.Success(c, InitiatePaymentResponse{
		PaymentID:       pay.ID,
		MerchantTradeNo: pay.MerchantTradeNo,
		Status:          pay.Status,
		ProviderID:      pay.ProviderID,
		Amount:          pay.FinalAmount,
		Currency:        pay.Currency,
		RedirectURL:     result.RedirectURL,
		FormAction:      result.FormAction,
		FormParams:      result.FormParams,
		ClientSecret:    result.ClientSecret,
	})
}

// GetPaymentStatus 查询支付状态与流水
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	organizerID, ok := getOrganizerID(c)
	if !ok {
		return
	}
	paymentID, ok := parseIDParam(c, "error.payment_invalid")
	if !ok {
		return
	}

	result, err := h.PaymentGatewayService.GetPaymentStatus(organizerID, paymentID)
	if err != nil {
		respondPaymentQueryError(c, err)
		return
	}
	response.Success(c, gin.H{
		"payment":      result.Payment,
		"transactions": result.Transactions,
	})
}

// ListPayments 租户支付列表
func (h *Handler) ListPayments(c *gin.Context) {
	organizerID, ok := getOrganizerID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)

	createdFrom, err := parseQueryTime(c.Query("created_from"), false)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := parseQueryTime(c.Query("created_to"), true)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	payments, total, err := h.PaymentGatewayService.ListPayments(repository.PaymentListFilter{
		Page:            page,
		PageSize:        pageSize,
		OrganizerID:     organizerID,
		Status:          strings.ToLower(strings.TrimSpace(c.Query("status"))),
		ProviderID:      strings.ToLower(strings.TrimSpace(c.Query("provider_id"))),
		ResourceType:    strings.TrimSpace(c.Query("resource_type")),
		ResourceID:      strings.TrimSpace(c.Query("resource_id")),
		MerchantTradeNo: strings.TrimSpace(c.Query("merchant_trade_no")),
		Keyword:         strings.TrimSpace(c.Query("keyword")),
		CreatedFrom:     createdFrom,
		CreatedTo:       createdTo,
	})
	if err != nil {
		respondPaymentQueryError(c, err)
		return
	}

	response.SuccessWithPage(c, payments, response.NewPagination(page, pageSize, total))
}

// parseQueryTime 支持 RFC3339 与 yyyy-MM-dd，日期格式的结束时间取当天末尾
func parseQueryTime(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

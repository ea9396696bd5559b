package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/payment"
	"github.com/tixgate/internal/repository"

	"go.uber.org/zap"
)

const (
	tradeNoTimeLayout      = "060102150405"
	tradeNoMinRandomLength = 4
	tradeNoDefaultLength   = 32
	tradeNoMaxAttempts     = 5
	tradeNoAlphabet        = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// PaymentGatewayService 支付网关编排服务
type PaymentGatewayService struct {
	paymentRepo repository.PaymentRepository
	txnRepo     repository.PaymentTransactionRepository
	configSvc   *ProviderConfigService
	registry    *payment.Registry
	dispatcher  PaymentEventDispatcher
	options     config.PaymentConfig
	now         func() time.Time
}

// NewPaymentGatewayService 创建支付网关服务
func NewPaymentGatewayService(paymentRepo repository.PaymentRepository, txnRepo repository.PaymentTransactionRepository, configSvc *ProviderConfigService, registry *payment.Registry, dispatcher PaymentEventDispatcher, options config.PaymentConfig) *PaymentGatewayService {
	return &PaymentGatewayService{
		paymentRepo: paymentRepo,
		txnRepo:     txnRepo,
		configSvc:   configSvc,
		registry:    registry,
		dispatcher:  dispatcher,
		options:     options,
		now:         time.Now,
	}
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// InitiatePaymentInput 发起支付请求
type InitiatePaymentInput struct {
	OrganizerID         uint
	ResourceType        string
	ResourceID          string
	Amount              models.Money
	DiscountAmount      models.Money
	Currency            string
	Description         string
	ItemName            string
	PreferredProviderID string
	PaymentMethod       string
	ReturnURL           string
	ClientIP            string
	Metadata            models.JSON
}

// InitiatePaymentResult 发起支付结果
type InitiatePaymentResult struct {
	Payment      *models.Payment
	RedirectURL  string
	FormAction   string
	FormParams   map[string]string
	ClientSecret string
}

// PaymentStatusResult 支付状态查询结果
type PaymentStatusResult struct {
	Payment      *models.Payment
	Transactions []models.PaymentTransaction
}

// InitiatePayment 为租户资源创建支付并返回跳转信息
func (s *PaymentGatewayService) InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentResult, error) {
	resourceType := strings.TrimSpace(input.ResourceType)
	resourceID := strings.TrimSpace(input.ResourceID)
	if input.OrganizerID == 0 || resourceType == "" || resourceID == "" {
		return nil, ErrPaymentInvalid
	}
	if !input.Amount.Decimal.IsPositive() {
		return nil, ErrPaymentInvalid
	}
	if input.DiscountAmount.Decimal.IsNegative() {
		return nil, ErrPaymentInvalid
	}
	currency := strings.ToUpper(pickFirstNonEmpty(input.Currency, s.options.DefaultCurrency, constants.DefaultCurrency))
	finalAmount := input.Amount.Minus(input.DiscountAmount)

	log := paymentLogger(
		"organizer_id", input.OrganizerID,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"amount", finalAmount.String(),
		"currency", currency,
	)

	cfg, err := s.configSvc.GetActiveProvider(input.OrganizerID, input.PreferredProviderID)
	if err != nil {
		log.Errorw("payment_initiate_config_fetch_failed", "error", err)
		return nil, ErrPaymentCreateFailed
	}
	if cfg == nil {
		log.Warnw("payment_initiate_no_active_provider")
		return nil, ErrNoActiveProvider
	}
	provider, err := s.registry.GetProvider(cfg.ProviderID)
	if err != nil {
		log.Warnw("payment_initiate_provider_unknown", "provider_id", cfg.ProviderID)
		return nil, ErrPaymentProviderNotSupported
	}
	descriptor := provider.Describe()
	log = log.With("provider_id", descriptor.ID, "provider_config_id", cfg.ID)

	if err := descriptor.CheckAmount(finalAmount.Decimal); err != nil {
		log.Warnw("payment_initiate_amount_out_of_range", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPaymentAmountInvalid, err)
	}
	if !descriptor.SupportsCurrency(currency) {
		log.Warnw("payment_initiate_currency_not_supported")
		return nil, ErrPaymentCurrencyInvalid
	}

	tradeNo, err := s.generateTradeNo(descriptor.MaxTradeNoLength)
	if err != nil {
		log.Errorw("payment_initiate_trade_no_failed", "error", err)
		return nil, ErrPaymentCreateFailed
	}
	now := s.now()
	pay := &models.Payment{
		MerchantTradeNo:  tradeNo,
		OrganizerID:      input.OrganizerID,
		ResourceType:     resourceType,
		ResourceID:       resourceID,
		Amount:           models.NewMoneyFromDecimal(input.Amount.Decimal),
		DiscountAmount:   models.NewMoneyFromDecimal(input.DiscountAmount.Decimal),
		FinalAmount:      finalAmount,
		Currency:         currency,
		Description:      strings.TrimSpace(input.Description),
		ProviderID:       descriptor.ID,
		ProviderConfigID: cfg.ID,
		PaymentMethod:    strings.TrimSpace(input.PaymentMethod),
		Metadata:         input.Metadata,
		Status:           constants.PaymentStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.paymentRepo.Create(pay); err != nil {
		log.Errorw("payment_initiate_persist_failed", "error", err)
		return nil, ErrPaymentCreateFailed
	}
	log = log.With("payment_id", pay.ID, "merchant_trade_no", pay.MerchantTradeNo)
	log.Infow("payment_initiate_created")

	creds, err := s.configSvc.GetDecryptedCredentials(cfg)
	if err != nil {
		log.Errorw("payment_initiate_credentials_decrypt_failed", "error", err)
		s.markInitiateFailed(pay, "credential_decrypt_failed", log)
		return nil, err
	}

	result, err := provider.CreatePayment(ctx, creds, payment.CreateRequest{
		MerchantTradeNo: pay.MerchantTradeNo,
		Amount:          pay.FinalAmount,
		Currency:        pay.Currency,
		Description:     pay.Description,
		ItemName:        pickFirstNonEmpty(input.ItemName, pay.Description),
		PaymentMethod:   pay.PaymentMethod,
		CallbackURL:     s.buildCallbackURL(descriptor.ID, pay.OrganizerID),
		ReturnURL:       strings.TrimSpace(input.ReturnURL),
		ClientIP:        strings.TrimSpace(input.ClientIP),
		Settings:        cfg.Settings,
		CreatedAt:       now,
	})
	if err != nil {
		log.Warnw("payment_initiate_gateway_failed", "error", err)
		s.markInitiateFailed(pay, err.Error(), log)
		return nil, fmt.Errorf("%w: %w", ErrPaymentGatewayRequestFailed, err)
	}

	pay.ProviderResponse = models.JSON(result.Raw)
	pay.RedirectURL = pickFirstNonEmpty(result.RedirectURL, result.FormAction)
	pay.UpdatedAt = s.now()
	if err := s.paymentRepo.Update(pay); err != nil {
		log.Errorw("payment_initiate_update_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}
	log.Infow("payment_initiate_ready", "has_form", len(result.FormParams) > 0)

	return &InitiatePaymentResult{
		Payment:      pay,
		RedirectURL:  result.RedirectURL,
		FormAction:   result.FormAction,
		FormParams:   result.FormParams,
		ClientSecret: result.ClientSecret,
	}, nil
}

func (s *PaymentGatewayService) markInitiateFailed(pay *models.Payment, reason string, log *zap.SugaredLogger) {
	pay.Status = constants.PaymentStatusFailed
	pay.ProviderResponse = models.JSON{"error": reason}
	pay.UpdatedAt = s.now()
	if err := s.paymentRepo.Update(pay); err != nil {
		log.Errorw("payment_initiate_mark_failed_error", "error", err)
	}
}

// GetPaymentStatus 查询租户支付及其流水
func (s *PaymentGatewayService) GetPaymentStatus(organizerID, paymentID uint) (*PaymentStatusResult, error) {
	if organizerID == 0 || paymentID == 0 {
		return nil, ErrPaymentNotFound
	}
	pay, err := s.paymentRepo.GetByOrganizer(organizerID, paymentID)
	if err != nil {
		return nil, err
	}
	if pay == nil {
		return nil, ErrPaymentNotFound
	}
	txns, err := s.txnRepo.ListByPayment(organizerID, pay.ID)
	if err != nil {
		return nil, err
	}
	return &PaymentStatusResult{Payment: pay, Transactions: txns}, nil
}

// ListPayments 租户支付列表
func (s *PaymentGatewayService) ListPayments(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	if filter.OrganizerID == 0 {
		return nil, 0, ErrPaymentInvalid
	}
	return s.paymentRepo.ListByOrganizer(filter)
}

// AvailableProviders 已注册提供方
func (s *PaymentGatewayService) AvailableProviders() []payment.Descriptor {
	return s.registry.Descriptors()
}

func (s *PaymentGatewayService) buildCallbackURL(providerID string, organizerID uint) string {
	base := strings.TrimRight(strings.TrimSpace(s.options.CallbackBaseURL), "/")
	return fmt.Sprintf("%s/payments/callback/%s/%d", base, providerID, organizerID)
}

// generateTradeNo 时间前缀 + 随机后缀，长度受提供方限制
func (s *PaymentGatewayService) generateTradeNo(limit int) (string, error) {
	if limit <= 0 {
		limit = tradeNoDefaultLength
	}
	randomLength := limit - len(tradeNoTimeLayout)
	if randomLength < tradeNoMinRandomLength {
		randomLength = tradeNoMinRandomLength
	}
	for attempt := 0; attempt < tradeNoMaxAttempts; attempt++ {
		candidate := s.now().Format(tradeNoTimeLayout) + randTradeNoSuffix(randomLength)
		if len(candidate) > limit {
			candidate = candidate[len(candidate)-limit:]
		}
		exists, err := s.paymentRepo.ExistsTradeNo(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.New("trade no collision")
}

func randTradeNoSuffix(length int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(tradeNoAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte(tradeNoAlphabet[0])
			continue
		}
		b.WriteByte(tradeNoAlphabet[n.Int64()])
	}
	return b.String()
}

func pickFirstNonEmpty(values ...string) string {
	for _, val := range values {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tixgate/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	ErrProviderNotFound   = errors.New("payment provider not found")
	ErrProviderInvalid    = errors.New("payment provider invalid")
	ErrCredentialsInvalid = errors.New("payment credentials invalid")
	ErrAmountOutOfRange   = errors.New("payment amount out of range")
	ErrRequestInvalid     = errors.New("payment request invalid")
	ErrCallbackInvalid    = errors.New("payment callback invalid")
)

// Provider 支付提供方协议
type Provider interface {
	// Describe 返回提供方元信息
	Describe() Descriptor
	// ValidateCredentials 结构性校验凭证，不做网络请求
	ValidateCredentials(creds Credentials) error
	// CreatePayment 构建带签名的跳转或表单
	CreatePayment(ctx context.Context, creds Credentials, req CreateRequest) (*CreateResult, error)
	// ValidateCallback 校验回调签名
	ValidateCallback(cb Callback, creds Credentials) bool
	// ProcessCallback 将回调映射为统一状态
	ProcessCallback(cb Callback, payment *models.Payment) (*CallbackResult, error)
	// CallbackTradeNo 回调中回传的商户交易号
	CallbackTradeNo(cb Callback) string
}

// Descriptor 提供方元信息
type Descriptor struct {
	ID               string          `json:"id"`
	DisplayName      string          `json:"display_name"`
	MinAmount        decimal.Decimal `json:"min_amount"`
	MaxAmount        decimal.Decimal `json:"max_amount"` // 0 表示不限
	IntegerAmount    bool            `json:"integer_amount"`
	MaxTradeNoLength int             `json:"max_trade_no_length"`
	CredentialFields []string        `json:"credential_fields"`
	Currencies       []string        `json:"currencies,omitempty"`
}

// CheckAmount 校验金额是否在提供方范围内
func (d Descriptor) CheckAmount(amount decimal.Decimal) error {
	if d.IntegerAmount && !amount.Equal(amount.Truncate(0)) {
		return fmt.Errorf("%w: %s requires an integer amount", ErrAmountOutOfRange, d.ID)
	}
	if amount.LessThan(d.MinAmount) {
		return fmt.Errorf("%w: %s below %s", ErrAmountOutOfRange, amount.String(), d.MinAmount.String())
	}
	if d.MaxAmount.IsPositive() && amount.GreaterThan(d.MaxAmount) {
		return fmt.Errorf("%w: %s above %s", ErrAmountOutOfRange, amount.String(), d.MaxAmount.String())
	}
	return nil
}

// SupportsCurrency 未声明币种时视为不限
func (d Descriptor) SupportsCurrency(currency string) bool {
	if len(d.Currencies) == 0 {
		return true
	}
	for _, item := range d.Currencies {
		if strings.EqualFold(item, currency) {
			return true
		}
	}
	return false
}

// Credentials 解密后的凭证
type Credentials map[string]interface{}

// String 读取字符串字段（兼容数字）
func (c Credentials) String(key string) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(c[key]))
}

// CreateRequest 下单请求
type CreateRequest struct {
	MerchantTradeNo string
	Amount          models.Money
	Currency        string
	Description     string
	ItemName        string
	PaymentMethod   string
	CallbackURL     string
	ReturnURL       string
	ClientIP        string
	Settings        models.JSON
	CreatedAt       time.Time
}

// CreateResult 下单结果
type CreateResult struct {
	RedirectURL  string
	FormAction   string
	FormParams   map[string]string
	ClientSecret string
	Raw          map[string]interface{}
}

// Callback 回调原始数据
type Callback struct {
	Form url.Values
	Body []byte
}

// Value 读取回调字段
func (cb Callback) Value(key string) string {
	if cb.Form == nil {
		return ""
	}
	if values, ok := cb.Form[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// Flatten 回调字段转为单值 map
func (cb Callback) Flatten() map[string]string {
	out := make(map[string]string, len(cb.Form))
	for key, values := range cb.Form {
		if len(values) == 0 {
			out[key] = ""
			continue
		}
		out[key] = values[0]
	}
	return out
}

// CallbackResult 统一回调结果
type CallbackResult struct {
	Status                string
	ProviderTransactionID string
	PaymentMethod         string
	Amount                models.Money
	PaidAt                *time.Time
	Message               string
	ProviderResponse      models.JSON
}
